package sse

import (
	"fmt"
	"io"
)

// WriteData writes a single-line data event followed by the blank-line
// event delimiter.
func WriteData(w io.Writer, payload []byte) error {
	_, err := fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}

// WriteComment writes a comment line. Servers use comments as
// keep-alives; conforming readers discard them.
func WriteComment(w io.Writer, text string) error {
	_, err := fmt.Fprintf(w, ": %s\n\n", text)
	return err
}

// WriteDone writes the stream-completion sentinel.
func WriteDone(w io.Writer) error {
	return WriteData(w, []byte(DoneData))
}
