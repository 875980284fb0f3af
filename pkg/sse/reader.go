// Package sse implements the byte-level half of a Server-Sent Events
// consumer as described by the WHATWG spec:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
//
// The transport hands the reader raw byte fragments in whatever sizes
// the network produced; the reader reassembles them into complete,
// trimmed SSE lines. Interpretation of the lines (data payloads, the
// done sentinel) belongs to the caller.
package sse

import "fmt"

// DoneData is the exact data payload marking normal stream completion
// on OpenAI-style streams. Case-sensitive.
const DoneData = "[DONE]"

// DefaultMaxLineLen bounds a single SSE line. A line that grows past
// the bound without a newline indicates a broken or hostile stream.
const DefaultMaxLineLen = 1 << 20 // 1 MiB

// ErrLineTooLong reports a line exceeding the reader's configured
// bound.
type ErrLineTooLong struct {
	Limit int
}

func (e *ErrLineTooLong) Error() string {
	return fmt.Sprintf("sse line exceeds %d bytes", e.Limit)
}

// LineReader turns an ordered sequence of byte fragments into complete
// SSE lines. Fragments may split a line at any byte; the reader keeps
// only the unterminated tail between calls, so memory stays bounded by
// the longest single line seen. Blank lines (event delimiters) and
// comment lines (leading ':') are consumed internally and never
// surfaced.
//
// A LineReader is owned by a single stream and is not safe for
// concurrent use.
type LineReader struct {
	tail    []byte
	maxLine int
}

// Option configures a LineReader.
type Option func(*LineReader)

// WithMaxLineLen overrides the per-line byte bound.
func WithMaxLineLen(n int) Option {
	return func(r *LineReader) {
		if n > 0 {
			r.maxLine = n
		}
	}
}

// NewLineReader creates a LineReader with DefaultMaxLineLen unless
// overridden.
func NewLineReader(opts ...Option) *LineReader {
	r := &LineReader{maxLine: DefaultMaxLineLen}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Feed ingests one fragment and returns every complete line it
// finished, in arrival order. Zero-length fragments are valid and
// return no lines. Lines are trimmed of trailing "\r\n" or "\n";
// blanks and comments are dropped before returning.
//
// Feed fails with *ErrLineTooLong when any line, complete or still
// unterminated, exceeds the configured bound. The reader is not usable
// after an error.
func (r *LineReader) Feed(p []byte) ([]string, error) {
	r.tail = append(r.tail, p...)

	var lines []string
	start := 0
	for i := start; i < len(r.tail); i++ {
		if r.tail[i] != '\n' {
			continue
		}

		if i-start > r.maxLine {
			return nil, &ErrLineTooLong{Limit: r.maxLine}
		}

		if line, ok := trimLine(r.tail[start:i]); ok {
			lines = append(lines, line)
		}
		start = i + 1
	}

	// Retain only the unterminated tail. Copying into the front of the
	// existing slice drops everything before the last newline instead
	// of pinning it.
	r.tail = append(r.tail[:0], r.tail[start:]...)

	if len(r.tail) > r.maxLine {
		return lines, &ErrLineTooLong{Limit: r.maxLine}
	}

	return lines, nil
}

// Flush returns the final unterminated line, if any, once the
// transport has reached EOF. SSE producers normally end every line
// with a newline, but a stream cut mid-line still deserves its last
// complete-enough line rather than silent loss.
func (r *LineReader) Flush() (string, bool) {
	line, ok := trimLine(r.tail)
	r.tail = r.tail[:0]
	return line, ok
}

// Buffered returns the number of tail bytes held for the next Feed.
func (r *LineReader) Buffered() int {
	return len(r.tail)
}

// trimLine strips a trailing '\r' and reports whether the line should
// be surfaced at all: blank lines and ':' comments are protocol furniture,
// not payload.
func trimLine(b []byte) (string, bool) {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		b = b[:n-1]
	}
	if len(b) == 0 || b[0] == ':' {
		return "", false
	}
	return string(b), true
}
