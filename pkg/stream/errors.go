package stream

import (
	"fmt"

	"github.com/papercomputeco/splice/pkg/utils"
)

// ErrConnection wraps a transport read failure. The engine never
// retries; the caller owns retry policy because only it knows whether
// the request is safe to reissue.
type ErrConnection struct {
	Err error
}

func (e *ErrConnection) Error() string {
	return fmt.Sprintf("stream connection: %v", e.Err)
}

func (e *ErrConnection) Unwrap() error {
	return e.Err
}

// ErrParsing reports a data payload that could not be decoded into a
// chunk. Raw preserves the offending text verbatim for caller-side
// logging and replay; the error message carries only a preview so a
// megabyte of garbage stays loggable.
type ErrParsing struct {
	Raw string
	Err error
}

func (e *ErrParsing) Error() string {
	if e.Raw == "" {
		return fmt.Sprintf("stream parsing: %v", e.Err)
	}
	return fmt.Sprintf("stream parsing: %v (raw: %q)", e.Err, utils.Truncate(e.Raw, 256))
}

func (e *ErrParsing) Unwrap() error {
	return e.Err
}

// ErrBufferFull reports an append that would overflow a BoundedBuffer.
// The buffer is left unchanged; the caller decides whether to compact,
// discard, or abort.
type ErrBufferFull struct {
	Len      int // bytes currently buffered
	N        int // bytes the rejected append carried
	Capacity int
}

func (e *ErrBufferFull) Error() string {
	return fmt.Sprintf("buffer full: %d buffered + %d incoming exceeds capacity %d", e.Len, e.N, e.Capacity)
}

// ErrIncompleteToolCall reports a tool call that reached finalization
// without ever receiving an id or a name. Only returned under
// WithStrictFinalize.
type ErrIncompleteToolCall struct {
	Index int
}

func (e *ErrIncompleteToolCall) Error() string {
	return fmt.Sprintf("tool call at index %d finalized without id or name", e.Index)
}
