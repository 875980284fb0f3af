// Package stream implements the consuming half of a chat-completions
// SSE response: a pull-based sequence of parsed chunks over a raw
// transport, plus the accumulation primitives (tool-call reassembly,
// bounded text buffering) a caller uses to fold chunks into a
// finished message.
//
// The engine does no background work: every byte is read, split, and
// decoded inside the caller's Recv call, chunks arrive in strict wire
// order, and nothing is buffered beyond the single line in flight.
// Retries, deadlines, and reconnection are the caller's concern.
package stream

import (
	"errors"
	"io"
	"strings"

	"github.com/papercomputeco/splice/pkg/llm"
	"github.com/papercomputeco/splice/pkg/sse"
)

// DefaultReadBufferSize is the per-read scratch size. Small enough to
// keep chunk latency low, large enough that a typical burst of events
// arrives in one read.
const DefaultReadBufferSize = 4096

// Stream turns a raw SSE byte source into a sequence of parsed chunks.
// Recv pulls the next chunk; io.EOF marks the end of the sequence.
//
// A Stream is single-use and single-owner: once finished (by sentinel,
// source exhaustion, or error) it stays finished, and it must not be
// shared across goroutines. Re-issuing the request is the only way to
// stream again.
type Stream struct {
	src      io.Reader
	reader   *sse.LineReader
	buf      []byte
	pending  []item
	sealed   bool // terminal item queued; no further input is parsed
	eof      bool // transport exhausted
	finished bool
}

type item struct {
	chunk *llm.StreamChunk
	err   error
}

// Option configures a Stream.
type Option func(*Stream)

// WithReadBufferSize overrides the per-read scratch size.
func WithReadBufferSize(n int) Option {
	return func(s *Stream) {
		if n > 0 {
			s.buf = make([]byte, n)
		}
	}
}

// WithMaxLineLen bounds a single SSE line; see sse.DefaultMaxLineLen.
func WithMaxLineLen(n int) Option {
	return func(s *Stream) {
		s.reader = sse.NewLineReader(sse.WithMaxLineLen(n))
	}
}

// New creates a Stream over src. Cancellation rides on src: when it is
// an http.Response body, cancel the request's context to abort a
// pending Recv.
func New(src io.Reader, opts ...Option) *Stream {
	s := &Stream{
		src:    src,
		reader: sse.NewLineReader(),
		buf:    make([]byte, DefaultReadBufferSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recv returns the next chunk in wire order. It returns io.EOF once
// the stream has finished: after yielding a done chunk, after the
// source ended without a sentinel, or after an error was surfaced.
// Errors are surfaced exactly once and finish the stream; Recv never
// resumes past one.
func (s *Stream) Recv() (*llm.StreamChunk, error) {
	for {
		if len(s.pending) > 0 {
			next := s.pending[0]
			s.pending = s.pending[1:]

			if next.err != nil {
				s.finish()
				return nil, next.err
			}
			if next.chunk.Done {
				s.finish()
			}
			return next.chunk, nil
		}

		if s.finished {
			return nil, io.EOF
		}
		if s.eof {
			s.finish()
			return nil, io.EOF
		}

		s.fill()
	}
}

// fill performs one transport read and queues whatever it completes.
func (s *Stream) fill() {
	n, err := s.src.Read(s.buf)

	if n > 0 {
		lines, ferr := s.reader.Feed(s.buf[:n])
		for _, line := range lines {
			s.queueLine(line)
		}
		// An overlong line is a malformed stream, not a transport
		// fault.
		if ferr != nil && !s.sealed {
			s.pending = append(s.pending, item{err: &ErrParsing{Err: ferr}})
			s.sealed = true
		}
	}

	switch {
	case err == nil:
		return
	case errors.Is(err, io.EOF):
		// A producer that died mid-line still gets its last line
		// surfaced; one that ended cleanly has nothing buffered.
		if !s.sealed {
			if line, ok := s.reader.Flush(); ok {
				s.queueLine(line)
			}
		}
		s.eof = true
	default:
		// Connection errors surface immediately; the unterminated
		// tail, if any, is discarded rather than parsed.
		if !s.sealed {
			s.pending = append(s.pending, item{err: &ErrConnection{Err: err}})
			s.sealed = true
		}
		s.eof = true
	}
}

// queueLine parses one line and queues the result. After a terminal
// item (done chunk or error) nothing further is queued: the sentinel
// outranks anything a server sends after it.
func (s *Stream) queueLine(line string) {
	if s.sealed {
		return
	}

	chunk, err := ParseLine(line)
	if err != nil {
		s.pending = append(s.pending, item{err: err})
		s.sealed = true
		return
	}
	if chunk == nil {
		return
	}

	s.pending = append(s.pending, item{chunk: chunk})
	if chunk.Done {
		s.sealed = true
	}
}

// finish moves the stream to its terminal state and releases internal
// buffers. Sticky: nothing revives a finished stream.
func (s *Stream) finish() {
	s.finished = true
	s.pending = nil
	s.reader = nil
	s.buf = nil
}

// Finished reports whether the stream has reached its terminal state.
func (s *Stream) Finished() bool {
	return s.finished
}

// Close finishes the stream and closes the underlying source when it
// is closeable. Safe to call at any point, including mid-stream to
// abandon a response.
func (s *Stream) Close() error {
	s.finish()
	if c, ok := s.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// CollectRemaining drains the stream, concatenating every content
// delta into one string. On error it returns the text collected so
// far along with the first error; a stream that ends cleanly (with or
// without a sentinel) returns a nil error.
func (s *Stream) CollectRemaining() (string, error) {
	var sb strings.Builder
	for {
		chunk, err := s.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return sb.String(), nil
			}
			return sb.String(), err
		}
		sb.WriteString(chunk.ContentDelta)
	}
}
