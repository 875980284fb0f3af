package testutils

import "io"

// ChunkedReader is a test reader that serves its payload in fragments
// of at most Size bytes, simulating a transport that splits events at
// arbitrary byte boundaries.
type ChunkedReader struct {
	data []byte
	size int
	pos  int
}

// NewChunkedReader creates a reader over data that yields at most size
// bytes per Read.
func NewChunkedReader(data string, size int) *ChunkedReader {
	if size < 1 {
		size = 1
	}
	return &ChunkedReader{data: []byte(data), size: size}
}

func (r *ChunkedReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := min(r.size, len(p), len(r.data)-r.pos)
	copy(p, r.data[r.pos:r.pos+n])
	r.pos += n
	return n, nil
}

// FaultyReader is a test reader that serves its payload and then fails
// with Err instead of reaching EOF, simulating a connection dropped
// mid-stream.
type FaultyReader struct {
	Data string
	Err  error

	pos int
}

func (r *FaultyReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.Data) {
		return 0, r.Err
	}
	n := copy(p, r.Data[r.pos:])
	r.pos += n
	return n, nil
}

// CloseRecorder wraps a reader and records whether Close was called.
type CloseRecorder struct {
	io.Reader

	Closed bool
}

func (c *CloseRecorder) Close() error {
	c.Closed = true
	return nil
}
