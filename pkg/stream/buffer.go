package stream

import "unicode/utf8"

// BoundedBuffer accumulates streamed text under a hard byte capacity.
// There is no implicit eviction: an append that would overflow fails
// and leaves the buffer untouched, and the caller chooses between
// compacting, discarding, and aborting. The advisory high-water mark
// sits at three quarters of capacity so callers can compact before
// appends start failing.
//
// A BoundedBuffer is owned by a single conversation turn and is not
// safe for concurrent use.
type BoundedBuffer struct {
	content  []byte
	capacity int
}

// NewBoundedBuffer creates an empty buffer with the given byte
// capacity. Capacity must be positive; a buffer with no capacity
// rejects every non-empty append.
func NewBoundedBuffer(capacity int) *BoundedBuffer {
	return &BoundedBuffer{capacity: capacity}
}

// Append adds text to the buffer, failing with *ErrBufferFull when the
// result would exceed capacity. On failure the content is unchanged
// byte for byte.
func (b *BoundedBuffer) Append(text string) error {
	if len(b.content)+len(text) > b.capacity {
		return &ErrBufferFull{
			Len:      len(b.content),
			N:        len(text),
			Capacity: b.capacity,
		}
	}
	b.content = append(b.content, text...)
	return nil
}

// IsHighWater reports whether the buffer has reached its advisory
// high-water mark. Purely advisory; no state changes.
func (b *BoundedBuffer) IsHighWater() bool {
	return len(b.content) >= b.HighWaterMark()
}

// HighWaterMark returns the advisory threshold: three quarters of
// capacity.
func (b *BoundedBuffer) HighWaterMark() int {
	return b.capacity * 3 / 4
}

// Compact retains only the last keepLastN bytes of content. When that
// cut would land inside a multi-byte code point, the cut advances past
// the partial rune, keeping slightly fewer bytes so the content stays
// valid text. A no-op when the content already fits.
func (b *BoundedBuffer) Compact(keepLastN int) {
	if keepLastN < 0 {
		keepLastN = 0
	}
	if len(b.content) <= keepLastN {
		return
	}

	start := len(b.content) - keepLastN
	for start < len(b.content) && !utf8.RuneStart(b.content[start]) {
		start++
	}

	b.content = append(b.content[:0], b.content[start:]...)
}

// Reset discards all content, keeping capacity.
func (b *BoundedBuffer) Reset() {
	b.content = b.content[:0]
}

// Utilization returns the fill level as a percentage of capacity.
func (b *BoundedBuffer) Utilization() float64 {
	if b.capacity <= 0 {
		return 100
	}
	return float64(len(b.content)) / float64(b.capacity) * 100
}

// Content returns the buffered text.
func (b *BoundedBuffer) Content() string {
	return string(b.content)
}

// Len returns the number of buffered bytes.
func (b *BoundedBuffer) Len() int {
	return len(b.content)
}

// Cap returns the configured capacity in bytes.
func (b *BoundedBuffer) Cap() int {
	return b.capacity
}
