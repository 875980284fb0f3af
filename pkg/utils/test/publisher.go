package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/splice/pkg/telemetry"
)

// CapturePublisher is a telemetry.Publisher that records published
// summaries in memory for assertions.
type CapturePublisher struct {
	mu        sync.Mutex
	summaries []*telemetry.StreamSummary
	closed    bool

	// Err, when set, is returned from every PublishSummary call.
	Err error
}

// NewCapturePublisher creates an empty capture publisher.
func NewCapturePublisher() *CapturePublisher {
	return &CapturePublisher{}
}

// PublishSummary records the summary, or returns Err if one is configured.
func (p *CapturePublisher) PublishSummary(_ context.Context, summary *telemetry.StreamSummary) error {
	if summary == nil {
		return telemetry.ErrNilSummary
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}

	p.summaries = append(p.summaries, summary)
	return nil
}

// Close marks the publisher closed.
func (p *CapturePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	return nil
}

// Summaries returns a copy of the captured summaries.
func (p *CapturePublisher) Summaries() []*telemetry.StreamSummary {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*telemetry.StreamSummary, len(p.summaries))
	copy(out, p.summaries)
	return out
}

// Closed reports whether Close was called.
func (p *CapturePublisher) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closed
}
