package nop

import (
	"context"

	"github.com/papercomputeco/splice/pkg/telemetry"
)

// Publisher is a no-op telemetry publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op telemetry publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishSummary validates input and otherwise does nothing.
func (p *Publisher) PublishSummary(_ context.Context, summary *telemetry.StreamSummary) error {
	if summary == nil {
		return telemetry.ErrNilSummary
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
