package telemetry

import "context"

// Publisher publishes stream summaries to a telemetry backend.
type Publisher interface {
	PublishSummary(ctx context.Context, summary *StreamSummary) error
	Close() error
}
