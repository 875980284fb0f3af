package telemetry

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/splice/pkg/llm"
)

const (
	// SchemaVersionV1 is the first version of the summary payload schema.
	SchemaVersionV1 = 1

	// EventTypeStreamSummary is emitted after a streamed response finishes.
	EventTypeStreamSummary = "splice.stream.summary"
)

// StreamSummary is a transport-neutral summary of one streamed response.
// It carries counts and timings only, never message content.
type StreamSummary struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	Model        string `json:"model"`
	Streaming    bool   `json:"streaming"`
	Chunks       int    `json:"chunks"`
	ContentBytes int    `json:"content_bytes"`
	ToolCalls    int    `json:"tool_calls"`
	FinishReason string `json:"finish_reason,omitempty"`
	DurationMs   int64  `json:"duration_ms"`

	// Failed marks streams that ended with a transport or parse error.
	Failed bool   `json:"failed,omitempty"`
	Error  string `json:"error,omitempty"`

	Usage *llm.Usage `json:"usage,omitempty"`
}

// NewStreamSummary returns a StreamSummary with identity fields populated
// and the emission time stamped.
func NewStreamSummary(model string) *StreamSummary {
	return &StreamSummary{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeStreamSummary,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Model:         model,
	}
}
