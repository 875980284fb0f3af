package client

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/splice/pkg/llm"
	"github.com/papercomputeco/splice/pkg/stream"
	"github.com/papercomputeco/splice/pkg/telemetry"
)

// Completion is the folded result of a drained stream: the full content,
// the reassembled tool calls, and the terminal metadata.
type Completion struct {
	Content      string
	Role         llm.Role
	ToolCalls    []llm.ToolCall
	FinishReason llm.FinishReason
	Usage        *llm.Usage
	Chunks       int
}

// CollectStream drains s to completion, closes it, and returns the
// folded result. On a mid-stream failure it returns what accumulated
// before the failure alongside the error. When the client has a
// publisher, a summary is emitted either way.
//
// model names the model the stream was requested from; it only feeds
// the telemetry summary.
func (c *Client) CollectStream(ctx context.Context, s *stream.Stream, model string) (*Completion, error) {
	start := time.Now()
	defer s.Close()

	var accOpts []stream.AccumulatorOption
	if c.strictToolCalls {
		accOpts = append(accOpts, stream.WithStrictFinalize())
	}
	acc := stream.NewToolCallAccumulator(accOpts...)

	var content strings.Builder
	comp := &Completion{}

	var streamErr error
	for {
		chunk, err := s.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				streamErr = err
			}
			break
		}

		if chunk.Done {
			continue
		}

		comp.Chunks++
		if chunk.Role != "" {
			comp.Role = chunk.Role
		}
		if chunk.FinishReason != "" {
			comp.FinishReason = chunk.FinishReason
		}
		if chunk.Usage != nil {
			comp.Usage = chunk.Usage
		}
		content.WriteString(chunk.ContentDelta)
		acc.IngestChunk(chunk)
	}
	comp.Content = content.String()

	calls, err := acc.Finalize()
	if err == nil {
		comp.ToolCalls = calls
	} else if streamErr == nil {
		streamErr = err
	}

	c.publishStreamSummary(ctx, comp, model, start, streamErr)

	if streamErr != nil {
		return comp, streamErr
	}

	c.logger.Debug("stream collected",
		zap.String("model", model),
		zap.Int("chunks", comp.Chunks),
		zap.Int("tool_calls", len(comp.ToolCalls)),
		zap.Duration("duration", time.Since(start)),
	)

	return comp, nil
}

// publishStreamSummary emits the post-stream telemetry summary. Publish
// failures are logged, never returned.
func (c *Client) publishStreamSummary(ctx context.Context, comp *Completion, model string, start time.Time, streamErr error) {
	if c.publisher == nil {
		return
	}

	summary := telemetry.NewStreamSummary(model)
	summary.Streaming = true
	summary.Chunks = comp.Chunks
	summary.ContentBytes = len(comp.Content)
	summary.ToolCalls = len(comp.ToolCalls)
	summary.FinishReason = string(comp.FinishReason)
	summary.DurationMs = time.Since(start).Milliseconds()
	summary.Usage = comp.Usage
	if streamErr != nil {
		summary.Failed = true
		summary.Error = streamErr.Error()
	}

	if err := c.publisher.PublishSummary(ctx, summary); err != nil {
		c.logger.Warn("summary publish failed", zap.Error(err))
	}
}
