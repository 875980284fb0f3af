package mock

import (
	"encoding/json"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/splice/pkg/llm"
	"github.com/papercomputeco/splice/pkg/sse"
)

// streamCompletion serves the streaming path. The response body is an
// io.Pipe so every event reaches the socket as soon as it is written:
// pw.Write blocks until fasthttp's chunked writer consumes the bytes,
// which gives per-chunk delivery and natural backpressure instead of
// buffering the whole stream in memory.
func (s *Server) streamCompletion(c *fiber.Ctx, req *llm.ChatRequest, script Script, completionID string, start time.Time) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	pr, pw := io.Pipe()
	go s.emitStream(pw, req, script, completionID, start)

	// Unknown size (-1) selects chunked transfer encoding.
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

// emitStream writes the scripted event sequence to the pipe: role
// prologue, content chunks, tool-call fragments, the finish chunk with
// usage, and the sentinel. Write errors mean the client went away;
// emission stops quietly.
func (s *Server) emitStream(pw *io.PipeWriter, req *llm.ChatRequest, script Script, completionID string, start time.Time) {
	defer pw.Close()

	e := &emitter{
		server:       s,
		w:            pw,
		completionID: completionID,
		created:      start.Unix(),
	}

	// Role prologue: the first chunk carries the role alone.
	if !e.writeChunk(llm.MessageDelta{Role: llm.RoleAssistant}, nil, nil) {
		return
	}

	for _, piece := range splitRunes(script.Reply, s.config.ChunkRunes) {
		if script.KeepAlive {
			if !e.writeComment("keep-alive") {
				return
			}
		}
		if !e.writeChunk(llm.MessageDelta{Content: piece}, nil, nil) {
			return
		}
	}

	if !e.emitToolCalls(script.ToolCalls) {
		return
	}

	if script.Malformed {
		// A truncated payload, exactly the kind a broken proxy
		// produces. No sentinel follows.
		e.pace()
		_ = sse.WriteData(e.w, []byte("{not valid json"))
		s.logger.Debug("emitted malformed payload", zap.String("completion_id", completionID))
		return
	}

	if script.Error != nil {
		e.pace()
		payload, err := json.Marshal(llm.ErrorResponse{Error: script.Error})
		if err == nil {
			_ = sse.WriteData(e.w, payload)
		}
		s.logger.Debug("emitted in-stream error", zap.String("completion_id", completionID))
		return
	}

	// Finish chunk: empty delta, concrete finish reason, usage attached.
	reason := script.finishReason()
	if !e.writeChunk(llm.MessageDelta{}, &reason, estimateUsage(req, script.Reply)) {
		return
	}

	e.pace()
	_ = sse.WriteDone(e.w)

	s.logger.Debug("stream complete",
		zap.String("completion_id", completionID),
		zap.Duration("duration", time.Since(start)),
	)
}

// emitter tracks the per-stream constants so each event write stays a
// one-liner in the emission sequence.
type emitter struct {
	server       *Server
	w            *io.PipeWriter
	completionID string
	created      int64
}

// pace sleeps the configured inter-chunk delay.
func (e *emitter) pace() {
	if e.server.config.Delay > 0 {
		time.Sleep(e.server.config.Delay)
	}
}

// writeChunk marshals one wire chunk and writes it as a data event,
// reporting whether emission should continue. Non-terminal chunks carry
// the explicit null finish reason real providers send.
func (e *emitter) writeChunk(delta llm.MessageDelta, finish *llm.FinishReason, usage *llm.Usage) bool {
	e.pace()

	wire := llm.ChatCompletionChunk{
		ID:      e.completionID,
		Object:  "chat.completion.chunk",
		Created: e.created,
		Model:   e.server.config.Model,
		Choices: []llm.ChunkChoice{{
			Delta:        delta,
			FinishReason: finish,
		}},
		Usage: usage,
	}

	payload, err := json.Marshal(wire)
	if err != nil {
		e.server.logger.Error("marshaling chunk", zap.Error(err))
		return false
	}

	if err := sse.WriteData(e.w, payload); err != nil {
		e.server.logger.Debug("client disconnected", zap.Error(err))
		return false
	}
	return true
}

func (e *emitter) writeComment(text string) bool {
	e.pace()
	return sse.WriteComment(e.w, text) == nil
}

// emitToolCalls streams each scripted call as fragments: the first
// fragment for a slot carries id, type, and name with the opening
// arguments piece, and the rest carry only argument deltas.
func (e *emitter) emitToolCalls(calls []ToolCallScript) bool {
	for index, call := range calls {
		for i, frag := range call.argumentFragments() {
			delta := llm.ToolCallDelta{
				Index:    index,
				Function: &llm.FunctionDelta{Arguments: frag},
			}
			if i == 0 {
				delta.ID = call.ID
				delta.Type = "function"
				delta.Function.Name = call.Name
			}

			if !e.writeChunk(llm.MessageDelta{ToolCalls: []llm.ToolCallDelta{delta}}, nil, nil) {
				return false
			}
		}
	}
	return true
}
