package stream

import (
	"encoding/json"
	"strings"

	"github.com/papercomputeco/splice/pkg/llm"
	"github.com/papercomputeco/splice/pkg/sse"
)

const dataPrefix = "data:"

// ParseLine interprets one complete SSE line. It returns (nil, nil)
// for inert lines (event:, id:, retry: and anything else without a
// data: prefix), a done chunk for the completion sentinel, and a
// decoded chunk for JSON payloads.
//
// Malformed payloads fail with *ErrParsing carrying the raw text; a
// payload carrying a provider error object fails with that
// *llm.APIError. ParseLine never returns a best-effort partial chunk
// for input it could not fully decode.
func ParseLine(line string) (*llm.StreamChunk, error) {
	payload, ok := strings.CutPrefix(line, dataPrefix)
	if !ok {
		return nil, nil
	}
	payload = strings.TrimPrefix(payload, " ")

	if payload == sse.DoneData {
		return &llm.StreamChunk{Done: true}, nil
	}

	var wire llm.ChatCompletionChunk
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return nil, &ErrParsing{Raw: payload, Err: err}
	}

	if wire.Error != nil {
		return nil, wire.Error
	}

	return fromWire(&wire, payload), nil
}

// fromWire flattens a decoded wire chunk into the engine view. Only
// the first choice is interpreted; chat-completions streams carry one
// choice unless the caller asked for parallel completions, which this
// engine does not.
func fromWire(wire *llm.ChatCompletionChunk, raw string) *llm.StreamChunk {
	chunk := &llm.StreamChunk{
		Usage: wire.Usage,
		Raw:   raw,
	}

	// Zero choices is tolerated as a keep-alive: some gateways send an
	// empty prologue chunk, and usage-only chunks trail the final
	// choice when usage reporting is on.
	if len(wire.Choices) == 0 {
		return chunk
	}

	choice := wire.Choices[0]
	chunk.Role = choice.Delta.Role
	chunk.ContentDelta = choice.Delta.Content
	chunk.FinishReason = normalizeFinishReason(choice.FinishReason)

	for _, tc := range choice.Delta.ToolCalls {
		frag := llm.ToolCallFragment{
			Index: tc.Index,
			ID:    tc.ID,
		}
		if tc.Function != nil {
			frag.Name = tc.Function.Name
			frag.ArgumentsDelta = tc.Function.Arguments
		}
		chunk.ToolCalls = append(chunk.ToolCalls, frag)
	}

	return chunk
}

// normalizeFinishReason maps the explicit null providers send on every
// non-terminal chunk to the protocol's default terminal value. The
// normalization covers exactly this one field; malformed input
// anywhere else still fails decoding.
func normalizeFinishReason(r *llm.FinishReason) llm.FinishReason {
	if r == nil || *r == "" {
		return llm.FinishReasonStop
	}
	return *r
}
