package mock

import "github.com/papercomputeco/splice/pkg/llm"

// Script describes one canned response. Zero-value fields fall back to
// sensible behavior, so a Script{Reply: "hi"} is a complete script.
// Scripts are staged in-process with SetScripts or from outside via
// POST /mock/scripts.
type Script struct {
	// Reply is the assistant text, streamed in rune-sized chunks on the
	// streaming path.
	Reply string `json:"reply,omitempty"`

	// ToolCalls are emitted as fragmented tool-call deltas after the
	// content, one slot per entry in order.
	ToolCalls []ToolCallScript `json:"tool_calls,omitempty"`

	// FinishReason overrides the derived terminal reason (tool_calls
	// when ToolCalls are present, stop otherwise).
	FinishReason llm.FinishReason `json:"finish_reason,omitempty"`

	// KeepAlive interleaves SSE comment lines between content chunks,
	// exercising the consumer's comment handling.
	KeepAlive bool `json:"keep_alive,omitempty"`

	// Malformed injects a non-JSON data payload mid-stream and stops
	// without a sentinel. For failure-path tests.
	Malformed bool `json:"malformed,omitempty"`

	// Error reports a provider failure as an in-stream error payload
	// instead of a completion, then stops without a sentinel.
	Error *llm.APIError `json:"error,omitempty"`
}

// ToolCallScript is one scripted tool call. Arguments are delivered
// fragmented across chunks on the streaming path, the way real
// providers split them.
type ToolCallScript struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`

	// ArgumentChunkLen is the fragment size for Arguments in bytes.
	// Zero streams the arguments in three roughly equal pieces.
	ArgumentChunkLen int `json:"argument_chunk_len,omitempty"`
}

// finishReason resolves the terminal reason for the script.
func (s Script) finishReason() llm.FinishReason {
	if s.FinishReason != "" {
		return s.FinishReason
	}
	if len(s.ToolCalls) > 0 {
		return llm.FinishReasonToolCalls
	}
	return llm.FinishReasonStop
}

// argumentFragments splits the scripted arguments into the deltas a
// stream will carry. Every call yields at least one fragment so the
// name/id always have a carrier.
func (t ToolCallScript) argumentFragments() []string {
	size := t.ArgumentChunkLen
	if size <= 0 {
		size = len(t.Arguments)/3 + 1
	}

	var frags []string
	for start := 0; start < len(t.Arguments); start += size {
		end := min(start+size, len(t.Arguments))
		frags = append(frags, t.Arguments[start:end])
	}
	if len(frags) == 0 {
		frags = []string{""}
	}
	return frags
}
