package llm

// StreamChunk is the engine-level view of one parsed streaming event.
// It flattens the wire chunk into the fields consumers act on: the
// content delta to append, tool call fragments to accumulate, and the
// terminal markers.
type StreamChunk struct {
	// ContentDelta is the text fragment carried by this chunk, empty
	// when the chunk carries no content.
	ContentDelta string `json:"content_delta,omitempty"`

	// Role is set on the first chunk of a response and empty afterwards.
	Role Role `json:"role,omitempty"`

	// ToolCalls holds the tool call fragments carried by this chunk.
	ToolCalls []ToolCallFragment `json:"tool_calls,omitempty"`

	// FinishReason for the chunk, concrete on every chunk that carries
	// choices: the parser normalizes the explicit nulls providers send
	// on non-terminal chunks. Empty on keep-alives and the done chunk.
	FinishReason FinishReason `json:"finish_reason,omitempty"`

	// Usage metrics, when the provider attached them to this chunk.
	Usage *Usage `json:"usage,omitempty"`

	// Done marks the end-of-stream sentinel. A done chunk carries no
	// other payload.
	Done bool `json:"done"`

	// Raw is the original JSON payload the chunk was decoded from,
	// empty on the synthetic done chunk.
	Raw string `json:"-"`
}

// ToolCallFragment is one accumulator-ready fragment of a streamed
// tool call. Index identifies the call; ID and Name are set at most
// once per call, and ArgumentsDelta fragments concatenate verbatim.
type ToolCallFragment struct {
	Index          int    `json:"index"`
	ID             string `json:"id,omitempty"`
	Name           string `json:"name,omitempty"`
	ArgumentsDelta string `json:"arguments_delta,omitempty"`
}

// Empty reports whether the chunk carries no payload at all: no
// content, role, tool calls, usage, or done marker. Providers emit
// such chunks as keep-alives.
func (c *StreamChunk) Empty() bool {
	return c.ContentDelta == "" &&
		c.Role == "" &&
		len(c.ToolCalls) == 0 &&
		c.Usage == nil &&
		!c.Done
}
