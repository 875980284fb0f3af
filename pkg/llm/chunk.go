package llm

// ChatCompletionChunk is the wire shape of a single streamed SSE data
// payload from a chat-completions API. Each chunk carries deltas:
// fragments of content, role, and tool calls that the consumer
// accumulates into a full message.
type ChatCompletionChunk struct {
	ID      string `json:"id,omitempty"`
	Object  string `json:"object,omitempty"` // "chat.completion.chunk"
	Created int64  `json:"created,omitempty"`
	Model   string `json:"model,omitempty"`

	// Choices is empty on keep-alive chunks and on usage-only chunks
	// emitted after the final choice.
	Choices []ChunkChoice `json:"choices"`

	// Usage is typically only present on the final chunk, when the
	// request opted in to usage reporting.
	Usage *Usage `json:"usage,omitempty"`

	// Error is set when the provider reports a failure mid-stream as a
	// data payload instead of an HTTP error.
	Error *APIError `json:"error,omitempty"`
}

// ChunkChoice is one completion alternative within a streamed chunk.
// FinishReason is a pointer because providers send an explicit null on
// every non-terminal chunk.
type ChunkChoice struct {
	Index        int           `json:"index"`
	Delta        MessageDelta  `json:"delta"`
	FinishReason *FinishReason `json:"finish_reason"`
}

// MessageDelta is the incremental message fragment inside a chunk
// choice. All fields are optional; an empty delta is a keep-alive.
type MessageDelta struct {
	Role      Role            `json:"role,omitempty"`
	Content   string          `json:"content,omitempty"`
	ToolCalls []ToolCallDelta `json:"tool_calls,omitempty"`
}

// ToolCallDelta is one fragment of a streamed tool call. Index ties
// fragments of the same call together across chunks; ID and the
// function name arrive once on the first fragment, while arguments
// arrive split across many.
type ToolCallDelta struct {
	Index    int            `json:"index"`
	ID       string         `json:"id,omitempty"`
	Type     string         `json:"type,omitempty"`
	Function *FunctionDelta `json:"function,omitempty"`
}

// FunctionDelta carries the function-level pieces of a tool call
// fragment.
type FunctionDelta struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}
