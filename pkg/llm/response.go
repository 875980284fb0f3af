package llm

// FinishReason explains why the model stopped generating.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonToolCalls     FinishReason = "tool_calls"
	FinishReasonContentFilter FinishReason = "content_filter"
)

// ChatResponse represents a non-streaming chat completion response in
// the wire shape used by chat-completions APIs.
type ChatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object,omitempty"` // "chat.completion"
	Created int64  `json:"created,omitempty"`
	Model   string `json:"model"`

	// Completion choices; at least one on every well-formed response
	Choices []Choice `json:"choices"`

	// Token usage metrics
	Usage *Usage `json:"usage,omitempty"`
}

// Choice is one completion alternative within a response.
type Choice struct {
	Index        int          `json:"index"`
	Message      Message      `json:"message"`
	FinishReason FinishReason `json:"finish_reason,omitempty"`
}

// Usage contains token counts for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Text returns the content of the first choice, or the empty string
// when the response carries no choices. Convenience for the common
// single-choice case.
func (r *ChatResponse) Text() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}
