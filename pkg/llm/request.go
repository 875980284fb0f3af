package llm

import "errors"

// ChatRequest represents a chat completion request in the wire shape
// used by chat-completions APIs. Generation parameters are pointers so
// that "unset" and "zero" stay distinguishable on the wire.
type ChatRequest struct {
	// Model name (e.g., "gpt-4o", "mock-gpt")
	Model string `json:"model"`

	// Conversation messages
	Messages []Message `json:"messages"`

	// Tools the model may call
	Tools []Tool `json:"tools,omitempty"`

	// Tool choice directive ("auto", "none", or "required")
	ToolChoice string `json:"tool_choice,omitempty"`

	// Whether to stream the response
	Stream *bool `json:"stream,omitempty"`

	// Generation parameters
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	Seed        *int     `json:"seed,omitempty"`

	// End-user identifier forwarded to the provider
	User string `json:"user,omitempty"`
}

// Validate checks that the request carries the fields every
// chat-completions endpoint requires.
func (r *ChatRequest) Validate() error {
	if r.Model == "" {
		return errors.New("model is required")
	}

	if len(r.Messages) == 0 {
		return errors.New("at least one message is required")
	}

	for _, m := range r.Messages {
		if m.Role == "" {
			return errors.New("message role is required")
		}
	}

	return nil
}

// Streaming reports whether the request asks for a streamed response.
func (r *ChatRequest) Streaming() bool {
	return r.Stream != nil && *r.Stream
}
