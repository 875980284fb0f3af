// Package llm defines the chat-completions data model shared by the
// streaming engine, the HTTP client, and the mock server: conversation
// messages, requests, responses, and the incremental chunk types that
// arrive on a live SSE stream.
package llm

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message represents a single message in a conversation, in the wire
// shape used by chat-completions APIs.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Name disambiguates multiple participants sharing a role.
	Name string `json:"name,omitempty"`

	// Tool calls requested by the assistant (role="assistant").
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID references the call this message answers (role="tool").
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// NewTextMessage creates a simple text message with the given role and content.
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Content: text}
}

// NewToolResultMessage creates a tool-role message carrying the output of
// the tool call identified by toolCallID.
func NewToolResultMessage(toolCallID, output string) Message {
	return Message{
		Role:       RoleTool,
		Content:    output,
		ToolCallID: toolCallID,
	}
}
