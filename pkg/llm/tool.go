package llm

import "encoding/json"

// Tool describes a function the model may call, in the wire shape used
// by chat-completions APIs.
type Tool struct {
	Type     string       `json:"type"` // always "function"
	Function ToolFunction `json:"function"`
}

// ToolFunction is the function half of a Tool definition.
type ToolFunction struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Parameters is a JSON Schema object describing the arguments.
	// Kept raw so callers can supply schemas from any source.
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// NewFunctionTool creates a Tool of type "function" with the given name,
// description, and JSON Schema parameters.
func NewFunctionTool(name, description string, parameters json.RawMessage) Tool {
	return Tool{
		Type: "function",
		Function: ToolFunction{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// ToolCall is a completed tool invocation requested by the model: an
// identifier, a function name, and the full arguments payload as a JSON
// text. On streaming responses tool calls arrive fragmented and are
// reassembled into this shape by the stream accumulator.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type,omitempty"` // always "function"
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the function name and raw JSON arguments of a
// tool call. Arguments is the verbatim concatenation of the argument
// fragments the model produced and is not guaranteed to be valid JSON.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}
