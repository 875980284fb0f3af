// Package tool provides the tool-calling layer for chat conversations: a
// Handler abstraction for executable tools, a typed function adapter, and a
// Registry that dispatches completed tool calls by name.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
)

// Handler is a single executable tool. Arguments and results cross the
// boundary as raw JSON so handlers stay decoupled from any one wire format.
type Handler interface {
	// Name is the identifier models call the tool by.
	Name() string

	// Description tells the model what the tool does and when to use it.
	Description() string

	// ParametersSchema returns the JSON Schema for the tool's arguments.
	ParametersSchema() json.RawMessage

	// Execute runs the tool. Args is always valid JSON by the time a
	// registry dispatches here.
	Execute(ctx context.Context, args json.RawMessage) (json.RawMessage, error)
}

// Func adapts a typed Go function into a Handler. Arguments are unmarshaled
// into I and the result marshaled from O.
type Func[I, O any] struct {
	name        string
	description string
	schema      json.RawMessage
	fn          func(context.Context, I) (O, error)
}

// NewFunc wraps fn as a Handler with the given name, description, and
// argument schema.
func NewFunc[I, O any](name, description string, schema json.RawMessage, fn func(context.Context, I) (O, error)) *Func[I, O] {
	return &Func[I, O]{
		name:        name,
		description: description,
		schema:      schema,
		fn:          fn,
	}
}

func (f *Func[I, O]) Name() string {
	return f.name
}

func (f *Func[I, O]) Description() string {
	return f.description
}

func (f *Func[I, O]) ParametersSchema() json.RawMessage {
	return f.schema
}

// Execute unmarshals args into I, invokes the wrapped function, and
// marshals its result.
func (f *Func[I, O]) Execute(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var in I
	if len(args) > 0 {
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
		}
	}

	out, err := f.fn(ctx, in)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshaling tool result: %w", err)
	}

	return payload, nil
}
