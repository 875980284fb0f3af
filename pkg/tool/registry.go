package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/papercomputeco/splice/pkg/llm"
)

// Registry holds the set of tools a conversation may call.
// Registration order is preserved so tool definitions reach the model in a
// stable order.
type Registry struct {
	handlers map[string]Handler
	names    []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler to the registry.
// Returns ErrDuplicateTool if the name is already taken.
func (r *Registry) Register(h Handler) error {
	name := h.Name()
	if name == "" {
		return errors.New("tool name is required")
	}

	if _, ok := r.handlers[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateTool, name)
	}

	r.handlers[name] = h
	r.names = append(r.names, name)
	return nil
}

// Get returns the handler registered under name.
func (r *Registry) Get(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.names)
}

// Definitions returns the registered tools in the wire format chat
// requests carry.
func (r *Registry) Definitions() []llm.Tool {
	defs := make([]llm.Tool, 0, len(r.names))
	for _, name := range r.names {
		h := r.handlers[name]
		defs = append(defs, llm.NewFunctionTool(h.Name(), h.Description(), h.ParametersSchema()))
	}
	return defs
}

// Dispatch executes the named tool with the given arguments.
// Empty argument payloads are normalized to "{}" before validation, models
// routinely omit arguments entirely for zero-parameter tools.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	h, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	if len(bytes.TrimSpace(args)) == 0 {
		args = json.RawMessage("{}")
	}

	if !json.Valid(args) {
		return nil, fmt.Errorf("%w: arguments are not valid JSON", ErrInvalidArguments)
	}

	return h.Execute(ctx, args)
}

// DispatchCall executes a completed tool call and wraps the result in the
// tool-role message the follow-up request wants.
func (r *Registry) DispatchCall(ctx context.Context, call llm.ToolCall) (llm.Message, error) {
	out, err := r.Dispatch(ctx, call.Function.Name, json.RawMessage(call.Function.Arguments))
	if err != nil {
		return llm.Message{}, err
	}

	return llm.NewToolResultMessage(call.ID, string(out)), nil
}
