package tool

import "errors"

var (
	// ErrUnknownTool indicates a dispatch for a name no handler claims.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrDuplicateTool indicates two handlers registered under the same name.
	ErrDuplicateTool = errors.New("duplicate tool")

	// ErrInvalidArguments indicates a tool call whose arguments failed to parse.
	ErrInvalidArguments = errors.New("invalid tool arguments")
)
