package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/papercomputeco/splice/pkg/tool"
)

const (
	calcName        = "calculate"
	calcDescription = "Evaluate a basic arithmetic operation on two numbers."

	calcSchema = `{
  "type": "object",
  "properties": {
    "op": {
      "type": "string",
      "enum": ["add", "sub", "mul", "div"],
      "description": "The operation to apply."
    },
    "a": {"type": "number"},
    "b": {"type": "number"}
  },
  "required": ["op", "a", "b"]
}`
)

// CalcInput represents the input arguments for the calculate tool.
type CalcInput struct {
	Op string  `json:"op"`
	A  float64 `json:"a"`
	B  float64 `json:"b"`
}

// CalcOutput represents the output of the calculate tool.
type CalcOutput struct {
	Result float64 `json:"result"`
}

// NewCalc creates the calculate tool.
func NewCalc() tool.Handler {
	return tool.NewFunc(calcName, calcDescription, json.RawMessage(calcSchema),
		func(_ context.Context, in CalcInput) (CalcOutput, error) {
			switch in.Op {
			case "add":
				return CalcOutput{Result: in.A + in.B}, nil
			case "sub":
				return CalcOutput{Result: in.A - in.B}, nil
			case "mul":
				return CalcOutput{Result: in.A * in.B}, nil
			case "div":
				if in.B == 0 {
					return CalcOutput{}, errors.New("division by zero")
				}
				return CalcOutput{Result: in.A / in.B}, nil
			default:
				return CalcOutput{}, fmt.Errorf("unknown operation %q", in.Op)
			}
		})
}

// DefaultRegistry returns a registry with all built-in tools registered.
func DefaultRegistry() (*tool.Registry, error) {
	reg := tool.NewRegistry()

	if err := reg.Register(NewClock(nil)); err != nil {
		return nil, err
	}

	if err := reg.Register(NewCalc()); err != nil {
		return nil, err
	}

	return reg, nil
}
