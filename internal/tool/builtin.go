package tool

import (
	"context"
	"fmt"
	"strings"
)

// BuiltinTool backs "tool.<operation>" actions such as "tool.echo" and
// "tool.upper". Operations are intentionally minimal — enough to
// exercise the engine's template resolution and output_variable
// plumbing end to end without a network dependency.
type BuiltinTool struct{}

// Execute implements engine.Tool.
func (t *BuiltinTool) Execute(ctx context.Context, operation string, inputs map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch operation {
	case "echo":
		x, ok := inputs["x"]
		if !ok {
			return nil, fmt.Errorf("tool.echo: missing input %q", "x")
		}
		return x, nil

	case "upper":
		s, ok := inputs["s"].(string)
		if !ok {
			return nil, fmt.Errorf("tool.upper: input %q must be a string", "s")
		}
		return strings.ToUpper(s), nil

	case "lower":
		s, ok := inputs["s"].(string)
		if !ok {
			return nil, fmt.Errorf("tool.lower: input %q must be a string", "s")
		}
		return strings.ToLower(s), nil

	case "concat":
		a, _ := inputs["a"].(string)
		b, _ := inputs["b"].(string)
		return a + b, nil

	default:
		return nil, fmt.Errorf("tool: unknown operation %q", operation)
	}
}
