// Package anthropic implements engine.AgentAdapter over Anthropic's
// Claude messages API: system-prompt extraction (Claude takes system as
// a separate param, not a message), a small client interface for
// mocking in tests, and a content-block walk over the response, all
// narrowed to this engine's single templated-prompt-per-step shape.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/marktoflow/workflow-engine/internal/engine"
)

// Adapter implements engine.AgentAdapter for Claude.
type Adapter struct {
	modelName string
	client    client
}

// client is the seam mocked in tests.
type client interface {
	createMessage(ctx context.Context, systemPrompt, userPrompt string, maxTokens int64) (string, error)
}

// New builds an Adapter. modelName defaults to a current Sonnet model
// when empty.
func New(apiKey, modelName string) *Adapter {
	if modelName == "" {
		modelName = "claude-sonnet-4-5-20250929"
	}
	return &Adapter{
		modelName: modelName,
		client:    &defaultClient{apiKey: apiKey, modelName: modelName},
	}
}

// ExecuteStep translates a step's resolved inputs into a Claude
// messages call. Inputs recognized: "prompt" (required, the user
// turn) and "system" (optional system instruction). Any other
// resolved input is appended to the user turn as a labeled line so an
// agent step can still see its full input map without a rigid schema.
func (a *Adapter) ExecuteStep(ctx context.Context, step engine.Step, resolvedInputs map[string]any, ectx *engine.ExecutionContext) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prompt, system := buildPrompt(resolvedInputs)
	maxTokens := int64(4096)
	if v, ok := resolvedInputs["max_tokens"].(float64); ok && v > 0 {
		maxTokens = int64(v)
	}

	text, err := a.client.createMessage(ctx, system, prompt, maxTokens)
	if err != nil {
		return nil, fmt.Errorf("anthropic: step %s: %w", step.ID, err)
	}
	return text, nil
}

func buildPrompt(inputs map[string]any) (prompt, system string) {
	if v, ok := inputs["prompt"].(string); ok {
		prompt = v
	}
	if v, ok := inputs["system"].(string); ok {
		system = v
	}
	for k, v := range inputs {
		if k == "prompt" || k == "system" || k == "max_tokens" {
			continue
		}
		prompt += fmt.Sprintf("\n%s: %v", k, v)
	}
	return prompt, system
}

type defaultClient struct {
	apiKey    string
	modelName string
}

func (c *defaultClient) createMessage(ctx context.Context, systemPrompt, userPrompt string, maxTokens int64) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("anthropic: API key is required")
	}

	sdkClient := anthropicsdk.NewClient(option.WithAPIKey(c.apiKey))

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(c.modelName),
		Messages:  []anthropicsdk.MessageParam{anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(userPrompt))},
		MaxTokens: maxTokens,
	}
	if systemPrompt != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := sdkClient.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropicsdk.TextBlock); ok {
			if text != "" {
				text += "\n"
			}
			text += tb.Text
		}
	}
	return text, nil
}
