// Package google implements engine.AgentAdapter over Gemini, via
// google.golang.org/genai, the current SDK in place of the older
// google/generative-ai-go client. Grounded on
// kadirpekel-hector/pkg/model/gemini's client.Models.GenerateContent(ctx,
// model, contents, config) call shape, narrowed to this engine's single
// non-streaming prompt-per-step need.
package google

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/marktoflow/workflow-engine/internal/engine"
)

// Adapter implements engine.AgentAdapter for Gemini models.
type Adapter struct {
	modelName string
	client    client
}

type client interface {
	generateContent(ctx context.Context, system, user string) (string, error)
}

// New builds an Adapter, defaulting modelName to gemini-2.0-flash when
// empty, matching the pack's own Gemini adapter default.
func New(apiKey, modelName string) *Adapter {
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	return &Adapter{
		modelName: modelName,
		client:    &defaultClient{apiKey: apiKey, modelName: modelName},
	}
}

// ExecuteStep translates a step's resolved inputs ("prompt", optional
// "system") into a GenerateContent call.
func (a *Adapter) ExecuteStep(ctx context.Context, step engine.Step, resolvedInputs map[string]any, ectx *engine.ExecutionContext) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prompt, _ := resolvedInputs["prompt"].(string)
	system, _ := resolvedInputs["system"].(string)

	text, err := a.client.generateContent(ctx, system, prompt)
	if err != nil {
		return nil, fmt.Errorf("google: step %s: %w", step.ID, err)
	}
	return text, nil
}

type defaultClient struct {
	apiKey    string
	modelName string
}

func (c *defaultClient) generateContent(ctx context.Context, system, user string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("google: API key is required")
	}

	sdkClient, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: c.apiKey})
	if err != nil {
		return "", fmt.Errorf("google: create client: %w", err)
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: user}},
	}}

	var config *genai.GenerateContentConfig
	if system != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		}
	}

	resp, err := sdkClient.Models.GenerateContent(ctx, c.modelName, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	var text string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			text += part.Text
		}
	}
	return text, nil
}
