// Package openai implements engine.AgentAdapter over OpenAI's chat
// completions API, following the client-construction and
// message-conversion shape of graph/model/openai.ChatModel. This
// adapter does not carry its own retry loop: the engine already wraps
// every step dispatch in its own retry policy, and composing a
// step-local retry here too would double the effective attempt budget.
package openai

import (
	"context"
	"errors"
	"fmt"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/marktoflow/workflow-engine/internal/engine"
)

// Adapter implements engine.AgentAdapter for OpenAI chat models.
type Adapter struct {
	modelName string
	client    client
}

type client interface {
	createChatCompletion(ctx context.Context, system, user string) (string, error)
}

// New builds an Adapter, defaulting modelName to gpt-4o when empty.
func New(apiKey, modelName string) *Adapter {
	if modelName == "" {
		modelName = "gpt-4o"
	}
	return &Adapter{
		modelName: modelName,
		client:    &defaultClient{apiKey: apiKey, modelName: modelName},
	}
}

// ExecuteStep translates a step's resolved inputs ("prompt", optional
// "system") into a chat completion call.
func (a *Adapter) ExecuteStep(ctx context.Context, step engine.Step, resolvedInputs map[string]any, ectx *engine.ExecutionContext) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prompt, _ := resolvedInputs["prompt"].(string)
	system, _ := resolvedInputs["system"].(string)

	text, err := a.client.createChatCompletion(ctx, system, prompt)
	if err != nil {
		return nil, fmt.Errorf("openai: step %s: %w", step.ID, err)
	}
	return text, nil
}

type defaultClient struct {
	apiKey    string
	modelName string
}

func (c *defaultClient) createChatCompletion(ctx context.Context, system, user string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("openai: API key is required")
	}

	sdkClient := openaisdk.NewClient(option.WithAPIKey(c.apiKey))

	var messages []openaisdk.ChatCompletionMessageParamUnion
	if system != "" {
		messages = append(messages, openaisdk.SystemMessage(system))
	}
	messages = append(messages, openaisdk.UserMessage(user))

	resp, err := sdkClient.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(c.modelName),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
