package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eduardolat/openroutergo"
)

const defaultOpenRouterModel = "openai/gpt-4o-mini"

// OpenRouterClient calls a chat completion model through OpenRouter. The
// SDK call is not cancellable, so ctx is only checked before the request.
type OpenRouterClient struct {
	client *openroutergo.Client
	model  string
}

func NewOpenRouterClient(apiKey, model string) (*OpenRouterClient, error) {
	if model == "" {
		model = defaultOpenRouterModel
	}
	client, err := openroutergo.
		NewClient().
		WithAPIKey(apiKey).
		Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create openrouter client: %w", err)
	}
	return &OpenRouterClient{client: client, model: model}, nil
}

func (o *OpenRouterClient) Name() string { return ProviderOpenRouter }

func (o *OpenRouterClient) Analyze(ctx context.Context, p Profile) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, resp, err := o.client.
		NewChatCompletion().
		WithModel(o.model).
		WithSystemMessage(systemPrompt).
		WithUserMessage(analysisPrompt(p)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("openrouter completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no response choices received from OpenRouter")
	}

	return asObject(resp.Choices[0].Message.Content)
}
