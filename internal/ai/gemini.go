package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiClient implements the Client interface using Google's Gemini API.
// Get your API key at: https://aistudio.google.com/apikey
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (g *GeminiClient) Name() string { return ProviderGemini }

func (g *GeminiClient) Analyze(ctx context.Context, p Profile) (json.RawMessage, error) {
	resp, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(analysisPrompt(p)),
		&genai.GenerateContentConfig{
			Temperature:       genai.Ptr[float32](0.1),
			ResponseMIMEType:  "application/json",
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("empty response from Gemini")
	}

	return asObject(resp.Text())
}
