package gen

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAI generates samples through the Gemini API.
type GenAI struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
}

// NewGenAI builds a Gemini-backed generator.
func NewGenAI(ctx context.Context, apiKey, model string, maxTokens int, temperature float64) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAI{
		client:      client,
		model:       model,
		maxTokens:   int32(maxTokens),
		temperature: float32(temperature),
	}, nil
}

func (g *GenAI) Sample(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: g.maxTokens,
		StopSequences:   []string{"```"},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	return resp.Text(), nil
}

func (g *GenAI) Name() string { return "genai:" + g.model }
