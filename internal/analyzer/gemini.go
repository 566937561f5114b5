package analyzer

import (
	"context"
	"fmt"
	"time"

	"csvpilot/internal/circuitbreaker"

	"google.golang.org/genai"
)

const completionTimeout = 60 * time.Second

// Gemini calls the Gemini text-completion API. The circuit breaker keeps a
// flapping upstream from burning a full timeout on every request.
type Gemini struct {
	client  *genai.Client
	model   string
	breaker *circuitbreaker.CircuitBreaker
}

func NewGemini(apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Gemini{
		client:  client,
		model:   model,
		breaker: circuitbreaker.New(5, 30*time.Second),
	}, nil
}

func (g *Gemini) Analyze(ctx context.Context, preview string, columns []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	prompt := buildPrompt(preview, columns)

	var out string
	err := g.breaker.Call(func() error {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
		if err != nil {
			return err
		}

		text := resp.Text()
		if text == "" {
			return fmt.Errorf("empty completion")
		}

		out = text
		return nil
	})

	if err != nil {
		return "", fmt.Errorf("gemini call failed: %w", err)
	}

	return out, nil
}
