package completion

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Gemini is the Completer backed by the Gemini API. The API key comes
// from the environment (GEMINI_API_KEY), same as the rest of the genai
// client configuration.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini completer for the given model name.
func NewGemini(ctx context.Context, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGemini: create client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Complete implements Completer with a single GenerateContent call.
// There is no retry; malformed or empty output is the caller's problem
// to surface.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("Complete: %w: %v", ErrCompletionUnavailable, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Complete: %w: empty response", ErrCompletionUnavailable)
	}

	return text, nil
}
