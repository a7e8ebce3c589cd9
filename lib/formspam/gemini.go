package formspam

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

//go:generate moq --out mocks/gemini_client.go --pkg mocks --skip-ensure . geminiClient:GeminiClientMock

type geminiClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini is a Completer for Google Gemini api
type Gemini struct {
	newClient func(ctx context.Context, apiKey string) (geminiClient, error)
	clients   map[string]geminiClient
	mu        sync.Mutex
}

// NewGemini makes a Completer for Gemini
func NewGemini() *Gemini {
	return &Gemini{
		clients: map[string]geminiClient{},
		newClient: func(ctx context.Context, apiKey string) (geminiClient, error) {
			client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
			if err != nil {
				return nil, err
			}
			return client.Models, nil
		},
	}
}

// Complete generates content with system instruction and user prompt, returns the reply text
func (g *Gemini) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	client, err := g.client(ctx, req.APIKey)
	if err != nil {
		return "", fmt.Errorf("can't make gemini client: %w", err)
	}

	resp, err := client.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       genai.Ptr(req.Temperature),
		MaxOutputTokens:   int32(req.MaxTokens), //nolint:gosec // small value
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &APIError{StatusCode: apiErr.Code, Message: apiErr.Message}
		}
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("empty response")
	}
	return text, nil
}

func (g *Gemini) client(ctx context.Context, apiKey string) (geminiClient, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.clients[apiKey]; ok {
		return c, nil
	}
	c, err := g.newClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	if len(g.clients) > 8 {
		clear(g.clients)
	}
	g.clients[apiKey] = c
	return c, nil
}
