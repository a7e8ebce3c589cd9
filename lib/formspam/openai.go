package formspam

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sashabaranov/go-openai"
)

//go:generate moq --out mocks/openai_client.go --pkg mocks --skip-ensure . openAIClient:OpenAIClientMock

type openAIClient interface {
	CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI is a Completer for OpenAI-compatible chat completion api.
// Clients are created lazily per api key, as the key comes with settings.
type OpenAI struct {
	baseURL   string
	newClient func(apiKey string) openAIClient
	clients   map[string]openAIClient
	mu        sync.Mutex
}

// NewOpenAI makes a Completer for OpenAI. Empty baseURL means the default OpenAI endpoint.
func NewOpenAI(baseURL string) *OpenAI {
	res := &OpenAI{baseURL: baseURL, clients: map[string]openAIClient{}}
	res.newClient = func(apiKey string) openAIClient {
		cfg := openai.DefaultConfig(apiKey)
		if res.baseURL != "" {
			cfg.BaseURL = res.baseURL
		}
		return openai.NewClientWithConfig(cfg)
	}
	return res
}

// Complete sends chat completion request with system and user messages, returns the first choice
func (o *OpenAI) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	resp, err := o.client(req.APIKey).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &APIError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", &APIError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
		}
		return "", fmt.Errorf("openai request failed: %w", err)
	}

	// OpenAI platform supports returning multiple chat completion choices, but we use only the first one
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAI) client(apiKey string) openAIClient {
	o.mu.Lock()
	defer o.mu.Unlock()
	if c, ok := o.clients[apiKey]; ok {
		return c
	}
	if len(o.clients) > 8 {
		clear(o.clients)
	}
	c := o.newClient(apiKey)
	o.clients[apiKey] = c
	return c
}
