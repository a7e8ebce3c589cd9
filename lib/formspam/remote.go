package formspam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	tokenizer "github.com/sandwich-go/gpt3-encoder"

	"github.com/umputun/form-spam/lib/spamcheck"
)

//go:generate moq --out mocks/completer.go --pkg mocks --skip-ensure --with-resets . Completer

// errors returned by the remote detector along with the result
var (
	ErrNotConfigured = errors.New("remote detector not configured")
	ErrRateLimited   = errors.New("rate limit exceeded")
	ErrTransport     = errors.New("remote call failed")
	ErrParse         = errors.New("can't parse remote response")
)

// Provider is a remote model provider
type Provider string

// enum of supported providers
const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// default models per provider
const (
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultGeminiModel = "gemini-2.0-flash"
)

var allowedModels = map[Provider][]string{
	ProviderOpenAI: {"gpt-4o-mini", "gpt-5-mini", "gpt-4o", "gpt-5", "gpt-4-turbo", "gpt-3.5-turbo"},
	ProviderGemini: {"gemini-2.0-flash", "gemini-2.0-flash-lite", "gemini-2.5-flash", "gemini-2.5-pro"},
}

const systemPrompt = "You are a spam detection expert. " +
	"Analyze form submissions and provide accurate spam scores with reasoning."

const promptTemplate = `Analyze the following form submission and determine if it is spam. Consider these factors:

1. Is the content coherent and meaningful?
2. Does it appear to be generated by AI or a bot (repetitive patterns, unnatural phrasing)?
3. Does it contain suspicious links or promotional content?
4. Is the language appropriate and consistent (expected language: %s)?
5. Does it seem like a genuine inquiry or message?
6. Check for common spam patterns (excessive keywords, weird character usage, SEO spam)

Form submission content:
---
%s
---

Respond ONLY with a JSON object in this exact format:
{
  "spam_score": 0.0,
  "is_spam": false,
  "reasoning": "Brief explanation",
  "confidence": "high/medium/low",
  "detected_language": "language code"
}

spam_score should be between 0.0 (definitely not spam) and 1.0 (definitely spam).
is_spam should be true if spam_score >= 0.7`

var reJSONObject = regexp.MustCompile(`\{[^}]+\}`)

// Completer sends a single chat completion request to a remote model and returns the reply text
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest is a provider-neutral chat completion request
type CompletionRequest struct {
	APIKey      string
	Model       string
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// APIError is a non-200 response of the remote api
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// RemoteConfig contains parameters of the remote detector
type RemoteConfig struct {
	Provider          Provider      // openai by default
	APIKey            string        // credential, remote detector is not configured without it
	Model             string        // model name, replaced by the provider's default if not allowed
	Timeout           time.Duration // request timeout, 45s by default
	MaxTokensResponse int           // response budget, 500 by default
	MaxTokensRequest  int           // max length of the content in tokens
	MaxSymbolsRequest int           // fallback: max length of the content in symbols, if tokenizer failed
}

// Remote is a detector backed by a remote language model
type Remote struct {
	RemoteConfig
	completer Completer
	limiter   RateLimiter
}

// NewRemote makes a remote detector. Unknown models are replaced by the provider default.
func NewRemote(cfg RemoteConfig, completer Completer, limiter RateLimiter) *Remote {
	if cfg.Provider == "" {
		cfg.Provider = ProviderOpenAI
	}
	cfg.Model = AllowedModel(cfg.Provider, cfg.Model)
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.MaxTokensResponse <= 0 {
		cfg.MaxTokensResponse = 500
	}
	if cfg.MaxTokensRequest <= 0 {
		cfg.MaxTokensRequest = 2048
	}
	if cfg.MaxSymbolsRequest <= 0 {
		cfg.MaxSymbolsRequest = 8192
	}
	return &Remote{RemoteConfig: cfg, completer: completer, limiter: limiter}
}

// AllowedModel returns the model if it is in the provider's allow-list, provider default otherwise
func AllowedModel(p Provider, model string) string {
	if slices.Contains(allowedModels[p], model) {
		return model
	}
	if p == ProviderGemini {
		return DefaultGeminiModel
	}
	return DefaultOpenAIModel
}

// Analyze asks the remote model to score the text. The result is always filled, the error
// tells why the result carries no real signal: ErrNotConfigured, ErrRateLimited, ErrTransport or ErrParse.
func (r *Remote) Analyze(ctx context.Context, text, expectedLanguage, caller string) (spamcheck.Result, error) {
	if r.APIKey == "" || r.completer == nil {
		return spamcheck.Result{Reason: "API key not configured"}, ErrNotConfigured
	}

	if r.limiter != nil {
		key := caller
		if key == "" {
			key = "unknown"
		}
		allowed, count, err := r.limiter.Allow(ctx, key)
		if err != nil {
			return spamcheck.Result{Error: true, Reason: "Rate limiter failed"},
				fmt.Errorf("%w: rate limiter: %w", ErrTransport, err)
		}
		if !allowed {
			log.Printf("[WARN] remote rate limit exceeded for %s, calls: %d", key, count)
			return spamcheck.Result{Score: 0.5, Error: true, Reason: "Rate limit exceeded"}, ErrRateLimited
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	prompt := fmt.Sprintf(promptTemplate, html.EscapeString(LanguageName(expectedLanguage)),
		html.EscapeString(r.reduceRequest(text)))
	reply, err := r.completer.Complete(ctx, CompletionRequest{
		APIKey:      r.APIKey,
		Model:       r.Model,
		System:      systemPrompt,
		Prompt:      prompt,
		Temperature: 0.3,
		MaxTokens:   r.MaxTokensResponse,
	})
	if err != nil {
		return spamcheck.Result{Error: true, Reason: err.Error()}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	log.Printf("[DEBUG] remote %s/%s reply: %q", r.Provider, r.Model, reply)
	return parseReply(reply)
}

// reduceRequest cuts the text to the token budget, falls back to symbols if tokenizer fails
func (r *Remote) reduceRequest(text string) string {
	defaultReducer := func(text string) string {
		if len([]rune(text)) <= r.MaxSymbolsRequest {
			return text
		}
		return string([]rune(text)[:r.MaxSymbolsRequest])
	}

	encoder, err := tokenizer.NewEncoder()
	if err != nil {
		return defaultReducer(text)
	}
	tokens, err := encoder.Encode(text)
	if err != nil {
		return defaultReducer(text)
	}
	if len(tokens) <= r.MaxTokensRequest {
		return text
	}
	return encoder.Decode(tokens[:r.MaxTokensRequest])
}

// parseReply extracts the first json object from the reply and coerces its fields
func parseReply(reply string) (spamcheck.Result, error) {
	match := reJSONObject.FindString(reply)
	if match == "" {
		return spamcheck.Result{Error: true, Reason: "Could not parse AI response"},
			fmt.Errorf("%w: no json object in %q", ErrParse, reply)
	}

	var v map[string]any
	if err := json.Unmarshal([]byte(match), &v); err != nil || len(v) == 0 {
		return spamcheck.Result{Error: true, Reason: "Invalid JSON in response"},
			fmt.Errorf("%w: invalid json %q", ErrParse, match)
	}

	return spamcheck.Result{
		Score:            spamcheck.Clamp(toFloat(v["spam_score"])),
		Spam:             toBool(v["is_spam"]),
		Reason:           sanitizeText(toString(v["reasoning"])),
		Confidence:       spamcheck.ParseConfidence(toString(v["confidence"])),
		DetectedLanguage: NormalizeLanguageCode(sanitizeText(toString(v["detected_language"]))),
	}, nil
}

func toFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return f
	case bool:
		if val {
			return 1
		}
	}
	return 0
}

func toBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		return err == nil && b
	}
	return false
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", v)
}
