package formspam_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/form-spam/lib/formspam"
	"github.com/umputun/form-spam/lib/formspam/mocks"
	"github.com/umputun/form-spam/lib/spamcheck"
)

func completerWith(reply string, err error) *mocks.CompleterMock {
	return &mocks.CompleterMock{
		CompleteFunc: func(context.Context, formspam.CompletionRequest) (string, error) { return reply, err },
	}
}

func TestRemote_NotConfigured(t *testing.T) {
	cm := completerWith(`{"spam_score": 1}`, nil)
	r := formspam.NewRemote(formspam.RemoteConfig{}, cm, nil)
	res, err := r.Analyze(context.Background(), "some text", "en", "1.2.3.4")
	require.ErrorIs(t, err, formspam.ErrNotConfigured)
	assert.Equal(t, spamcheck.Result{Reason: "API key not configured"}, res)
	assert.Empty(t, cm.CompleteCalls())
}

func TestRemote_Analyze(t *testing.T) {
	cm := completerWith(`Sure! {"spam_score": 0.85, "is_spam": true, "reasoning": "promo <b>links</b>",
		"confidence": "HIGH", "detected_language": "en-US"} hope it helps`, nil)
	lm := &mocks.RateLimiterMock{AllowFunc: func(context.Context, string) (bool, int, error) { return true, 1, nil }}
	r := formspam.NewRemote(formspam.RemoteConfig{APIKey: "secret", Model: "unknown-model"}, cm, lm)

	res, err := r.Analyze(context.Background(), "<b>hi</b> & bye", "de_DE", "")
	require.NoError(t, err)
	assert.Equal(t, spamcheck.Result{Score: 0.85, Spam: true, Reason: "promo links",
		Confidence: spamcheck.ConfidenceHigh, DetectedLanguage: "en"}, res)

	require.Len(t, lm.AllowCalls(), 1)
	assert.Equal(t, "unknown", lm.AllowCalls()[0].Key)

	require.Len(t, cm.CompleteCalls(), 1)
	req := cm.CompleteCalls()[0].Req
	assert.Equal(t, "secret", req.APIKey)
	assert.Equal(t, formspam.DefaultOpenAIModel, req.Model)
	assert.Equal(t, float32(0.3), req.Temperature)
	assert.Equal(t, 500, req.MaxTokens)
	assert.Contains(t, req.System, "spam detection expert")
	assert.Contains(t, req.Prompt, "(expected language: German)")
	assert.Contains(t, req.Prompt, "---\n&lt;b&gt;hi&lt;/b&gt; &amp; bye\n---")
	assert.Contains(t, req.Prompt, `"spam_score": 0.0`)
}

func TestRemote_RateLimited(t *testing.T) {
	cm := completerWith(`{"spam_score": 0.1, "is_spam": false}`, nil)
	r := formspam.NewRemote(formspam.RemoteConfig{APIKey: "secret"}, cm, formspam.NewMemoryLimiter(1, time.Hour))

	res, err := r.Analyze(context.Background(), "text", "en", "1.2.3.4")
	require.NoError(t, err)
	assert.InDelta(t, 0.1, res.Score, 0.0001)

	res, err = r.Analyze(context.Background(), "text", "en", "1.2.3.4")
	require.ErrorIs(t, err, formspam.ErrRateLimited)
	assert.Equal(t, spamcheck.Result{Score: 0.5, Error: true, Reason: "Rate limit exceeded"}, res)
	assert.Len(t, cm.CompleteCalls(), 1, "no outbound call when limited")

	_, err = r.Analyze(context.Background(), "text", "en", "5.6.7.8")
	require.NoError(t, err, "other caller is not limited")
}

func TestRemote_LimiterFailure(t *testing.T) {
	cm := completerWith(`{"spam_score": 0.1}`, nil)
	lm := &mocks.RateLimiterMock{AllowFunc: func(context.Context, string) (bool, int, error) {
		return false, 0, errors.New("redis down")
	}}
	r := formspam.NewRemote(formspam.RemoteConfig{APIKey: "secret"}, cm, lm)
	res, err := r.Analyze(context.Background(), "text", "en", "1.2.3.4")
	require.ErrorIs(t, err, formspam.ErrTransport)
	assert.Contains(t, err.Error(), "redis down")
	assert.Equal(t, spamcheck.Result{Error: true, Reason: "Rate limiter failed"}, res)
	assert.Empty(t, cm.CompleteCalls())
}

func TestRemote_TransportError(t *testing.T) {
	cm := completerWith("", &formspam.APIError{StatusCode: 500, Message: "boom"})
	r := formspam.NewRemote(formspam.RemoteConfig{APIKey: "secret"}, cm, nil)
	res, err := r.Analyze(context.Background(), "text", "en", "1.2.3.4")
	require.ErrorIs(t, err, formspam.ErrTransport)
	var apiErr *formspam.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Equal(t, spamcheck.Result{Error: true, Reason: "API error (500): boom"}, res)
	assert.Len(t, cm.CompleteCalls(), 1, "never retried")
}

func TestRemote_Timeout(t *testing.T) {
	cm := &mocks.CompleterMock{CompleteFunc: func(ctx context.Context, _ formspam.CompletionRequest) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	r := formspam.NewRemote(formspam.RemoteConfig{APIKey: "secret", Timeout: 20 * time.Millisecond}, cm, nil)
	res, err := r.Analyze(context.Background(), "text", "en", "1.2.3.4")
	require.ErrorIs(t, err, formspam.ErrTransport)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, res.Error)
}

func TestRemote_ParseErrors(t *testing.T) {
	tests := []struct {
		reply, reason string
	}{
		{"I think it is spam", "Could not parse AI response"},
		{"{}", "Could not parse AI response"},
		{"{not json}", "Invalid JSON in response"},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			r := formspam.NewRemote(formspam.RemoteConfig{APIKey: "secret"}, completerWith(tt.reply, nil), nil)
			res, err := r.Analyze(context.Background(), "text", "en", "1.2.3.4")
			require.ErrorIs(t, err, formspam.ErrParse)
			assert.Equal(t, spamcheck.Result{Error: true, Reason: tt.reason}, res)
		})
	}
}

func TestAllowedModel(t *testing.T) {
	assert.Equal(t, "gpt-4o", formspam.AllowedModel(formspam.ProviderOpenAI, "gpt-4o"))
	assert.Equal(t, formspam.DefaultOpenAIModel, formspam.AllowedModel(formspam.ProviderOpenAI, "gemini-2.5-pro"))
	assert.Equal(t, "gemini-2.5-pro", formspam.AllowedModel(formspam.ProviderGemini, "gemini-2.5-pro"))
	assert.Equal(t, formspam.DefaultGeminiModel, formspam.AllowedModel(formspam.ProviderGemini, "gpt-4o"))
}
