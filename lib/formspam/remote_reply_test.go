package formspam

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/form-spam/lib/spamcheck"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		expected spamcheck.Result
	}{
		{
			name:     "plain",
			reply:    `{"spam_score": 0.2, "is_spam": false, "reasoning": "looks fine", "confidence": "medium", "detected_language": "de"}`,
			expected: spamcheck.Result{Score: 0.2, Reason: "looks fine", Confidence: spamcheck.ConfidenceMedium, DetectedLanguage: "de"},
		},
		{
			name:     "string values",
			reply:    "```json\n{\"spam_score\": \"0.75\", \"is_spam\": \"true\"}\n```",
			expected: spamcheck.Result{Score: 0.75, Spam: true, Confidence: spamcheck.ConfidenceLow},
		},
		{
			name:     "numeric bool and clamped score",
			reply:    `{"spam_score": 5, "is_spam": 1, "confidence": "absolute", "detected_language": "unknown"}`,
			expected: spamcheck.Result{Score: 1, Spam: true, Confidence: spamcheck.ConfidenceLow},
		},
		{
			name:     "negative score",
			reply:    `{"spam_score": -1, "is_spam": "nope"}`,
			expected: spamcheck.Result{Score: 0, Confidence: spamcheck.ConfidenceLow},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := parseReply(tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, res)
		})
	}
}

func TestRemote_ReduceRequest(t *testing.T) {
	r := NewRemote(RemoteConfig{APIKey: "key", MaxTokensRequest: 10}, nil, nil)
	short := "hello world"
	assert.Equal(t, short, r.reduceRequest(short))

	long := strings.Repeat("hello world ", 100)
	reduced := r.reduceRequest(long)
	assert.Less(t, len(reduced), len(long))
	assert.True(t, strings.HasPrefix(long, reduced))
}

func TestNewRemote_Defaults(t *testing.T) {
	r := NewRemote(RemoteConfig{}, nil, nil)
	assert.Equal(t, ProviderOpenAI, r.Provider)
	assert.Equal(t, DefaultOpenAIModel, r.Model)
	assert.Equal(t, 500, r.MaxTokensResponse)
	assert.Equal(t, 2048, r.MaxTokensRequest)
	assert.Equal(t, 8192, r.MaxSymbolsRequest)
	assert.Equal(t, "45s", r.Timeout.String())

	g := NewRemote(RemoteConfig{Provider: ProviderGemini, Model: "gpt-4o"}, nil, nil)
	assert.Equal(t, DefaultGeminiModel, g.Model)
}
