package formspam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.True(t, s.HeuristicEnabled)
	assert.Equal(t, 0.6, s.HeuristicThreshold)
	assert.Equal(t, 0.3, s.LanguageSpamScoreBoost)
	assert.Equal(t, 0.6, s.AIThreshold)
	assert.Equal(t, DefaultOpenAIModel, s.OpenAIModel)
	assert.False(t, s.OpenAIEnabled)
	assert.False(t, s.MarkDifferentLanguageSpam)
	require.NoError(t, s.Validate())
}

func TestSettings_Validate(t *testing.T) {
	s := DefaultSettings()
	s.HeuristicThreshold = 1.5
	s.AIThreshold = -0.1
	s.MarkDifferentLanguageSpam = true
	s.ExpectedLanguage = "??"
	s.OpenAIEnabled = true

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "heuristic_threshold must be in [0,1], got 1.5")
	assert.Contains(t, err.Error(), "ai_threshold must be in [0,1], got -0.1")
	assert.Contains(t, err.Error(), `invalid expected_language "??"`)
	assert.Contains(t, err.Error(), "openai_api_key is required when openai is enabled")

	s = DefaultSettings()
	s.MarkDifferentLanguageSpam = true
	s.ExpectedLanguage = "de_DE"
	s.OpenAIEnabled = true
	s.OpenAIAPIKey = "key"
	assert.NoError(t, s.Validate())
}
