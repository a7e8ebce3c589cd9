package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/form-spam/lib/formspam"
)

func TestSettings_New(t *testing.T) {
	s := New()
	assert.Equal(t, "form-spam", s.InstanceID)
	assert.Equal(t, formspam.DefaultSettings(), s.Detection)
	assert.Equal(t, formspam.ProviderOpenAI, s.Remote.Provider)
	assert.Equal(t, 60, s.Remote.RateLimitMax)
	assert.Equal(t, time.Hour, s.Remote.RateLimitWindow)
	assert.Equal(t, 30, s.Storage.RetentionDays)
	assert.Equal(t, ":8080", s.Server.ListenAddr)
	assert.NoError(t, s.Validate())
}

func TestSettings_JSON(t *testing.T) {
	s := New()
	s.InstanceID = "test-instance"
	s.Detection.OpenAIAPIKey = "secret-openai-token"
	s.Remote.Timeout = 30 * time.Second
	s.Server.AuthHash = "secret-hash"
	s.Transient.ConfigDB = true
	s.Transient.WebAuthPasswd = "plain-passwd"

	data, err := json.Marshal(s)
	require.NoError(t, err)
	jsonStr := string(data)
	assert.Contains(t, jsonStr, "secret-openai-token")
	assert.Contains(t, jsonStr, "secret-hash")
	assert.NotContains(t, jsonStr, "plain-passwd")
	assert.NotContains(t, jsonStr, "ConfigDB")

	var s2 Settings
	require.NoError(t, json.Unmarshal(data, &s2))
	assert.Equal(t, "test-instance", s2.InstanceID)
	assert.Equal(t, 30*time.Second, s2.Remote.Timeout)
	assert.Equal(t, "secret-openai-token", s2.Detection.OpenAIAPIKey)
	assert.Equal(t, TransientSettings{}, s2.Transient)
}

func TestParse(t *testing.T) {
	t.Run("empty input keeps defaults", func(t *testing.T) {
		s, err := Parse(strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, New(), s)
	})

	t.Run("partial yaml over defaults", func(t *testing.T) {
		s, err := Parse(strings.NewReader(`
instance_id: blog
detection:
  ai_threshold: 0.8
  mark_different_language_spam: true
  expected_language: de_DE
remote:
  provider: gemini
  rate_limit_window: 30m
storage:
  retention_days: 7
`))
		require.NoError(t, err)
		assert.Equal(t, "blog", s.InstanceID)
		assert.InDelta(t, 0.8, s.Detection.AIThreshold, 0.0001)
		assert.True(t, s.Detection.MarkDifferentLanguageSpam)
		assert.Equal(t, "de_DE", s.Detection.ExpectedLanguage)
		assert.True(t, s.Detection.HeuristicEnabled, "default kept")
		assert.Equal(t, formspam.ProviderGemini, s.Remote.Provider)
		assert.Equal(t, 30*time.Minute, s.Remote.RateLimitWindow)
		assert.Equal(t, 60, s.Remote.RateLimitMax, "default kept")
		assert.Equal(t, 7, s.Storage.RetentionDays)
	})

	t.Run("unknown key rejected", func(t *testing.T) {
		_, err := Parse(strings.NewReader("detection:\n  similarity: 0.5\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse settings")
	})

	t.Run("broken yaml", func(t *testing.T) {
		_, err := Parse(strings.NewReader("detection: [1, 2"))
		require.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := Parse(strings.NewReader("detection:\n  ai_threshold: 2\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid settings")
		assert.Contains(t, err.Error(), "ai_threshold must be in [0,1]")
	})
}

func TestLoad(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "settings.yml")
	require.NoError(t, os.WriteFile(fname, []byte("server:\n  listen_addr: \":9090\"\n"), 0o600))

	s, err := Load(fname)
	require.NoError(t, err)
	assert.Equal(t, ":9090", s.Server.ListenAddr)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open settings file")
}

func TestSettings_Validate(t *testing.T) {
	tbl := []struct {
		name   string
		modify func(s *Settings)
		errs   []string
	}{
		{name: "defaults", modify: func(*Settings) {}},
		{name: "bad provider", modify: func(s *Settings) { s.Remote.Provider = "claude" },
			errs: []string{`unsupported remote provider "claude"`}},
		{name: "bad rate limit", modify: func(s *Settings) { s.Remote.RateLimitMax = 0; s.Remote.RateLimitWindow = -time.Second },
			errs: []string{"rate_limit_max must be positive", "rate_limit_window must be positive"}},
		{name: "zero timeout", modify: func(s *Settings) { s.Remote.Timeout = 0 },
			errs: []string{"remote timeout must be positive"}},
		{name: "negative retention", modify: func(s *Settings) { s.Storage.RetentionDays = -1 },
			errs: []string{"retention_days can't be negative"}},
		{name: "lua without dir", modify: func(s *Settings) { s.LuaPlugins.Enabled = true },
			errs: []string{"lua plugins enabled without plugins_dir"}},
		{name: "openai without key", modify: func(s *Settings) { s.Detection.OpenAIEnabled = true },
			errs: []string{"openai_api_key is required"}},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			tt.modify(s)
			err := s.Validate()
			if len(tt.errs) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, e := range tt.errs {
				assert.Contains(t, err.Error(), e)
			}
		})
	}
}

func TestSettings_RemoteConfig(t *testing.T) {
	s := New()
	s.Remote.Provider = formspam.ProviderGemini
	s.Remote.MaxTokensResponse = 100
	s.Detection.OpenAIAPIKey = "key"

	rc := s.RemoteConfig()
	assert.Equal(t, formspam.ProviderGemini, rc.Provider)
	assert.Equal(t, 100, rc.MaxTokensResponse)
	assert.Equal(t, 45*time.Second, rc.Timeout)
	assert.Empty(t, rc.APIKey, "credential comes with per-call settings")
}

func TestSettings_Masked(t *testing.T) {
	s := New()
	s.Detection.OpenAIAPIKey = "sk-123"
	s.Server.AuthHash = "$2a$10$hash"
	s.Transient.WebAuthPasswd = "passwd"

	m := s.Masked()
	assert.Equal(t, "****", m.Detection.OpenAIAPIKey)
	assert.Equal(t, "****", m.Server.AuthHash)
	assert.Empty(t, m.Remote.RedisURL, "empty value not masked")
	assert.Equal(t, TransientSettings{}, m.Transient)
	assert.Equal(t, "sk-123", s.Detection.OpenAIAPIKey, "original untouched")
}
