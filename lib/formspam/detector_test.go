package formspam_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/form-spam/lib/formspam"
	"github.com/umputun/form-spam/lib/formspam/mocks"
	"github.com/umputun/form-spam/lib/spamcheck"
)

func message(text string) spamcheck.Submission {
	return spamcheck.Submission{{Key: "message", Value: text}}
}

// fixedPlugins makes a plugin engine with a single check returning the given score
func fixedPlugins(score float64) *mocks.PluginEngineMock {
	return &mocks.PluginEngineMock{
		LoadDirectoryFunc: func(string) error { return nil },
		GetAllChecksFunc: func() map[string]formspam.Check {
			return map[string]formspam.Check{"fixed": func(string) spamcheck.CheckResult {
				return spamcheck.CheckResult{Name: "lua-fixed", Score: score, Reasons: []string{"fixed"}}
			}}
		},
		CloseFunc: func() {},
	}
}

func pluginConfig() formspam.Config {
	cfg := formspam.Config{HistorySize: 10}
	cfg.LuaPlugins.Enabled = true
	cfg.LuaPlugins.PluginsDir = "plugins"
	return cfg
}

func onlyPlugins(s formspam.Settings) formspam.Settings {
	s.DisableLinkCheck, s.DisableCharacterCheck, s.DisablePhraseCheck, s.DisableEmailCheck = true, true, true, true
	return s
}

func TestDetector_ScenarioA(t *testing.T) {
	d := formspam.NewDetector(formspam.Config{})
	res := d.Score(context.Background(), spamcheck.Request{Submission: message("BUY NOW!!! http://bit.ly/x " +
		"http://bit.ly/y http://bit.ly/z http://bit.ly/w click here free money")}, formspam.DefaultSettings())

	assert.True(t, res.Spam)
	assert.GreaterOrEqual(t, res.Score, 0.6)
	assert.Equal(t, "heuristic", res.Method)
	require.NotNil(t, res.Stages.Heuristic)
	assert.Nil(t, res.Stages.Language)
	assert.Nil(t, res.Stages.Remote)

	fired := map[string]bool{}
	for _, c := range res.Stages.Heuristic.Checks {
		fired[c.Name] = true
	}
	assert.True(t, fired[formspam.CheckLinks])
	assert.True(t, fired[formspam.CheckPhrases])
}

func TestDetector_ScenarioB(t *testing.T) {
	d := formspam.NewDetector(formspam.Config{})
	res := d.Score(context.Background(), spamcheck.Request{
		Submission: message("Hello, I would like to request a quote for your services. Thank you.")},
		formspam.DefaultSettings())

	assert.False(t, res.Spam)
	assert.Equal(t, 0.0, res.Score)
	assert.Empty(t, res.Method)
	require.NotNil(t, res.Stages.Heuristic, "heuristic ran even with zero score")
	assert.Equal(t, 0.0, res.Stages.Heuristic.Score)
	assert.Nil(t, res.Stages.Remote)
}

func TestDetector_ScenarioC(t *testing.T) {
	d := formspam.NewDetector(formspam.Config{})
	s := formspam.DefaultSettings()
	s.HeuristicEnabled = false
	s.MarkDifferentLanguageSpam = true
	s.ExpectedLanguage = "en"
	s.LanguageSpamScoreBoost = 0.3
	sub := message("Здравствуйте, хочу заказать вашу услугу на следующей неделе")

	res := d.Score(context.Background(), spamcheck.Request{Submission: sub}, s)
	assert.InDelta(t, 0.3, res.Score, 0.0001)
	assert.False(t, res.Spam)
	assert.Equal(t, "language", res.Method)
	assert.Nil(t, res.Stages.Heuristic)
	require.NotNil(t, res.Stages.Language)
	assert.Equal(t, spamcheck.LanguageResult{Expected: "en", Detected: "ru", ScoreBoost: 0.3}, *res.Stages.Language)

	s.LanguageSpamScoreBoost = 0.7
	res = d.Score(context.Background(), spamcheck.Request{Submission: sub}, s)
	assert.InDelta(t, 0.7, res.Score, 0.0001)
	assert.True(t, res.Spam)
}

func TestDetector_LanguageUnknownIsNotMismatch(t *testing.T) {
	d := formspam.NewDetector(formspam.Config{})
	s := formspam.DefaultSettings()
	s.HeuristicEnabled = false
	s.MarkDifferentLanguageSpam = true

	res := d.Score(context.Background(), spamcheck.Request{Submission: message("ȸȹȺȻȼ ȽȾ")}, s)
	assert.Equal(t, 0.0, res.Score)
	require.NotNil(t, res.Stages.Language)
	assert.Equal(t, spamcheck.LanguageResult{Expected: "en"}, *res.Stages.Language)

	s.ExpectedLanguage = ""
	res = d.Score(context.Background(), spamcheck.Request{Submission: message("Привет, как у тебя дела?")}, s)
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, spamcheck.LanguageResult{Detected: "ru"}, *res.Stages.Language)

	s.ExpectedLanguage = "en_US"
	res = d.Score(context.Background(), spamcheck.Request{Submission: message("Hello, how are you?")}, s)
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, spamcheck.LanguageResult{Expected: "en", Detected: "en"}, *res.Stages.Language)
}

func TestDetector_ScenarioD(t *testing.T) {
	cm := completerWith(`{"spam_score": 0.1, "is_spam": false}`, nil)
	d := formspam.NewDetector(pluginConfig())
	require.NoError(t, d.WithPluginEngine(fixedPlugins(0.65)))
	d.WithRemote(cm, formspam.NewMemoryLimiter(60, time.Hour), formspam.RemoteConfig{})

	s := onlyPlugins(formspam.DefaultSettings())
	s.OpenAIEnabled = true
	s.OpenAIAPIKey = "secret"

	res := d.Score(context.Background(), spamcheck.Request{Submission: message("some text"), Caller: "1.2.3.4"}, s)
	assert.InDelta(t, 0.65, res.Score, 0.0001)
	assert.True(t, res.Spam)
	assert.Nil(t, res.Stages.Remote)
	assert.Empty(t, cm.CompleteCalls(), "remote is not called when local verdict is certain")
}

func TestDetector_RemoteAddsToComposite(t *testing.T) {
	cm := completerWith(`{"spam_score": 0.5, "is_spam": false, "confidence": "high"}`, nil)
	d := formspam.NewDetector(pluginConfig())
	require.NoError(t, d.WithPluginEngine(fixedPlugins(0.3)))
	d.WithRemote(cm, nil, formspam.RemoteConfig{})

	s := onlyPlugins(formspam.DefaultSettings())
	s.OpenAIEnabled = true
	s.OpenAIAPIKey = "secret"

	res := d.Score(context.Background(), spamcheck.Request{Submission: message("some text")}, s)
	assert.InDelta(t, 0.8, res.Score, 0.0001)
	assert.True(t, res.Spam, "composite reached threshold")
	assert.Equal(t, "heuristic+openai", res.Method)
	require.NotNil(t, res.Stages.Remote)
	assert.Equal(t, spamcheck.ConfidenceHigh, res.Stages.Remote.Confidence)
	assert.Len(t, cm.CompleteCalls(), 1)
}

func TestDetector_RemoteSpamFlag(t *testing.T) {
	cm := completerWith(`{"spam_score": 0.2, "is_spam": true}`, nil)
	d := formspam.NewDetector(formspam.Config{})
	d.WithRemote(cm, nil, formspam.RemoteConfig{Provider: formspam.ProviderGemini})

	s := formspam.DefaultSettings()
	s.OpenAIEnabled = true
	s.OpenAIAPIKey = "secret"
	res := d.Score(context.Background(), spamcheck.Request{Submission: message("Hello there, nice site")}, s)
	assert.True(t, res.Spam, "remote spam flag is or-ed into the verdict")
	assert.InDelta(t, 0.2, res.Score, 0.0001)
	assert.Equal(t, "gemini", res.Method)
	require.Len(t, cm.CompleteCalls(), 1)
	assert.Equal(t, formspam.DefaultGeminiModel, cm.CompleteCalls()[0].Req.Model)
}

func TestDetector_ScenarioE(t *testing.T) {
	cm := completerWith(`{"spam_score": 0.1, "is_spam": false}`, nil)
	d := formspam.NewDetector(formspam.Config{})
	d.WithRemote(cm, formspam.NewMemoryLimiter(1, time.Hour), formspam.RemoteConfig{})

	s := formspam.DefaultSettings()
	s.OpenAIEnabled = true
	s.OpenAIAPIKey = "secret"
	req := spamcheck.Request{Submission: message("Hello there, nice site"), Caller: "1.2.3.4"}

	res := d.Score(context.Background(), req, s)
	assert.InDelta(t, 0.1, res.Score, 0.0001)
	require.NotNil(t, res.Stages.Remote)
	assert.False(t, res.Stages.Remote.Error)

	res = d.Score(context.Background(), req, s)
	require.NotNil(t, res.Stages.Remote)
	assert.Equal(t, spamcheck.Result{Score: 0.5, Error: true, Reason: "Rate limit exceeded"}, *res.Stages.Remote)
	assert.InDelta(t, 0.5, res.Score, 0.0001, "neutral score is counted")
	assert.False(t, res.Spam)
	assert.Len(t, cm.CompleteCalls(), 1, "no outbound call when limited")
}

func TestDetector_RemoteFailureFailsOpen(t *testing.T) {
	cm := completerWith("", errors.New("connection refused"))
	d := formspam.NewDetector(formspam.Config{})
	d.WithRemote(cm, nil, formspam.RemoteConfig{})

	s := formspam.DefaultSettings()
	s.OpenAIEnabled = true
	s.OpenAIAPIKey = "secret"
	res := d.Score(context.Background(), spamcheck.Request{Submission: message("Hello there, nice site")}, s)
	assert.False(t, res.Spam)
	assert.Equal(t, 0.0, res.Score)
	require.NotNil(t, res.Stages.Remote)
	assert.True(t, res.Stages.Remote.Error)
	assert.Equal(t, "connection refused", res.Stages.Remote.Reason)
}

func TestDetector_RemoteNotConfigured(t *testing.T) {
	cm := completerWith(`{"spam_score": 1}`, nil)
	d := formspam.NewDetector(formspam.Config{})
	d.WithRemote(cm, nil, formspam.RemoteConfig{})

	s := formspam.DefaultSettings()
	s.OpenAIEnabled = true
	res := d.Score(context.Background(), spamcheck.Request{Submission: message("Hello there")}, s)
	require.NotNil(t, res.Stages.Remote)
	assert.Equal(t, spamcheck.Result{Reason: "API key not configured"}, *res.Stages.Remote)
	assert.Empty(t, cm.CompleteCalls())
	assert.False(t, res.Spam)
}

func TestDetector_NoRemoteWithoutCompleter(t *testing.T) {
	d := formspam.NewDetector(formspam.Config{})
	s := formspam.DefaultSettings()
	s.OpenAIEnabled = true
	s.OpenAIAPIKey = "secret"
	res := d.Score(context.Background(), spamcheck.Request{Submission: message("Hello there")}, s)
	assert.Nil(t, res.Stages.Remote)
}

func TestDetector_EmptySubmission(t *testing.T) {
	cm := completerWith(`{"spam_score": 1}`, nil)
	d := formspam.NewDetector(formspam.Config{})
	d.WithRemote(cm, nil, formspam.RemoteConfig{})

	s := formspam.DefaultSettings()
	s.MarkDifferentLanguageSpam = true
	s.OpenAIEnabled = true
	s.OpenAIAPIKey = "secret"
	res := d.Score(context.Background(), spamcheck.Request{Submission: spamcheck.Submission{
		{Key: "_token", Value: "abc"}, {Key: "message", Value: "   "}}}, s)
	assert.Equal(t, spamcheck.Stages{}, res.Stages, "no stage runs on empty content")
	assert.False(t, res.Spam)
	assert.Empty(t, cm.CompleteCalls())
}

func TestDetector_PluginPanicFailsOpen(t *testing.T) {
	engine := &mocks.PluginEngineMock{
		LoadDirectoryFunc: func(string) error { return nil },
		GetAllChecksFunc: func() map[string]formspam.Check {
			return map[string]formspam.Check{"bad": func(string) spamcheck.CheckResult { panic("oops") }}
		},
	}
	d := formspam.NewDetector(pluginConfig())
	require.NoError(t, d.WithPluginEngine(engine))

	res := d.Score(context.Background(), spamcheck.Request{Submission: message("buy now")}, formspam.DefaultSettings())
	assert.False(t, res.Spam)
	assert.Equal(t, 0.0, res.Score)
	require.NotNil(t, res.Stages.Heuristic)
	assert.True(t, res.Stages.Heuristic.Error)
	assert.Contains(t, res.Stages.Heuristic.Reason, "oops")
}

func TestDetector_WithPluginEngine(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		engine := &mocks.PluginEngineMock{CloseFunc: func() {}}
		d := formspam.NewDetector(formspam.Config{})
		require.NoError(t, d.WithPluginEngine(engine))
		d.Close()
		assert.Len(t, engine.CloseCalls(), 1)
		d.Close()
		assert.Len(t, engine.CloseCalls(), 1, "closed once")
	})

	t.Run("enabled plugins", func(t *testing.T) {
		engine := &mocks.PluginEngineMock{
			LoadDirectoryFunc: func(string) error { return nil },
			GetCheckFunc: func(name string) (formspam.Check, error) {
				if name == "missing" {
					return nil, errors.New("not found")
				}
				return func(string) spamcheck.CheckResult { return spamcheck.CheckResult{Score: 0.1} }, nil
			},
		}
		cfg := pluginConfig()
		cfg.LuaPlugins.EnabledPlugins = []string{"one", "two"}
		d := formspam.NewDetector(cfg)
		require.NoError(t, d.WithPluginEngine(engine))
		require.Len(t, engine.LoadDirectoryCalls(), 1)
		assert.Equal(t, "plugins", engine.LoadDirectoryCalls()[0].Dir)
		assert.Len(t, engine.GetCheckCalls(), 2)

		res := d.Score(context.Background(), spamcheck.Request{Submission: message("text")},
			onlyPlugins(formspam.DefaultSettings()))
		assert.InDelta(t, 0.2, res.Score, 0.0001)

		cfg.LuaPlugins.EnabledPlugins = []string{"missing"}
		d = formspam.NewDetector(cfg)
		assert.EqualError(t, d.WithPluginEngine(engine), `failed to get lua check "missing": not found`)
	})

	t.Run("load error", func(t *testing.T) {
		engine := &mocks.PluginEngineMock{LoadDirectoryFunc: func(string) error { return errors.New("no dir") }}
		d := formspam.NewDetector(pluginConfig())
		assert.EqualError(t, d.WithPluginEngine(engine), "failed to load lua plugins: no dir")
	})
}

func TestDetector_IDAndHistory(t *testing.T) {
	d := formspam.NewDetector(formspam.Config{HistorySize: 2})
	s := formspam.DefaultSettings()

	res := d.Score(context.Background(), spamcheck.Request{ID: "id-1", Submission: message("one")}, s)
	assert.Equal(t, "id-1", res.ID)

	res = d.Check(context.Background(), message("two"), s, "1.2.3.4")
	assert.Len(t, res.ID, 36, "uuid generated")

	d.Check(context.Background(), message("three"), s, "1.2.3.4")
	hist := d.History(5)
	require.Len(t, hist, 2)
	assert.Equal(t, res.ID, hist[0].Verdict.ID)
	assert.Equal(t, "1.2.3.4", hist[1].Request.Caller)
}

func TestDetector_LoadPhrases(t *testing.T) {
	d := formspam.NewDetector(formspam.Config{})
	n, err := d.LoadPhrases(strings.NewReader("magic pill\ncrypto doubler\nmiracle gains"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	res := d.Score(context.Background(), spamcheck.Request{
		Submission: message("magic pill, crypto doubler and miracle gains")}, formspam.DefaultSettings())
	assert.True(t, res.Spam)
	assert.InDelta(t, 0.6, res.Score, 0.0001)
}

func TestDetector_ScoreBounded(t *testing.T) {
	cm := completerWith(`{"spam_score": 1, "is_spam": true}`, nil)
	d := formspam.NewDetector(pluginConfig())
	require.NoError(t, d.WithPluginEngine(fixedPlugins(0.5)))
	d.WithRemote(cm, nil, formspam.RemoteConfig{})

	s := formspam.DefaultSettings()
	s.MarkDifferentLanguageSpam = true
	s.LanguageSpamScoreBoost = 1
	s.AIThreshold = 1
	s.HeuristicThreshold = 1
	s.OpenAIEnabled = true
	s.OpenAIAPIKey = "secret"

	for _, text := range []string{"Привет", "BUY NOW click here free money http://bit.ly/a", "hello", "日本"} {
		res := d.Score(context.Background(), spamcheck.Request{Submission: message(text)}, s)
		assert.GreaterOrEqual(t, res.Score, 0.0)
		assert.LessOrEqual(t, res.Score, 1.0)
	}
}
