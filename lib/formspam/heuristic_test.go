package formspam

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/form-spam/lib/spamcheck"
)

const spamText = "BUY NOW!!! http://bit.ly/x http://bit.ly/y http://bit.ly/z http://bit.ly/w click here free money"

func TestHeuristic_Analyze(t *testing.T) {
	h := NewHeuristic()

	t.Run("spam", func(t *testing.T) {
		res := h.Analyze(spamText, DefaultSettings())
		assert.True(t, res.Spam)
		assert.Equal(t, 1.0, res.Score)
		names := []string{}
		for _, c := range res.Checks {
			names = append(names, c.Name)
		}
		assert.Contains(t, names, CheckLinks)
		assert.Contains(t, names, CheckPhrases)
		assert.Equal(t, len(res.Checks), res.ChecksPerformed)
		assert.True(t, strings.HasPrefix(res.Reason, "[{link_check: "), res.Reason)
	})

	t.Run("ham", func(t *testing.T) {
		res := h.Analyze("Hello, I would like to request a quote for your services. Thank you.", DefaultSettings())
		assert.Equal(t, spamcheck.Result{}, res)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, spamcheck.Result{}, h.Analyze("  \n ", DefaultSettings()))
	})

	t.Run("all checks disabled", func(t *testing.T) {
		s := DefaultSettings()
		s.DisableLinkCheck, s.DisableCharacterCheck, s.DisablePhraseCheck, s.DisableEmailCheck = true, true, true, true
		res := h.Analyze(spamText, s)
		assert.Equal(t, 0.0, res.Score)
		assert.False(t, res.Spam)
		assert.Empty(t, res.Checks)
	})

	t.Run("below threshold", func(t *testing.T) {
		res := h.Analyze("this is urgent", DefaultSettings())
		assert.InDelta(t, 0.2, res.Score, 0.0001)
		assert.False(t, res.Spam)
		assert.Equal(t, 1, res.ChecksPerformed)
	})

	t.Run("threshold is inclusive", func(t *testing.T) {
		s := DefaultSettings()
		s.HeuristicThreshold = 0.2
		res := h.Analyze("this is urgent", s)
		assert.True(t, res.Spam)
	})
}

func TestHeuristic_LoadPhrases(t *testing.T) {
	h := NewHeuristic()
	n, err := h.LoadPhrases(strings.NewReader("# comment\nmagic pill\n\nBUY NOW\nMagic Pill\n"),
		strings.NewReader("crypto doubler"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	res := h.Analyze("get the magic pill and the crypto doubler", DefaultSettings())
	assert.InDelta(t, 0.4, res.Score, 0.0001)

	// reload replaces previous extra phrases
	n, err = h.LoadPhrases(strings.NewReader("something else"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	res = h.Analyze("get the magic pill", DefaultSettings())
	assert.Equal(t, 0.0, res.Score)
}

func TestHeuristic_PluginChecks(t *testing.T) {
	h := NewHeuristic()
	h.WithPluginChecks(map[string]Check{
		"big": func(string) spamcheck.CheckResult {
			return spamcheck.CheckResult{Name: "lua-big", Score: 2, Reasons: []string{"too big"}}
		},
		"zero": func(string) spamcheck.CheckResult { return spamcheck.CheckResult{Name: "lua-zero"} },
	})

	res := h.Analyze("a perfectly fine message", DefaultSettings())
	require.Len(t, res.Checks, 1)
	assert.Equal(t, "plugin:big", res.Checks[0].Name)
	assert.Equal(t, 1.0, res.Checks[0].Score)
	assert.Equal(t, 1.0, res.Score)
	assert.True(t, res.Spam)
}

func TestHeuristic_Concurrent(t *testing.T) {
	h := NewHeuristic()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			res := h.Analyze(spamText, DefaultSettings())
			assert.True(t, res.Spam)
		}()
		go func() {
			defer wg.Done()
			_, err := h.LoadPhrases(strings.NewReader("magic pill"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
