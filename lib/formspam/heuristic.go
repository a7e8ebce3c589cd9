package formspam

import (
	"bufio"
	"io"
	"log"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/umputun/form-spam/lib/spamcheck"
)

// Heuristic is a local rule-based detector, thread-safe.
// It runs link, character, phrase and email checks plus optional plugin checks.
type Heuristic struct {
	extraPhrases []string
	pluginChecks map[string]Check
	lock         sync.RWMutex
}

// NewHeuristic makes a new Heuristic detector with built-in phrases
func NewHeuristic() *Heuristic {
	return &Heuristic{pluginChecks: map[string]Check{}}
}

// LoadPhrases replaces extra spam phrases, one per line, in addition to the built-in list
func (h *Heuristic) LoadPhrases(readers ...io.Reader) (int, error) {
	phrases := []string{}
	seen := map[string]bool{}
	for _, p := range SpamPhrases {
		seen[p] = true
	}
	for _, r := range readers {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			p := strings.ToLower(strings.TrimSpace(scanner.Text()))
			if p == "" || strings.HasPrefix(p, "#") || seen[p] {
				continue
			}
			seen[p] = true
			phrases = append(phrases, p)
		}
		if err := scanner.Err(); err != nil {
			log.Printf("[WARN] failed to read phrases, error=%v", err)
		}
	}

	h.lock.Lock()
	defer h.lock.Unlock()
	h.extraPhrases = phrases
	return len(phrases), nil
}

// WithPluginChecks adds named checks, each one contributes to the score as an extra check
func (h *Heuristic) WithPluginChecks(checks map[string]Check) {
	h.lock.Lock()
	defer h.lock.Unlock()
	for name, c := range checks {
		h.pluginChecks[name] = c
	}
}

// Analyze runs enabled checks on a normalized text and aggregates the score.
// Each check is clamped to [0,1] and the sum is clamped again. Only checks with non-zero score are reported.
func (h *Heuristic) Analyze(text string, s Settings) spamcheck.Result {
	if strings.TrimSpace(text) == "" {
		return spamcheck.Result{}
	}

	h.lock.RLock()
	defer h.lock.RUnlock()

	checks := []Check{}
	if !s.DisableLinkCheck {
		checks = append(checks, LinksCheck())
	}
	if !s.DisableCharacterCheck {
		checks = append(checks, CharactersCheck())
	}
	if !s.DisablePhraseCheck {
		checks = append(checks, PhrasesCheck(h.phrases))
	}
	if !s.DisableEmailCheck {
		checks = append(checks, EmailsCheck())
	}
	for _, name := range slices.Sorted(maps.Keys(h.pluginChecks)) {
		checks = append(checks, namedCheck("plugin:"+name, h.pluginChecks[name]))
	}

	res := spamcheck.Result{}
	total := 0.0
	for _, c := range checks {
		cr := c(text)
		cr.Clamp()
		if cr.Score <= 0 {
			continue
		}
		total += cr.Score
		res.Checks = append(res.Checks, cr)
		res.ChecksPerformed++
	}

	res.Score = spamcheck.Clamp(total)
	res.Spam = res.Score >= s.HeuristicThreshold
	if len(res.Checks) > 0 {
		res.Reason = spamcheck.ChecksToString(res.Checks)
	}
	return res
}

// phrases returns built-in and extra phrases, called under read lock
func (h *Heuristic) phrases() []string {
	if len(h.extraPhrases) == 0 {
		return SpamPhrases
	}
	res := make([]string, 0, len(SpamPhrases)+len(h.extraPhrases))
	res = append(res, SpamPhrases...)
	return append(res, h.extraPhrases...)
}

func namedCheck(name string, c Check) Check {
	return func(text string) spamcheck.CheckResult {
		res := c(text)
		res.Name = name
		return res
	}
}
