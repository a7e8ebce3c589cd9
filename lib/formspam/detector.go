package formspam

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/umputun/form-spam/lib/spamcheck"
)

//go:generate moq --out mocks/plugin_engine.go --pkg mocks --skip-ensure --with-resets . PluginEngine

// Detector is a scoring orchestrator, thread-safe.
// It runs cheap local stages first and calls the remote model only while the local verdict is uncertain.
type Detector struct {
	Config
	heuristic    *Heuristic
	completer    Completer
	limiter      RateLimiter
	remoteCfg    RemoteConfig
	pluginEngine PluginEngine
	history      *spamcheck.LastRecords
	lock         sync.RWMutex
}

// Config is a set of parameters for Detector.
type Config struct {
	HistorySize int // number of recent verdicts to keep in memory

	LuaPlugins struct {
		Enabled        bool     // if true, enable Lua plugins
		PluginsDir     string   // directory with Lua plugins
		EnabledPlugins []string // list of enabled plugins (by name, without .lua extension), all if empty
	}
}

// PluginEngine defines an interface for the plugin system providing extra heuristic checks
type PluginEngine interface {
	LoadDirectory(dir string) error      // loads all scripts from a directory
	GetCheck(name string) (Check, error) // returns a specific named plugin check
	GetAllChecks() map[string]Check      // returns all loaded plugin checks
	Close()                              // cleans up resources
}

// method names of the stages contributing to the score
const (
	methodHeuristic = "heuristic"
	methodLanguage  = "language"
)

// NewDetector makes a new Detector with the given config.
func NewDetector(p Config) *Detector {
	return &Detector{
		Config:    p,
		heuristic: NewHeuristic(),
		history:   spamcheck.NewLastRecords(p.HistorySize),
	}
}

// WithRemote sets the remote model completer and its rate limiter.
// Credential and model come with settings on every call, the rest of cfg is used as is.
func (d *Detector) WithRemote(completer Completer, limiter RateLimiter, cfg RemoteConfig) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.completer = completer
	d.limiter = limiter
	d.remoteCfg = cfg
}

// WithPluginEngine sets a plugin engine, loads plugins and registers enabled ones as heuristic checks
func (d *Detector) WithPluginEngine(engine PluginEngine) error {
	d.lock.Lock()
	d.pluginEngine = engine
	d.lock.Unlock()

	if !d.LuaPlugins.Enabled || d.LuaPlugins.PluginsDir == "" {
		return nil
	}

	if err := engine.LoadDirectory(d.LuaPlugins.PluginsDir); err != nil {
		return fmt.Errorf("failed to load lua plugins: %w", err)
	}

	checks := map[string]Check{}
	if len(d.LuaPlugins.EnabledPlugins) == 0 {
		checks = engine.GetAllChecks()
	}
	for _, name := range d.LuaPlugins.EnabledPlugins {
		c, err := engine.GetCheck(name)
		if err != nil {
			return fmt.Errorf("failed to get lua check %q: %w", name, err)
		}
		checks[name] = c
	}
	d.heuristic.WithPluginChecks(checks)
	log.Printf("[INFO] loaded %d lua plugin checks from %s", len(checks), d.LuaPlugins.PluginsDir)
	return nil
}

// LoadPhrases loads extra spam phrases, replacing previously loaded ones
func (d *Detector) LoadPhrases(readers ...io.Reader) (int, error) {
	return d.heuristic.LoadPhrases(readers...)
}

// History returns up to n most recent scoring records
func (d *Detector) History(n int) []spamcheck.Record {
	return d.history.Last(n)
}

// Close releases the plugin engine, if any
func (d *Detector) Close() {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.pluginEngine != nil {
		d.pluginEngine.Close()
		d.pluginEngine = nil
	}
}

// Check scores a submission from the caller, a shortcut for Score with a fresh request
func (d *Detector) Check(ctx context.Context, sub spamcheck.Submission, s Settings, caller string) spamcheck.Verdict {
	return d.Score(ctx, spamcheck.Request{Submission: sub, Caller: caller}, s)
}

// Score runs heuristic, language and remote stages over a submission and returns the composite verdict.
// The composite score is clamped after every stage. A stage failure never makes a submission spam,
// it is logged and the stage contributes nothing.
func (d *Detector) Score(ctx context.Context, req spamcheck.Request, s Settings) spamcheck.Verdict {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	res := spamcheck.Verdict{ID: req.ID}
	methods := []string{}

	text := d.normalize(req)
	hasContent := strings.TrimSpace(text) != ""
	threshold := s.AIThreshold

	add := func(score float64, method string) {
		if score <= 0 {
			return
		}
		res.Score = spamcheck.Clamp(res.Score + score)
		methods = append(methods, method)
		if res.Score >= threshold {
			res.Spam = true
		}
	}

	if s.HeuristicEnabled && hasContent {
		hr := d.runHeuristic(text, s)
		res.Stages.Heuristic = &hr
		add(hr.Score, methodHeuristic)
		if hr.Spam {
			res.Spam = true
		}
	}

	if s.MarkDifferentLanguageSpam && hasContent {
		lr := d.runLanguage(text, s)
		res.Stages.Language = &lr
		add(lr.ScoreBoost, methodLanguage)
	}

	if !res.Spam && res.Score < threshold && s.OpenAIEnabled && hasContent {
		if rr, ok := d.runRemote(ctx, text, req.Caller, s); ok {
			res.Stages.Remote = &rr
			add(rr.Score, string(d.provider()))
			if rr.Spam {
				res.Spam = true
			}
		}
	}

	res.Method = strings.Join(methods, "+")
	d.history.Push(spamcheck.Record{Request: req, Verdict: res})
	log.Printf("[DEBUG] scored %s, %s", req.String(), res.String())
	return res
}

func (d *Detector) normalize(req spamcheck.Request) (text string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WARN] normalizer failed for %s: %v", req.ID, r)
			text = ""
		}
	}()
	return Normalize(req.Submission)
}

// runHeuristic runs heuristic detector, a panic is reported as a failed stage with zero score
func (d *Detector) runHeuristic(text string, s Settings) (res spamcheck.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WARN] heuristic detector failed: %v", r)
			res = spamcheck.Result{Error: true, Reason: fmt.Sprintf("heuristic detector failed: %v", r)}
		}
	}()
	return d.heuristic.Analyze(text, s)
}

// runLanguage compares detected and expected languages, unknown on either side is never a mismatch
func (d *Detector) runLanguage(text string, s Settings) (res spamcheck.LanguageResult) {
	res.Expected = NormalizeLanguageCode(s.ExpectedLanguage)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WARN] language detector failed: %v", r)
			res.ScoreBoost = 0
		}
	}()
	res.Detected = NormalizeLanguageCode(DetectLanguage(text))
	if res.Expected != "" && res.Detected != "" && res.Expected != res.Detected {
		res.ScoreBoost = s.LanguageSpamScoreBoost
	}
	return res
}

// runRemote calls the remote detector. Returns false if the remote detector is not available at all.
// Errors are logged and the result, filled for every failure, is reported as is.
func (d *Detector) runRemote(ctx context.Context, text, caller string, s Settings) (spamcheck.Result, bool) {
	d.lock.RLock()
	completer, limiter, cfg := d.completer, d.limiter, d.remoteCfg
	d.lock.RUnlock()
	if completer == nil {
		return spamcheck.Result{}, false
	}

	cfg.APIKey = s.OpenAIAPIKey
	cfg.Model = s.OpenAIModel
	res, err := NewRemote(cfg, completer, limiter).Analyze(ctx, text, s.ExpectedLanguage, caller)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotConfigured):
		log.Printf("[DEBUG] remote detector skipped: %v", err)
	default:
		log.Printf("[WARN] remote detector failed for %s: %v", caller, err)
	}
	return res, true
}

func (d *Detector) provider() Provider {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.remoteCfg.Provider == "" {
		return ProviderOpenAI
	}
	return d.remoteCfg.Provider
}
