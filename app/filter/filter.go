// Package filter is an application boundary around formspam.Detector. It scores incoming submissions,
// persists them with verdicts, writes spam log and keeps extra spam phrases in sync with the phrases file.
package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/umputun/form-spam/app/storage"
	"github.com/umputun/form-spam/lib/formspam"
	"github.com/umputun/form-spam/lib/spamcheck"
)

//go:generate moq --out mocks/scorer.go --pkg mocks --skip-ensure --with-resets . Scorer
//go:generate moq --out mocks/submissions_store.go --pkg mocks --skip-ensure --with-resets . SubmissionsStore

// Scorer is a spam scoring interface, implemented by formspam.Detector
type Scorer interface {
	Score(ctx context.Context, req spamcheck.Request, s formspam.Settings) spamcheck.Verdict
	LoadPhrases(readers ...io.Reader) (int, error)
}

// SubmissionsStore persists scored submissions
type SubmissionsStore interface {
	Add(ctx context.Context, sub storage.Submission) (storage.Submission, error)
}

// Filter scores submissions with Scorer, stores them and logs spam.
// It never fails the caller: any problem inside makes the submission "not spam" and is logged.
type Filter struct {
	Scorer
	params   Config
	settings formspam.Settings
	lock     sync.RWMutex
}

// Config is a set of filter parameters
type Config struct {
	Store       SubmissionsStore // optional, nothing persisted if nil
	SpamLog     io.Writer        // optional, json lines for each spam submission
	PhrasesFile string           // optional, extra spam phrases one per line
	WatchDelay  time.Duration    // delay after the last phrases file change before reload
}

// NewFilter makes a filter with initial detection settings and starts phrases file watcher, if set
func NewFilter(ctx context.Context, scorer Scorer, settings formspam.Settings, params Config) *Filter {
	res := &Filter{Scorer: scorer, params: params, settings: settings}
	if params.PhrasesFile != "" {
		go func() {
			if err := res.watch(ctx, params.WatchDelay); err != nil {
				log.Printf("[WARN] phrases file watcher failed: %v", err)
			}
		}()
	}
	return res
}

// Settings returns current detection settings
func (f *Filter) Settings() formspam.Settings {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.settings
}

// UpdateSettings replaces detection settings, used for the next submissions
func (f *Filter) UpdateSettings(s formspam.Settings) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.settings = s
}

// Handle scores the request and, if persist is set, stores it with the verdict
func (f *Filter) Handle(ctx context.Context, req spamcheck.Request, persist bool) (res spamcheck.Verdict) {
	res = f.score(ctx, req)
	if req.ID == "" {
		req.ID = res.ID
	}
	if res.Spam {
		f.logSpam(req, res)
	}
	if persist && f.params.Store != nil {
		if err := f.save(ctx, req, res); err != nil {
			log.Printf("[WARN] can't save submission %s: %v", req.ID, err)
		}
	}
	return res
}

// HandleComment scores a comment and stores it as a comment submission
func (f *Filter) HandleComment(ctx context.Context, c CommentEntry, persist bool) spamcheck.Verdict {
	return f.Handle(ctx, c.Request(), persist)
}

func (f *Filter) score(ctx context.Context, req spamcheck.Request) (res spamcheck.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] scoring failed for %s: %v", req.String(), r)
			res = spamcheck.Verdict{ID: req.ID}
		}
	}()
	return f.Score(ctx, req, f.Settings())
}

func (f *Filter) save(ctx context.Context, req spamcheck.Request, v spamcheck.Verdict) error {
	text := ""
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[WARN] can't normalize submission %s: %v", req.ID, r)
			}
		}()
		text = formspam.Normalize(req.Submission)
	}()

	sub := storage.Submission{
		ID:        req.ID,
		Type:      req.Meta.Type,
		FormID:    req.Meta.FormID,
		IP:        req.Caller,
		UserAgent: req.Meta.UserAgent,
		Content:   req.Submission,
		Text:      text,
		Score:     v.Score,
		Spam:      v.Spam,
		Method:    v.Method,
		Details:   v.Stages,
	}
	if _, err := f.params.Store.Add(ctx, sub); err != nil {
		return fmt.Errorf("failed to add submission: %w", err)
	}
	return nil
}

// logSpam writes a json line about spam submission to the spam log
func (f *Filter) logSpam(req spamcheck.Request, v spamcheck.Verdict) {
	log.Printf("[INFO] spam detected, %s", v.String())
	if f.params.SpamLog == nil {
		return
	}
	text := strings.ReplaceAll(formspam.Normalize(req.Submission), "\n", " ")
	m := struct {
		TimeStamp string  `json:"ts"`
		ID        string  `json:"id"`
		Caller    string  `json:"caller"`
		Type      string  `json:"type"`
		FormID    string  `json:"form_id,omitempty"`
		Score     float64 `json:"score"`
		Method    string  `json:"method"`
		Text      string  `json:"text"`
	}{
		TimeStamp: time.Now().In(time.Local).Format(time.RFC3339),
		ID:        v.ID,
		Caller:    req.Caller,
		Type:      req.Meta.Type,
		FormID:    req.Meta.FormID,
		Score:     v.Score,
		Method:    v.Method,
		Text:      strings.TrimSpace(text),
	}
	line, err := json.Marshal(&m)
	if err != nil {
		log.Printf("[WARN] can't marshal json, %v", err)
		return
	}
	if _, err := f.params.SpamLog.Write(append(line, '\n')); err != nil {
		log.Printf("[WARN] can't write to spam log, %v", err)
	}
}
