package spamcheck

import (
	"fmt"
	"strings"
)

// Request is a request to score a submission for spam.
type Request struct {
	ID         string     `json:"id"`         // submission id, threaded through scoring and persistence
	Submission Submission `json:"submission"` // submitted fields, in the order they were posted
	Caller     string     `json:"caller"`     // caller identity (usually ip), used for remote rate limiting
	Meta       MetaData   `json:"meta"`       // meta-info, provided by the client
}

// MetaData is a meta-info about the submission, provided by the client.
type MetaData struct {
	Type      string `json:"type"`       // submission type, "form" or "comment"
	FormID    string `json:"form_id"`    // form or post id, if any
	UserAgent string `json:"user_agent"` // user agent of the submitter
}

func (r *Request) String() string {
	return fmt.Sprintf("id:%s, caller:%q, type:%s, form:%q, fields:%d",
		r.ID, r.Caller, r.Meta.Type, r.Meta.FormID, len(r.Submission))
}

// Confidence is a self-reported confidence of the remote model
type Confidence string

// enum of confidence levels
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence returns a known confidence level, low for anything else
func ParseConfidence(s string) Confidence {
	switch c := Confidence(strings.ToLower(strings.TrimSpace(s))); c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return c
	}
	return ConfidenceLow
}

// CheckResult is a result of a single heuristic check.
type CheckResult struct {
	Name    string   `json:"name"`    // name of the check
	Score   float64  `json:"score"`   // score in [0,1]
	Reasons []string `json:"reasons"` // deduplicated reasons, in the order they were found
}

// Add increases the score and records the reason once
func (c *CheckResult) Add(score float64, reason string) {
	c.Score += score
	for _, r := range c.Reasons {
		if r == reason {
			return
		}
	}
	c.Reasons = append(c.Reasons, reason)
}

// Clamp limits the score to [0,1]
func (c *CheckResult) Clamp() {
	c.Score = Clamp(c.Score)
}

func (c *CheckResult) String() string {
	return fmt.Sprintf("%s: %.2f, %s", c.Name, c.Score, strings.Join(c.Reasons, "; "))
}

// Result is a result of a detector, either the heuristic aggregate or the remote model verdict.
type Result struct {
	Score            float64       `json:"score"`                       // score in [0,1]
	Spam             bool          `json:"spam"`                        // true if spam
	Error            bool          `json:"error,omitempty"`             // true if detector failed or was limited
	Reason           string        `json:"reason,omitempty"`            // human-readable reason or error message
	Confidence       Confidence    `json:"confidence,omitempty"`        // remote model confidence
	DetectedLanguage string        `json:"detected_language,omitempty"` // two-letter code, remote model only
	Checks           []CheckResult `json:"checks,omitempty"`            // heuristic checks with non-zero score
	ChecksPerformed  int           `json:"checks_performed,omitempty"`  // number of heuristic checks with non-zero score
}

func (r *Result) String() string {
	spamOrHam := "ham"
	if r.Spam {
		spamOrHam = "spam"
	}
	res := fmt.Sprintf("%s, score:%.2f", spamOrHam, r.Score)
	if r.Reason != "" {
		res += ", " + r.Reason
	}
	if r.Error {
		res += " (error)"
	}
	return res
}

// LanguageResult is a result of the language mismatch stage
type LanguageResult struct {
	Expected   string  `json:"expected"`    // expected language, two-letter code
	Detected   string  `json:"detected"`    // detected language, two-letter code or empty
	ScoreBoost float64 `json:"score_boost"` // score added to composite, zero if languages match or unknown
}

// Stages keeps outputs of the scoring stages. A nil stage did not run.
type Stages struct {
	Heuristic *Result         `json:"heuristic,omitempty"`
	Language  *LanguageResult `json:"language,omitempty"`
	Remote    *Result         `json:"remote,omitempty"`
}

// Verdict is a final outcome of scoring a single submission.
type Verdict struct {
	ID     string  `json:"id"`     // submission id
	Score  float64 `json:"score"`  // composite score in [0,1]
	Spam   bool    `json:"spam"`   // final verdict
	Method string  `json:"method"` // stages contributed to the score, like "heuristic+language"
	Stages Stages  `json:"stages"` // per-stage outputs
}

func (v *Verdict) String() string {
	spamOrHam := "ham"
	if v.Spam {
		spamOrHam = "spam"
	}
	return fmt.Sprintf("%s: %s, score:%.2f, method:%q", v.ID, spamOrHam, v.Score, v.Method)
}

// ChecksToString converts a slice of checks to a string
func ChecksToString(checks []CheckResult) string {
	elems := []string{}
	for _, c := range checks {
		elems = append(elems, "{"+c.String()+"}")
	}
	return fmt.Sprintf("[%s]", strings.Join(elems, ", "))
}

// Clamp limits score to [0,1]
func Clamp(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}
