package formspam

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Settings is a per-call snapshot of scoring configuration. It is passed by value and never mutated by the detector.
type Settings struct {
	HeuristicEnabled      bool    `json:"heuristic_enabled" yaml:"heuristic_enabled"`
	HeuristicThreshold    float64 `json:"heuristic_threshold" yaml:"heuristic_threshold"`
	DisableLinkCheck      bool    `json:"disable_link_check" yaml:"disable_link_check"`
	DisableCharacterCheck bool    `json:"disable_character_check" yaml:"disable_character_check"`
	DisablePhraseCheck    bool    `json:"disable_phrase_check" yaml:"disable_phrase_check"`
	DisableEmailCheck     bool    `json:"disable_email_check" yaml:"disable_email_check"`

	MarkDifferentLanguageSpam bool    `json:"mark_different_language_spam" yaml:"mark_different_language_spam"`
	LanguageSpamScoreBoost    float64 `json:"language_spam_score_boost" yaml:"language_spam_score_boost"`
	ExpectedLanguage          string  `json:"expected_language" yaml:"expected_language"` // locale or language code, like de_DE

	AIThreshold   float64 `json:"ai_threshold" yaml:"ai_threshold"` // threshold for the composite score
	OpenAIEnabled bool    `json:"openai_enabled" yaml:"openai_enabled"`
	OpenAIAPIKey  string  `json:"openai_api_key" yaml:"openai_api_key"`
	OpenAIModel   string  `json:"openai_model" yaml:"openai_model"`
}

// DefaultSettings returns settings with default values, the only place defaults are defined
func DefaultSettings() Settings {
	return Settings{
		HeuristicEnabled:       true,
		HeuristicThreshold:     0.6,
		LanguageSpamScoreBoost: 0.3,
		ExpectedLanguage:       "en",
		AIThreshold:            0.6,
		OpenAIModel:            DefaultOpenAIModel,
	}
}

// Validate checks settings ranges, returns all problems found
func (s Settings) Validate() error {
	var errs *multierror.Error
	inRange := func(name string, v float64) {
		if v < 0 || v > 1 {
			errs = multierror.Append(errs, fmt.Errorf("%s must be in [0,1], got %v", name, v))
		}
	}
	inRange("heuristic_threshold", s.HeuristicThreshold)
	inRange("language_spam_score_boost", s.LanguageSpamScoreBoost)
	inRange("ai_threshold", s.AIThreshold)
	if s.MarkDifferentLanguageSpam && NormalizeLanguageCode(s.ExpectedLanguage) == "" {
		errs = multierror.Append(errs, fmt.Errorf("invalid expected_language %q", s.ExpectedLanguage))
	}
	if s.OpenAIEnabled && s.OpenAIAPIKey == "" {
		errs = multierror.Append(errs, errors.New("openai_api_key is required when openai is enabled"))
	}
	return errs.ErrorOrNil()
}
