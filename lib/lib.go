// Package lib provides functionality for spam scoring of form and comment submissions. The scoring lives in
// the formspam package, the shared request, result and verdict types in the spamcheck package.
//
// The primary type is formspam.Detector. It is initialized with parameters defined in formspam.Config and is
// safe for concurrent use. Every call gets a formspam.Settings snapshot, so settings can be changed between
// calls without touching the detector.
//
// Scoring runs in stages, each adding to the composite score clamped to [0,1]:
//
//   - Heuristic: links, character patterns, spam phrases and e-mail addresses found in the normalized text.
//     Extra phrases can be loaded with Detector.LoadPhrases, one phrase per line. Lua plugins registered with
//     Detector.WithPluginEngine work as additional heuristic checks.
//
//   - Language: enabled with Settings.MarkDifferentLanguageSpam, adds Settings.LanguageSpamScoreBoost if the
//     detected language differs from Settings.ExpectedLanguage.
//
//   - Remote: enabled with Settings.OpenAIEnabled, asks the remote model (OpenAI or Gemini, see
//     Detector.WithRemote) only if local stages left the submission below the threshold. Calls are
//     limited per caller by formspam.RateLimiter.
//
// A submission is spam once the composite score reaches Settings.AIThreshold or any stage says so.
// Stage failures never make a submission spam, they are reported in the stage result with Error set.
package lib
