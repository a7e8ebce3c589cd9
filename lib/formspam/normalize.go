package formspam

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/umputun/form-spam/lib/spamcheck"
)

var (
	reTags       = regexp.MustCompile(`<[^>]*>`)
	reWhitespace = regexp.MustCompile(`\s+`)
	reNumeric    = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
)

// Normalize flattens a submission into a newline-joined text, one line per field.
// Technical fields (key starts with "_") and fields with purely numeric keys are skipped,
// nested values are flattened to sanitized leaves joined with ", ", empty values are dropped.
func Normalize(sub spamcheck.Submission) string {
	parts := make([]string, 0, len(sub))
	for _, f := range sub {
		if strings.HasPrefix(f.Key, "_") || isNumericKey(f.Key) {
			continue
		}

		var val string
		switch v := f.Value.(type) {
		case []any, []string, spamcheck.Submission, map[string]any:
			val = strings.Join(flatten(v), ", ")
		default:
			val = scalarString(v)
		}
		if val == "" {
			continue
		}
		parts = append(parts, val)
	}
	return strings.Join(parts, "\n")
}

// NormalizeText returns already normalized text as is, with invalid utf-8 dropped
func NormalizeText(text string) string {
	return strings.ToValidUTF8(text, "")
}

// flatten returns sanitized non-empty scalar leaves of a nested value, in order
func flatten(value any) []string {
	res := []string{}
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			res = append(res, flatten(item)...)
		}
	case []string:
		for _, item := range v {
			res = append(res, flatten(item)...)
		}
	case spamcheck.Submission:
		for _, f := range v {
			res = append(res, flatten(f.Value)...)
		}
	case map[string]any:
		// plain maps have no order, used only when built by hand
		for _, item := range v {
			res = append(res, flatten(item)...)
		}
	default:
		if s := sanitizeText(scalarString(v)); s != "" {
			res = append(res, s)
		}
	}
	return res
}

// scalarString renders a scalar value, false and nil render as empty string
func scalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.ToValidUTF8(val, "")
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "1"
		}
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case fmt.Stringer:
		return val.String()
	}
	return ""
}

// sanitizeText strips html tags, collapses whitespace and trims the result
func sanitizeText(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = reTags.ReplaceAllString(s, "")
	s = reWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func isNumericKey(key string) bool {
	return reNumeric.MatchString(strings.TrimSpace(key))
}
