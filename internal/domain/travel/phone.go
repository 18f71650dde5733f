package travel

import (
	"regexp"
	"strings"
)

// e164Pattern matches phone numbers in E.164 format.
var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// NormalizePhone strips all whitespace from a phone number and validates the
// result against E.164. Returns a ValidationError describing the expected
// format on failure.
func NormalizePhone(raw string) (string, error) {
	normalized := strings.Join(strings.Fields(raw), "")
	if !e164Pattern.MatchString(normalized) {
		return "", &ValidationError{
			Field:   "phone",
			Message: "must be in E.164 format (e.g. +14165551234), got " + quoteValue(raw),
		}
	}
	return normalized, nil
}

// quoteValue quotes a value for inclusion in an error message.
func quoteValue(s string) string {
	if s == "" {
		return "an empty value"
	}
	return `"` + s + `"`
}
