// Package iso8601 provides helpers for the ISO-8601 duration strings used by
// travel supplier APIs (e.g. "PT2H30M").
package iso8601

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var durationPattern = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// FormatDuration renders a duration as an ISO-8601 duration string.
// Negative durations are rendered as "PT0M".
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "PT0M"
	}
	total := int64(d / time.Minute)
	days := total / (24 * 60)
	hours := (total % (24 * 60)) / 60
	minutes := total % 60

	out := "P"
	if days > 0 {
		out += fmt.Sprintf("%dD", days)
	}
	if hours > 0 || minutes > 0 || days == 0 {
		out += "T"
		if hours > 0 {
			out += fmt.Sprintf("%dH", hours)
		}
		if minutes > 0 || (days == 0 && hours == 0) {
			out += fmt.Sprintf("%dM", minutes)
		}
	}
	return out
}

// ParseDuration parses an ISO-8601 duration string.
// Only day/hour/minute/second designators are supported; year and month
// designators are ambiguous and rejected.
func ParseDuration(s string) (time.Duration, error) {
	matches := durationPattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", s)
	}
	if s == "P" || s == "PT" {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", s)
	}

	var d time.Duration
	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
	for i, unit := range units {
		if matches[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(matches[i+1])
		if err != nil {
			return 0, fmt.Errorf("invalid ISO-8601 duration %q: %w", s, err)
		}
		d += time.Duration(n) * unit
	}
	return d, nil
}
