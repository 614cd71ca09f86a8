package report

import (
	"strings"
	"time"
)

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07",
	"2006-01-02 15:04:05.999999999Z07",
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

const dateLayout = "2006-01-02"

// ParseEventDate parses an ISO 8601 event timestamp. Values without a zone
// are taken as UTC. The boolean is false for anything unparseable, which
// callers treat as a skipped record rather than an error.
func ParseEventDate(s string) (time.Time, bool) {
	t, _, ok := parseIn(s, time.UTC)
	return t, ok
}

// parseIn also reports whether s was a bare calendar date.
func parseIn(s string, loc *time.Location) (time.Time, bool, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, false, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, false, true
		}
	}
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, true, true
	}
	return time.Time{}, false, false
}
