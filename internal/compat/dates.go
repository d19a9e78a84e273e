package compat

import (
	"strings"
	"time"
)

// DefaultToleranceDays is the widest gap between two release dates that still
// counts as the same release.
const DefaultToleranceDays = 31

// dayLayouts name a single calendar day.
var dayLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// partialLayouts only pin down a month or a year and parse to its first day.
var partialLayouts = []string{
	"2006-01",
	"2006",
}

// ParseDate parses the date formats the catalog sources emit, including
// month and year precision. The returned time is truncated to the UTC
// calendar day.
func ParseDate(value string) (time.Time, bool) {
	if day, ok := ParseDay(value); ok {
		return day, true
	}
	return parseLayouts(value, partialLayouts)
}

// ParseDay is ParseDate restricted to values that name a specific day.
func ParseDay(value string) (time.Time, bool) {
	return parseLayouts(value, dayLayouts)
}

func parseLayouts(value string, layouts []string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		parsed = parsed.UTC()
		return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

func withinDays(a, b time.Time, days int) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= time.Duration(days)*24*time.Hour
}
