package sources

import (
	"math"
	"strings"
	"time"

	"gamelens/internal/compat"
	"gamelens/internal/textutil"
)

// NormalizeRating rescales score from a 0..maxScore scale to 0..100, rounding
// to the nearest integer and clamping to the valid range.
func NormalizeRating(score, maxScore float64) int {
	if maxScore <= 0 {
		maxScore = 100
	}
	scaled := int(math.Round(score / maxScore * 100))
	return min(max(scaled, 0), 100)
}

// UnixToISODate formats a Unix timestamp in seconds as YYYY-MM-DD in UTC.
// Zero yields "".
func UnixToISODate(ts int64) string {
	if ts == 0 {
		return ""
	}
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}

// MatchesByNameAndDate reports whether a candidate is the target title: the
// normalized names must be equal and, when both dates are known, fall within
// toleranceDays of each other.
func MatchesByNameAndDate(targetName, targetDate, name, date string, toleranceDays int) bool {
	if textutil.Normalize(targetName) != textutil.Normalize(name) {
		return false
	}
	return compat.NewChecker(toleranceDays).DatesCompatible(targetDate, date)
}

// FindMatch returns the first item matching the target by name and date.
func FindMatch[T any](items []T, targetName, targetDate string, toleranceDays int, nameOf, dateOf func(T) string) (T, bool) {
	for _, item := range items {
		if MatchesByNameAndDate(targetName, targetDate, nameOf(item), dateOf(item), toleranceDays) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// FormatImageURL makes protocol-relative URLs absolute and optionally swaps
// a size segment, e.g. IGDB's "t_thumb" for "t_cover_big".
func FormatImageURL(raw, fromSize, toSize string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	if fromSize != "" && toSize != "" {
		raw = strings.Replace(raw, fromSize, toSize, 1)
	}
	return raw
}
