package textutil

import (
	"regexp"
	"strings"
)

// romanNumeralPattern lists longer numerals first so alternation never stops
// at a shorter prefix.
var romanNumeralPattern = regexp.MustCompile(`(?i)\b(xiii|viii|xii|vii|iii|xi|vi|iv|ix|ii|x|v|i)\b`)

var romanNumerals = map[string]string{
	"i": "1", "ii": "2", "iii": "3", "iv": "4", "v": "5", "vi": "6", "vii": "7",
	"viii": "8", "ix": "9", "x": "10", "xi": "11", "xii": "12", "xiii": "13",
}

// Normalize returns the comparison form of a title. The result contains only
// [a-z0-9] and is empty for empty or punctuation-only input. Non-ASCII
// letters are dropped rather than folded, and an underscore joins its
// neighbours into one token, so "Final_Fantasy_X" keeps its trailing x.
func Normalize(title string) string {
	if strings.TrimSpace(title) == "" {
		return ""
	}
	withDigits := romanNumeralPattern.ReplaceAllStringFunc(title, func(match string) string {
		return romanNumerals[strings.ToLower(match)]
	})
	withAnd := strings.ReplaceAll(withDigits, "&", "and")
	lowered := strings.ToLower(withAnd)

	var b strings.Builder
	b.Grow(len(lowered))
	for i := 0; i < len(lowered); i++ {
		c := lowered[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}
