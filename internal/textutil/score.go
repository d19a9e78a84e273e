package textutil

import "strings"

// Relevance tiers returned by Score.
const (
	ScoreExact             = 100
	ScoreCandidatePrefix   = 90
	ScoreQueryPrefix       = 85
	ScoreCandidateHasQuery = 70
	ScoreQueryHasCandidate = 60
	ScoreNone              = 0
)

// MinContainedLength is the shortest normalized candidate allowed to earn
// ScoreQueryHasCandidate, so titles like "It" do not match every query.
const MinContainedLength = 4

// Score rates how well candidate matches query. Both sides are normalized
// first; an empty normalized value on either side never matches.
func Score(query, candidate string) int {
	return ScoreNormalized(Normalize(query), Normalize(candidate))
}

// ScoreNormalized is Score for inputs that are already normalized.
func ScoreNormalized(q, c string) int {
	switch {
	case q == "" || c == "":
		return ScoreNone
	case q == c:
		return ScoreExact
	case strings.HasPrefix(c, q):
		return ScoreCandidatePrefix
	case strings.HasPrefix(q, c):
		return ScoreQueryPrefix
	case strings.Contains(c, q):
		return ScoreCandidateHasQuery
	case strings.Contains(q, c) && len(c) >= MinContainedLength:
		return ScoreQueryHasCandidate
	default:
		return ScoreNone
	}
}
