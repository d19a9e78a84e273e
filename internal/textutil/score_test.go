package textutil

import "testing"

func TestScoreTiers(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate string
		want      int
	}{
		{"exact", "Hades", "hades", ScoreExact},
		{"exact after numeral folding", "Diablo 4", "Diablo IV", ScoreExact},
		{"candidate starts with query", "Street Fighter 5", "Street Fighter 5: Champion Edition", ScoreCandidatePrefix},
		{"query starts with candidate", "Hollow Knight Silksong", "Hollow Knight", ScoreQueryPrefix},
		{"candidate contains query", "Knight", "Hollow Knight", ScoreCandidateHasQuery},
		{"query contains long candidate", "The Witcher 3 Wild Hunt", "Witcher 3", ScoreQueryHasCandidate},
		{"query contains short candidate", "Sitting Duck", "It", ScoreNone},
		{"unrelated", "Hades", "Celeste", ScoreNone},
		{"accented letter is not folded", "Pokemon", "Pokémon", ScoreNone},
		{"underscore title keeps numeral letter", "Final Fantasy X", "Final_Fantasy_X", ScoreNone},
		{"empty query", "", "Hades", ScoreNone},
		{"empty candidate", "Hades", "!!", ScoreNone},
		{"both empty", "", "", ScoreNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.query, tt.candidate); got != tt.want {
				t.Fatalf("Score(%q, %q) = %d, want %d", tt.query, tt.candidate, got, tt.want)
			}
		})
	}
}

func TestScoreContainedLengthBoundary(t *testing.T) {
	// "abcd" is exactly four characters and sits in the middle of the query.
	if got := ScoreNormalized("xxabcdxx", "abcd"); got != ScoreQueryHasCandidate {
		t.Fatalf("expected 4-char candidate to qualify, got %d", got)
	}
	if got := ScoreNormalized("xxabcxx", "abc"); got != ScoreNone {
		t.Fatalf("expected 3-char candidate to be rejected, got %d", got)
	}
}
