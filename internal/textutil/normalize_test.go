package textutil

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"roman numeral", "Diablo IV", "diablo4"},
		{"arabic numeral", "diablo 4", "diablo4"},
		{"lowercase roman", "final fantasy vii", "finalfantasy7"},
		{"thirteen", "Final Fantasy XIII", "finalfantasy13"},
		{"numeral embedded in word is kept", "Civilization", "civilization"},
		{"mixed token is kept", "Vivid", "vivid"},
		{"numeral before punctuation", "Street Fighter V: Champion Edition", "streetfighter5championedition"},
		{"ampersand", "Ratchet & Clank", "ratchetandclank"},
		{"punctuation stripped", "Marvel's Spider-Man 2", "marvelsspiderman2"},
		{"accented letters dropped", "Pokémon Légendes", "pokmonlgendes"},
		{"underscore joins tokens", "Final_Fantasy_X", "finalfantasyx"},
		{"underscore glued numerals kept", "V_I", "vi"},
		{"empty", "", ""},
		{"whitespace only", "   \t", ""},
		{"symbols only", "™ — !!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeEquatesConjunctionSpellings(t *testing.T) {
	a := Normalize("Borderlands 2: Commander Lilith & the Fight for Sanctuary")
	b := Normalize("Borderlands 2: Commander Lilith and the Fight for Sanctuary")
	if a != b {
		t.Fatalf("expected %q == %q", a, b)
	}
}

func TestNormalizeIsCaseInsensitive(t *testing.T) {
	if Normalize("DIABLO IV") != Normalize("diablo iv") {
		t.Fatal("expected case-insensitive normalization")
	}
}
