package utils

import (
	"regexp"
	"testing"
)

var normalizedShape = regexp.MustCompile(`^[a-z0-9]*( [a-z0-9]+)*$`)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "only punctuation", input: " -- !! ", want: ""},
		{name: "lower-cases", input: "Dominaria", want: "dominaria"},
		{name: "collapses punctuation runs", input: "Commander: Legends -- Battle", want: "commander legends battle"},
		{name: "trims edges", input: "  (Kaldheim)  ", want: "kaldheim"},
		{name: "keeps digits", input: "Core Set 2021", want: "core set 2021"},
		{name: "folds accents", input: "Lórien Édition", want: "lorien edition"},
		{name: "apostrophes split tokens", input: "Urza's Saga", want: "urza s saga"},
		{name: "non-latin dropped", input: "神河 Kamigawa", want: "kamigawa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_IdempotentAndShaped(t *testing.T) {
	inputs := []string{
		"",
		"The Lord of the Rings: Tales of Middle-earth™",
		"Innistrad: Crimson Vow — Commander",
		"\t\nZendikar Rising  ",
		"Æther Revolt",
		"Duel Decks: Elves vs. Goblins",
		"30th Anniversary Edition",
		"ÑOÑO ÀÉÎÕÜ",
		"___",
	}

	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
		if !normalizedShape.MatchString(once) {
			t.Errorf("Normalize(%q) = %q does not match canonical shape", in, once)
		}
	}
}

func TestTighten(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "commander masters", want: "commander"},
		{input: "the lord of the rings", want: "lord of rings"},
		{input: "fourth edition", want: "fourth"},
		{input: "masters", want: ""},
		{input: "settlers of catan", want: "settlers of catan"},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		if got := Tighten(tt.input); got != tt.want {
			t.Errorf("Tighten(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
