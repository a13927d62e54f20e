package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// stopWords are generic words found in many official set names. They are
// removed only when scoring, never from stored names.
var stopWords = map[string]struct{}{
	"the":        {},
	"set":        {},
	"edition":    {},
	"masters":    {},
	"anthology":  {},
	"collection": {},
	"series":     {},
}

// Normalize canonicalizes a free-form name: accents are folded, letters are
// lower-cased and every run of characters outside [a-z0-9] becomes a single
// space. The result has no leading or trailing space.
//
// Normalize is idempotent.
func Normalize(s string) string {
	folded, _, err := transform.String(stripAccents, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		if isASCIIAlnum(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// Tighten drops stop words from an already normalized string and re-collapses
// whitespace.
func Tighten(normalized string) string {
	tokens := strings.Fields(normalized)
	kept := tokens[:0]
	for _, t := range tokens {
		if _, stop := stopWords[t]; stop {
			continue
		}
		kept = append(kept, t)
	}
	return strings.Join(kept, " ")
}

// Tokens splits a normalized string on whitespace.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
