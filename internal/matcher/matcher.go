// Package matcher decides whether a free-text guess names a case's diagnosis
// and powers the autocomplete suggestions shown while typing a guess.
package matcher

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"daily-diagnosis-bot/internal/model"
)

// DefaultSuggestionLimit is the number of suggestions returned when no limit is given.
const DefaultSuggestionLimit = 10

// Normalize lower-cases s and trims surrounding whitespace.
// Interior whitespace is kept as-is, so "heart  attack" and "heart attack" differ.
// Input is composed to NFC first so precomposed and combining accents compare equal.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

// IsCorrect reports whether guess names the diagnosis of c, either by its
// canonical name or one of its alternative names.
func IsCorrect(guess string, c model.Case) bool {
	g := Normalize(guess)
	if g == "" {
		return false
	}
	if g == Normalize(c.CanonicalName) {
		return true
	}
	for _, alt := range c.AlternativeNames {
		if g == Normalize(alt) {
			return true
		}
	}
	return false
}

// Suggestions returns up to limit lexicon terms containing query, case-insensitively.
// Terms are returned in lexicon order with their original casing; a term whose
// lower-cased form was already returned is skipped. Whitespace around query
// is ignored.
func Suggestions(query string, lexicon Lexicon, limit int) []string {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	q = strings.ToLower(q)

	seen := make(map[string]struct{}, limit)
	out := make([]string, 0, limit)
	for _, term := range lexicon {
		lower := strings.ToLower(term)
		if !strings.Contains(lower, q) {
			continue
		}
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, term)
		if len(out) == limit {
			break
		}
	}
	return out
}
