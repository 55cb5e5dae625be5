// Package matcher implements the locale-insensitive name matching used to
// resolve specialties from free-text input.
package matcher

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Canonicalize lowers the input and strips diacritical marks, producing the
// ASCII-comparable canonical form ("Cardiología" -> "cardiologia").
func Canonicalize(input string) string {
	lowered := strings.ToLower(strings.TrimSpace(input))
	stripped, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		return lowered
	}
	return stripped
}

// Match returns the indexes of candidates whose canonical form equals the
// canonical form of the input. Matching is exact equality, not substring.
func Match(input string, candidates []string) []int {
	canonical := Canonicalize(input)
	var matches []int
	for i, candidate := range candidates {
		if Canonicalize(candidate) == canonical {
			matches = append(matches, i)
		}
	}
	return matches
}
