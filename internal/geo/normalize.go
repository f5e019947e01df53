// Package geo turns free-text locations into coordinates and measures
// distances between them.
//
// Resolution order is gazetteer, then cache, then a rate-limited external
// lookup. Every stage degrades to "no coordinates" rather than failing.
package geo

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases text, strips accents, turns punctuation into spaces
// and collapses whitespace runs. The result is the gazetteer and cache key.
func Normalize(text string) string {
	// Casers and transform chains are stateful; build them per call.
	stripAccents := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(stripAccents, cases.Fold().String(text))
	if err != nil {
		s = strings.ToLower(text)
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
