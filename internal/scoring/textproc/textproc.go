// Package textproc normalizes free text into term sequences shared by the
// lexical and vector scorers, and by the cache fingerprint.
package textproc

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes combining marks after decomposition, so "Développeur"
// and "Developpeur" normalize to the same term.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var folder = cases.Fold()

// stopwords is a small language-neutral function-word list (English + French,
// matching the bilingual corpus the engine scores). Terms shorter than two
// runes are dropped regardless.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "you": {}, "are": {},
	"our": {}, "your": {}, "from": {}, "this": {}, "that": {}, "will": {},
	"not": {}, "have": {}, "has": {}, "was": {}, "were": {}, "been": {},
	"les": {}, "des": {}, "une": {}, "dans": {}, "pour": {}, "avec": {},
	"est": {}, "qui": {}, "que": {}, "sur": {}, "par": {}, "aux": {},
	"nous": {}, "vous": {}, "ils": {}, "elle": {}, "son": {}, "ses": {},
	"plus": {}, "ans": {},
}

// Normalize lower-cases, strips diacritics and punctuation noise, and splits
// text into normalized terms. It is deterministic and never fails: empty or
// unnormalizable input yields an empty sequence.
func Normalize(text string) []string {
	folded := NormalizeToken(text)
	if folded == "" {
		return nil
	}
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

// NormalizeToken case-folds and strips diacritics from a single token or
// phrase without splitting it, collapsing internal whitespace. Used for
// multi-word skill candidates so "Bâle III" matches "bale iii".
func NormalizeToken(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		// Transform failure falls back to the raw input; scoring still works,
		// only diacritic tolerance is lost for this token.
		stripped = s
	}
	return strings.Join(strings.Fields(folder.String(stripped)), " ")
}

// Joined returns the normalized terms joined by single spaces. Substring
// matching of multi-word skills and fingerprinting both run over this form.
func Joined(terms []string) string {
	return strings.Join(terms, " ")
}

// TermSet builds a membership set over a term sequence.
func TermSet(terms []string) map[string]struct{} {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	return set
}
