// Package tokenizer normalises path segments and query strings into
// comparable token sets. Input is lower-cased, stripped of diacritics, and
// split on everything that is not a Latin letter, Cyrillic letter, or digit.
// Every token is emitted twice when the forms differ: once as-is and once as
// its ASCII transliteration, so Cyrillic folder names match Latin queries.
package tokenizer

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Set is an unordered set of normalised tokens.
type Set map[string]struct{}

// NewSet builds a Set from explicit tokens, without normalising them.
func NewSet(tokens ...string) Set {
	s := make(Set, len(tokens))
	for _, t := range tokens {
		s[t] = struct{}{}
	}
	return s
}

// Add inserts a token into the set.
func (s Set) Add(token string) {
	s[token] = struct{}{}
}

// Has reports whether token is a member.
func (s Set) Has(token string) bool {
	_, ok := s[token]
	return ok
}

// Intersects reports whether the two sets share at least one member.
func (s Set) Intersects(other Set) bool {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	for t := range small {
		if _, ok := large[t]; ok {
			return true
		}
	}
	return false
}

// Members returns the tokens as a slice in unspecified order.
func (s Set) Members() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	return out
}

// Normalize turns raw text (a path, a path segment, or a query string) into a
// token Set. The result is deterministic: the same input always produces the
// same set. Malformed or empty segments contribute nothing; Normalize never
// fails.
func Normalize(text string) Set {
	folded := stripDiacritics(strings.ToLower(text))
	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !isTokenRune(r)
	})
	set := make(Set, len(words)*2)
	for _, word := range words {
		set.Add(word)
		if ascii := transliterate(word); ascii != "" && ascii != word {
			set.Add(ascii)
		}
	}
	return set
}

// isTokenRune accepts lowercase Latin letters, digits, and the Cyrillic
// block; everything else is a separator.
func isTokenRune(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= '0' && r <= '9') ||
		(r >= 0x0400 && r <= 0x04FF)
}

// stripDiacritics removes combining marks (é -> e) so accented variants of
// the same name compare equal. Failure falls back to the input unchanged.
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// transliterate renders a token's ASCII phonetic form (дуб -> dub). The
// result is re-split defensively since some mappings produce separators.
func transliterate(word string) string {
	ascii := strings.ToLower(unidecode.Unidecode(word))
	fields := strings.FieldsFunc(ascii, func(r rune) bool {
		return !isTokenRune(r)
	})
	return strings.Join(fields, "")
}
