package alignment

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize folds a token for comparison: NFKC, trimmed, lower-cased, with
// every rune removed that is not a letter, digit, underscore or whitespace.
func Normalize(token string) string {
	s := strings.ToLower(strings.TrimSpace(norm.NFKC.String(token)))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isWordRune(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isWordRune matches the \w class: letters, digits, marks and underscore.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Mn, r)
}

// NormalizeAll normalizes every token in order.
func NormalizeAll(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = Normalize(t)
	}
	return out
}

// SplitWords breaks a paragraph string on runs of whitespace.
func SplitWords(text string) []string {
	return strings.Fields(text)
}
