package common

import (
	"strings"
	"unicode"
)

// NormalizeText strips digits and punctuation from a transaction description
// and collapses runs of whitespace. Digits and reference numbers vary per
// occurrence of the same charge and would otherwise defeat text matching.
// Case is preserved; callers lowercase when matching case-insensitively.
func NormalizeText(description string) string {
	var b strings.Builder
	b.Grow(len(description))
	lastSpace := true
	for _, r := range description {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokenize splits a normalized description into terms, dropping
// single-letter fragments.
func Tokenize(normalized string) []string {
	fields := strings.Fields(normalized)
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
