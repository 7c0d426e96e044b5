package domain

import (
	"strings"
	"unicode"
)

// NormalizeName is the canonical key transform for all matching: trim,
// lowercase, strip punctuation, collapse whitespace. Unicode letters and
// numbers in any script pass through; hyphen and apostrophe survive because
// they are part of names, and comma survives only so that "Last, First"
// variants can still be generated downstream. Idempotent and total.
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case r == '-' || r == '\'' || r == ',':
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
