// Package names maps arbitrary instance display names to filesystem-safe tokens.
package names

import (
	"strings"
	"unicode"
)

// Fallback is substituted when normalization strips a name down to nothing.
const Fallback = "unnamed"

// Normalize maps name to a token containing only letters, digits and the
// characters "-_.() ". Every other rune is replaced with an underscore, then
// leading and trailing underscores and whitespace are stripped. The result is
// never empty and Normalize is idempotent.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if allowed(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	out := strings.TrimFunc(b.String(), func(r rune) bool {
		return r == '_' || unicode.IsSpace(r)
	})
	if out == "" {
		return Fallback
	}
	return out
}

func allowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	switch r {
	case '-', '_', '.', '(', ')', ' ':
		return true
	}
	return false
}
