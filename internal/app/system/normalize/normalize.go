// Package normalize canonicalizes user-supplied values before they are
// validated or stored.
package normalize

import (
	"strings"
)

// Email trims whitespace and lowercases the address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses inner runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Phone removes spaces, dashes and parentheses.
func Phone(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '(', ')':
			return -1
		}
		return r
	}, s)
}

// Digits trims whitespace and inner spaces from identifier-like input.
func Digits(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "")
}

// Token trims and lowercases enum-like values (roles, statuses, gender).
func Token(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
