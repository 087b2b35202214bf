// Package htmlsanitize strips markup from free text that members and staff
// submit (review notes, addresses, titles) before it is stored.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every element and attribute and keeps only text content.
var strict = bluemonday.StrictPolicy()

// Text returns s with all markup removed and surrounding whitespace trimmed.
// Entities produced by the policy are decoded again since the result is
// stored and served as plain text, never as HTML.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// IsPlainText reports whether s contains no markup at all.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}
