// Package knowledge holds the static symptom knowledge base and the matching primitives
// used to look queries up in it: canonicalization, edit distance, best-match search and
// confidence scoring.
package knowledge

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Canonicalize normalizes raw text into a comparable key: lower-case, drop every rune
// outside [a-z0-9 ], trim surrounding spaces. It is total and idempotent.
func Canonicalize(raw string) string {
	if raw == "" {
		return ""
	}

	lowered := cases.Lower(language.Und).String(raw)

	var sb strings.Builder
	sb.Grow(len(lowered))
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			sb.WriteRune(r)
		}
	}

	return strings.Trim(sb.String(), " ")
}

// CanonicalizePtr treats a nil input as the empty string.
func CanonicalizePtr(raw *string) string {
	if raw == nil {
		return ""
	}
	return Canonicalize(*raw)
}
