package tree

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldLabel decomposes s (NFD), drops combining marks and lower-cases the
// result, so "Café" folds to "cafe".
func foldLabel(s string) string {
	// Chained transformers keep state; build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// normalizeQuery folds a raw query and trims surrounding whitespace, so
// cosmetic edits such as a trailing space do not count as a new query.
func normalizeQuery(raw string) string {
	return strings.TrimSpace(foldLabel(raw))
}
