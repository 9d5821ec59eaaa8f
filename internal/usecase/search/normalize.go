package search

import (
	"strings"

	"golang.org/x/text/cases"
)

// Normalize trims surrounding whitespace and case-folds a raw search term.
// Whitespace-only input becomes "", which matches everything.
// Folding is context-free so a term and the field containing it fold alike
// (final sigma folds to σ, ß to ss). Diacritics are not folded: "é" does not match "e".
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return cases.Fold().String(trimmed)
}

// folder case-folds entity fields for containment checks, the same way as Normalize.
// A cases.Caser keeps state, so each folder belongs to one goroutine.
type folder struct {
	caser cases.Caser
}

func newFolder() *folder {
	return &folder{caser: cases.Fold()}
}

func (f *folder) fold(s string) string {
	if s == "" {
		return ""
	}
	return f.caser.String(s)
}
