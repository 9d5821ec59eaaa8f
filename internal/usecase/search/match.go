package search

import (
	"strings"

	"github.com/kailas-cloud/partnerdex/internal/domain/entity"
	"github.com/kailas-cloud/partnerdex/internal/domain/search/query"
)

// MatchesTerm reports whether the normalized term is contained in the entity's
// name, location or description. The empty term matches every entity.
func MatchesTerm(term string, e entity.Entity) bool {
	return newFolder().matches(term, e)
}

func (f *folder) matches(term string, e entity.Entity) bool {
	if term == "" {
		return true
	}
	for _, field := range [...]string{e.Name(), e.Location(), e.Description()} {
		if field != "" && strings.Contains(f.fold(field), term) {
			return true
		}
	}
	return false
}

// MatchesCategory reports whether the entity passes the category selector.
// The wildcard passes everything; otherwise the match is exact.
// A selector outside the catalog is treated as the wildcard.
func MatchesCategory(sel query.Selector, e entity.Entity) bool {
	if sel.IsAll() || !sel.Category().IsValid() {
		return true
	}
	return sel.Category() == e.Category()
}
