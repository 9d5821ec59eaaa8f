package search

import (
	"github.com/kailas-cloud/partnerdex/internal/domain/entity"
	"github.com/kailas-cloud/partnerdex/internal/domain/geo"
	"github.com/kailas-cloud/partnerdex/internal/domain/search/query"
)

// Filter returns the entities matching both the term and the selector,
// in input order. The input slice is never modified and nothing is cached.
func Filter(entities []entity.Entity, term string, sel query.Selector) []entity.Entity {
	normalized := Normalize(term)
	f := newFolder()

	out := make([]entity.Entity, 0, len(entities))
	for _, e := range entities {
		if f.matches(normalized, e) && MatchesCategory(sel, e) {
			out = append(out, e)
		}
	}
	return out
}

// FilterKind keeps entities of the given kind. An empty kind keeps all.
func FilterKind(entities []entity.Entity, kind entity.Kind) []entity.Entity {
	if kind == "" {
		return entities
	}
	out := entities[:0:0]
	for _, e := range entities {
		if e.Kind() == kind {
			out = append(out, e)
		}
	}
	return out
}

// Annotate returns copies of entities with distances from origin.
// Entities without coordinates keep their stored distance. Order is unchanged.
func Annotate(entities []entity.Entity, origin *geo.Point) []entity.Entity {
	if origin == nil {
		return entities
	}
	out := make([]entity.Entity, len(entities))
	for i, e := range entities {
		if c := e.Coordinates(); c != nil {
			out[i] = e.WithDistance(origin.DistanceTo(*c))
			continue
		}
		out[i] = e
	}
	return out
}
