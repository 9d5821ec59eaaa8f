package partnerdex

import (
	"fmt"

	"github.com/kailas-cloud/partnerdex/internal/domain"
	"github.com/kailas-cloud/partnerdex/internal/domain/entity"
	"github.com/kailas-cloud/partnerdex/internal/domain/entity/category"
	"github.com/kailas-cloud/partnerdex/internal/domain/geo"
	"github.com/kailas-cloud/partnerdex/internal/domain/snapshot"
)

func toEntity(e Entity) (entity.Entity, error) {
	kind := entity.Kind(e.Kind)
	if kind == "" {
		kind = entity.KindPartner
	}
	f := entity.Fields{
		Name:        e.Name,
		Location:    e.Location,
		Description: e.Description,
		Category:    category.Normalize(e.Category),
	}
	if e.Coordinates != nil {
		p, err := geo.NewPoint(e.Coordinates.Lat, e.Coordinates.Lon)
		if err != nil {
			return entity.Entity{}, fmt.Errorf("%w: %w", domain.ErrInvalidEntity, err)
		}
		f.Coordinates = &p
	}
	de, err := entity.New(e.ID, kind, f)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("%w: %w", domain.ErrInvalidEntity, err)
	}
	return de, nil
}

func fromEntity(e entity.Entity) Entity {
	out := Entity{
		ID:            e.ID(),
		Kind:          Kind(e.Kind()),
		Name:          e.Name(),
		Location:      e.Location(),
		Description:   e.Description(),
		Category:      string(e.Category()),
		CategoryLabel: e.Category().Label(),
		Distance:      e.Distance(),
	}
	if c := e.Coordinates(); c != nil {
		out.Coordinates = &Coordinates{Lat: c.Lat, Lon: c.Lon}
	}
	return out
}

func fromEntities(items []entity.Entity) []Entity {
	out := make([]Entity, len(items))
	for i, e := range items {
		out[i] = fromEntity(e)
	}
	return out
}

func fromSnapshot(s snapshot.Snapshot) SourceInfo {
	return SourceInfo{
		Source:     Source(s.Source()),
		Generation: s.Generation(),
		FetchedAt:  s.FetchedAt(),
		FetchError: s.FetchError(),
		Count:      s.Len(),
		Skipped:    s.Skipped(),
	}
}

func toPoint(c *Coordinates) *geo.Point {
	if c == nil {
		return nil
	}
	return &geo.Point{Lat: c.Lat, Lon: c.Lon}
}
