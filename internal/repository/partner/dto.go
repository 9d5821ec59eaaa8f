package partner

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/partnerdex/internal/domain"
	"github.com/kailas-cloud/partnerdex/internal/domain/entity"
	"github.com/kailas-cloud/partnerdex/internal/domain/entity/category"
	"github.com/kailas-cloud/partnerdex/internal/domain/geo"
)

// Hash field names of a stored entity.
const (
	fieldKind        = "kind"
	fieldName        = "name"
	fieldLocation    = "location"
	fieldDescription = "description"
	fieldCategory    = "category"
	fieldLat         = "lat"
	fieldLon         = "lon"
	fieldDistance    = "distance"
)

// buildHashFields converts an Entity into a flat map[string]string for HSET.
// Empty optional fields are omitted.
func buildHashFields(e entity.Entity) map[string]string {
	m := map[string]string{
		fieldKind:     string(e.Kind()),
		fieldName:     e.Name(),
		fieldCategory: string(e.Category()),
	}
	if e.Location() != "" {
		m[fieldLocation] = e.Location()
	}
	if e.Description() != "" {
		m[fieldDescription] = e.Description()
	}
	if c := e.Coordinates(); c != nil {
		m[fieldLat] = strconv.FormatFloat(c.Lat, 'f', -1, 64)
		m[fieldLon] = strconv.FormatFloat(c.Lon, 'f', -1, 64)
	}
	if d := e.Distance(); d != nil {
		m[fieldDistance] = strconv.FormatFloat(*d, 'f', -1, 64)
	}
	return m
}

// rowToEntity is the single validating step between loosely typed hash rows
// and domain entities. A missing kind defaults to partner; unknown categories
// become uncategorized; anything else malformed rejects the row.
func rowToEntity(key, id string, m map[string]string) (entity.Entity, error) {
	kind := entity.Kind(m[fieldKind])
	if kind == "" {
		kind = entity.KindPartner
	}

	f := entity.Fields{
		Name:        m[fieldName],
		Location:    m[fieldLocation],
		Description: m[fieldDescription],
		Category:    category.Normalize(m[fieldCategory]),
	}

	latRaw, hasLat := m[fieldLat]
	lonRaw, hasLon := m[fieldLon]
	if hasLat != hasLon {
		return entity.Entity{}, domain.NewRowError(key, "lat and lon must be set together")
	}
	if hasLat {
		p, err := parsePoint(latRaw, lonRaw)
		if err != nil {
			return entity.Entity{}, domain.NewRowError(key, err.Error())
		}
		f.Coordinates = &p
	}

	if raw, ok := m[fieldDistance]; ok && raw != "" {
		d, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return entity.Entity{}, domain.NewRowError(key, fmt.Sprintf("distance %q is not a number", raw))
		}
		f.Distance = &d
	}

	e, err := entity.New(id, kind, f)
	if err != nil {
		return entity.Entity{}, domain.NewRowError(key, err.Error())
	}
	return e, nil
}

func parsePoint(latRaw, lonRaw string) (geo.Point, error) {
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("lat %q is not a number", latRaw)
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("lon %q is not a number", lonRaw)
	}
	return geo.NewPoint(lat, lon)
}
