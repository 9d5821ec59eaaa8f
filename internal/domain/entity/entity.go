package entity

import (
	"fmt"
	"regexp"

	"github.com/kailas-cloud/partnerdex/internal/domain/entity/category"
	"github.com/kailas-cloud/partnerdex/internal/domain/geo"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Length limits for entity fields.
const (
	MaxIDLength          = 256
	MaxNameLength        = 256
	MaxLocationLength    = 512
	MaxDescriptionLength = 8192
)

// Fields holds the descriptive attributes of an entity.
type Fields struct {
	Name        string
	Location    string
	Description string
	Category    category.Category
	Coordinates *geo.Point
	Distance    *float64 // meters, informational only
}

// Entity is a directory partner or store (immutable value object).
type Entity struct {
	id          string
	kind        Kind
	name        string
	location    string
	description string
	category    category.Category
	coordinates *geo.Point
	distance    *float64
}

// New validates and creates an Entity.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars. Name is required.
// Unknown categories are kept as category.Uncategorized.
func New(id string, kind Kind, f Fields) (Entity, error) {
	if id == "" {
		return Entity{}, fmt.Errorf("entity ID is required")
	}
	if len(id) > MaxIDLength {
		return Entity{}, fmt.Errorf("entity ID too long (max %d)", MaxIDLength)
	}
	if !idRegex.MatchString(id) {
		return Entity{}, fmt.Errorf("entity ID must be alphanumeric with underscores and hyphens")
	}
	if !kind.IsValid() {
		return Entity{}, fmt.Errorf("invalid entity kind %q", kind)
	}
	if f.Name == "" {
		return Entity{}, fmt.Errorf("entity name is required")
	}
	if len(f.Name) > MaxNameLength {
		return Entity{}, fmt.Errorf("entity name too long (max %d)", MaxNameLength)
	}
	if len(f.Location) > MaxLocationLength {
		return Entity{}, fmt.Errorf("entity location too long (max %d)", MaxLocationLength)
	}
	if len(f.Description) > MaxDescriptionLength {
		return Entity{}, fmt.Errorf("entity description too long (max %d)", MaxDescriptionLength)
	}
	if c := f.Coordinates; c != nil && !geo.ValidateCoordinates(c.Lat, c.Lon) {
		return Entity{}, fmt.Errorf("invalid coordinates lat=%g lon=%g", c.Lat, c.Lon)
	}
	if f.Distance != nil && *f.Distance < 0 {
		return Entity{}, fmt.Errorf("distance must be non-negative")
	}

	cat := f.Category
	if !cat.IsValid() {
		cat = category.Uncategorized
	}

	return Entity{
		id:          id,
		kind:        kind,
		name:        f.Name,
		location:    f.Location,
		description: f.Description,
		category:    cat,
		coordinates: clonePoint(f.Coordinates),
		distance:    cloneFloat(f.Distance),
	}, nil
}

// Reconstruct creates an Entity without validation (storage hydration).
func Reconstruct(id string, kind Kind, f Fields) Entity {
	return Entity{
		id: id, kind: kind, name: f.Name, location: f.Location, description: f.Description,
		category: f.Category, coordinates: f.Coordinates, distance: f.Distance,
	}
}

// ID returns the entity identifier.
func (e Entity) ID() string { return e.id }

// Kind returns whether the entity is a partner or a store.
func (e Entity) Kind() Kind { return e.kind }

// Name returns the display name.
func (e Entity) Name() string { return e.name }

// Location returns the free-text location.
func (e Entity) Location() string { return e.location }

// Description returns the free-text description.
func (e Entity) Description() string { return e.description }

// Category returns the category tag.
func (e Entity) Category() category.Category { return e.category }

// Coordinates returns the geographic position, or nil.
func (e Entity) Coordinates() *geo.Point { return clonePoint(e.coordinates) }

// Distance returns the distance in meters, or nil when unknown.
func (e Entity) Distance() *float64 { return cloneFloat(e.distance) }

// WithDistance returns a copy with the given distance set.
func (e Entity) WithDistance(meters float64) Entity {
	out := e
	out.distance = &meters
	return out
}

func clonePoint(p *geo.Point) *geo.Point {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}
