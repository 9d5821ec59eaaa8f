// Package fallback provides the static directory bundled with the service.
package fallback

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/partnerdex/internal/domain"
	"github.com/kailas-cloud/partnerdex/internal/domain/entity"
	"github.com/kailas-cloud/partnerdex/internal/domain/entity/category"
	"github.com/kailas-cloud/partnerdex/internal/domain/geo"
)

//go:embed partners.yaml
var bundled []byte

type table struct {
	Partners []row `yaml:"partners"`
}

type row struct {
	ID          string   `yaml:"id"`
	Kind        string   `yaml:"kind"`
	Name        string   `yaml:"name"`
	Category    string   `yaml:"category"`
	Location    string   `yaml:"location"`
	Description string   `yaml:"description"`
	Lat         *float64 `yaml:"lat"`
	Lon         *float64 `yaml:"lon"`
}

// Loader serves a fallback collection parsed once at construction.
type Loader struct {
	entities []entity.Entity
	origin   string
}

// New parses the fallback table. An empty path uses the bundled table.
// A malformed table is returned as an error.
func New(path string) (*Loader, error) {
	data, origin := bundled, "bundled"
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read fallback file: %w", err)
		}
		data, origin = b, path
	}

	entities, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse fallback %s: %w", origin, err)
	}
	return &Loader{entities: entities, origin: origin}, nil
}

// Load returns a copy of the fallback collection in table order.
func (l *Loader) Load(_ context.Context) ([]entity.Entity, error) {
	out := make([]entity.Entity, len(l.entities))
	copy(out, l.entities)
	return out, nil
}

// Origin names where the table came from ("bundled" or the file path).
func (l *Loader) Origin() string { return l.origin }

// Len returns the number of fallback entities.
func (l *Loader) Len() int { return len(l.entities) }

func parse(data []byte) ([]entity.Entity, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var t table
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	seen := make(map[string]struct{}, len(t.Partners))
	out := make([]entity.Entity, 0, len(t.Partners))
	for i, r := range t.Partners {
		e, err := r.toEntity()
		if err != nil {
			return nil, fmt.Errorf("partners[%d]: %w", i, err)
		}
		if _, dup := seen[e.ID()]; dup {
			return nil, fmt.Errorf("partners[%d]: %w: duplicate id %q", i, domain.ErrInvalidEntity, e.ID())
		}
		seen[e.ID()] = struct{}{}
		out = append(out, e)
	}
	return out, nil
}

func (r row) toEntity() (entity.Entity, error) {
	kind := entity.Kind(r.Kind)
	if kind == "" {
		kind = entity.KindPartner
	}

	f := entity.Fields{
		Name:        r.Name,
		Location:    r.Location,
		Description: r.Description,
		Category:    category.Normalize(r.Category),
	}
	if (r.Lat == nil) != (r.Lon == nil) {
		return entity.Entity{}, fmt.Errorf("%w: lat and lon must be set together", domain.ErrInvalidEntity)
	}
	if r.Lat != nil {
		p, err := geo.NewPoint(*r.Lat, *r.Lon)
		if err != nil {
			return entity.Entity{}, fmt.Errorf("%w: %w", domain.ErrInvalidEntity, err)
		}
		f.Coordinates = &p
	}

	e, err := entity.New(r.ID, kind, f)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("%w: %w", domain.ErrInvalidEntity, err)
	}
	return e, nil
}
