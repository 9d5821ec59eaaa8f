package partner

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/partnerdex/internal/domain"
	"github.com/kailas-cloud/partnerdex/internal/domain/entity/category"
)

func TestRowToEntity(t *testing.T) {
	tests := []struct {
		name    string
		row     map[string]string
		wantErr bool
	}{
		{"minimal", map[string]string{"name": "A"}, false},
		{"full", map[string]string{
			"kind": "store", "name": "A", "location": "Lyon", "description": "d",
			"category": "retail", "lat": "45.76", "lon": "4.83", "distance": "12.5",
		}, false},
		{"missing name", map[string]string{"category": "bank"}, true},
		{"bad kind", map[string]string{"name": "A", "kind": "kiosk"}, true},
		{"lat without lon", map[string]string{"name": "A", "lat": "1"}, true},
		{"lat out of range", map[string]string{"name": "A", "lat": "91", "lon": "0"}, true},
		{"bad distance", map[string]string{"name": "A", "distance": "far"}, true},
		{"negative distance", map[string]string{"name": "A", "distance": "-1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rowToEntity("k", "id-1", tt.row)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidEntity) {
					t.Fatalf("expected ErrInvalidEntity, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRowToEntity_EmptyCategory(t *testing.T) {
	e, err := rowToEntity("k", "id-1", map[string]string{"name": "A"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Category() != category.Uncategorized {
		t.Errorf("category = %q", e.Category())
	}
}

func TestBuildHashFields_Distance(t *testing.T) {
	e := testEntity(t).WithDistance(1500)
	m := buildHashFields(e)
	if m["distance"] != "1500" {
		t.Errorf("distance = %q", m["distance"])
	}
	if m["lat"] != "48.8566" || m["lon"] != "2.3522" {
		t.Errorf("coordinates = %q,%q", m["lat"], m["lon"])
	}
}
