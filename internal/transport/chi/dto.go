package chi

import (
	"time"

	"github.com/kailas-cloud/partnerdex/internal/domain/entity"
	"github.com/kailas-cloud/partnerdex/internal/domain/entity/category"
	"github.com/kailas-cloud/partnerdex/internal/domain/geo"
	"github.com/kailas-cloud/partnerdex/internal/domain/snapshot"
)

// ErrorCode is the machine-readable error code of an ErrorResponse.
type ErrorCode string

// ErrorCode values.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeEntityNotFound   ErrorCode = "entity_not_found"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Coordinates is a lat/lon pair on the wire.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// EntityResponse is a directory entity on the wire.
type EntityResponse struct {
	ID            string       `json:"id"`
	Kind          string       `json:"kind"`
	Name          string       `json:"name"`
	Location      string       `json:"location,omitempty"`
	Description   string       `json:"description,omitempty"`
	Category      string       `json:"category"`
	CategoryLabel string       `json:"category_label"`
	Coordinates   *Coordinates `json:"coordinates,omitempty"`
	Distance      *float64     `json:"distance,omitempty"`
}

// SearchResponse is the body of GET /api/v1/entities.
type SearchResponse struct {
	Items           []EntityResponse `json:"items"`
	Total           int              `json:"total"`
	Source          string           `json:"source"`
	Generation      uint64           `json:"generation"`
	SelectorCoerced bool             `json:"selector_coerced,omitempty"`
}

// CategoryResponse is one entry of the category catalog.
type CategoryResponse struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// SourceResponse is the diagnostic view of the published snapshot.
type SourceResponse struct {
	Source     string     `json:"source"`
	Generation uint64     `json:"generation"`
	FetchedAt  *time.Time `json:"fetched_at,omitempty"`
	FetchError string     `json:"fetch_error,omitempty"`
	Count      int        `json:"count"`
	Skipped    int        `json:"skipped"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

// UpsertEntityRequest is the body of PUT /api/v1/entities/{id}.
type UpsertEntityRequest struct {
	Kind        string       `json:"kind,omitempty"`
	Name        string       `json:"name"`
	Location    string       `json:"location,omitempty"`
	Description string       `json:"description,omitempty"`
	Category    string       `json:"category,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// ImportItem is one entity of an import request.
type ImportItem struct {
	ID string `json:"id"`
	UpsertEntityRequest
}

// ImportRequest is the body of POST /api/v1/entities/import.
type ImportRequest struct {
	Entities []ImportItem `json:"entities"`
}

// ImportResponse reports an accepted import.
type ImportResponse struct {
	Imported int            `json:"imported"`
	Source   SourceResponse `json:"source"`
}

func entityToResponse(e entity.Entity) EntityResponse {
	resp := EntityResponse{
		ID:            e.ID(),
		Kind:          string(e.Kind()),
		Name:          e.Name(),
		Location:      e.Location(),
		Description:   e.Description(),
		Category:      string(e.Category()),
		CategoryLabel: e.Category().Label(),
		Distance:      e.Distance(),
	}
	if c := e.Coordinates(); c != nil {
		resp.Coordinates = &Coordinates{Lat: c.Lat, Lon: c.Lon}
	}
	return resp
}

func entitiesToResponse(items []entity.Entity) []EntityResponse {
	out := make([]EntityResponse, len(items))
	for i, e := range items {
		out[i] = entityToResponse(e)
	}
	return out
}

func snapshotToSource(s snapshot.Snapshot) SourceResponse {
	resp := SourceResponse{
		Source:     string(s.Source()),
		Generation: s.Generation(),
		FetchError: s.FetchError(),
		Count:      s.Len(),
		Skipped:    s.Skipped(),
	}
	if at := s.FetchedAt(); !at.IsZero() {
		resp.FetchedAt = &at
	}
	return resp
}

func categoriesToResponse(cats []category.Category) []CategoryResponse {
	out := make([]CategoryResponse, len(cats))
	for i, c := range cats {
		out[i] = CategoryResponse{Value: string(c), Label: c.Label()}
	}
	return out
}

// toEntity validates a request body for the given ID.
func (req UpsertEntityRequest) toEntity(id string) (entity.Entity, error) {
	kind := entity.Kind(req.Kind)
	if kind == "" {
		kind = entity.KindPartner
	}
	f := entity.Fields{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
		Category:    category.Normalize(req.Category),
	}
	if c := req.Coordinates; c != nil {
		p, err := geo.NewPoint(c.Lat, c.Lon)
		if err != nil {
			return entity.Entity{}, err
		}
		f.Coordinates = &p
	}
	return entity.New(id, kind, f)
}
