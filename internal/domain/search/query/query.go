package query

import (
	"fmt"

	"github.com/kailas-cloud/partnerdex/internal/domain"
	"github.com/kailas-cloud/partnerdex/internal/domain/entity"
	"github.com/kailas-cloud/partnerdex/internal/domain/entity/category"
	"github.com/kailas-cloud/partnerdex/internal/domain/geo"
)

// Search parameter limits.
const (
	// MaxTermLength is the maximum allowed raw search term length in bytes.
	MaxTermLength = 256
	// MaxLimit caps the number of returned entities; 0 means unlimited.
	MaxLimit = 500
)

// Selector is a category filter value or the wildcard All.
type Selector string

// All is the wildcard selector that disables category filtering.
const All Selector = "all"

// NewSelector maps a raw value onto a valid selector.
// Empty and unknown values become All; ok is false only for unknown non-empty values.
func NewSelector(s string) (sel Selector, ok bool) {
	if s == "" || Selector(s) == All {
		return All, true
	}
	c, known := category.Parse(s)
	if !known || c == category.Uncategorized {
		return All, false
	}
	return Selector(c), true
}

// IsAll reports whether the selector is the wildcard.
func (s Selector) IsAll() bool { return s == All }

// Category returns the selected category. Meaningless when IsAll.
func (s Selector) Category() category.Category { return category.Category(s) }

// Query is a validated search state: a raw term plus a category selector.
type Query struct {
	term            string
	selector        Selector
	selectorCoerced bool
	kind            entity.Kind
	origin          *geo.Point
	limit           int
}

// New validates search parameters.
// The term is kept raw; normalization is the pipeline's job.
// An unknown selector is coerced to All rather than rejected.
func New(term, selector string, kind entity.Kind, origin *geo.Point, limit int) (Query, error) {
	if len(term) > MaxTermLength {
		return Query{}, fmt.Errorf("%w: term too long (max %d chars)", domain.ErrInvalidQuery, MaxTermLength)
	}
	if kind != "" && !kind.IsValid() {
		return Query{}, fmt.Errorf("%w: invalid kind %q", domain.ErrInvalidQuery, kind)
	}
	if origin != nil && !geo.ValidateCoordinates(origin.Lat, origin.Lon) {
		return Query{}, fmt.Errorf("%w: origin coordinates out of range", domain.ErrInvalidQuery)
	}
	if limit < 0 {
		return Query{}, fmt.Errorf("%w: limit must be non-negative", domain.ErrInvalidQuery)
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	sel, ok := NewSelector(selector)

	var o *geo.Point
	if origin != nil {
		p := *origin
		o = &p
	}

	return Query{
		term:            term,
		selector:        sel,
		selectorCoerced: !ok,
		kind:            kind,
		origin:          o,
		limit:           limit,
	}, nil
}

// Term returns the raw search term.
func (q *Query) Term() string { return q.term }

// Selector returns the category selector (always valid).
func (q *Query) Selector() Selector { return q.selector }

// SelectorCoerced reports whether an unknown selector was replaced by All.
func (q *Query) SelectorCoerced() bool { return q.selectorCoerced }

// Kind returns the kind filter, empty for both kinds.
func (q *Query) Kind() entity.Kind { return q.kind }

// Origin returns the point distances are measured from, or nil.
func (q *Query) Origin() *geo.Point { return q.origin }

// Limit returns the maximum number of results, 0 for no limit.
func (q *Query) Limit() int { return q.limit }
