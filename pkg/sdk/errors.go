package partnerdex

import "github.com/kailas-cloud/partnerdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound          = domain.ErrNotFound
	ErrInvalidEntity     = domain.ErrInvalidEntity
	ErrInvalidQuery      = domain.ErrInvalidQuery
	ErrSourceUnavailable = domain.ErrSourceUnavailable
)
