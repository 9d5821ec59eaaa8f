package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing directory entity.
	ErrNotFound = errors.New("not found")
	// ErrInvalidEntity signals an entity that failed validation.
	ErrInvalidEntity = errors.New("invalid entity")
	// ErrInvalidQuery signals a search request that failed validation.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrSourceUnavailable signals that the primary collection could not be fetched.
	ErrSourceUnavailable = errors.New("primary source unavailable")
)

// RowError describes a storage row rejected by the fetch boundary.
type RowError struct {
	Key    string
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s: row %s: %s", ErrInvalidEntity.Error(), e.Key, e.Reason)
}

func (e *RowError) Unwrap() error { return ErrInvalidEntity }

// NewRowError creates a row rejection error.
func NewRowError(key, reason string) error {
	return &RowError{Key: key, Reason: reason}
}
