package snapshot

import (
	"time"

	"github.com/kailas-cloud/partnerdex/internal/domain/entity"
)

// Source identifies which collection a snapshot was built from.
type Source string

// Source constants.
const (
	// Primary is the remote, database-backed collection.
	Primary Source = "primary"
	// Fallback is the locally bundled static collection.
	Fallback Source = "fallback"
	// None means neither source produced data.
	None Source = "none"
)

// Snapshot is an immutable view of the directory at one point in time.
type Snapshot struct {
	entities   []entity.Entity
	source     Source
	fetchedAt  time.Time
	fetchError string
	skipped    int
	generation uint64
}

// New creates a snapshot. The entity slice is copied.
func New(entities []entity.Entity, source Source, fetchedAt time.Time, fetchErr error) Snapshot {
	s := Snapshot{
		entities:  cloneEntities(entities),
		source:    source,
		fetchedAt: fetchedAt,
	}
	if fetchErr != nil {
		s.fetchError = fetchErr.Error()
	}
	return s
}

// Empty returns the snapshot served before the first refresh.
func Empty() Snapshot {
	return Snapshot{source: None}
}

// WithGeneration returns a copy stamped with generation g.
func (s Snapshot) WithGeneration(g uint64) Snapshot {
	s.generation = g
	return s
}

// WithSkipped returns a copy recording how many primary rows were rejected.
func (s Snapshot) WithSkipped(n int) Snapshot {
	s.skipped = n
	return s
}

// Entities returns a copy of the snapshot entities in source order.
func (s Snapshot) Entities() []entity.Entity { return cloneEntities(s.entities) }

// View returns the entities without copying. Callers must not modify the slice.
func (s Snapshot) View() []entity.Entity { return s.entities }

// Len returns the number of entities.
func (s Snapshot) Len() int { return len(s.entities) }

// Source returns the collection the snapshot was built from.
func (s Snapshot) Source() Source { return s.source }

// FetchedAt returns when the snapshot was built.
func (s Snapshot) FetchedAt() time.Time { return s.fetchedAt }

// FetchError returns the primary fetch error message, empty on success.
func (s Snapshot) FetchError() string { return s.fetchError }

// Skipped returns the number of malformed primary rows dropped at the fetch boundary.
func (s Snapshot) Skipped() int { return s.skipped }

// Generation returns the monotonic publish counter.
func (s Snapshot) Generation() uint64 { return s.generation }

func cloneEntities(in []entity.Entity) []entity.Entity {
	if in == nil {
		return nil
	}
	out := make([]entity.Entity, len(in))
	copy(out, in)
	return out
}

// FetchReport describes how stored primary rows mapped onto entities.
type FetchReport struct {
	Keys    int     // rows found in the primary store
	Skipped []error // rows rejected by the validating mapping
}
