package directory

import (
	"time"

	"github.com/kailas-cloud/partnerdex/internal/domain/entity"
	"github.com/kailas-cloud/partnerdex/internal/domain/snapshot"
)

// Reconcile chooses the single active collection for display.
//
// The fallback replaces the primary collection entirely when the primary
// fetch failed or came back empty; the two are never merged. IDs are
// deduplicated within the chosen collection, first occurrence wins.
func Reconcile(
	primary []entity.Entity, fetchErr error,
	fallback []entity.Entity, fallbackEnabled bool,
	at time.Time,
) snapshot.Snapshot {
	primaryUsable := fetchErr == nil && len(primary) > 0
	if primaryUsable {
		return snapshot.New(dedupe(primary), snapshot.Primary, at, nil)
	}

	if fallbackEnabled && len(fallback) > 0 {
		return snapshot.New(dedupe(fallback), snapshot.Fallback, at, fetchErr)
	}

	if fetchErr == nil {
		// Empty primary with nothing to substitute is still a primary answer.
		return snapshot.New(nil, snapshot.Primary, at, nil)
	}
	return snapshot.New(nil, snapshot.None, at, fetchErr)
}

func dedupe(in []entity.Entity) []entity.Entity {
	seen := make(map[string]struct{}, len(in))
	out := make([]entity.Entity, 0, len(in))
	for _, e := range in {
		if _, ok := seen[e.ID()]; ok {
			continue
		}
		seen[e.ID()] = struct{}{}
		out = append(out, e)
	}
	return out
}
