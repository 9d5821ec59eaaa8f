package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/partnerdex/internal/domain/entity"
	"github.com/kailas-cloud/partnerdex/internal/domain/search/query"
	"github.com/kailas-cloud/partnerdex/internal/domain/snapshot"
	"github.com/kailas-cloud/partnerdex/internal/metrics"
)

// Result is the filtered, display-ready view of one snapshot.
type Result struct {
	Items      []entity.Entity
	Total      int // matches before Limit was applied
	Source     snapshot.Source
	Generation uint64
}

// Service runs the search pipeline over the current directory snapshot.
type Service struct {
	snapshots SnapshotReader
}

// New creates a search service.
func New(snapshots SnapshotReader) *Service {
	return &Service{snapshots: snapshots}
}

// Search filters the current snapshot by term, category and kind,
// then annotates distances from the query origin. Every call recomputes
// from the full snapshot.
func (s *Service) Search(_ context.Context, q *query.Query) Result {
	snap := s.snapshots.Current()

	start := time.Now()
	items := Filter(snap.View(), q.Term(), q.Selector())
	items = FilterKind(items, q.Kind())
	metrics.SearchFilterDuration.Observe(time.Since(start).Seconds())

	total := len(items)
	if q.Limit() > 0 && len(items) > q.Limit() {
		items = items[:q.Limit()]
	}

	return Result{
		Items:      Annotate(items, q.Origin()),
		Total:      total,
		Source:     snap.Source(),
		Generation: snap.Generation(),
	}
}
