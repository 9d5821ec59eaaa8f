package search

import "github.com/kailas-cloud/partnerdex/internal/domain/snapshot"

// SnapshotReader exposes the currently published directory snapshot.
type SnapshotReader interface {
	Current() snapshot.Snapshot
}
