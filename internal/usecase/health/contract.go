package health

import (
	"context"

	"github.com/kailas-cloud/partnerdex/internal/domain/snapshot"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// SnapshotReader exposes the published directory snapshot.
type SnapshotReader interface {
	Current() snapshot.Snapshot
}
