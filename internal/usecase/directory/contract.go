package directory

import (
	"context"

	"github.com/kailas-cloud/partnerdex/internal/domain/entity"
	"github.com/kailas-cloud/partnerdex/internal/domain/snapshot"
)

// PrimaryRepository is the remote, database-backed collection.
type PrimaryRepository interface {
	FetchAll(ctx context.Context) ([]entity.Entity, snapshot.FetchReport, error)
	Upsert(ctx context.Context, e entity.Entity) (bool, error)
	UpsertMany(ctx context.Context, entities []entity.Entity) error
	Delete(ctx context.Context, id string) error
}

// FallbackLoader supplies the local static collection.
type FallbackLoader interface {
	Load(ctx context.Context) ([]entity.Entity, error)
}
