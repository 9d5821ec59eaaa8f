package partner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/partnerdex/internal/db"
	"github.com/kailas-cloud/partnerdex/internal/domain"
	"github.com/kailas-cloud/partnerdex/internal/domain/entity"
	"github.com/kailas-cloud/partnerdex/internal/domain/snapshot"
)

// DefaultKeyPrefix namespaces all directory keys.
const DefaultKeyPrefix = "partnerdex:"

// fetchBatchSize bounds a single pipelined HGETALL round-trip.
const fetchBatchSize = 256

// store is the consumer interface for entity hashes (ISP).
type store interface {
	ReplaceHashes(ctx context.Context, items []db.HashSetItem) ([]bool, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) (int64, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the primary directory collection on top of Redis hashes.
type Repo struct {
	store  store
	prefix string
}

// New creates a partner repository. An empty prefix uses DefaultKeyPrefix.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// FetchAll loads every stored entity, ordered by key.
// Malformed rows are skipped and reported; they never fail the fetch.
func (r *Repo) FetchAll(ctx context.Context) ([]entity.Entity, snapshot.FetchReport, error) {
	keys, err := r.store.Scan(ctx, r.keyPattern())
	if err != nil {
		return nil, snapshot.FetchReport{}, fmt.Errorf("scan %s: %w", r.keyPattern(), err)
	}
	sort.Strings(keys) // deterministic ordering

	report := snapshot.FetchReport{Keys: len(keys)}
	entities := make([]entity.Entity, 0, len(keys))

	for start := 0; start < len(keys); start += fetchBatchSize {
		end := min(start+fetchBatchSize, len(keys))
		batch := keys[start:end]

		rows, err := r.store.HGetAllMulti(ctx, batch)
		if err != nil {
			return nil, snapshot.FetchReport{}, fmt.Errorf("hgetall batch at %d: %w", start, err)
		}

		for i, row := range rows {
			if len(row) == 0 {
				continue // deleted between SCAN and HGETALL
			}
			key := batch[i]
			e, err := rowToEntity(key, r.extractID(key), row)
			if err != nil {
				report.Skipped = append(report.Skipped, err)
				continue
			}
			entities = append(entities, e)
		}
	}

	return entities, report, nil
}

// Upsert replaces an entity wholesale in one transaction. Returns true if created.
// On error the previously stored row is left untouched.
func (r *Repo) Upsert(ctx context.Context, e entity.Entity) (bool, error) {
	key := r.entityKey(e.ID())
	existed, err := r.store.ReplaceHashes(ctx, []db.HashSetItem{{Key: key, Fields: buildHashFields(e)}})
	if err != nil {
		return false, fmt.Errorf("replace %s: %w", key, err)
	}
	return !existed[0], nil
}

// UpsertMany replaces entities wholesale in one transaction: all or none are written.
func (r *Repo) UpsertMany(ctx context.Context, entities []entity.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(entities))
	for i, e := range entities {
		items[i] = db.HashSetItem{Key: r.entityKey(e.ID()), Fields: buildHashFields(e)}
	}
	if _, err := r.store.ReplaceHashes(ctx, items); err != nil {
		return fmt.Errorf("replace %d entities: %w", len(entities), err)
	}
	return nil
}

// Delete removes an entity.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.entityKey(id)
	n, err := r.store.Del(ctx, key)
	if err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) entityKey(id string) string {
	return r.prefix + "entity:" + id
}

func (r *Repo) keyPattern() string {
	return r.prefix + "entity:*"
}

func (r *Repo) extractID(key string) string {
	return strings.TrimPrefix(key, r.prefix+"entity:")
}
