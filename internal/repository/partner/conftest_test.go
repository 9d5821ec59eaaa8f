package partner

import (
	"context"
	"strings"
	"testing"

	"github.com/kailas-cloud/partnerdex/internal/db"
	"github.com/kailas-cloud/partnerdex/internal/domain/entity"
	"github.com/kailas-cloud/partnerdex/internal/domain/entity/category"
	"github.com/kailas-cloud/partnerdex/internal/domain/geo"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	replaceFn      func(ctx context.Context, items []db.HashSetItem) ([]bool, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	delFn          func(ctx context.Context, keys ...string) (int64, error)
	scanFn         func(ctx context.Context, pattern string) ([]string, error)
}

func (m *mockStore) ReplaceHashes(ctx context.Context, items []db.HashSetItem) ([]bool, error) {
	if m.replaceFn != nil {
		return m.replaceFn(ctx, items)
	}
	return make([]bool, len(items)), nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) (int64, error) {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return int64(len(keys)), nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

// memStore keeps hashes in memory. ReplaceHashes is all-or-nothing,
// like MULTI/EXEC; failReplace makes the next transaction fail before it commits.
type memStore struct {
	hashes      map[string]map[string]string
	failReplace error
}

func newMemStore() *memStore {
	return &memStore{hashes: make(map[string]map[string]string)}
}

func (m *memStore) ReplaceHashes(_ context.Context, items []db.HashSetItem) ([]bool, error) {
	if m.failReplace != nil {
		return nil, m.failReplace
	}
	existed := make([]bool, len(items))
	for i, item := range items {
		_, existed[i] = m.hashes[item.Key]
		row := make(map[string]string, len(item.Fields))
		for k, v := range item.Fields {
			row[k] = v
		}
		m.hashes[item.Key] = row
	}
	return existed, nil
}

func (m *memStore) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = m.hashes[k]
	}
	return out, nil
}

func (m *memStore) Del(_ context.Context, keys ...string) (int64, error) {
	var n int64
	for _, k := range keys {
		if _, ok := m.hashes[k]; ok {
			delete(m.hashes, k)
			n++
		}
	}
	return n, nil
}

func (m *memStore) Scan(_ context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.hashes {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, "")
	return repo, ms
}

func testEntity(t *testing.T) entity.Entity {
	t.Helper()
	p := geo.Point{Lat: 48.8566, Lon: 2.3522}
	e, err := entity.New("bank-1", entity.KindPartner, entity.Fields{
		Name:        "CannaBanque",
		Location:    "Paris",
		Description: "Banque pour le CBD",
		Category:    category.Bank,
		Coordinates: &p,
	})
	if err != nil {
		t.Fatalf("testEntity: %v", err)
	}
	return e
}
