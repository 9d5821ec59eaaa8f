package chi

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/partnerdex/internal/domain"
	"github.com/kailas-cloud/partnerdex/internal/domain/entity"
	"github.com/kailas-cloud/partnerdex/internal/domain/entity/category"
	"github.com/kailas-cloud/partnerdex/internal/domain/geo"
	"github.com/kailas-cloud/partnerdex/internal/domain/snapshot"
	directoryuc "github.com/kailas-cloud/partnerdex/internal/usecase/directory"
	healthuc "github.com/kailas-cloud/partnerdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/partnerdex/internal/usecase/search"
)

// memPrimary is an in-memory primary collection.
type memPrimary struct {
	mu       sync.Mutex
	order    []string
	rows     map[string]entity.Entity
	fetchErr error
	writeErr error
}

func newMemPrimary(entities ...entity.Entity) *memPrimary {
	m := &memPrimary{rows: make(map[string]entity.Entity)}
	for _, e := range entities {
		m.put(e)
	}
	return m
}

func (m *memPrimary) put(e entity.Entity) bool {
	_, exists := m.rows[e.ID()]
	if !exists {
		m.order = append(m.order, e.ID())
	}
	m.rows[e.ID()] = e
	return !exists
}

func (m *memPrimary) FetchAll(_ context.Context) ([]entity.Entity, snapshot.FetchReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return nil, snapshot.FetchReport{}, m.fetchErr
	}
	out := make([]entity.Entity, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.rows[id])
	}
	return out, snapshot.FetchReport{Keys: len(out)}, nil
}

func (m *memPrimary) Upsert(_ context.Context, e entity.Entity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return false, m.writeErr
	}
	return m.put(e), nil
}

func (m *memPrimary) UpsertMany(_ context.Context, entities []entity.Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	for _, e := range entities {
		m.put(e)
	}
	return nil
}

func (m *memPrimary) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.rows, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

type staticFallback []entity.Entity

func (f staticFallback) Load(_ context.Context) ([]entity.Entity, error) { return f, nil }

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type testEnv struct {
	primary   *memPrimary
	directory *directoryuc.Service
	handler   http.Handler
}

func newTestEnv(t *testing.T, primary *memPrimary, fallback staticFallback, apiKeys ...string) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	var fb directoryuc.FallbackLoader
	if fallback != nil {
		fb = fallback
	}
	dir := directoryuc.New(primary, fb, logger)
	dir.Refresh(context.Background())

	srv := NewServer(dir, searchuc.New(dir), healthuc.New(&mockPinger{}, dir), logger)
	return &testEnv{
		primary:   primary,
		directory: dir,
		handler:   NewRouter(srv, logger, AuthPolicy{APIKeys: apiKeys}),
	}
}

func testEntity(t *testing.T, id, name string, cat category.Category, opts ...func(*entity.Fields)) entity.Entity {
	t.Helper()
	f := entity.Fields{Name: name, Category: cat}
	for _, o := range opts {
		o(&f)
	}
	e, err := entity.New(id, entity.KindPartner, f)
	if err != nil {
		t.Fatalf("entity %s: %v", id, err)
	}
	return e
}

func at(lat, lon float64) func(*entity.Fields) {
	return func(f *entity.Fields) { f.Coordinates = &geo.Point{Lat: lat, Lon: lon} }
}

func directoryFixture(t *testing.T) []entity.Entity {
	t.Helper()
	return []entity.Entity{
		testEntity(t, "cannabanque", "CannaBanque", category.Bank, at(48.8566, 2.3522)),
		testEntity(t, "cbd-juridique", "CBD Juridique", category.Legal),
	}
}

func testLogger() *zap.Logger { return zap.NewNop() }
