package partnerdex

import (
	"context"
	"sync"

	"github.com/kailas-cloud/partnerdex/internal/domain"
	"github.com/kailas-cloud/partnerdex/internal/domain/entity"
	"github.com/kailas-cloud/partnerdex/internal/domain/snapshot"
	directoryuc "github.com/kailas-cloud/partnerdex/internal/usecase/directory"
)

// --- primary repository fake ---

type memPrimary struct {
	mu       sync.Mutex
	rows     []entity.Entity
	fetchErr error
	fetches  int
}

func (m *memPrimary) FetchAll(_ context.Context) ([]entity.Entity, snapshot.FetchReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	if m.fetchErr != nil {
		return nil, snapshot.FetchReport{}, m.fetchErr
	}
	out := make([]entity.Entity, len(m.rows))
	copy(out, m.rows)
	return out, snapshot.FetchReport{Keys: len(out)}, nil
}

func (m *memPrimary) Upsert(_ context.Context, e entity.Entity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.ID() == e.ID() {
			m.rows[i] = e
			return false, nil
		}
	}
	m.rows = append(m.rows, e)
	return true, nil
}

func (m *memPrimary) UpsertMany(ctx context.Context, entities []entity.Entity) error {
	for _, e := range entities {
		if _, err := m.Upsert(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (m *memPrimary) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.ID() == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memPrimary) fetchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches
}

type staticFallback []entity.Entity

func (f staticFallback) Load(_ context.Context) ([]entity.Entity, error) { return f, nil }

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- helpers ---

func testClient(primary *memPrimary, fb staticFallback, obs *observer) *Client {
	cfg := defaultConfig()
	var loader directoryuc.FallbackLoader
	if fb != nil {
		loader = fb
	}
	c := wireClient(&mockPinger{}, nil, primary, loader, cfg, obs)
	c.Refresh(context.Background())
	return c
}
