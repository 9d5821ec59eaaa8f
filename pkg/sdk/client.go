package partnerdex

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/partnerdex/internal/db"
	dbRedis "github.com/kailas-cloud/partnerdex/internal/db/redis"
	"github.com/kailas-cloud/partnerdex/internal/domain/entity"
	"github.com/kailas-cloud/partnerdex/internal/domain/entity/category"
	"github.com/kailas-cloud/partnerdex/internal/domain/search/query"
	"github.com/kailas-cloud/partnerdex/internal/domain/snapshot"
	"github.com/kailas-cloud/partnerdex/internal/repository/fallback"
	partnerrepo "github.com/kailas-cloud/partnerdex/internal/repository/partner"
	directoryuc "github.com/kailas-cloud/partnerdex/internal/usecase/directory"
	healthuc "github.com/kailas-cloud/partnerdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/partnerdex/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Внутренние интерфейсы для подмены в тестах.
type directoryUseCase interface {
	Current() snapshot.Snapshot
	Refresh(ctx context.Context) snapshot.Snapshot
	Run(ctx context.Context, interval time.Duration) error
	Lookup(id string) (entity.Entity, error)
	Upsert(ctx context.Context, e entity.Entity) (bool, error)
	Import(ctx context.Context, entities []entity.Entity) error
	Delete(ctx context.Context, id string) error
}

type searchUseCase interface {
	Search(ctx context.Context, q *query.Query) searchuc.Result
}

// Client is the partnerdex SDK entry point. Safe for concurrent use.
type Client struct {
	closeStore func()
	dirSvc     directoryUseCase
	searchSvc  searchUseCase
	healthSvc  healthUseCase
	obs        *observer

	stopLoop context.CancelFunc
	loopDone sync.WaitGroup
	once     sync.Once
}

// New creates a Client, connects to the database and publishes the first snapshot.
// The provided context is used for the readiness check and the first refresh.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("partnerdex: database address required (use WithValkey or WithRedis)")
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("partnerdex: database not ready: %w", err)
	}

	fb, err := loadFallback(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	primary := partnerrepo.New(store, cfg.keyPrefix)
	c := wireClient(store, store.Close, primary, fb, cfg, obs)
	c.start(ctx, cfg.refreshInterval)
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("partnerdex: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("partnerdex: unknown driver %q", cfg.driver)
	}
}

func loadFallback(cfg *clientConfig) (directoryuc.FallbackLoader, error) {
	if !cfg.fallbackEnabled {
		return nil, nil
	}
	l, err := fallback.New(cfg.fallbackPath)
	if err != nil {
		return nil, fmt.Errorf("partnerdex: %w", err)
	}
	return l, nil
}

func wireClient(
	pinger healthuc.DBPinger, closeStore func(),
	primary directoryuc.PrimaryRepository, fb directoryuc.FallbackLoader,
	cfg *clientConfig, obs *observer,
) *Client {
	opts := []directoryuc.Option{
		directoryuc.WithFallbackEnabled(fb != nil),
		directoryuc.WithPublishHook(func(s snapshot.Snapshot) { obs.snapshot(fromSnapshot(s)) }),
	}
	if cfg.fetchTimeout > 0 {
		opts = append(opts, directoryuc.WithFetchTimeout(cfg.fetchTimeout))
	}

	// The SDK logs through slog in the observer; internal services stay quiet.
	dirSvc := directoryuc.New(primary, fb, zap.NewNop(), opts...)

	return &Client{
		closeStore: closeStore,
		dirSvc:     dirSvc,
		searchSvc:  searchuc.New(dirSvc),
		healthSvc:  healthuc.New(pinger, dirSvc),
		obs:        obs,
	}
}

// start publishes the first snapshot and, for a positive interval, starts the refresh loop.
func (c *Client) start(ctx context.Context, interval time.Duration) {
	c.Refresh(ctx)
	if interval <= 0 {
		return
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	c.stopLoop = cancel
	c.loopDone.Add(1)
	go func() {
		defer c.loopDone.Done()
		_ = c.dirSvc.Run(loopCtx, interval) // ends with context.Canceled on Close
	}()
}

// Close stops the refresh loop and releases all resources.
func (c *Client) Close() {
	c.once.Do(func() {
		if c.stopLoop != nil {
			c.stopLoop()
			c.loopDone.Wait()
		}
		if c.closeStore != nil {
			c.closeStore()
		}
	})
}

// Search filters the directory. Every call evaluates the full current snapshot.
func (c *Client) Search(ctx context.Context, p SearchParams) (res SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err, "results", len(res.Items)) }()

	q, err := query.New(p.Term, p.Category, entity.Kind(p.Kind), toPoint(p.Near), p.Limit)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search: %w", err)
	}

	r := c.searchSvc.Search(ctx, &q)
	return SearchResult{
		Items:           fromEntities(r.Items),
		Total:           r.Total,
		Source:          Source(r.Source),
		Generation:      r.Generation,
		CategoryCoerced: q.SelectorCoerced(),
	}, nil
}

// Get returns one entity of the current snapshot.
func (c *Client) Get(_ context.Context, id string) (Entity, error) {
	e, err := c.dirSvc.Lookup(id)
	if err != nil {
		return Entity{}, fmt.Errorf("get %s: %w", id, err)
	}
	return fromEntity(e), nil
}

// Categories returns the selectable category catalog in display order.
func (c *Client) Categories() []Category {
	all := category.All()
	out := make([]Category, len(all))
	for i, cat := range all {
		out[i] = Category{Value: string(cat), Label: cat.Label()}
	}
	return out
}

// Source describes the currently published snapshot.
func (c *Client) Source() SourceInfo {
	return fromSnapshot(c.dirSvc.Current())
}

// Refresh re-reads the database and publishes a new snapshot.
// A database failure is not returned: it shows up as SourceFallback or SourceNone.
func (c *Client) Refresh(ctx context.Context) SourceInfo {
	start := time.Now()
	info := fromSnapshot(c.dirSvc.Refresh(ctx))
	c.obs.observe("refresh", start, nil,
		"source", string(info.Source),
		"count", info.Count,
		"generation", info.Generation,
	)
	return info
}

// Upsert validates and stores an entity, then refreshes. Returns true if created.
func (c *Client) Upsert(ctx context.Context, e Entity) (created bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("upsert", start, err, "id", e.ID) }()

	de, err := toEntity(e)
	if err != nil {
		return false, fmt.Errorf("upsert: %w", err)
	}
	created, err = c.dirSvc.Upsert(ctx, de)
	if err != nil {
		return false, fmt.Errorf("upsert: %w", err)
	}
	return created, nil
}

// Import validates and stores many entities in one round-trip, then refreshes.
// Nothing is written if any entity is invalid.
func (c *Client) Import(ctx context.Context, entities []Entity) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("import", start, err, "count", len(entities)) }()

	des := make([]entity.Entity, len(entities))
	for i, e := range entities {
		if des[i], err = toEntity(e); err != nil {
			return fmt.Errorf("import: entities[%d]: %w", i, err)
		}
	}
	if err = c.dirSvc.Import(ctx, des); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	return nil
}

// Delete removes an entity, then refreshes.
func (c *Client) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete", start, err, "id", id) }()

	if err = c.dirSvc.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}
