package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/partnerdex/internal/domain"
	"github.com/kailas-cloud/partnerdex/internal/domain/entity"
	"github.com/kailas-cloud/partnerdex/internal/domain/snapshot"
	"github.com/kailas-cloud/partnerdex/internal/metrics"
)

// Defaults for the data context.
const (
	DefaultFetchTimeout    = 5 * time.Second
	DefaultRefreshInterval = 5 * time.Minute
	MaxImportSize          = 500
)

// Service owns the published directory snapshot.
// Readers load it lock-free; each refresh publishes a new immutable value.
type Service struct {
	primary         PrimaryRepository
	fallback        FallbackLoader
	fallbackEnabled bool
	fetchTimeout    time.Duration
	logger          *zap.Logger
	now             func() time.Time
	onPublish       func(snapshot.Snapshot)

	current    atomic.Pointer[snapshot.Snapshot]
	publishMu  sync.Mutex // orders generation stamps with stores
	generation uint64
}

// Option configures the Service.
type Option func(*Service)

// WithFetchTimeout bounds a single primary fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithFallbackEnabled toggles fallback substitution.
func WithFallbackEnabled(enabled bool) Option {
	return func(s *Service) { s.fallbackEnabled = enabled }
}

// WithClock overrides the time source used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPublishHook registers fn to observe every published snapshot.
// fn runs in generation order under the publish lock and must not block.
func WithPublishHook(fn func(snapshot.Snapshot)) Option {
	return func(s *Service) { s.onPublish = fn }
}

// New creates the data context. fallback can be nil.
func New(primary PrimaryRepository, fallback FallbackLoader, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		primary:         primary,
		fallback:        fallback,
		fallbackEnabled: fallback != nil,
		fetchTimeout:    DefaultFetchTimeout,
		logger:          logger,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fallback == nil {
		s.fallbackEnabled = false
	}
	empty := snapshot.Empty()
	s.current.Store(&empty)
	return s
}

// Current returns the published snapshot.
func (s *Service) Current() snapshot.Snapshot {
	return *s.current.Load()
}

// Lookup returns one entity of the published snapshot by ID.
func (s *Service) Lookup(id string) (entity.Entity, error) {
	for _, e := range s.Current().View() {
		if e.ID() == id {
			return e, nil
		}
	}
	return entity.Entity{}, domain.ErrNotFound
}

// Refresh fetches the primary collection, reconciles it with the fallback
// and publishes the result. A failed fetch is recovered by substitution and
// only surfaces through the snapshot's source and fetch error.
// If ctx is cancelled the current snapshot is returned unchanged.
func (s *Service) Refresh(ctx context.Context) snapshot.Snapshot {
	start := time.Now()

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	primary, report, fetchErr := s.primary.FetchAll(fetchCtx)
	cancel()

	if ctx.Err() != nil {
		return s.Current()
	}

	if fetchErr != nil {
		fetchErr = fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, fetchErr)
		metrics.DirectoryFetchErrorsTotal.Inc()
		s.logger.Warn("Primary fetch failed", zap.Error(fetchErr))
	}
	s.logSkipped(report)

	var fallback []entity.Entity
	if s.fallbackEnabled && (fetchErr != nil || len(primary) == 0) {
		fallback = s.loadFallback(ctx)
	}

	snap := Reconcile(primary, fetchErr, fallback, s.fallbackEnabled, s.now()).
		WithSkipped(len(report.Skipped))
	snap = s.publish(snap)

	duration := time.Since(start)
	metrics.DirectoryRefreshDuration.Observe(duration.Seconds())
	metrics.DirectoryRefreshTotal.WithLabelValues(string(snap.Source())).Inc()
	metrics.DirectoryEntities.Set(float64(snap.Len()))
	metrics.DirectoryLastRefresh.Set(float64(snap.FetchedAt().Unix()))

	s.logger.Info("Directory refreshed",
		zap.String("source", string(snap.Source())),
		zap.Int("entities", snap.Len()),
		zap.Int("skipped", snap.Skipped()),
		zap.Uint64("generation", snap.Generation()),
		zap.Duration("duration", duration),
	)
	return snap
}

// Run refreshes immediately, then every interval until ctx is cancelled.
// A non-positive interval refreshes once and waits for cancellation.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	s.Refresh(ctx)

	if interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Upsert writes an entity to the primary store and refreshes.
// Returns true if the entity was created.
func (s *Service) Upsert(ctx context.Context, e entity.Entity) (bool, error) {
	created, err := s.primary.Upsert(ctx, e)
	if err != nil {
		return false, fmt.Errorf("upsert entity %s: %w", e.ID(), err)
	}
	s.Refresh(ctx)
	return created, nil
}

// Import writes many entities to the primary store in one round-trip and refreshes.
func (s *Service) Import(ctx context.Context, entities []entity.Entity) error {
	if len(entities) > MaxImportSize {
		return fmt.Errorf("import size %d exceeds %d: %w", len(entities), MaxImportSize, domain.ErrInvalidEntity)
	}
	if err := s.primary.UpsertMany(ctx, entities); err != nil {
		return fmt.Errorf("import %d entities: %w", len(entities), err)
	}
	s.Refresh(ctx)
	return nil
}

// Delete removes an entity from the primary store and refreshes.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.primary.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete entity %s: %w", id, err)
	}
	s.Refresh(ctx)
	return nil
}

// publish stamps the next generation and stores the snapshot (last write wins).
func (s *Service) publish(snap snapshot.Snapshot) snapshot.Snapshot {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.generation++
	snap = snap.WithGeneration(s.generation)
	s.current.Store(&snap)
	if s.onPublish != nil {
		s.onPublish(snap)
	}
	return snap
}

func (s *Service) loadFallback(ctx context.Context) []entity.Entity {
	fallback, err := s.fallback.Load(ctx)
	if err != nil {
		s.logger.Error("Fallback load failed", zap.Error(err))
		return nil
	}
	return fallback
}

func (s *Service) logSkipped(report snapshot.FetchReport) {
	if len(report.Skipped) == 0 {
		return
	}
	metrics.DirectorySkippedRowsTotal.Add(float64(len(report.Skipped)))
	s.logger.Warn("Malformed primary rows skipped",
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("keys", report.Keys),
		zap.Errors("errors", report.Skipped),
	)
}
