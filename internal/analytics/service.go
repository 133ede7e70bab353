package analytics

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/apex-analytics/apex-dashboard/internal/dataset"
)

// LoadObserver receives the outcome of every dataset load.
type LoadObserver interface {
	ObserveLoad(source string, err error, duration time.Duration)
}

// Service owns the dataset lifecycle: one fetch per load cycle, published to
// the store for request handlers.
type Service struct {
	source   dataset.Source
	store    *dataset.Store
	cache    *Cache
	logger   *slog.Logger
	observer LoadObserver
	timeout  time.Duration
	group    singleflight.Group
	now      func() time.Time
}

// NewService wires a dataset Source with an optional Cache helper.
func NewService(source dataset.Source, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:  source,
		store:   dataset.NewStore(),
		cache:   cache,
		logger:  logger,
		timeout: 30 * time.Second,
		now:     time.Now,
	}
}

// WithObserver registers a load observer.
func (s *Service) WithObserver(o LoadObserver) *Service {
	s.observer = o
	return s
}

// WithFetchTimeout bounds a single load; zero keeps the default.
func (s *Service) WithFetchTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Start issues the single best-effort load in the background.
func (s *Service) Start(ctx context.Context) {
	go func() {
		_ = s.Reload(ctx)
	}()
}

// Reload fetches, validates and publishes the dataset. Concurrent callers share
// one load.
func (s *Service) Reload(ctx context.Context) error {
	_, err, _ := s.group.Do("reload", func() (interface{}, error) {
		return nil, s.load(ctx)
	})
	return err
}

func (s *Service) load(ctx context.Context) error {
	if s.source == nil {
		err := errors.New("analytics: dataset source not configured")
		s.store.Fail(err)
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := s.now()
	name := s.source.Name()
	snap, err := s.fetch(ctx, name, start)
	if s.observer != nil {
		s.observer.ObserveLoad(name, err, s.now().Sub(start))
	}
	if err != nil {
		s.store.Fail(err)
		s.logger.Error("load dataset", slog.String("source", name), slog.Any("error", err))
		return err
	}
	s.store.Publish(snap)
	s.logger.Info("dataset loaded",
		slog.String("source", name),
		slog.String("fingerprint", snap.Fingerprint),
		slog.Int("merchants", len(snap.Document.Merchants)),
		slog.Duration("duration", s.now().Sub(start)),
	)
	return nil
}

func (s *Service) fetch(ctx context.Context, name string, now time.Time) (*dataset.Snapshot, error) {
	if s.cache == nil {
		return dataset.Load(ctx, s.source, now)
	}
	key, err := s.cache.BuildKey(ctx, "dashboard", "dataset")
	if err != nil {
		s.logger.Warn("cache key", slog.Any("error", err))
		return dataset.Load(ctx, s.source, now)
	}
	raw, err := s.cache.FetchBytes(ctx, key, s.source.Fetch)
	if err != nil {
		if errors.Is(err, dataset.ErrFetch) {
			return nil, err
		}
		s.logger.Warn("cache fetch", slog.Any("error", err))
		return dataset.Load(ctx, s.source, now)
	}
	return dataset.FromBytes(raw, name, now)
}

// ListenForUpdates reloads whenever the worker announces a new cache version.
func (s *Service) ListenForUpdates(ctx context.Context) error {
	return s.cache.ListenForInvalidation(ctx, BumpChannel, func(version int64) {
		s.logger.Info("dataset version bumped", slog.Int64("version", version))
		if err := s.Reload(ctx); err != nil {
			s.logger.Warn("reload after bump", slog.Any("error", err))
		}
	})
}

// Status exposes the load state.
func (s *Service) Status() (dataset.State, *dataset.Snapshot, error) {
	return s.store.Status()
}

// Merchant resolves a merchant payload from the loaded snapshot.
func (s *Service) Merchant(name string) (*dataset.Snapshot, string, *dataset.Payload, error) {
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, "", nil, err
	}
	merchant, payload, err := snap.Document.Payload(name)
	if err != nil {
		return nil, "", nil, err
	}
	return snap, merchant, payload, nil
}
