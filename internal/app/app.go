// Package app wires the feed registry, the curation pipeline and the
// retention store, and schedules curation runs.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deusflow/stablenews/internal/config"
	"github.com/deusflow/stablenews/internal/metrics"
	"github.com/deusflow/stablenews/internal/news"
	"github.com/deusflow/stablenews/internal/retry"
	"github.com/deusflow/stablenews/internal/rss"
	"github.com/deusflow/stablenews/internal/storage"
)

// ErrRunInProgress is returned by RunOnce when another run has not finished.
var ErrRunInProgress = errors.New("curation run already in progress")

type App struct {
	sources  []rss.FeedSource
	curator  *news.Curator
	store    storage.Store
	metrics  *metrics.Metrics
	interval time.Duration

	runMu   sync.Mutex
	closers []func()
}

// New builds an App from configuration: it loads the feed registry, opens
// the configured store and sentiment scorer.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	m := metrics.New()

	sources, err := loadSources(cfg.FeedsConfigPath)
	if err != nil {
		return nil, err
	}

	scorer, budget, closeScorer, err := newScorer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if budget != nil {
		m.SetSentimentBudget(budget)
	}

	store, err := openStore(ctx, cfg, m)
	if err != nil {
		closeScorer()
		return nil, err
	}

	fetcher := rss.NewFetcher(cfg.FetchTimeout, retry.Policy{
		MaxAttempts: cfg.RetryAttempts,
		Delay:       cfg.RetryDelay,
		Backoff:     true,
	})

	a := newApp(sources, news.NewCurator(fetcher, scorer, m), store, m, cfg.RefreshInterval)
	a.closers = append(a.closers, closeScorer)
	return a, nil
}

func newApp(sources []rss.FeedSource, curator *news.Curator, store storage.Store, m *metrics.Metrics, interval time.Duration) *App {
	return &App{
		sources:  sources,
		curator:  curator,
		store:    store,
		metrics:  m,
		interval: interval,
	}
}

// loadSources reads the feed registry, falling back to the built-in list
// when the file does not exist.
func loadSources(path string) ([]rss.FeedSource, error) {
	sources, err := rss.LoadFeeds(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("feeds config not found, using built-in registry", "path", path)
		return rss.DefaultFeeds(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load feeds: %w", err)
	}
	return sources, nil
}

// Store returns the retention store read by the HTTP handlers.
func (a *App) Store() storage.Store { return a.store }

// Metrics returns the metrics this App records into.
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// Sources returns the feed registry in processing order.
func (a *App) Sources() []rss.FeedSource { return a.sources }

// RunOnce performs one curation run and merges the result into the store.
// If a run is already executing it returns ErrRunInProgress immediately.
func (a *App) RunOnce(ctx context.Context) error {
	if !a.runMu.TryLock() {
		a.metrics.IncrementRunsSkipped()
		slog.Warn("skipping curation run, previous run still in progress")
		return ErrRunInProgress
	}
	defer a.runMu.Unlock()

	start := time.Now()
	runID := uuid.NewString()
	a.metrics.SetRunID(runID)
	log := slog.With("run_id", runID)
	log.Info("curation run started", "sources", len(a.sources))

	articles := a.curator.Run(ctx, a.sources)
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := a.store.Merge(ctx, articles); err != nil {
		a.metrics.SetError(err.Error())
		a.metrics.RecordProcessingTime(time.Since(start))
		log.Error("failed to persist curated articles", "error", err)
		return fmt.Errorf("failed to merge articles: %w", err)
	}

	retained := -1
	if snapshot, err := a.store.Snapshot(ctx); err == nil {
		retained = len(snapshot)
		a.metrics.SetRetained(retained)
	} else {
		log.Warn("failed to read store after merge", "error", err)
	}

	elapsed := time.Since(start)
	a.metrics.RecordProcessingTime(elapsed)
	a.metrics.SetLastRun()
	log.Info("curation run finished", "curated", len(articles), "retained", retained, "duration", elapsed)
	return nil
}

// Start runs once immediately and then on every interval until ctx is done.
func (a *App) Start(ctx context.Context) {
	a.runLogged(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-ticker.C:
			a.runLogged(ctx)
		}
	}
}

func (a *App) runLogged(ctx context.Context) {
	if err := a.RunOnce(ctx); err != nil && !errors.Is(err, ErrRunInProgress) && ctx.Err() == nil {
		slog.Error("curation run failed", "error", err)
	}
}

// Close releases the store and the scorer.
func (a *App) Close() error {
	for _, c := range a.closers {
		c()
	}
	return a.store.Close()
}
