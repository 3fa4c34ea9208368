package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/deusflow/stablenews/internal/cache"
	"github.com/deusflow/stablenews/internal/config"
	"github.com/deusflow/stablenews/internal/gemini"
	"github.com/deusflow/stablenews/internal/metrics"
	"github.com/deusflow/stablenews/internal/news"
	"github.com/deusflow/stablenews/internal/openai"
	"github.com/deusflow/stablenews/internal/ratelimit"
	"github.com/deusflow/stablenews/internal/sentiment"
	"github.com/deusflow/stablenews/internal/storage"
)

// openStore selects the retention backend named by cfg.StoreBackend.
func openStore(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (storage.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres, config.BackendSQLite:
		s, err := storage.NewSQLStore(ctx, cfg.StoreBackend, cfg.DatabaseURL, storage.SQLOptions{
			Table:      cfg.DatabaseTable,
			StrictKey:  cfg.StrictNaturalKey,
			PruneAfter: cfg.PruneAfter,
			OnUpsertError: func(news.Article, error) {
				m.IncrementPersistFailures()
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreBackend, err)
		}
		return s, nil

	default:
		s := storage.NewMemoryStore(cfg.RetentionWindow, cfg.SnapshotPath)
		if err := s.Load(); err != nil {
			slog.Warn("failed to load snapshot, starting empty", "path", cfg.SnapshotPath, "error", err)
		}
		slog.Info("memory store ready", "retention", cfg.RetentionWindow, "snapshot", cfg.SnapshotPath, "loaded", s.Len())
		return s, nil
	}
}

// newScorer returns the configured sentiment scorer, its daily request
// budget (nil for the lexicon) and a function releasing its resources.
// Model-backed scorers fall back to the lexicon.
func newScorer(ctx context.Context, cfg *config.Config) (sentiment.Scorer, *ratelimit.Budget, func(), error) {
	lexicon := sentiment.NewLexicon()

	var (
		gen      sentiment.Generator
		release  = func() {}
		model    string
		dailyCap int
	)
	switch cfg.SentimentProvider {
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, nil, err
		}
		gen, release, model, dailyCap = client, client.Close, cfg.GeminiModel, cfg.MaxGeminiRequests
	case config.ProviderOpenAI:
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		gen, model, dailyCap = client, cfg.OpenAIModel, cfg.MaxOpenAIRequests
	default:
		return lexicon, nil, release, nil
	}

	scores := cache.New[float64](ctx, cfg.SentimentCacheTTL, time.Hour)
	budget := ratelimit.NewBudget(cfg.SentimentProvider, dailyCap)

	slog.Info("using model sentiment scorer", "provider", cfg.SentimentProvider, "model", model, "daily_limit", dailyCap)
	return sentiment.NewModelScorer(cfg.SentimentProvider, gen, lexicon, scores, budget), budget, release, nil
}
