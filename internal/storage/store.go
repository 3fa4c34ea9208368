// Package storage keeps the curated article set between pipeline runs.
//
// Two backends exist and exactly one is used per deployment:
//   - MemoryStore keeps an ordered, title-unique slice and evicts anything
//     fetched longer ago than its retention window on every merge.
//   - SQLStore upserts by natural key into a SQL table and does not evict by
//     age unless pruning is explicitly configured.
package storage

import (
	"context"

	"github.com/deusflow/stablenews/internal/news"
)

// Store is the retention boundary shared by the scheduler (writer) and the
// HTTP handlers (reader).
type Store interface {
	// Merge folds freshly curated articles into the retained set.
	Merge(ctx context.Context, articles []news.Article) error
	// Snapshot returns a consistent copy of the retained set.
	Snapshot(ctx context.Context) ([]news.Article, error)
	Close() error
}
