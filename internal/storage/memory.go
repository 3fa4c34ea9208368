package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/deusflow/stablenews/internal/news"
)

// DefaultRetentionWindow is how long an article stays in a MemoryStore.
const DefaultRetentionWindow = 48 * time.Hour

// MemoryStore holds the retained articles in insertion order, unique by
// case-insensitive title. When filePath is set the set is also written to a
// JSON file after every merge and read back by Load.
type MemoryStore struct {
	window   time.Duration
	filePath string
	now      func() time.Time

	mu     sync.RWMutex
	items  []news.Article
	titles map[string]struct{}
}

// NewMemoryStore creates an empty store. A non-positive window falls back to
// DefaultRetentionWindow; an empty filePath disables the JSON snapshot.
func NewMemoryStore(window time.Duration, filePath string) *MemoryStore {
	if window <= 0 {
		window = DefaultRetentionWindow
	}
	return &MemoryStore{
		window:   window,
		filePath: filePath,
		now:      func() time.Time { return time.Now().UTC() },
		titles:   make(map[string]struct{}),
	}
}

// Load reads a previous snapshot file, dropping expired and duplicate
// entries. A missing file is not an error.
func (s *MemoryStore) Load() error {
	if s.filePath == "" {
		return nil
	}

	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read snapshot file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var items []news.Article
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = s.items[:0]
	s.titles = make(map[string]struct{}, len(items))
	s.appendLocked(items)
	s.evictLocked()
	return nil
}

// Merge evicts every article older than the retention window, then appends
// the new articles whose title is not yet held. Eviction runs even when
// articles is empty.
func (s *MemoryStore) Merge(_ context.Context, articles []news.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked()
	s.appendLocked(articles)

	if s.filePath == "" {
		return nil
	}
	return s.saveLocked()
}

// Snapshot implements Store.
func (s *MemoryStore) Snapshot(_ context.Context) ([]news.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]news.Article, len(s.items))
	copy(out, s.items)
	return out, nil
}

// Len returns the number of retained articles.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) evictLocked() {
	cutoff := s.now().Add(-s.window)
	kept := s.items[:0]
	for _, a := range s.items {
		if a.FetchedAt.Before(cutoff) {
			delete(s.titles, news.TitleKey(a.Title))
			continue
		}
		kept = append(kept, a)
	}
	// drop references held past the new length
	for i := len(kept); i < len(s.items); i++ {
		s.items[i] = news.Article{}
	}
	s.items = kept
}

func (s *MemoryStore) appendLocked(articles []news.Article) {
	for _, a := range articles {
		key := news.TitleKey(a.Title)
		if key == "" {
			continue
		}
		if _, exists := s.titles[key]; exists {
			continue
		}
		s.items = append(s.items, a)
		s.titles[key] = struct{}{}
	}
}

// saveLocked writes to a temp file and renames it over the snapshot.
func (s *MemoryStore) saveLocked() error {
	data, err := json.MarshalIndent(s.items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}
	return nil
}
