package metrics

import (
	"sync"
	"time"
)

// Rejection stages of the curation pipeline.
const (
	StageTitle     = "title"
	StageDuplicate = "duplicate"
	StageSubject   = "subject"
	StageSentiment = "sentiment"
	StageNegative  = "negative"
	StagePolicy    = "policy"
)

// StatsSource reports counters kept outside Metrics.
type StatsSource interface {
	GetStats() map[string]interface{}
}

type Metrics struct {
	mu sync.RWMutex

	// Counters
	EntriesProcessed int64
	ArticlesCurated  int64
	FeedFailures     int64
	PersistFailures  int64
	RunsSkipped      int64
	Rejected         map[string]int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration
	ProcessingCount       int64

	// Status
	LastRunID     string
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
	RetainedCount int

	sentimentBudget StatsSource
}

// New returns an empty, healthy Metrics.
func New() *Metrics {
	return &Metrics{IsHealthy: true, Rejected: make(map[string]int64)}
}

var Global = New()

func (m *Metrics) IncrementEntriesProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EntriesProcessed++
}

func (m *Metrics) IncrementRejected(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rejected[stage]++
}

func (m *Metrics) AddCurated(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesCurated += int64(n)
}

func (m *Metrics) IncrementFeedFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedFailures++
}

func (m *Metrics) IncrementPersistFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PersistFailures++
}

func (m *Metrics) IncrementRunsSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RunsSkipped++
}

func (m *Metrics) SetRetained(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RetainedCount = n
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++

	if m.ProcessingCount > 0 {
		m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
	}
}

// SetRunID records the identifier of the run currently in progress.
func (m *Metrics) SetRunID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunID = id
}

// SetSentimentBudget reports the model scorer's request budget under
// "sentiment_budget".
func (m *Metrics) SetSentimentBudget(s StatsSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentimentBudget = s
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

// Healthy reports whether the last run finished without error.
func (m *Metrics) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.IsHealthy
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rejected := make(map[string]int64, len(m.Rejected))
	for k, v := range m.Rejected {
		rejected[k] = v
	}

	stats := map[string]interface{}{
		"entries_processed":          m.EntriesProcessed,
		"articles_curated":           m.ArticlesCurated,
		"rejected":                   rejected,
		"feed_failures":              m.FeedFailures,
		"persist_failures":           m.PersistFailures,
		"runs_skipped":               m.RunsSkipped,
		"retained_count":             m.RetainedCount,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_id":                m.LastRunID,
		"last_run_time":              formatTime(m.LastRunTime),
		"last_error_time":            formatTime(m.LastErrorTime),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
	if m.sentimentBudget != nil {
		stats["sentiment_budget"] = m.sentimentBudget.GetStats()
	}
	return stats
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
