package metrics

import (
	"testing"
	"time"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.IncrementEntriesProcessed()
	m.IncrementEntriesProcessed()
	m.IncrementRejected(StageSentiment)
	m.IncrementRejected(StageSentiment)
	m.IncrementRejected(StagePolicy)
	m.AddCurated(3)
	m.SetRetained(7)

	stats := m.GetStats()
	if stats["entries_processed"].(int64) != 2 {
		t.Errorf("unexpected entries_processed: %v", stats["entries_processed"])
	}
	if stats["articles_curated"].(int64) != 3 {
		t.Errorf("unexpected articles_curated: %v", stats["articles_curated"])
	}
	rejected := stats["rejected"].(map[string]int64)
	if rejected[StageSentiment] != 2 || rejected[StagePolicy] != 1 {
		t.Errorf("unexpected rejected map: %v", rejected)
	}
	if stats["retained_count"].(int) != 7 {
		t.Errorf("unexpected retained_count: %v", stats["retained_count"])
	}
	if stats["last_run_time"].(string) != "" {
		t.Errorf("expected empty last_run_time before any run")
	}
}

func TestMetrics_Health(t *testing.T) {
	m := New()
	if !m.Healthy() {
		t.Fatal("new metrics should be healthy")
	}
	m.SetError("boom")
	if m.Healthy() {
		t.Fatal("expected unhealthy after error")
	}
	m.SetLastRun()
	if !m.Healthy() {
		t.Fatal("expected healthy after successful run")
	}
}

func TestMetrics_ProcessingTime(t *testing.T) {
	m := New()
	m.RecordProcessingTime(100 * time.Millisecond)
	m.RecordProcessingTime(300 * time.Millisecond)
	if m.AverageProcessingTime != 200*time.Millisecond {
		t.Errorf("unexpected average: %s", m.AverageProcessingTime)
	}
}

func TestMetrics_RunID(t *testing.T) {
	m := New()
	if m.GetStats()["last_run_id"] != "" {
		t.Error("expected empty run id before any run")
	}
	m.SetRunID("abc")
	if m.GetStats()["last_run_id"] != "abc" {
		t.Errorf("run id not exposed: %v", m.GetStats()["last_run_id"])
	}
}

type fixedStats map[string]interface{}

func (f fixedStats) GetStats() map[string]interface{} { return f }

func TestMetrics_SentimentBudget(t *testing.T) {
	m := New()
	if _, ok := m.GetStats()["sentiment_budget"]; ok {
		t.Fatal("no budget should be reported for the lexicon scorer")
	}

	m.SetSentimentBudget(fixedStats{"used": 3})
	budget, ok := m.GetStats()["sentiment_budget"].(map[string]interface{})
	if !ok || budget["used"] != 3 {
		t.Errorf("unexpected sentiment_budget %v", m.GetStats()["sentiment_budget"])
	}
}
