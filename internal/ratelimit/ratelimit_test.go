package ratelimit

import (
	"errors"
	"testing"
	"time"
)

func TestBudget_Limit(t *testing.T) {
	b := NewBudget("gemini", 2)

	for i := 0; i < 2; i++ {
		if err := b.Use(); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if err := b.Use(); !errors.Is(err, ErrBudgetExhausted) {
		t.Errorf("expected ErrBudgetExhausted, got %v", err)
	}
	if used := b.GetStats()["used"]; used != 2 {
		t.Errorf("rejected call must not be counted, used=%v", used)
	}
}

func TestBudget_Unlimited(t *testing.T) {
	b := NewBudget("gemini", 0)
	for i := 0; i < 1000; i++ {
		if err := b.Use(); err != nil {
			t.Fatalf("unlimited budget refused call %d: %v", i, err)
		}
	}
}

func TestBudget_ResetsAfterADay(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewBudget("gemini", 1)
	b.now = func() time.Time { return now }
	b.resetTime = now.Add(24 * time.Hour)

	_ = b.Use()
	b.RecordCacheHit()
	if err := b.Use(); !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("budget should be spent, got %v", err)
	}

	now = now.Add(25 * time.Hour)
	if used := b.GetStats()["used"]; used != 0 {
		t.Errorf("budget should reset after 24h, used=%v", used)
	}
	if hits := b.GetStats()["cache_hits"]; hits != 0 {
		t.Errorf("cache hits should reset, got %v", hits)
	}
}

func TestBudget_Stats(t *testing.T) {
	b := NewBudget("openai", 5)
	_ = b.Use()
	b.RecordCacheHit()
	b.RecordCacheHit()

	stats := b.GetStats()
	if stats["api"] != "openai" || stats["used"] != 1 || stats["limit"] != 5 || stats["cache_hits"] != 2 {
		t.Errorf("unexpected stats %v", stats)
	}
	if _, ok := stats["reset_time"].(time.Time); !ok {
		t.Errorf("expected reset_time, got %v", stats["reset_time"])
	}
}
