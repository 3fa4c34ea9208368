package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deusflow/stablenews/internal/metrics"
	"github.com/deusflow/stablenews/internal/news"
	"github.com/deusflow/stablenews/internal/ratelimit"
	"github.com/deusflow/stablenews/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestPositiveNews(t *testing.T) {
	store := storage.NewMemoryStore(0, "")
	now := time.Now().UTC()
	_ = store.Merge(context.Background(), []news.Article{
		{Title: "Circle Gets Central Bank Nod", URL: "https://a.example/1", Source: "CoinDesk", Sentiment: 0.4, FetchedAt: now},
		{Title: "Tether adopts KYC policy", URL: "https://a.example/2", Source: "CoinDesk", Sentiment: 0.3, FetchedAt: now},
	})

	rec := get(t, New(store, metrics.New()).Handler(), "/positive-news")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Count    int            `json:"count"`
		Articles []news.Article `json:"articles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Count != 2 || len(body.Articles) != 2 {
		t.Fatalf("unexpected body %+v", body)
	}
	if body.Articles[0].Title != "Circle Gets Central Bank Nod" {
		t.Errorf("unexpected order %+v", body.Articles)
	}
}

func TestPositiveNews_Empty(t *testing.T) {
	rec := get(t, New(storage.NewMemoryStore(0, ""), metrics.New()).Handler(), "/positive-news")

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["count"] != float64(0) {
		t.Errorf("expected count 0, got %v", body["count"])
	}
	if arr, ok := body["articles"].([]any); !ok || len(arr) != 0 {
		t.Errorf("expected empty array, got %v", body["articles"])
	}
}

func TestHealth(t *testing.T) {
	m := metrics.New()
	h := New(storage.NewMemoryStore(0, ""), m).Handler()

	if rec := get(t, h, "/health"); rec.Code != http.StatusOK {
		t.Errorf("expected 200 while healthy, got %d", rec.Code)
	}

	m.SetError("merge failed")
	rec := get(t, h, "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 after failure, got %d", rec.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["status"] != "error" || body["last_error"] != "merge failed" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.IncrementRejected(metrics.StageSentiment)
	m.AddCurated(3)

	rec := get(t, New(storage.NewMemoryStore(0, ""), m).Handler(), "/metrics")
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["articles_curated"] != float64(3) {
		t.Errorf("unexpected curated %v", body["articles_curated"])
	}
	rejected, _ := body["rejected"].(map[string]any)
	if rejected[metrics.StageSentiment] != float64(1) {
		t.Errorf("unexpected rejected %v", body["rejected"])
	}
}

func TestMetricsEndpoint_SentimentBudget(t *testing.T) {
	budget := ratelimit.NewBudget("gemini", 200)
	_ = budget.Use()
	budget.RecordCacheHit()

	m := metrics.New()
	m.SetSentimentBudget(budget)

	rec := get(t, New(storage.NewMemoryStore(0, ""), m).Handler(), "/metrics")
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	got, ok := body["sentiment_budget"].(map[string]any)
	if !ok {
		t.Fatalf("missing sentiment_budget in %v", body)
	}
	if got["api"] != "gemini" || got["used"] != float64(1) || got["limit"] != float64(200) || got["cache_hits"] != float64(1) {
		t.Errorf("unexpected budget stats %v", got)
	}
	if got["reset_time"] == "" || got["reset_time"] == nil {
		t.Errorf("expected reset_time, got %v", got["reset_time"])
	}
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- New(storage.NewMemoryStore(0, ""), metrics.New()).ListenAndServe(ctx, "127.0.0.1:0")
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
