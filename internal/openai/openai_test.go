package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Generate(t *testing.T) {
	var gotModel, gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		if len(req.Messages) > 0 {
			gotPrompt = req.Messages[0].Content
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":" 0.55\n"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c, err := NewClient("test-key", "", srv.URL+"/v1/")
	if err != nil {
		t.Fatal(err)
	}
	out, err := c.Generate(context.Background(), "rate this")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if out != "0.55" {
		t.Errorf("unexpected reply %q", out)
	}
	if gotModel != DefaultModel || gotPrompt != "rate this" {
		t.Errorf("unexpected request model=%q prompt=%q", gotModel, gotPrompt)
	}
}

func TestClient_GenerateError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	c, _ := NewClient("k", "gpt-4o-mini", srv.URL+"/v1")
	if _, err := c.Generate(context.Background(), "x"); err == nil {
		t.Error("expected error on 429")
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	if _, err := NewClient("", "", ""); err == nil {
		t.Error("expected error for empty api key")
	}
}
