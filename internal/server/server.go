// Package server exposes the retained articles and service health over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deusflow/stablenews/internal/metrics"
	"github.com/deusflow/stablenews/internal/news"
	"github.com/deusflow/stablenews/internal/storage"
)

type Server struct {
	store   storage.Store
	metrics *metrics.Metrics
	engine  *gin.Engine
}

func New(store storage.Store, m *metrics.Metrics) *Server {
	s := &Server{store: store, metrics: m, engine: gin.New()}
	s.engine.Use(gin.Recovery(), requestLogger())

	s.engine.GET("/positive-news", s.positiveNews)
	s.engine.GET("/health", s.health)
	s.engine.GET("/metrics", s.stats)
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) positiveNews(c *gin.Context) {
	articles, err := s.store.Snapshot(c.Request.Context())
	if err != nil {
		slog.Error("failed to read store", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read articles"})
		return
	}
	if articles == nil {
		articles = []news.Article{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(articles), "articles": articles})
}

func (s *Server) health(c *gin.Context) {
	stats := s.metrics.GetStats()

	status, code := "ok", http.StatusOK
	if !s.metrics.Healthy() {
		status, code = "error", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	})
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.GetStats())
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	}
}
