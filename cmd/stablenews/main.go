package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/deusflow/stablenews/internal/app"
	"github.com/deusflow/stablenews/internal/config"
	"github.com/deusflow/stablenews/internal/logger"
	"github.com/deusflow/stablenews/internal/server"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("failed to close store", "error", err)
		}
	}()

	slog.Info("stablenews starting",
		"feeds", len(a.Sources()),
		"store", cfg.StoreBackend,
		"sentiment", cfg.SentimentProvider,
		"interval", cfg.RefreshInterval)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.Start(ctx)
	}()

	if err := server.New(a.Store(), a.Metrics()).ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
		slog.Error("http server failed", "error", err)
		stop()
	}

	wg.Wait()
	slog.Info("stablenews stopped")
}
