package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"statute-search/internal/app"
	"statute-search/internal/config"
	"statute-search/internal/http"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API resolves citations of Chinese statutes and searches their articles.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Statute Search API
//   description: |
//     Retrieval API for Chinese laws, regulations and judicial interpretations.
//     Precise citations such as 刑法第二十条 resolve to the article text; free
//     text is searched by title, embedding similarity and keywords.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := app.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			slog.Error("Failed to release resources", "error", err)
		}
	}()

	router := http.NewRouter(&http.Deps{
		Engine:         application.Engine,
		Statutes:       application.Statutes,
		Articles:       application.Articles,
		DB:             application.DB,
		Dependencies:   application.Dependencies,
		Coverage:       application.Pipeline,
		EmbeddingModel: cfg.EmbeddingModel,
		Metrics:        application.Metrics,
		RequestTimeout: cfg.RequestTimeout,
	})

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("API server failed", "error", err)
			return
		}
	case <-ctx.Done():
		slog.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}
}
