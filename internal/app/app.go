// Package app wires the configured collaborators into a retrieval engine
// and an indexing pipeline. Both binaries build on it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"

	"statute-search/internal/alias"
	"statute-search/internal/config"
	"statute-search/internal/embedding"
	"statute-search/internal/handlers"
	"statute-search/internal/indexer"
	"statute-search/internal/metrics"
	"statute-search/internal/probe"
	"statute-search/internal/ranking"
	"statute-search/internal/resource"
	"statute-search/internal/retrieval"
	"statute-search/internal/searchengine"
	"statute-search/internal/storage"
	"statute-search/internal/vectorstore"
)

const (
	drainTimeout        = 10 * time.Second
	startupProbeTimeout = 5 * time.Second
)

// App holds the wired application.
type App struct {
	Config   *config.Config
	DB       *sql.DB
	Statutes *storage.StatuteRepo
	Articles *storage.ArticleRepo
	Aliases  *alias.Resolver
	Weights  *ranking.Table
	Embedder *embedding.Client
	Vectors  vectorstore.Index
	Search   *searchengine.Client
	Pool     *ants.Pool
	Metrics  *metrics.Recorder
	Engine   retrieval.Engine
	Pipeline *indexer.Pipeline
	// Dependencies are the optional collaborators reported by the health check.
	Dependencies map[string]handlers.Dependency

	closers []func() error
}

// NewLogger builds the process logger from the configured level and format.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// New opens the database and wires every collaborator described by cfg.
// Only the database is required: unusable lookup tables degrade to empty
// ones and an unreachable vector backend is reported by the health check.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:       cfg,
		Metrics:      metrics.New(),
		Dependencies: make(map[string]handlers.Dependency),
	}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config
	logger := slog.Default()

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)
	if err := storage.Migrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Database initialized", "path", cfg.DBPath)

	a.Statutes = storage.NewStatuteRepo(db)
	a.Articles = storage.NewArticleRepo(db)

	aliasSrc := tableSource(ctx, "alias table", cfg.AliasTablePath, cfg.AWSRegion, resource.AliasTable)
	weightSrc := tableSource(ctx, "weight table", cfg.WeightTablePath, cfg.AWSRegion, resource.WeightTable)
	a.Aliases = alias.NewResolver(aliasSrc)
	a.Weights = ranking.NewTable(weightSrc)
	// Load both tables now so no request pays for it.
	logger.Info("Static tables loaded",
		"aliases", aliasSrc.Name(),
		"alias_entries", a.Aliases.Len(ctx),
		"weights", weightSrc.Name(),
		"weight_entries", len(a.Weights.Weights(ctx).Entries),
	)

	pool, err := ants.NewPool(cfg.WorkerPoolSize, ants.WithPreAlloc(false))
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	a.Pool = pool
	a.closers = append(a.closers, func() error {
		pool.Release()
		return nil
	})

	a.Embedder = embedding.NewClient(cfg.EmbeddingServiceURL, cfg.EmbeddingDim, cfg.EmbeddingTimeout, cfg.HealthProbeTTL)
	a.Dependencies["embedding"] = a.Embedder

	a.Search = searchengine.NewClient(searchengine.Options{
		BaseURL:   cfg.SearchEngineURL,
		Index:     cfg.SearchEngineIndex,
		Username:  cfg.SearchEngineUser,
		Password:  cfg.SearchEnginePassword,
		VerifySSL: cfg.SearchEngineVerifySSL,
		Timeout:   cfg.SearchEngineTimeout,
		ProbeTTL:  cfg.HealthProbeTTL,
	})
	a.Dependencies["search_engine"] = a.Search

	a.initVectors(ctx)

	a.Engine = retrieval.NewEngine(retrieval.Deps{
		Statutes: a.Statutes,
		Articles: a.Articles,
		Aliases:  a.Aliases,
		Weights:  a.Weights,
		Embedder: a.Embedder,
		Vectors:  a.Vectors,
		Search:   a.Search,
		Pool:     a.Pool,
		Metrics:  a.Metrics,
	}, retrieval.Options{
		VectorEnabled:   cfg.VectorSearchEnabled,
		MinSimilarity:   cfg.VectorMinSimilarity,
		MaxContentChars: cfg.MaxContentChars,
		TitleEmbedLimit: retrieval.DefaultOptions().TitleEmbedLimit,
	})
	a.closers = append(a.closers, func() error {
		drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		return a.Engine.Drain(drainCtx)
	})
	a.Pipeline = indexer.NewPipeline(a.Statutes, a.Articles, a.Embedder, a.Vectors, a.Search, a.Weights, a.Pool)

	logger.Info("Retrieval engine initialized",
		"vector_backend", a.Vectors.Name(),
		"vector_search", cfg.VectorSearchEnabled,
		"embedding", a.Embedder.Enabled(),
		"search_engine", a.Search.Enabled(),
	)
	return nil
}

func (a *App) initVectors(ctx context.Context) {
	cfg := a.Config
	switch cfg.VectorBackend {
	case config.VectorBackendQdrant:
		index, err := vectorstore.NewQdrantIndex(cfg.QdrantURL, cfg.QdrantCollection)
		if err != nil {
			slog.Warn("Qdrant unusable, falling back to the scan index", "url", cfg.QdrantURL, "error", err)
			a.Vectors = vectorstore.NewScanIndex(a.Articles, a.Pool, cfg.VectorMaxScan)
			return
		}
		a.closers = append(a.closers, index.Close)
		ensureCtx, cancel := context.WithTimeout(ctx, startupProbeTimeout)
		err = index.EnsureCollection(ensureCtx, cfg.EmbeddingDim)
		cancel()
		if err != nil {
			slog.Warn("Qdrant collection not ready, vector stages degrade until it is", "collection", cfg.QdrantCollection, "error", err)
		}
		a.Vectors = index
		// The probe also creates the collection once Qdrant comes back.
		a.Dependencies["vector_index"] = probedDependency{probe.New("qdrant", func(ctx context.Context) error {
			return index.EnsureCollection(ctx, cfg.EmbeddingDim)
		}, cfg.HealthProbeTTL, 0)}
	case config.VectorBackendChromem:
		index, err := vectorstore.NewChromemIndex(cfg.ChromemPersistPath, cfg.QdrantCollection)
		if err != nil {
			slog.Warn("Chromem index unusable, falling back to the scan index", "path", cfg.ChromemPersistPath, "error", err)
			a.Vectors = vectorstore.NewScanIndex(a.Articles, a.Pool, cfg.VectorMaxScan)
			return
		}
		a.Vectors = index
	default:
		a.Vectors = vectorstore.NewScanIndex(a.Articles, a.Pool, cfg.VectorMaxScan)
	}
}

// tableSource resolves a lookup table location. A location that cannot be
// used yields an empty table.
func tableSource(ctx context.Context, what, loc, region, fallback string) resource.Source {
	src, err := resource.FromLocation(ctx, loc, region, fallback)
	if err != nil {
		slog.Warn("Lookup table location unusable, continuing with an empty table", "table", what, "location", loc, "error", err)
		return resource.BytesSource{Label: "empty " + what}
	}
	return src
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// probedDependency reports a Prober as an always-configured dependency.
type probedDependency struct {
	*probe.Prober
}

func (probedDependency) Enabled() bool { return true }
