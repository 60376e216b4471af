// Package indexer maintains the indexes derived from the statute corpus:
// article embeddings, the vector index and the full-text search engine.
package indexer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/panjf2000/ants/v2"

	"statute-search/internal/contextutil"
	"statute-search/internal/ranking"
	"statute-search/internal/searchengine"
	"statute-search/internal/storage"
	"statute-search/internal/vectorstore"
)

const (
	// MaxEmbedRunes caps the article text sent to the embedding service.
	MaxEmbedRunes = 2000
	// MinEmbedRunes is the shortest article content worth embedding.
	MinEmbedRunes = 5

	defaultBatchSize = 64
	embedChunk       = 16
	bulkSize         = 500
	statutePageSize  = 100
)

// Embedder computes text embeddings.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// SearchIndexer loads documents into the full-text search engine.
type SearchIndexer interface {
	Enabled() bool
	EnsureIndex(ctx context.Context, analyzer string, recreate bool) error
	Bulk(ctx context.Context, docs []searchengine.Document) error
}

// WeightProvider supplies the authority weight table.
type WeightProvider interface {
	Weights(ctx context.Context) *ranking.Weights
}

// Pipeline orchestrates corpus imports and derived index maintenance.
type Pipeline struct {
	statutes storage.StatuteStore
	articles storage.ArticleStore
	embedder Embedder
	vectors  vectorstore.Index
	search   SearchIndexer
	weights  WeightProvider
	pool     *ants.Pool
}

// NewPipeline creates a new indexing pipeline. embedder, vectors, search,
// weights and pool may be nil; operations needing a missing collaborator
// fail with an error.
func NewPipeline(
	statutes storage.StatuteStore,
	articles storage.ArticleStore,
	embedder Embedder,
	vectors vectorstore.Index,
	search SearchIndexer,
	weights WeightProvider,
	pool *ants.Pool,
) *Pipeline {
	return &Pipeline{
		statutes: statutes,
		articles: articles,
		embedder: embedder,
		vectors:  vectors,
		search:   search,
		weights:  weights,
		pool:     pool,
	}
}

// BackfillEmbeddings embeds every article that has no embedding yet, batch
// articles at a time. Embeddings are stored on the article and upserted into
// the vector index. Articles too short to embed are skipped and stay
// unembedded. A failing embedding service aborts the run; per-article store
// failures are counted and reported once the run completes.
func (p *Pipeline) BackfillEmbeddings(ctx context.Context, batch int) (*Stats, error) {
	logger := contextutil.LoggerFromContext(ctx)
	if p.embedder == nil {
		return nil, fmt.Errorf("embedding service not configured")
	}
	if batch <= 0 {
		batch = defaultBatchSize
	}

	stats := newStats()
	start := time.Now()
	// Rows that stay unembedded (skipped or failed) are paged past.
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		articles, err := p.articles.ListMissingEmbedding(ctx, storage.EmbeddedQuery{Limit: batch, Offset: offset})
		if err != nil {
			return stats, fmt.Errorf("failed to list articles without embedding: %w", err)
		}
		if len(articles) == 0 {
			break
		}
		stats.Processed += len(articles)

		todo := make([]storage.Article, 0, len(articles))
		texts := make([]string, 0, len(articles))
		for _, a := range articles {
			text := strings.TrimSpace(a.Content)
			if utf8.RuneCountInString(text) < MinEmbedRunes {
				stats.skip("content_too_short")
				offset++
				continue
			}
			todo = append(todo, a)
			texts = append(texts, truncateRunes(text, MaxEmbedRunes))
		}
		if len(todo) == 0 {
			continue
		}

		vecs, err := p.embed(ctx, texts)
		if err != nil {
			return stats, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		failed, err := p.storeEmbeddings(ctx, todo, vecs)
		if err != nil {
			return stats, err
		}
		offset += failed
		stats.Failed += failed
		stats.Succeeded += len(todo) - failed

		logger.DebugContext(ctx, "embedded article batch",
			"batch", len(articles),
			"embedded", len(todo)-failed,
			"failed", failed,
		)
	}
	stats.Duration = time.Since(start)

	logger.InfoContext(ctx, "embedding backfill completed",
		"processed", stats.Processed,
		"embedded", stats.Succeeded,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"duration", stats.Duration,
	)
	if stats.Failed > 0 {
		return stats, fmt.Errorf("backfill completed with %d failures", stats.Failed)
	}
	return stats, nil
}

// embed splits texts into chunks embedded concurrently on the pool.
func (p *Pipeline) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if p.pool == nil || len(texts) <= embedChunk {
		return p.embedChunk(ctx, texts)
	}

	out := make([][]float32, len(texts))
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for start := 0; start < len(texts); start += embedChunk {
		end := min(start+embedChunk, len(texts))
		wg.Add(1)
		task := func() {
			defer wg.Done()
			vecs, err := p.embedChunk(ctx, texts[start:end])
			if err != nil {
				once.Do(func() { firstErr = err })
				return
			}
			copy(out[start:end], vecs)
		}
		if err := p.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (p *Pipeline) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(vecs))
	}
	return vecs, nil
}

// storeEmbeddings writes vecs onto the articles and into the vector index.
// It returns the number of articles whose store write failed.
func (p *Pipeline) storeEmbeddings(ctx context.Context, articles []storage.Article, vecs [][]float32) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	failed := 0
	points := make([]vectorstore.Point, 0, len(articles))
	for i, a := range articles {
		if err := p.articles.SetEmbedding(ctx, a.ID, vecs[i]); err != nil {
			failed++
			logger.ErrorContext(ctx, "failed to store article embedding", "article_id", a.ID, "error", err)
			continue
		}
		points = append(points, vectorstore.Point{ID: a.ID, Vec: vecs[i], LawID: a.LawID, Label: a.Label})
	}

	// The scan index reads embeddings straight from the article store.
	if _, scan := p.vectors.(*vectorstore.ScanIndex); p.vectors == nil || scan || len(points) == 0 {
		return failed, nil
	}
	if err := p.vectors.Upsert(ctx, points); err != nil {
		return failed, fmt.Errorf("failed to upsert vectors into %s: %w", p.vectors.Name(), err)
	}
	return failed, nil
}

// Reindex bulk-loads every article into the search engine, tagged with its
// statute's authority weight. recreate drops the index first.
func (p *Pipeline) Reindex(ctx context.Context, analyzer string, recreate bool) (*Stats, error) {
	logger := contextutil.LoggerFromContext(ctx)
	if p.search == nil || !p.search.Enabled() {
		return nil, searchengine.ErrDisabled
	}
	if err := p.search.EnsureIndex(ctx, analyzer, recreate); err != nil {
		return nil, fmt.Errorf("failed to prepare search index: %w", err)
	}

	weights := ranking.Uniform()
	if p.weights != nil {
		weights = p.weights.Weights(ctx)
	}

	stats := newStats()
	start := time.Now()
	docs := make([]searchengine.Document, 0, bulkSize)
	flush := func() error {
		if len(docs) == 0 {
			return nil
		}
		if err := p.search.Bulk(ctx, docs); err != nil {
			stats.Failed += len(docs)
			return fmt.Errorf("failed to index %d documents: %w", len(docs), err)
		}
		stats.Succeeded += len(docs)
		logger.DebugContext(ctx, "indexed document batch", "count", len(docs))
		docs = docs[:0]
		return nil
	}

	for page := 1; ; page++ {
		statutes, total, err := p.statutes.List(ctx, storage.StatuteFilter{Page: page, PageSize: statutePageSize})
		if err != nil {
			return stats, fmt.Errorf("failed to list statutes: %w", err)
		}
		for _, s := range statutes {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			articles, err := p.articles.ListByLaw(ctx, s.LawID, "", 0)
			if err != nil {
				return stats, fmt.Errorf("failed to list articles of %s: %w", s.LawID, err)
			}
			stats.Processed += len(articles)
			weight := weights.Weight(s.Title)
			for _, a := range articles {
				docs = append(docs, searchengine.Document{
					LawID:          s.LawID,
					LawTitle:       s.Title,
					LawCategory:    s.Category,
					LawStatus:      s.Status,
					ArticleNum:     a.Sequence,
					ArticleDisplay: a.Label,
					Content:        a.Content,
					Keywords:       a.Keywords,
					LawWeight:      weight,
				})
				if len(docs) >= bulkSize {
					if err := flush(); err != nil {
						return stats, err
					}
				}
			}
		}
		if len(statutes) == 0 || page*statutePageSize >= total {
			break
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}
	stats.Duration = time.Since(start)

	logger.InfoContext(ctx, "search index rebuilt",
		"articles", stats.Succeeded,
		"duration", stats.Duration,
	)
	return stats, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
