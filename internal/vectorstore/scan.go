package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"statute-search/internal/contextutil"
	"statute-search/internal/storage"
)

const defaultScanBatch = 256

// EmbeddingStore is the part of the article store the scan index needs.
type EmbeddingStore interface {
	ListEmbedded(ctx context.Context, q storage.EmbeddedQuery) ([]storage.Article, error)
	SetEmbedding(ctx context.Context, id string, vec []float32) error
}

// ScanIndex scores a bounded snapshot of stored embeddings in memory. The
// snapshot is capped at maxScan rows; the store orders it by authority so
// the cap drops the least authoritative articles.
type ScanIndex struct {
	store     EmbeddingStore
	pool      *ants.Pool
	maxScan   int
	batchSize int
}

// NewScanIndex creates a ScanIndex. pool may be nil, in which case batches
// are scored on the calling goroutine.
func NewScanIndex(store EmbeddingStore, pool *ants.Pool, maxScan int) *ScanIndex {
	if maxScan <= 0 {
		maxScan = 5000
	}
	return &ScanIndex{
		store:     store,
		pool:      pool,
		maxScan:   maxScan,
		batchSize: defaultScanBatch,
	}
}

// Name returns the backend name.
func (s *ScanIndex) Name() string { return "scan" }

// Upsert writes embeddings through to the article store.
func (s *ScanIndex) Upsert(ctx context.Context, points []Point) error {
	for _, p := range points {
		if err := s.store.SetEmbedding(ctx, p.ID, p.Vec); err != nil {
			return fmt.Errorf("failed to store embedding for %s: %w", p.ID, err)
		}
	}
	return nil
}

type scored struct {
	Match
	pos int
}

// Search scores the snapshot in batches on the worker pool. A cancelled
// context aborts the scan and discards partial results.
func (s *ScanIndex) Search(ctx context.Context, query []float32, opts SearchOptions) ([]Match, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if opts.TopK <= 0 {
		return nil, fmt.Errorf("topK must be greater than 0")
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}

	snapshot, err := s.store.ListEmbedded(ctx, storage.EmbeddedQuery{LawIDs: opts.LawIDs, Limit: s.maxScan})
	if err != nil {
		return nil, err
	}
	if len(snapshot) >= s.maxScan {
		logger.DebugContext(ctx, "vector scan capped", "max_scan", s.maxScan)
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		all []scored
	)
	for start := 0; start < len(snapshot); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			break
		}
		end := min(start+s.batchSize, len(snapshot))
		offset, batch := start, snapshot[start:end]

		task := func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			local := scoreBatch(query, batch, offset, opts.MinScore)
			mu.Lock()
			all = append(all, local...)
			mu.Unlock()
		}

		wg.Add(1)
		if s.pool == nil {
			task()
			continue
		}
		if err := s.pool.Submit(task); err != nil {
			// Pool closed or overloaded: score inline rather than drop the batch.
			task()
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		return all[i].pos < all[j].pos
	})
	if len(all) > opts.TopK {
		all = all[:opts.TopK]
	}

	matches := make([]Match, len(all))
	for i, m := range all {
		matches[i] = m.Match
	}
	logger.DebugContext(ctx, "vector scan completed", "scanned", len(snapshot), "matches", len(matches))
	return matches, nil
}

func scoreBatch(query []float32, batch []storage.Article, offset int, minScore float32) []scored {
	var out []scored
	for i, a := range batch {
		score := Cosine(query, a.Embedding)
		if score < minScore {
			continue
		}
		out = append(out, scored{Match: Match{ID: a.ID, Score: score}, pos: offset + i})
	}
	return out
}
