package vectorstore

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"

	"github.com/philippgille/chromem-go"

	"statute-search/internal/contextutil"
)

// ChromemIndex implements Index with an embedded chromem-go collection,
// optionally persisted to disk.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewChromemIndex opens (or creates) the named collection. An empty
// persistPath keeps vectors in memory only.
func NewChromemIndex(persistPath, collection string) (*ChromemIndex, error) {
	var db *chromem.DB
	if persistPath == "" {
		db = chromem.NewDB()
	} else {
		if err := os.MkdirAll(persistPath, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create persist directory: %w", err)
		}
		var err error
		db, err = chromem.NewPersistentDB(persistPath, true)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem database: %w", err)
		}
	}

	// Vectors are always computed by the embedding service before they reach the index.
	precomputed := func(ctx context.Context, text string) ([]float32, error) {
		return nil, fmt.Errorf("embedding function called but vectors should be pre-computed")
	}
	col, err := db.GetOrCreateCollection(collection, nil, precomputed)
	if err != nil {
		return nil, fmt.Errorf("failed to get/create collection %q: %w", collection, err)
	}

	return &ChromemIndex{db: db, collection: col}, nil
}

// Name returns the backend name.
func (c *ChromemIndex) Name() string { return "chromem" }

// Upsert adds or replaces documents with pre-computed embeddings.
func (c *ChromemIndex) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	docs := make([]chromem.Document, 0, len(points))
	for _, p := range points {
		docs = append(docs, chromem.Document{
			ID:        p.ID,
			Embedding: p.Vec,
			Metadata: map[string]string{
				"law_id": p.LawID,
				"label":  p.Label,
			},
		})
	}
	if err := c.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to upsert documents: %w", err)
	}
	return nil
}

// Search queries the collection. Multiple law IDs are queried one by one
// since chromem filters only on exact metadata equality.
func (c *ChromemIndex) Search(ctx context.Context, query []float32, opts SearchOptions) ([]Match, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if opts.TopK <= 0 {
		return nil, fmt.Errorf("topK must be greater than 0")
	}

	filters := []map[string]string{nil}
	if len(opts.LawIDs) > 0 {
		filters = filters[:0]
		for _, id := range opts.LawIDs {
			filters = append(filters, map[string]string{"law_id": id})
		}
	}

	var matches []Match
	for _, where := range filters {
		n := min(opts.TopK, c.collection.Count())
		if n == 0 {
			break
		}
		results, err := c.collection.QueryEmbedding(ctx, query, n, where, nil)
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}
		for _, r := range results {
			if r.Similarity < opts.MinScore {
				continue
			}
			matches = append(matches, Match{ID: r.ID, Score: r.Similarity})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > opts.TopK {
		matches = matches[:opts.TopK]
	}
	logger.DebugContext(ctx, "chromem search completed", "k", opts.TopK, "results", len(matches))
	return matches, nil
}
