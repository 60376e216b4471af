package vectorstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statute-search/internal/storage"
)

type fakeEmbeddingStore struct {
	articles []storage.Article
	lastQ    storage.EmbeddedQuery
	set      map[string][]float32
}

func (f *fakeEmbeddingStore) ListEmbedded(ctx context.Context, q storage.EmbeddedQuery) ([]storage.Article, error) {
	f.lastQ = q
	var out []storage.Article
	for _, a := range f.articles {
		if len(q.LawIDs) > 0 && !contains(q.LawIDs, a.LawID) {
			continue
		}
		out = append(out, a)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeEmbeddingStore) SetEmbedding(ctx context.Context, id string, vec []float32) error {
	if f.set == nil {
		f.set = map[string][]float32{}
	}
	f.set[id] = vec
	return nil
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-6)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.Equal(t, float32(0), Cosine([]float32{1}, []float32{1, 2}))
	assert.Equal(t, float32(0), Cosine([]float32{0, 0}, []float32{1, 2}))
}

func TestScanIndex_Search(t *testing.T) {
	store := &fakeEmbeddingStore{}
	for i := 0; i < 1000; i++ {
		// Angle grows with i, so similarity to {1, 0} falls with i.
		store.articles = append(store.articles, storage.Article{
			ID:        fmt.Sprintf("a%04d", i),
			LawID:     fmt.Sprintf("law%d", i%3),
			Embedding: []float32{1, float32(i) / 100},
		})
	}

	pool, err := ants.NewPool(4)
	require.NoError(t, err)
	defer pool.Release()

	idx := NewScanIndex(store, pool, 800)
	matches, err := idx.Search(context.Background(), []float32{1, 0}, SearchOptions{TopK: 5, MinScore: 0.5})
	require.NoError(t, err)
	require.Len(t, matches, 5)
	assert.Equal(t, "a0000", matches[0].ID)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
	assert.Equal(t, 800, store.lastQ.Limit)

	scoped, err := idx.Search(context.Background(), []float32{1, 0}, SearchOptions{TopK: 3, LawIDs: []string{"law1"}})
	require.NoError(t, err)
	require.Len(t, scoped, 3)
	assert.Equal(t, "a0001", scoped[0].ID)
}

func TestScanIndex_MinScoreFilters(t *testing.T) {
	store := &fakeEmbeddingStore{articles: []storage.Article{
		{ID: "near", Embedding: []float32{1, 0.1}},
		{ID: "far", Embedding: []float32{0, 1}},
	}}
	idx := NewScanIndex(store, nil, 0)

	matches, err := idx.Search(context.Background(), []float32{1, 0}, SearchOptions{TopK: 10, MinScore: 0.45})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "near", matches[0].ID)
}

func TestScanIndex_CancelledContext(t *testing.T) {
	store := &fakeEmbeddingStore{articles: []storage.Article{{ID: "a", Embedding: []float32{1}}}}
	idx := NewScanIndex(store, nil, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	matches, err := idx.Search(ctx, []float32{1}, SearchOptions{TopK: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, matches)
}

func TestScanIndex_Validation(t *testing.T) {
	idx := NewScanIndex(&fakeEmbeddingStore{}, nil, 10)
	_, err := idx.Search(context.Background(), []float32{1}, SearchOptions{TopK: 0})
	assert.Error(t, err)
	_, err = idx.Search(context.Background(), nil, SearchOptions{TopK: 1})
	assert.Error(t, err)
}

func TestScanIndex_UpsertWritesThrough(t *testing.T) {
	store := &fakeEmbeddingStore{}
	idx := NewScanIndex(store, nil, 10)
	require.NoError(t, idx.Upsert(context.Background(), []Point{{ID: "a", Vec: []float32{0.5}}}))
	assert.Equal(t, []float32{0.5}, store.set["a"])
}
