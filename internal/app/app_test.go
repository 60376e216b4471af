package app

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statute-search/internal/config"
	"statute-search/internal/storage"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	return &config.Config{
		DBPath:              filepath.Join(t.TempDir(), "statutes.db"),
		LogLevel:            slog.LevelInfo,
		LogFormat:           "text",
		AWSRegion:           "us-east-1",
		VectorSearchEnabled: true,
		VectorBackend:       backend,
		VectorMinSimilarity: 0.45,
		VectorMaxScan:       100,
		QdrantCollection:    "law_articles",
		WorkerPoolSize:      2,
		MaxContentChars:     1500,
	}
}

func TestNew_ScanBackend(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t, config.VectorBackendScan))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, "scan", a.Vectors.Name())
	assert.False(t, a.Embedder.Enabled())
	assert.False(t, a.Search.Enabled())
	assert.Contains(t, a.Dependencies, "embedding")
	assert.Contains(t, a.Dependencies, "search_engine")
	assert.NotContains(t, a.Dependencies, "vector_index")

	statute := &storage.Statute{Title: "中华人民共和国刑法", Level: "法律"}
	require.NoError(t, a.Statutes.Replace(ctx, statute, []storage.Article{
		{Sequence: 1, Label: "第二十条", Content: "为了使国家、公共利益、本人或者他人的人身、财产和其他权利免受正在进行的不法侵害，而采取的制止不法侵害的行为，属于正当防卫。"},
	}))

	res, err := a.Engine.ResolveArticle(ctx, "刑法第二十条")
	require.NoError(t, err)
	assert.True(t, res.Found)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "第二十条", res.Items[0].Label)
	assert.Equal(t, "《中华人民共和国刑法》", res.Items[0].DisplayTitle)

	coverage, err := a.Pipeline.CoverageStats(ctx, "bge-small-zh-v1.5")
	require.NoError(t, err)
	assert.Equal(t, 1, coverage.Articles)
	assert.Equal(t, 1, coverage.MissingEmbedding)
}

func TestNew_ChromemBackend(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, config.VectorBackendChromem))
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	assert.Equal(t, "chromem", a.Vectors.Name())
}

func TestNew_UnusableTableLocationDegradesToEmptyTables(t *testing.T) {
	cfg := testConfig(t, config.VectorBackendScan)
	cfg.AliasTablePath = "s3://bucket-without-key"
	cfg.WeightTablePath = filepath.Join(t.TempDir(), "missing.yaml")

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx := context.Background()
	assert.Equal(t, 0, a.Aliases.Len(ctx))
	assert.Equal(t, "刑法", a.Aliases.Resolve(ctx, "刑法"))
	assert.Empty(t, a.Weights.Weights(ctx).Entries)
}

func TestNew_UnusableQdrantDoesNotStopStartup(t *testing.T) {
	t.Run("malformed URL falls back to scan", func(t *testing.T) {
		cfg := testConfig(t, config.VectorBackendQdrant)
		cfg.QdrantURL = "http://[::1"
		cfg.EmbeddingDim = 4

		a, err := New(context.Background(), cfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = a.Close() })
		assert.Equal(t, "scan", a.Vectors.Name())
	})

	t.Run("unreachable server keeps the index and reports it down", func(t *testing.T) {
		cfg := testConfig(t, config.VectorBackendQdrant)
		cfg.QdrantURL = "http://127.0.0.1:1"
		cfg.EmbeddingDim = 4

		a, err := New(context.Background(), cfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = a.Close() })
		assert.Equal(t, "qdrant", a.Vectors.Name())
		require.Contains(t, a.Dependencies, "vector_index")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.False(t, a.Dependencies["vector_index"].Healthy(ctx))
	})
}

func TestClose_Idempotent(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, config.VectorBackendScan))
	require.NoError(t, err)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
}

func TestNewLogger(t *testing.T) {
	cfg := testConfig(t, config.VectorBackendScan)
	var buf bytes.Buffer

	cfg.LogFormat = "json"
	NewLogger(cfg, &buf).Info("ready", "port", "9000")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), "json format should emit JSON: %s", buf.String())

	buf.Reset()
	cfg.LogFormat = "text"
	cfg.LogLevel = slog.LevelWarn
	logger := NewLogger(cfg, &buf)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}
