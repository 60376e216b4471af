package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"time"
)

// IndexerVersion identifies the embedding input preparation. Bump it when
// truncation or filtering of article text changes.
const IndexerVersion = "v1.0"

// Stats counts the outcome of one pipeline run.
type Stats struct {
	// Processed is the number of articles (or statutes, for imports) examined.
	Processed int `json:"processed"`
	// Succeeded counts articles embedded, indexed or imported.
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	// SkippedReasons breaks Skipped down by cause.
	SkippedReasons map[string]int `json:"skipped_reasons,omitempty"`
	Duration       time.Duration  `json:"duration"`
}

func newStats() *Stats {
	return &Stats{SkippedReasons: make(map[string]int)}
}

func (s *Stats) skip(reason string) {
	s.Skipped++
	s.SkippedReasons[reason]++
}

// CoverageStats describes the corpus and how much of it is embedded.
type CoverageStats struct {
	Statutes         int `json:"statutes"`
	Articles         int `json:"articles"`
	Embedded         int `json:"embedded"`
	MissingEmbedding int `json:"missing_embedding"`
	// Ratio is Embedded / Articles, 0 for an empty corpus.
	Ratio float64 `json:"ratio"`
	// ContentRunes summarises article content length in runes.
	ContentRunes LengthStats `json:"content_runes"`
	// IndexVersion is a hash of the indexer version, embedding model and
	// input limits. Embeddings built under another version should be redone.
	IndexVersion string `json:"index_version"`
}

// LengthStats contains statistics about content lengths.
type LengthStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// CoverageStats computes coverage statistics from the article store.
// embeddingModel identifies the embedding model for IndexVersion.
func (p *Pipeline) CoverageStats(ctx context.Context, embeddingModel string) (*CoverageStats, error) {
	c, err := p.articles.Coverage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read coverage: %w", err)
	}

	stats := &CoverageStats{
		Statutes:         c.Statutes,
		Articles:         c.Articles,
		Embedded:         c.Embedded,
		MissingEmbedding: c.Articles - c.Embedded,
		ContentRunes:     computeLengthStats(c.ContentLengths),
		IndexVersion:     indexVersion(embeddingModel),
	}
	if c.Articles > 0 {
		stats.Ratio = math.Round(float64(c.Embedded)/float64(c.Articles)*10000) / 10000
	}
	return stats, nil
}

func indexVersion(embeddingModel string) string {
	input := fmt.Sprintf("%s|%s|minRunes=%d|maxRunes=%d", IndexerVersion, embeddingModel, MinEmbedRunes, MaxEmbedRunes)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}

// computeLengthStats computes min, max, mean, and p95 of lengths.
func computeLengthStats(lengths []int) LengthStats {
	if len(lengths) == 0 {
		return LengthStats{}
	}

	sorted := make([]int, len(lengths))
	copy(sorted, lengths)
	sort.Ints(sorted)

	sum := 0
	for _, n := range sorted {
		sum += n
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	p95Index = max(0, min(p95Index, len(sorted)-1))

	return LengthStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
