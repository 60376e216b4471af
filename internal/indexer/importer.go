package indexer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"statute-search/internal/contextutil"
	"statute-search/internal/storage"
)

// StatuteRecord is one statute of an import file: the statute metadata
// plus its articles in display order.
type StatuteRecord struct {
	storage.Statute
	Articles []ArticleRecord `json:"articles"`
}

// ArticleRecord is one article of an import file. Sequence defaults to the
// article's position in the file.
type ArticleRecord struct {
	Sequence    int      `json:"sequence"`
	Label       string   `json:"label"`
	ChapterPath string   `json:"chapter_path"`
	Content     string   `json:"content"`
	Keywords    []string `json:"keywords"`
}

// Import reads normalized statute JSON, either one object or an array of
// objects, and replaces each statute with its articles. Invalid records are
// counted as failures and do not stop the import.
func (p *Pipeline) Import(ctx context.Context, r io.Reader) (*Stats, error) {
	logger := contextutil.LoggerFromContext(ctx)
	stats := newStats()
	start := time.Now()

	br := bufio.NewReader(r)
	first, err := firstNonSpace(br)
	if err != nil {
		return stats, fmt.Errorf("failed to read import data: %w", err)
	}
	dec := json.NewDecoder(br)

	importOne := func(rec StatuteRecord) {
		stats.Processed++
		if err := p.importRecord(ctx, rec); err != nil {
			stats.Failed++
			logger.ErrorContext(ctx, "failed to import statute", "title", rec.Title, "error", err)
			return
		}
		stats.Succeeded++
		logger.DebugContext(ctx, "imported statute", "title", rec.Title, "articles", len(rec.Articles))
	}

	if first == '[' {
		if _, err := dec.Token(); err != nil {
			return stats, fmt.Errorf("failed to decode import data: %w", err)
		}
		for dec.More() {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			var rec StatuteRecord
			if err := dec.Decode(&rec); err != nil {
				return stats, fmt.Errorf("failed to decode statute %d: %w", stats.Processed+1, err)
			}
			importOne(rec)
		}
	} else {
		var rec StatuteRecord
		if err := dec.Decode(&rec); err != nil {
			return stats, fmt.Errorf("failed to decode statute: %w", err)
		}
		importOne(rec)
	}
	stats.Duration = time.Since(start)

	logger.InfoContext(ctx, "import completed",
		"statutes", stats.Processed,
		"imported", stats.Succeeded,
		"failed", stats.Failed,
	)
	if stats.Failed > 0 {
		return stats, fmt.Errorf("import completed with %d errors", stats.Failed)
	}
	return stats, nil
}

func (p *Pipeline) importRecord(ctx context.Context, rec StatuteRecord) error {
	statute := rec.Statute
	statute.Title = strings.TrimSpace(statute.Title)
	if statute.Title == "" {
		return fmt.Errorf("statute title is required")
	}

	articles := make([]storage.Article, 0, len(rec.Articles))
	for i, a := range rec.Articles {
		if strings.TrimSpace(a.Label) == "" {
			return fmt.Errorf("article %d has no label", i+1)
		}
		seq := a.Sequence
		if seq == 0 {
			seq = i + 1
		}
		articles = append(articles, storage.Article{
			Sequence:    seq,
			Label:       strings.TrimSpace(a.Label),
			ChapterPath: a.ChapterPath,
			Content:     a.Content,
			Keywords:    a.Keywords,
		})
	}
	return p.statutes.Replace(ctx, &statute, articles)
}

func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case 0xEF:
			// UTF-8 byte order mark.
			if _, err := br.Discard(2); err != nil {
				return 0, err
			}
			continue
		}
		return b, br.UnreadByte()
	}
}
