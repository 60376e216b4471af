package searchengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"statute-search/internal/contextutil"
)

// EnsureIndex creates the article index unless it exists. recreate drops
// it first. When the requested analyzer is not installed on the cluster the
// index is created with the standard analyzer instead.
func (c *Client) EnsureIndex(ctx context.Context, analyzer string, recreate bool) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	logger := contextutil.LoggerFromContext(ctx)
	if analyzer == "" {
		analyzer = DefaultAnalyzer
	}

	if recreate {
		resp, err := c.do(ctx, http.MethodDelete, "/"+c.index, "", nil)
		if err != nil {
			return fmt.Errorf("failed to delete index: %w", err)
		}
		drain(resp)
	}

	resp, err := c.do(ctx, http.MethodHead, "/"+c.index, "", nil)
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}
	drain(resp)
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	status, err := c.createIndex(ctx, analyzer)
	if err != nil {
		return err
	}
	if status >= 400 && analyzer != "standard" {
		logger.WarnContext(ctx, "analyzer not available, falling back to standard", "analyzer", analyzer, "status", status)
		status, err = c.createIndex(ctx, "standard")
		if err != nil {
			return err
		}
	}
	if status >= 400 {
		return fmt.Errorf("failed to create index %s: status %d", c.index, status)
	}
	logger.InfoContext(ctx, "created search index", "index", c.index)
	return nil
}

func (c *Client) createIndex(ctx context.Context, analyzer string) (int, error) {
	body, err := json.Marshal(indexMappings(analyzer))
	if err != nil {
		return 0, fmt.Errorf("failed to marshal mappings: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPut, "/"+c.index, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create index: %w", err)
	}
	drain(resp)
	return resp.StatusCode, nil
}

func indexMappings(analyzer string) map[string]any {
	text := map[string]any{"type": "text", "analyzer": analyzer}
	return map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"law_id":          map[string]any{"type": "keyword"},
				"law_title":       text,
				"law_category":    map[string]any{"type": "keyword"},
				"law_status":      map[string]any{"type": "keyword"},
				"article_num":     map[string]any{"type": "integer"},
				"article_display": text,
				"content":         text,
				"keywords":        text,
				"law_weight":      map[string]any{"type": "integer"},
			},
		},
	}
}

// Bulk indexes documents in one NDJSON request.
func (c *Client) Bulk(ctx context.Context, docs []Document) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, d := range docs {
		action := map[string]any{"index": map[string]string{"_index": c.index, "_id": d.ID()}}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("failed to encode bulk action: %w", err)
		}
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
	}

	resp, err := c.do(ctx, http.MethodPost, "/_bulk", "application/x-ndjson", &buf)
	if err != nil {
		return fmt.Errorf("failed to send bulk request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("bulk request returned status %d: %s", resp.StatusCode, string(msg))
	}

	var result struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode bulk response: %w", err)
	}
	if result.Errors {
		return fmt.Errorf("bulk request reported item errors")
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
