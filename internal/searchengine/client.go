// Package searchengine is an optional OpenSearch/Elasticsearch accelerator
// for global article search.
package searchengine

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"statute-search/internal/probe"
)

const (
	dialTimeout   = 3 * time.Second
	healthTimeout = 5 * time.Second

	// DefaultAnalyzer is the Chinese analyzer requested when creating the index.
	DefaultAnalyzer = "ik_smart"
)

// ErrDisabled is returned when no search engine URL is configured.
var ErrDisabled = errors.New("search engine not configured")

// Options configures a Client.
type Options struct {
	BaseURL   string
	Index     string
	Username  string
	Password  string
	VerifySSL bool
	Timeout   time.Duration
	ProbeTTL  time.Duration
}

// Client talks to the search engine over its HTTP API.
type Client struct {
	baseURL  string
	index    string
	username string
	password string
	client   *http.Client
	health   *probe.Prober
}

// NewClient creates a client. An empty BaseURL yields a disabled client.
func NewClient(opts Options) *Client {
	transport := &http.Transport{
		DialContext:         (&net.Dialer{Timeout: dialTimeout}).DialContext,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
	}
	if !opts.VerifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // operator opt-in
	}
	index := opts.Index
	if index == "" {
		index = "law_articles"
	}
	c := &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		index:    index,
		username: opts.Username,
		password: opts.Password,
		client:   &http.Client{Timeout: opts.Timeout, Transport: transport},
	}
	c.health = probe.New("search_engine", c.checkHealth, opts.ProbeTTL, healthTimeout)
	return c
}

// Enabled reports whether a search engine URL is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// Index returns the index name articles live in.
func (c *Client) Index() string {
	return c.index
}

// Healthy reports whether the cluster answered its root endpoint recently.
func (c *Client) Healthy(ctx context.Context) bool {
	if !c.Enabled() {
		return false
	}
	return c.health.Healthy(ctx)
}

func (c *Client) checkHealth(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/", "", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("search engine health returned status %d", resp.StatusCode)
	}
	return nil
}

// Document is one indexed article.
type Document struct {
	LawID          string   `json:"law_id"`
	LawTitle       string   `json:"law_title"`
	LawCategory    string   `json:"law_category"`
	LawStatus      string   `json:"law_status"`
	ArticleNum     int      `json:"article_num"`
	ArticleDisplay string   `json:"article_display"`
	Content        string   `json:"content"`
	Keywords       []string `json:"keywords"`
	LawWeight      int      `json:"law_weight"`
}

// ID is the document id, one per (statute, article position).
func (d Document) ID() string {
	return fmt.Sprintf("%s_%d", d.LawID, d.ArticleNum)
}

// Hit is one search result.
type Hit struct {
	Document
	Highlight string
	Score     float64
}

// Page is a page of search results.
type Page struct {
	Hits  []Hit
	Total int
}

// SearchArticles runs a relevance query boosted by statute authority weight.
// lawIDs narrows the query when non-empty. page is 1-based.
func (c *Client) SearchArticles(ctx context.Context, query string, lawIDs []string, page, size int) (*Page, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}

	body, err := json.Marshal(buildSearchRequest(query, lawIDs, (page-1)*size, size))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/"+c.index+"/_search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to query search engine: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("search engine returned status %d: %s", resp.StatusCode, string(msg))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return sr.page(), nil
}

func buildSearchRequest(query string, lawIDs []string, from, size int) map[string]any {
	match := map[string]any{
		"multi_match": map[string]any{
			"query":    query,
			"fields":   []string{"content^4", "keywords^3", "article_display^2", "law_title^2"},
			"type":     "best_fields",
			"operator": "and",
		},
	}
	if len(lawIDs) > 0 {
		match = map[string]any{
			"bool": map[string]any{
				"must":   match,
				"filter": map[string]any{"terms": map[string]any{"law_id": lawIDs}},
			},
		}
	}
	fragment := map[string]any{"fragment_size": 120, "number_of_fragments": 1}
	return map[string]any{
		"from":             from,
		"size":             size,
		"track_total_hits": true,
		"query": map[string]any{
			"function_score": map[string]any{
				"query": match,
				"field_value_factor": map[string]any{
					"field":   "law_weight",
					"factor":  0.1,
					"missing": 0,
				},
				"boost_mode": "sum",
			},
		},
		"sort": []any{"_score", map[string]any{"article_num": "asc"}},
		"highlight": map[string]any{
			"fields": map[string]any{
				"content":         fragment,
				"article_display": fragment,
			},
		},
	}
}

type searchResponse struct {
	Hits struct {
		Total json.RawMessage `json:"total"`
		Hits  []struct {
			Score     float64             `json:"_score"`
			Source    Document            `json:"_source"`
			Highlight map[string][]string `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
}

func (sr *searchResponse) page() *Page {
	p := &Page{Total: parseTotal(sr.Hits.Total), Hits: make([]Hit, 0, len(sr.Hits.Hits))}
	for _, h := range sr.Hits.Hits {
		highlight := strings.Join(h.Highlight["content"], " ... ")
		if highlight == "" {
			highlight = strings.Join(h.Highlight["article_display"], " ... ")
		}
		if highlight == "" {
			highlight = prefix(h.Source.Content, 120)
		}
		p.Hits = append(p.Hits, Hit{Document: h.Source, Highlight: highlight, Score: h.Score})
	}
	return p
}

// parseTotal accepts both {"value": n} (7.x+) and a bare number (6.x).
func parseTotal(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var obj struct {
		Value int `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Value
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	return 0
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.username != "" && c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return c.client.Do(req)
}
