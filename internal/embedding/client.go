// Package embedding talks to the sentence-embedding sidecar.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
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
)

// Client is a client for the embedding service.
// POST {BaseURL}/embed {"texts": [...]} returns {"embeddings": [[...], ...]}.
type Client struct {
	BaseURL      string
	ExpectedSize int // 0 disables dimension validation
	client       *http.Client
	health       *probe.Prober
}

// NewClient creates a new embedding client. An empty baseURL yields a
// disabled client whose Healthy always reports false.
// timeout bounds each embed request; probeTTL controls how long a health
// check result is reused.
func NewClient(baseURL string, expectedSize int, timeout, probeTTL time.Duration) *Client {
	c := &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ExpectedSize: expectedSize,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: dialTimeout}).DialContext,
				MaxIdleConnsPerHost: 8,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	c.health = probe.New("embedding", c.checkHealth, probeTTL, healthTimeout)
	return c
}

// Enabled reports whether an embedding service URL is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.BaseURL != ""
}

// EmbedRequest represents the request payload for the embed endpoint.
type EmbedRequest struct {
	Texts []string `json:"texts"`
}

// EmbedResponse represents the response from the embed endpoint.
type EmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed generates embeddings for the given texts.
// Returns a slice of float32 vectors, one per input text.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("embedding service not configured")
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	body, err := json.Marshal(EmbedRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/embed", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var embedResp EmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(embedResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embedResp.Embeddings))
	}

	result := make([][]float32, len(embedResp.Embeddings))
	for i, emb := range embedResp.Embeddings {
		if len(emb) == 0 {
			return nil, fmt.Errorf("embedding %d is empty", i)
		}
		if c.ExpectedSize > 0 && len(emb) != c.ExpectedSize {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", i, len(emb), c.ExpectedSize)
		}
		vec := make([]float32, len(emb))
		for j, v := range emb {
			vec[j] = float32(v)
		}
		result[i] = vec
	}

	return result, nil
}

// Healthy reports whether the service answered its health endpoint
// recently. Results are cached by the prober.
func (c *Client) Healthy(ctx context.Context) bool {
	if !c.Enabled() {
		return false
	}
	return c.health.Healthy(ctx)
}

func (c *Client) checkHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
