package searchengine

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	return NewClient(Options{BaseURL: url, Index: "law_articles", VerifySSL: true, Timeout: time.Second, ProbeTTL: time.Minute})
}

func TestClient_Disabled(t *testing.T) {
	c := NewClient(Options{})
	if c.Enabled() {
		t.Error("client without URL should be disabled")
	}
	if c.Healthy(context.Background()) {
		t.Error("disabled client should not be healthy")
	}
	if _, err := c.SearchArticles(context.Background(), "x", nil, 1, 10); err != ErrDisabled {
		t.Errorf("SearchArticles() error = %v, want ErrDisabled", err)
	}
	if err := c.Bulk(context.Background(), nil); err != ErrDisabled {
		t.Errorf("Bulk() error = %v, want ErrDisabled", err)
	}
}

func TestClient_SearchArticles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/law_articles/_search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "elastic" || pass != "secret" {
			t.Errorf("basic auth = %v %q %q", ok, user, pass)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["from"].(float64) != 10 || body["size"].(float64) != 10 {
			t.Errorf("from/size = %v/%v", body["from"], body["size"])
		}
		fs := body["query"].(map[string]any)["function_score"].(map[string]any)
		if _, scoped := fs["query"].(map[string]any)["bool"]; !scoped {
			t.Error("law filter should wrap the query in a bool")
		}

		_, _ = w.Write([]byte(`{"hits":{"total":{"value":2},"hits":[
			{"_score":3.5,"_source":{"law_id":"a","law_title":"中华人民共和国刑法","article_num":20,"article_display":"第二十条","content":"为了使国家、公共利益……正当防卫"},"highlight":{"content":["<em>正当防卫</em>"]}},
			{"_score":1.0,"_source":{"law_id":"a","law_title":"中华人民共和国刑法","article_num":21,"article_display":"第二十一条","content":"紧急避险"}}
		]}}`))
	}))
	defer server.Close()

	c := NewClient(Options{BaseURL: server.URL, Username: "elastic", Password: "secret", VerifySSL: true, Timeout: time.Second})
	page, err := c.SearchArticles(context.Background(), "正当防卫", []string{"a"}, 2, 10)
	if err != nil {
		t.Fatalf("SearchArticles() error = %v", err)
	}
	if page.Total != 2 || len(page.Hits) != 2 {
		t.Fatalf("SearchArticles() = %+v", page)
	}
	if page.Hits[0].Highlight != "<em>正当防卫</em>" {
		t.Errorf("highlight = %q", page.Hits[0].Highlight)
	}
	if page.Hits[1].Highlight != "紧急避险" {
		t.Errorf("fallback highlight = %q, want content prefix", page.Hits[1].Highlight)
	}
}

func TestClient_SearchArticlesError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).SearchArticles(context.Background(), "x", nil, 1, 10); err == nil {
		t.Error("SearchArticles() expected error on 503")
	}
}

func TestParseTotal(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{raw: `{"value": 42, "relation": "eq"}`, want: 42},
		{raw: `17`, want: 17},
		{raw: ``, want: 0},
		{raw: `"x"`, want: 0},
	}
	for _, tt := range tests {
		if got := parseTotal(json.RawMessage(tt.raw)); got != tt.want {
			t.Errorf("parseTotal(%s) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestClient_Healthy(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"version":{"number":"2.11.0"}}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	if !c.Healthy(context.Background()) || !c.Healthy(context.Background()) {
		t.Error("Healthy() = false, want true")
	}
	if calls.Load() != 1 {
		t.Errorf("health endpoint called %d times, want 1", calls.Load())
	}
}

func TestClient_EnsureIndexFallsBackToStandard(t *testing.T) {
	var analyzers []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			props := body["mappings"].(map[string]any)["properties"].(map[string]any)
			analyzer := props["content"].(map[string]any)["analyzer"].(string)
			analyzers = append(analyzers, analyzer)
			if analyzer == DefaultAnalyzer {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`{"acknowledged":true}`))
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer server.Close()

	if err := newTestClient(server.URL).EnsureIndex(context.Background(), "", false); err != nil {
		t.Fatalf("EnsureIndex() error = %v", err)
	}
	if strings.Join(analyzers, ",") != "ik_smart,standard" {
		t.Errorf("analyzers tried = %v", analyzers)
	}
}

func TestClient_Bulk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/_bulk" || r.Header.Get("Content-Type") != "application/x-ndjson" {
			t.Errorf("unexpected request %s %s", r.URL.Path, r.Header.Get("Content-Type"))
		}
		var lines []string
		sc := bufio.NewScanner(r.Body)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		if len(lines) != 4 {
			t.Errorf("bulk body has %d lines, want 4", len(lines))
		}
		if !strings.Contains(lines[0], `"_id":"abc_3"`) {
			t.Errorf("action line = %s", lines[0])
		}
		if !strings.Contains(lines[1], "第三条") {
			t.Errorf("document line should keep CJK unescaped: %s", lines[1])
		}
		_, _ = w.Write([]byte(`{"errors":false,"items":[]}`))
	}))
	defer server.Close()

	docs := []Document{
		{LawID: "abc", ArticleNum: 3, ArticleDisplay: "第三条", Content: "内容", LawWeight: 100},
		{LawID: "abc", ArticleNum: 4, ArticleDisplay: "第四条", Content: "内容"},
	}
	if err := newTestClient(server.URL).Bulk(context.Background(), docs); err != nil {
		t.Fatalf("Bulk() error = %v", err)
	}
}
