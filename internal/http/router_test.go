package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"statute-search/internal/handlers"
	"statute-search/internal/metrics"
	"statute-search/internal/retrieval"
	retrieval_mocks "statute-search/internal/retrieval/mocks"
	"statute-search/internal/storage"
	storage_mocks "statute-search/internal/storage/mocks"
)

type okPinger struct{}

func (okPinger) PingContext(ctx context.Context) error { return nil }

type testDeps struct {
	engine   *retrieval_mocks.MockEngine
	statutes *storage_mocks.MockStatuteStore
	articles *storage_mocks.MockArticleStore
	deps     *Deps
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	ctrl := gomock.NewController(t)
	td := &testDeps{
		engine:   retrieval_mocks.NewMockEngine(ctrl),
		statutes: storage_mocks.NewMockStatuteStore(ctrl),
		articles: storage_mocks.NewMockArticleStore(ctrl),
	}
	td.deps = &Deps{
		Engine:         td.engine,
		Statutes:       td.statutes,
		Articles:       td.articles,
		DB:             okPinger{},
		Dependencies:   map[string]handlers.Dependency{},
		Metrics:        metrics.New(),
		RequestTimeout: 5 * time.Second,
	}
	return td
}

func TestNewRouter(t *testing.T) {
	router := NewRouter(newTestDeps(t).deps)
	if router == nil {
		t.Fatal("NewRouter() returned nil")
	}
}

func TestRouter_Routes(t *testing.T) {
	td := newTestDeps(t)
	td.engine.EXPECT().ResolveArticle(gomock.Any(), "刑法第二十条").Return(&retrieval.Resolution{Found: true}, nil)
	td.engine.EXPECT().SearchGlobal(gomock.Any(), "防卫", 0, 0).Return(&retrieval.Page{}, nil)
	td.engine.EXPECT().SemanticSearch(gomock.Any(), "防卫", 0).Return(&retrieval.Result{}, nil)
	td.engine.EXPECT().SearchByLaw(gomock.Any(), "刑法", "", 0).Return(&retrieval.Result{}, nil)
	td.engine.EXPECT().Retrieve(gomock.Any(), "防卫", 0).Return(&retrieval.KnowledgeContext{}, nil)
	td.engine.EXPECT().ArticleByNumber(gomock.Any(), "abc", 20, 0).Return(&retrieval.Item{}, nil)
	td.engine.EXPECT().SearchInLaw(gomock.Any(), "abc", "防卫", 0, 0).Return(&retrieval.Page{}, nil)
	td.statutes.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, 0, nil)
	td.statutes.EXPECT().Distinct(gomock.Any(), "category").Return(nil, nil)
	td.statutes.EXPECT().Distinct(gomock.Any(), "level").Return(nil, nil)
	td.statutes.EXPECT().Get(gomock.Any(), "abc").Return(&storage.Statute{LawID: "abc"}, nil).Times(2)
	td.articles.EXPECT().ListByLaw(gomock.Any(), "abc", "", 0).Return(nil, nil)

	router := NewRouter(td.deps)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/api/health", wantStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK},
		{name: "resolve", method: http.MethodPost, path: "/api/v1/resolve", body: `{"query":"刑法第二十条"}`, wantStatus: http.StatusOK},
		{name: "search", method: http.MethodPost, path: "/api/v1/search", body: `{"query":"防卫"}`, wantStatus: http.StatusOK},
		{name: "semantic", method: http.MethodPost, path: "/api/v1/search/semantic", body: `{"query":"防卫"}`, wantStatus: http.StatusOK},
		{name: "by law", method: http.MethodPost, path: "/api/v1/search/by-law", body: `{"law":"刑法"}`, wantStatus: http.StatusOK},
		{name: "knowledge", method: http.MethodPost, path: "/api/v1/knowledge", body: `{"query":"防卫"}`, wantStatus: http.StatusOK},
		{name: "stats without reporter", method: http.MethodGet, path: "/api/v1/stats", wantStatus: http.StatusNotFound},
		{name: "laws", method: http.MethodGet, path: "/api/v1/laws", wantStatus: http.StatusOK},
		{name: "categories", method: http.MethodGet, path: "/api/v1/laws/meta/categories", wantStatus: http.StatusOK},
		{name: "levels", method: http.MethodGet, path: "/api/v1/laws/meta/levels", wantStatus: http.StatusOK},
		{name: "law", method: http.MethodGet, path: "/api/v1/laws/abc", wantStatus: http.StatusOK},
		{name: "articles", method: http.MethodGet, path: "/api/v1/laws/abc/articles", wantStatus: http.StatusOK},
		{name: "article by number", method: http.MethodGet, path: "/api/v1/laws/abc/articles/20", wantStatus: http.StatusOK},
		{name: "search in law", method: http.MethodPost, path: "/api/v1/laws/abc/search", body: `{"query":"防卫"}`, wantStatus: http.StatusOK},
		{name: "resolve method not allowed", method: http.MethodGet, path: "/api/v1/resolve", wantStatus: http.StatusMethodNotAllowed},
		{name: "unknown route", method: http.MethodGet, path: "/api/v1/unknown", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_MetricsExposeStages(t *testing.T) {
	td := newTestDeps(t)
	td.deps.Metrics.Stage(retrieval.OpSearchGlobal, retrieval.StageKeywordRegex, metrics.OutcomeHit)
	router := NewRouter(td.deps)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), "lawsearch_stage_total") {
		t.Error("/metrics should expose the stage counter")
	}
}

func TestRouter_WithoutMetrics(t *testing.T) {
	td := newTestDeps(t)
	td.deps.Metrics = nil
	router := NewRouter(td.deps)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("GET /metrics without recorder status = %v, want %v", w.Code, http.StatusNotFound)
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	router := NewRouter(newTestDeps(t).deps)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	// Check CORS headers are present
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Router should apply CORS middleware")
	}
}

func TestRouter_RecoversPanics(t *testing.T) {
	td := newTestDeps(t)
	td.engine.EXPECT().ResolveArticle(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, query string) (*retrieval.Resolution, error) {
			panic("boom")
		})
	router := NewRouter(td.deps)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resolve", bytes.NewBufferString(`{"query":"x"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("panicking handler status = %v, want %v", w.Code, http.StatusInternalServerError)
	}
}
