package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"statute-search/internal/retrieval"
	retrieval_mocks "statute-search/internal/retrieval/mocks"
	"statute-search/internal/storage"
	storage_mocks "statute-search/internal/storage/mocks"
)

type lawFixture struct {
	statutes *storage_mocks.MockStatuteStore
	articles *storage_mocks.MockArticleStore
	engine   *retrieval_mocks.MockEngine
	router   http.Handler
}

func newLawFixture(t *testing.T) *lawFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &lawFixture{
		statutes: storage_mocks.NewMockStatuteStore(ctrl),
		articles: storage_mocks.NewMockArticleStore(ctrl),
		engine:   retrieval_mocks.NewMockEngine(ctrl),
	}
	h := NewLawHandler(f.statutes, f.articles, f.engine)
	r := chi.NewRouter()
	r.Get("/laws", h.List)
	r.Get("/laws/meta/categories", h.Categories)
	r.Get("/laws/meta/levels", h.Levels)
	r.Get("/laws/{lawID}", h.Get)
	r.Get("/laws/{lawID}/articles", h.Articles)
	r.Get("/laws/{lawID}/articles/{number}", h.ArticleByNumber)
	r.Post("/laws/{lawID}/search", h.SearchInLaw)
	f.router = r
	return f
}

func (f *lawFixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestLawHandler_List(t *testing.T) {
	f := newLawFixture(t)
	f.statutes.EXPECT().
		List(gomock.Any(), storage.StatuteFilter{Category: "刑法", Level: "法律", Page: 2, PageSize: 100}).
		Return([]storage.Statute{{LawID: "abc", Title: "中华人民共和国刑法"}}, 21, nil)

	w := f.do(http.MethodGet, "/laws?category=%E5%88%91%E6%B3%95&level=%E6%B3%95%E5%BE%8B&page=2&page_size=500", "")
	if w.Code != http.StatusOK {
		t.Fatalf("List() status = %v, want %v", w.Code, http.StatusOK)
	}
	var resp LawListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 21 || resp.Page != 2 || resp.PageSize != 100 || len(resp.Items) != 1 {
		t.Errorf("List() response = %+v", resp)
	}
}

func TestLawHandler_ListInvalidPage(t *testing.T) {
	f := newLawFixture(t)
	if w := f.do(http.MethodGet, "/laws?page=two", ""); w.Code != http.StatusBadRequest {
		t.Errorf("List() status = %v, want %v", w.Code, http.StatusBadRequest)
	}
}

func TestLawHandler_Meta(t *testing.T) {
	f := newLawFixture(t)
	f.statutes.EXPECT().Distinct(gomock.Any(), "category").Return([]string{"民法", "刑法"}, nil)
	f.statutes.EXPECT().Distinct(gomock.Any(), "level").Return(nil, nil)

	w := f.do(http.MethodGet, "/laws/meta/categories", "")
	var categories []string
	if err := json.NewDecoder(w.Body).Decode(&categories); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(categories) != 2 {
		t.Errorf("Categories() = %v", categories)
	}

	w = f.do(http.MethodGet, "/laws/meta/levels", "")
	if body := bytes.TrimSpace(w.Body.Bytes()); string(body) != "[]" {
		t.Errorf("Levels() with no values = %s, want []", body)
	}
}

func TestLawHandler_Get(t *testing.T) {
	f := newLawFixture(t)
	f.statutes.EXPECT().Get(gomock.Any(), "abc").
		Return(&storage.Statute{LawID: "abc", Title: "中华人民共和国刑法", FullText: "全文"}, nil).
		Times(2)
	f.statutes.EXPECT().Get(gomock.Any(), "missing").Return(nil, storage.ErrNotFound)

	var s storage.Statute
	w := f.do(http.MethodGet, "/laws/abc", "")
	if err := json.NewDecoder(w.Body).Decode(&s); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if s.FullText != "" {
		t.Error("Get() should omit full text by default")
	}

	w = f.do(http.MethodGet, "/laws/abc?full_text=true", "")
	s = storage.Statute{}
	if err := json.NewDecoder(w.Body).Decode(&s); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if s.FullText != "全文" {
		t.Errorf("Get() full text = %q", s.FullText)
	}

	if w := f.do(http.MethodGet, "/laws/missing", ""); w.Code != http.StatusNotFound {
		t.Errorf("Get() missing status = %v, want %v", w.Code, http.StatusNotFound)
	}
}

func TestLawHandler_Articles(t *testing.T) {
	f := newLawFixture(t)
	f.statutes.EXPECT().Get(gomock.Any(), "abc").Return(&storage.Statute{LawID: "abc", Title: "某法"}, nil)
	f.articles.EXPECT().ListByLaw(gomock.Any(), "abc", "总则", 5).
		Return([]storage.Article{{Label: "第一条"}, {Label: "第二条"}}, nil)

	w := f.do(http.MethodGet, "/laws/abc/articles?chapter=%E6%80%BB%E5%88%99&limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Articles() status = %v", w.Code)
	}
	var resp ArticleListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Title != "某法" || len(resp.Articles) != 2 {
		t.Errorf("Articles() response = %+v", resp)
	}

	if w := f.do(http.MethodGet, "/laws/abc/articles?limit=-1", ""); w.Code != http.StatusBadRequest {
		t.Errorf("Articles() negative limit status = %v", w.Code)
	}
}

func TestLawHandler_ArticleByNumber(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		number     int
		sub        int
		engineErr  error
		wantStatus int
	}{
		{name: "arabic", path: "/laws/abc/articles/18", number: 18, wantStatus: http.StatusOK},
		{name: "chinese", path: "/laws/abc/articles/" + "%E5%8D%81%E5%85%AB", number: 18, wantStatus: http.StatusOK},
		{name: "sub article", path: "/laws/abc/articles/133?sub=1", number: 133, sub: 1, wantStatus: http.StatusOK},
		{name: "missing", path: "/laws/abc/articles/999", number: 999, engineErr: storage.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "not a number", path: "/laws/abc/articles/abc", wantStatus: http.StatusBadRequest},
		{name: "bad sub", path: "/laws/abc/articles/1?sub=x", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLawFixture(t)
			if tt.number > 0 {
				var item *retrieval.Item
				if tt.engineErr == nil {
					item = &retrieval.Item{LawID: "abc", Label: fmt.Sprintf("第%d条", tt.number)}
				}
				f.engine.EXPECT().
					ArticleByNumber(gomock.Any(), "abc", tt.number, tt.sub).
					Return(item, tt.engineErr)
			}
			if w := f.do(http.MethodGet, tt.path, ""); w.Code != tt.wantStatus {
				t.Errorf("ArticleByNumber() status = %v, want %v", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestLawHandler_SearchInLaw(t *testing.T) {
	f := newLawFixture(t)
	f.engine.EXPECT().
		SearchInLaw(gomock.Any(), "abc", "第二十条", 1, 0).
		Return(&retrieval.Page{Query: "第二十条", Stage: retrieval.StageExactArticle, Total: 1, Page: 1}, nil)

	w := f.do(http.MethodPost, "/laws/abc/search", `{"query": "第二十条", "page": 1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("SearchInLaw() status = %v", w.Code)
	}
	var page retrieval.Page
	if err := json.NewDecoder(w.Body).Decode(&page); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if page.Stage != retrieval.StageExactArticle || page.Total != 1 {
		t.Errorf("SearchInLaw() response = %+v", page)
	}
}
