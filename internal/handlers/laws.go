package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"statute-search/internal/contextutil"
	"statute-search/internal/numeral"
	"statute-search/internal/retrieval"
	"statute-search/internal/storage"
)

// LawHandler serves statute browsing.
type LawHandler struct {
	statutes storage.StatuteStore
	articles storage.ArticleStore
	engine   retrieval.Engine
}

// NewLawHandler creates a new LawHandler.
func NewLawHandler(statutes storage.StatuteStore, articles storage.ArticleStore, engine retrieval.Engine) *LawHandler {
	return &LawHandler{
		statutes: statutes,
		articles: articles,
		engine:   engine,
	}
}

// LawListResponse is one page of statutes.
//
// swagger:model LawListResponse
type LawListResponse struct {
	Items    []storage.Statute `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// ArticleListResponse lists the articles of one statute in display order.
//
// swagger:model ArticleListResponse
type ArticleListResponse struct {
	LawID    string            `json:"law_id"`
	Title    string            `json:"title"`
	Articles []storage.Article `json:"articles"`
}

// List handles GET /api/v1/laws?category=&level=&status=&tag=&page=&page_size=.
func (h *LawHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	page, err := intParam(q.Get("page"), 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid page")
		return
	}
	size, err := intParam(q.Get("page_size"), 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid page_size")
		return
	}
	page = max(page, 1)
	size = min(max(size, 1), 100)

	statutes, total, err := h.statutes.List(ctx, storage.StatuteFilter{
		Category: q.Get("category"),
		Level:    q.Get("level"),
		Status:   q.Get("status"),
		Tag:      q.Get("tag"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		handleError(ctx, w, err, "Failed to list statutes")
		return
	}
	if statutes == nil {
		statutes = []storage.Statute{}
	}
	writeJSON(ctx, w, http.StatusOK, LawListResponse{
		Items:    statutes,
		Total:    total,
		Page:     page,
		PageSize: size,
	})
}

// Categories handles GET /api/v1/laws/meta/categories.
func (h *LawHandler) Categories(w http.ResponseWriter, r *http.Request) {
	h.distinct(w, r, "category")
}

// Levels handles GET /api/v1/laws/meta/levels.
func (h *LawHandler) Levels(w http.ResponseWriter, r *http.Request) {
	h.distinct(w, r, "level")
}

func (h *LawHandler) distinct(w http.ResponseWriter, r *http.Request, field string) {
	ctx := r.Context()
	values, err := h.statutes.Distinct(ctx, field)
	if err != nil {
		handleError(ctx, w, err, "Failed to list "+field+" values")
		return
	}
	if values == nil {
		values = []string{}
	}
	writeJSON(ctx, w, http.StatusOK, values)
}

// Get handles GET /api/v1/laws/{lawID}. The full text is included only
// with ?full_text=true.
func (h *LawHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	statute, err := h.statutes.Get(ctx, chi.URLParam(r, "lawID"))
	if err != nil {
		handleError(ctx, w, err, "Failed to get statute")
		return
	}
	if full, _ := strconv.ParseBool(r.URL.Query().Get("full_text")); !full {
		statute.FullText = ""
	}
	writeJSON(ctx, w, http.StatusOK, statute)
}

// Articles handles GET /api/v1/laws/{lawID}/articles?chapter=&limit=.
func (h *LawHandler) Articles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lawID := chi.URLParam(r, "lawID")
	limit, err := intParam(r.URL.Query().Get("limit"), 0)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "Invalid limit")
		return
	}

	statute, err := h.statutes.Get(ctx, lawID)
	if err != nil {
		handleError(ctx, w, err, "Failed to get statute")
		return
	}
	articles, err := h.articles.ListByLaw(ctx, lawID, r.URL.Query().Get("chapter"), limit)
	if err != nil {
		handleError(ctx, w, err, "Failed to list articles")
		return
	}
	if articles == nil {
		articles = []storage.Article{}
	}
	writeJSON(ctx, w, http.StatusOK, ArticleListResponse{
		LawID:    statute.LawID,
		Title:    statute.Title,
		Articles: articles,
	})
}

// ArticleByNumber handles GET /api/v1/laws/{lawID}/articles/{number}?sub=.
// The number may be written in Arabic digits or Chinese numerals.
func (h *LawHandler) ArticleByNumber(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	number, err := numeral.ToInt(chi.URLParam(r, "number"))
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid article number", "number", chi.URLParam(r, "number"))
		writeError(w, http.StatusBadRequest, "Invalid article number")
		return
	}
	sub := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("sub")); raw != "" {
		if sub, err = numeral.ToInt(raw); err != nil || sub < 0 {
			writeError(w, http.StatusBadRequest, "Invalid sub-article number")
			return
		}
	}

	item, err := h.engine.ArticleByNumber(ctx, chi.URLParam(r, "lawID"), number, sub)
	if err != nil {
		handleError(ctx, w, err, "Failed to get article")
		return
	}
	writeJSON(ctx, w, http.StatusOK, item)
}

// SearchInLaw handles POST /api/v1/laws/{lawID}/search.
func (h *LawHandler) SearchInLaw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	page, err := h.engine.SearchInLaw(ctx, chi.URLParam(r, "lawID"), req.Query, req.Page, req.PageSize)
	if err != nil {
		handleError(ctx, w, err, "Failed to search statute")
		return
	}
	writeJSON(ctx, w, http.StatusOK, page)
}

func intParam(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
