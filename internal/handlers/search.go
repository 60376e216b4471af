package handlers

import (
	"net/http"

	"statute-search/internal/contextutil"
	"statute-search/internal/retrieval"
)

// SearchHandler serves the retrieval operations.
type SearchHandler struct {
	engine retrieval.Engine
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(engine retrieval.Engine) *SearchHandler {
	return &SearchHandler{engine: engine}
}

// ResolveRequest asks for one precisely cited article.
//
// swagger:model ResolveRequest
type ResolveRequest struct {
	// Citation such as 刑法第十八条 or 《民法典》第一千零四十二条之一
	Query string `json:"query"`
}

// SearchRequest is a paginated corpus-wide search.
//
// swagger:model SearchRequest
type SearchRequest struct {
	Query    string `json:"query"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

// TopKRequest is a search returning the best K articles.
//
// swagger:model TopKRequest
type TopKRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// ByLawRequest searches within one statute named by title or alias.
//
// swagger:model ByLawRequest
type ByLawRequest struct {
	Law     string `json:"law"`
	Keyword string `json:"keyword,omitempty"`
	TopK    int    `json:"top_k,omitempty"`
}

// Resolve handles POST /api/v1/resolve.
//
// swagger:route POST /api/v1/resolve resolveArticle
//
// # Resolve a precise article citation
//
// Responds 200 with found=false when the cited statute or article does not exist.
//
// responses:
//
//	'200':
//	  description: Resolution
//	'400':
//	  description: Missing query
func (h *SearchHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ResolveRequest
	if err := decodeJSON(r, &req); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	res, err := h.engine.ResolveArticle(ctx, req.Query)
	if err != nil {
		handleError(ctx, w, err, "Failed to resolve article")
		return
	}
	writeJSON(ctx, w, http.StatusOK, res)
}

// Search handles POST /api/v1/search.
//
// swagger:route POST /api/v1/search searchGlobal
//
// # Search the whole corpus
//
// responses:
//
//	'200':
//	  description: One page of ranked articles
//	'400':
//	  description: Missing query or invalid page
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	page, err := h.engine.SearchGlobal(ctx, req.Query, req.Page, req.PageSize)
	if err != nil {
		handleError(ctx, w, err, "Failed to search")
		return
	}
	writeJSON(ctx, w, http.StatusOK, page)
}

// Semantic handles POST /api/v1/search/semantic.
func (h *SearchHandler) Semantic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req TopKRequest
	if err := decodeJSON(r, &req); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	res, err := h.engine.SemanticSearch(ctx, req.Query, req.TopK)
	if err != nil {
		handleError(ctx, w, err, "Failed to search")
		return
	}
	writeJSON(ctx, w, http.StatusOK, res)
}

// ByLaw handles POST /api/v1/search/by-law.
func (h *SearchHandler) ByLaw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ByLawRequest
	if err := decodeJSON(r, &req); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	res, err := h.engine.SearchByLaw(ctx, req.Law, req.Keyword, req.TopK)
	if err != nil {
		handleError(ctx, w, err, "Failed to search")
		return
	}
	writeJSON(ctx, w, http.StatusOK, res)
}

// Knowledge handles POST /api/v1/knowledge. It returns the numbered context
// block an answer generator consumes, with its sources.
func (h *SearchHandler) Knowledge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req TopKRequest
	if err := decodeJSON(r, &req); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	kc, err := h.engine.Retrieve(ctx, req.Query, req.TopK)
	if err != nil {
		handleError(ctx, w, err, "Failed to retrieve")
		return
	}
	writeJSON(ctx, w, http.StatusOK, kc)
}
