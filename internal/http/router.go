package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"statute-search/internal/handlers"
	"statute-search/internal/metrics"
	"statute-search/internal/retrieval"
	"statute-search/internal/storage"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Engine   retrieval.Engine
	Statutes storage.StatuteStore
	Articles storage.ArticleStore

	DB handlers.Pinger
	// Dependencies are the optional collaborators reported by the health check.
	Dependencies   map[string]handlers.Dependency
	Coverage       handlers.CoverageReporter
	EmbeddingModel string

	// Metrics, when set, is exposed at /metrics.
	Metrics *metrics.Recorder
	// RequestTimeout bounds each /api/v1 request. Zero disables it.
	RequestTimeout time.Duration
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	search := handlers.NewSearchHandler(deps.Engine)
	laws := handlers.NewLawHandler(deps.Statutes, deps.Articles, deps.Engine)
	health := handlers.NewHealthHandler(deps.DB, deps.Dependencies, deps.Coverage, deps.EmbeddingModel)

	r.Method(http.MethodGet, "/api/health", health)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if deps.RequestTimeout > 0 {
			r.Use(middleware.Timeout(deps.RequestTimeout))
		}

		r.Post("/resolve", search.Resolve)
		r.Post("/search", search.Search)
		r.Post("/search/semantic", search.Semantic)
		r.Post("/search/by-law", search.ByLaw)
		r.Post("/knowledge", search.Knowledge)
		r.Get("/stats", health.Stats)

		r.Route("/laws", func(r chi.Router) {
			r.Get("/", laws.List)
			r.Get("/meta/categories", laws.Categories)
			r.Get("/meta/levels", laws.Levels)
			r.Get("/{lawID}", laws.Get)
			r.Get("/{lawID}/articles", laws.Articles)
			r.Get("/{lawID}/articles/{number}", laws.ArticleByNumber)
			r.Post("/{lawID}/search", laws.SearchInLaw)
		})
	})

	return r
}
