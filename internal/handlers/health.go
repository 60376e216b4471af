package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"statute-search/internal/contextutil"
	"statute-search/internal/indexer"
)

// Pinger checks the database connection.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Dependency is an optional collaborator with a cached health probe.
type Dependency interface {
	Enabled() bool
	Healthy(ctx context.Context) bool
}

// CoverageReporter reports embedding coverage of the corpus.
type CoverageReporter interface {
	CoverageStats(ctx context.Context, embeddingModel string) (*indexer.CoverageStats, error)
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	db                 Pinger
	dependencies       map[string]Dependency
	coverage           CoverageReporter
	embeddingModel     string
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. dependencies maps a check
// name to an optional collaborator; coverage may be nil.
func NewHealthHandler(db Pinger, dependencies map[string]Dependency, coverage CoverageReporter, embeddingModel string) *HealthHandler {
	return &HealthHandler{
		db:                 db,
		dependencies:       dependencies,
		coverage:           coverage,
		embeddingModel:     embeddingModel,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results: "ok", "error", "unavailable" or "disabled"
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// The database is required: when it fails the status is "unhealthy" and the
// response is 503. Optional dependencies that are down only degrade the
// service, since retrieval falls back past them.
//
// swagger:route GET /api/health healthCheck
//
// # Health check endpoint
//
// responses:
//
//	'200':
//	  description: System is healthy or degraded
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: Database unavailable
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	status := "healthy"
	httpStatus := http.StatusOK
	if h.checkDatabase(checkCtx, logger) {
		checks["database"] = "ok"
	} else {
		checks["database"] = "error"
		issues = append(issues, "database_unavailable")
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	names := make([]string, 0, len(h.dependencies))
	for name := range h.dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		dep := h.dependencies[name]
		switch {
		case dep == nil || !dep.Enabled():
			checks[name] = "disabled"
		case dep.Healthy(checkCtx):
			checks[name] = "ok"
		default:
			checks[name] = "unavailable"
			issues = append(issues, name+"_unavailable")
			if status == "healthy" {
				status = "degraded"
			}
		}
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	if len(issues) > 0 {
		response.Issues = issues
	}
	writeJSON(ctx, w, httpStatus, response)
}

func (h *HealthHandler) checkDatabase(ctx context.Context, logger *slog.Logger) bool {
	if err := h.db.PingContext(ctx); err != nil {
		logger.WarnContext(ctx, "database health check failed", "error", err)
		return false
	}
	return true
}

// Stats handles GET /api/v1/stats with the embedding coverage of the corpus.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.coverage == nil {
		writeError(w, http.StatusNotFound, "Coverage stats not available")
		return
	}
	stats, err := h.coverage.CoverageStats(ctx, h.embeddingModel)
	if err != nil {
		handleError(ctx, w, err, "Failed to compute coverage stats")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}
