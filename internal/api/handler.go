// internal/api/handler.go
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github-release-stats/internal/stats"
	"github-release-stats/internal/store"
)

// Handler is the container for API dependencies.
type Handler struct {
	store  store.Store
	agg    *stats.Aggregator
	logger *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(st store.Store, agg *stats.Aggregator, logger *slog.Logger) http.Handler {
	h := &Handler{
		store:  st,
		agg:    agg,
		logger: logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger) // Chi's default logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// API Routes
	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/stats", h.getStats)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getStats loads the persisted release table and recomputes every aggregate
// view for the dashboard. The path is read-only and stateless, so any
// number of concurrent callers is fine. A malformed or unreadable table is
// a server error; partial aggregates are never returned.
// GET /v1/stats
func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	releases, err := h.store.LoadReleases(r.Context())
	if err != nil {
		h.logger.Error("Failed to load release table", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, h.agg.Build(releases))
}
