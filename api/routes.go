package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/reelstats/reelstats/telemetry"
)

// RegisterRoutes registers all API routes using chi router
func RegisterRoutes(mux *http.ServeMux, handlers *Handlers) {
	r := chi.NewRouter()
	r.Use(RequestLogger)

	// Dataset mutations
	r.Post("/upload/ratings", handlers.handleUploadRatings)
	r.Post("/upload/movies", handlers.handleUploadMovies)
	r.Post("/clear", handlers.handleClear)

	// Read-only JSON endpoints
	r.Get("/api/uploads", handlers.handleUploadStatus)
	r.Get("/api/chart-data", handlers.handleChartData)
	r.Get("/api/filtered-movies", handlers.handleFilteredMovies)
	r.Get("/api/visualizations", handlers.handleVisualizations)

	r.Get("/healthz", handlers.handleHealth)

	mux.Handle("/", r)

	if metricsHandler := telemetry.GetMetricsHandler(); metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	log.Info().Msg("API endpoints registered")
}
