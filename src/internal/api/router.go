package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nmstate/nmstate-go/src/internal/config"
)

// NewRouter creates a new HTTP router with all API endpoints.
func NewRouter(lib Library, configHasher *config.ConfigHasher, enableMetrics bool) http.Handler {
	r := chi.NewRouter()

	r.Use(Recovery)
	r.Use(Logger)
	if enableMetrics {
		r.Use(MetricsMiddleware)
	}
	r.Use(StateContentType)

	h := NewHandler(lib, configHasher)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/state", h.GetState)
		r.Post("/state", h.ApplyState)

		r.Get("/checkpoint", h.GetCheckpoint)
		r.Post("/checkpoint/commit", h.CommitCheckpoint)
		r.Post("/checkpoint/rollback", h.RollbackCheckpoint)

		r.Post("/gen-conf", h.GenerateConfigurations)
		r.Post("/diff", h.GenerateDifferences)

		r.Get("/health", h.CheckHealth)
	})

	if enableMetrics {
		r.Get("/metrics", promhttp.Handler().ServeHTTP)
	}

	return r
}
