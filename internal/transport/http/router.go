package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"usagecli/internal/identity"
	"usagecli/internal/infrastructure"
)

// NewRouter assembles the read-only data API.
func NewRouter(service DataService, cache *identity.Cache, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(traceMiddleware)
	r.Use(middleware.Recoverer)

	health := NewHealthHandler()
	data := NewDataHandler(service, logger)
	identities := NewIdentityHandler(cache, logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health.HealthCheck)
		r.Get("/health/live", health.LivenessCheck)

		r.Get("/data/consolidated", data.Consolidated)

		r.Route("/identities", func(r chi.Router) {
			r.Get("/stats", identities.Stats)
			r.Get("/search", identities.Search)
			r.Post("/bulk", identities.Bulk)
			r.Get("/{id}", identities.Get)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// traceMiddleware ensures every request context carries a trace id the
// logger can attach to its records.
func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := infrastructure.EnsureTraceID(r.Context())
		w.Header().Set("X-Trace-Id", infrastructure.GetTraceID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
