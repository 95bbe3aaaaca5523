package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/transhub/commit-webhooks/internal/api/handler"
	apimw "github.com/transhub/commit-webhooks/internal/api/middleware"
	"github.com/transhub/commit-webhooks/internal/queue"
	"github.com/transhub/commit-webhooks/internal/service"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(
	svc *service.CommitService,
	q *queue.JobQueue,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1<<20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	ph := handler.NewProjectHandler(svc, logger)
	ch := handler.NewCommitHandler(svc, logger)
	mh := handler.NewMetricsHandler(q)
	hh := handler.NewHealthHandler()

	// --- routes ---
	r.Get("/health", hh.Health)

	// Raw Prometheus scrape endpoint (for Prometheus server / Grafana)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		// Projects: registration and webhook configuration
		r.Post("/projects", ph.Create)
		r.Patch("/projects/{slug}", ph.Update)

		// Commits: the mutation entry point for the import pipeline
		r.Post("/commits", ch.Create)
		r.Patch("/commits/{id}", ch.Update)
		r.Get("/commits/{id}", ch.GetByID)
		r.Get("/commits/{id}/deliveries", ch.ListDeliveries)

		// JSON metrics snapshot
		r.Get("/metrics", mh.GetMetrics)
	})

	return r
}
