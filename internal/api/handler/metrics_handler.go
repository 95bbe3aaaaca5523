package handler

import (
	"net/http"

	"github.com/transhub/commit-webhooks/internal/queue"
)

// MetricsHandler serves a human-readable JSON queue snapshot.
// Raw Prometheus metrics are available at /metrics via promhttp and are
// separate from this endpoint.
type MetricsHandler struct {
	q *queue.JobQueue
}

func NewMetricsHandler(q *queue.JobQueue) *MetricsHandler {
	return &MetricsHandler{q: q}
}

// GetMetrics handles GET /api/v1/metrics
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"queue_depth": h.q.Depth(),
	})
}
