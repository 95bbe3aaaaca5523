package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/transhub/commit-webhooks/internal/api/middleware"
	"github.com/transhub/commit-webhooks/internal/domain"
	"github.com/transhub/commit-webhooks/internal/service"
)

// CommitHandler is the mutation entry point used by the import and
// translation pipelines: commit creation and flag updates land here and
// trigger webhook dispatch synchronously after the write.
type CommitHandler struct {
	svc    *service.CommitService
	logger *zap.Logger
}

func NewCommitHandler(svc *service.CommitService, logger *zap.Logger) *CommitHandler {
	return &CommitHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/commits
func (h *CommitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	c, err := h.svc.CreateCommit(r.Context(), req)
	if err != nil {
		h.logger.Warn("create commit failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

// Update handles PATCH /api/v1/commits/{id}
func (h *CommitHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateCommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id := chi.URLParam(r, "id")
	c, err := h.svc.UpdateCommit(r.Context(), id, req)
	if err != nil {
		h.logger.Warn("update commit failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.String("commit_id", id),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// GetByID handles GET /api/v1/commits/{id}
func (h *CommitHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.svc.GetCommit(r.Context(), id)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// ListDeliveries handles GET /api/v1/commits/{id}/deliveries
//
// Failed deliveries are the operator-facing record of notification jobs
// that did not reach their endpoint.
func (h *CommitHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deliveries, err := h.svc.ListDeliveries(r.Context(), id)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"data":  deliveries,
		"total": len(deliveries),
	})
}
