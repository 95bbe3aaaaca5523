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

// ProjectHandler manages project registration and webhook configuration.
type ProjectHandler struct {
	svc    *service.CommitService
	logger *zap.Logger
}

func NewProjectHandler(svc *service.CommitService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p, err := h.svc.CreateProject(r.Context(), req)
	if err != nil {
		h.logger.Warn("create project failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// Update handles PATCH /api/v1/projects/{slug}
//
// Webhook and repository URLs may be set or cleared here at any time;
// jobs already queued under the old configuration fail loudly at
// execution rather than being cancelled.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	slug := chi.URLParam(r, "slug")
	p, err := h.svc.UpdateProject(r.Context(), slug, req)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}
