package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/huntsync/server/internal/models"
	"github.com/huntsync/server/internal/observability"
	"github.com/huntsync/server/internal/services"
)

// ProgressHandler handles snapshot read/write endpoints
type ProgressHandler struct {
	progressService *services.ProgressService
	metrics         *observability.HuntMetrics
	logger          *observability.Logger
}

// NewProgressHandler creates a new ProgressHandler
func NewProgressHandler(progressService *services.ProgressService, metrics *observability.HuntMetrics) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
		metrics:         metrics,
		logger:          observability.GetLogger(),
	}
}

// Get returns the team's snapshot, an empty map when nothing is saved
func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	teamID := chi.URLParam(r, "teamID")
	huntID := chi.URLParam(r, "huntID")

	snapshot, err := h.progressService.Get(r.Context(), orgID, teamID, huntID)
	if err != nil {
		h.logger.WithContext(r.Context()).Errorf("progress fetch failed: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to load progress.")
		return
	}

	h.respondJSON(w, http.StatusOK, snapshot)
}

// Put replaces the stored snapshot wholesale. Last write wins at
// snapshot granularity; concurrent teammate edits are reconciled by
// the client's revalidation fetch, not merged here.
func (h *ProgressHandler) Put(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	teamID := chi.URLParam(r, "teamID")
	huntID := chi.URLParam(r, "huntID")

	var req models.SaveProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Snapshot == nil {
		req.Snapshot = models.ProgressSnapshot{}
	}

	err := h.progressService.Save(r.Context(), orgID, teamID, huntID, req.Snapshot, req.SessionID)
	if err != nil {
		switch err.(type) {
		case models.ProgressError:
			h.respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.WithContext(r.Context()).Errorf("progress save failed: %v", err)
			h.respondError(w, http.StatusInternalServerError, "Failed to save progress.")
		}
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSnapshotSave(r.Context(), teamID, len(req.Snapshot))
	}
	h.respondJSON(w, http.StatusOK, models.SaveProgressResponse{Snapshot: req.Snapshot})
}

func (h *ProgressHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *ProgressHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}
