package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/huntsync/server/internal/models"
	"github.com/huntsync/server/internal/observability"
	"github.com/huntsync/server/internal/repository"
)

// ActiveHandler serves the consolidated read the client seeds from:
// locations, progress, settings and sponsors in one response.
// Settings and sponsors are pass-through presentation data.
type ActiveHandler struct {
	locationRepo repository.LocationRepo
	progressRepo repository.ProgressRepo
	settings     map[string]any
	sponsors     []models.Sponsor
	logger       *observability.Logger
}

// NewActiveHandler creates a new ActiveHandler
func NewActiveHandler(locationRepo repository.LocationRepo, progressRepo repository.ProgressRepo, settings map[string]any, sponsors []models.Sponsor) *ActiveHandler {
	if settings == nil {
		settings = map[string]any{}
	}
	if sponsors == nil {
		sponsors = []models.Sponsor{}
	}
	return &ActiveHandler{
		locationRepo: locationRepo,
		progressRepo: progressRepo,
		settings:     settings,
		sponsors:     sponsors,
		logger:       observability.GetLogger(),
	}
}

// Get returns the consolidated snapshot for a team's session
func (h *ActiveHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	teamID := chi.URLParam(r, "teamID")
	huntID := chi.URLParam(r, "huntID")

	locations, err := h.locationRepo.ListByHunt(r.Context(), orgID, huntID)
	if err != nil {
		h.logger.WithContext(r.Context()).Errorf("loading locations failed: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to load hunt data.")
		return
	}
	if locations == nil {
		locations = []*models.Stop{}
	}

	progress, err := h.progressRepo.Get(r.Context(), orgID, teamID, huntID)
	if err != nil {
		h.logger.WithContext(r.Context()).Errorf("loading progress failed: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to load hunt data.")
		return
	}

	h.respondJSON(w, http.StatusOK, models.ActiveResponse{
		Locations: locations,
		Progress:  progress,
		Settings:  h.settings,
		Sponsors:  h.sponsors,
	})
}

func (h *ActiveHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *ActiveHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}
