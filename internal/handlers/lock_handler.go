package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/huntsync/server/internal/middleware"
	"github.com/huntsync/server/internal/models"
	"github.com/huntsync/server/internal/observability"
	"github.com/huntsync/server/internal/services"
)

// LockHandler handles device-lock endpoints
type LockHandler struct {
	lockService *services.LockService
	metrics     *observability.HuntMetrics
	logger      *observability.Logger
}

// NewLockHandler creates a new LockHandler
func NewLockHandler(lockService *services.LockService, metrics *observability.HuntMetrics) *LockHandler {
	return &LockHandler{
		lockService: lockService,
		metrics:     metrics,
		logger:      observability.GetLogger(),
	}
}

// Acquire claims the single active device slot for a team.
// 401 on an unknown or wrong code, 409 when a different device holds a
// live lock. The same device re-acquiring gets an extended expiry.
func (h *LockHandler) Acquire(w http.ResponseWriter, r *http.Request) {
	var req models.AcquireLockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	req.TeamCode = strings.TrimSpace(req.TeamCode)
	req.DeviceFingerprint = strings.TrimSpace(req.DeviceFingerprint)
	if req.TeamCode == "" || req.DeviceFingerprint == "" {
		h.respondError(w, http.StatusBadRequest, "Team code and device fingerprint are required.")
		return
	}

	grant, err := h.lockService.Acquire(r.Context(), req.TeamCode, req.DeviceFingerprint)
	switch err {
	case nil:
		if h.metrics != nil {
			h.metrics.RecordLockAcquire(r.Context(), grant.TeamID, true)
		}
		h.respondJSON(w, http.StatusOK, grant)
	case models.ErrInvalidTeamCode:
		h.respondError(w, http.StatusUnauthorized, "Invalid team code.")
	case models.ErrLockConflict:
		if h.metrics != nil {
			h.metrics.RecordLockConflict(r.Context())
		}
		h.respondJSON(w, http.StatusConflict, models.LockConflictResponse{
			Error:     "Another device is already active for this team.",
			ExpiresAt: h.lockService.ConflictExpiry(r.Context(), req.TeamCode),
		})
	default:
		h.logger.WithContext(r.Context()).Errorf("lock acquire failed: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to acquire lock.")
	}
}

// Release drops the lock on explicit logout
func (h *LockHandler) Release(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(middleware.LockTokenHeader)
	if token == "" {
		h.respondError(w, http.StatusBadRequest, "Lock token is required.")
		return
	}

	switch err := h.lockService.Release(r.Context(), token); err {
	case nil:
		w.WriteHeader(http.StatusNoContent)
	case models.ErrLockNotFound:
		h.respondError(w, http.StatusNotFound, "Lock not found.")
	default:
		h.logger.WithContext(r.Context()).Errorf("lock release failed: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to release lock.")
	}
}

func (h *LockHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *LockHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}
