package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/huntsync/server/internal/models"
	"github.com/huntsync/server/internal/observability"
	"github.com/huntsync/server/internal/repository"
	"github.com/huntsync/server/internal/services"
)

// UploadHandler handles the proof-photo upload endpoints. Three paths
// share the storage plumbing but differ in atomicity:
//   - orchestrated: image store + progress link as one logical
//     operation with compensation on failure
//   - signed: image store only, linking is the caller's job
//   - legacy: signed without resize or size-limit enforcement
type UploadHandler struct {
	photoRepo         repository.PhotoRepo
	storageService    *services.PhotoStorageService
	imageService      *services.ImageService
	hashService       *services.HashService
	progressService   *services.ProgressService
	allowLargeUploads bool
	metrics           *observability.HuntMetrics
	logger            *observability.Logger
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(
	photoRepo repository.PhotoRepo,
	storageService *services.PhotoStorageService,
	imageService *services.ImageService,
	hashService *services.HashService,
	progressService *services.ProgressService,
	allowLargeUploads bool,
	metrics *observability.HuntMetrics,
) *UploadHandler {
	return &UploadHandler{
		photoRepo:         photoRepo,
		storageService:    storageService,
		imageService:      imageService,
		hashService:       hashService,
		progressService:   progressService,
		allowLargeUploads: allowLargeUploads,
		metrics:           metrics,
		logger:            observability.GetLogger(),
	}
}

// Orchestrated stores the image and links it to the stop's progress as
// one logical operation. If the progress write fails the stored image
// is compensated: deleted, or marked orphaned when the delete fails.
func (h *UploadHandler) Orchestrated(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.parseUpload(w, r, true)
	if !ok {
		return
	}

	stopID := r.FormValue("stopId")
	teamID := r.FormValue("teamId")
	orgID := r.FormValue("orgId")
	huntID := r.FormValue("huntId")
	sessionID := r.FormValue("sessionId")
	if stopID == "" || teamID == "" || orgID == "" || huntID == "" {
		h.respondError(w, http.StatusBadRequest, "stopId, teamId, orgId and huntId are required.")
		return
	}

	// Reject stops outside the hunt before the image hits disk; a linked
	// unknown stop would make every later snapshot save fail validation
	if err := h.progressService.ValidateStop(r.Context(), orgID, huntID, stopID); err != nil {
		if err == models.ErrUnknownStop {
			h.respondError(w, http.StatusBadRequest, err.Error())
		} else {
			h.logger.WithContext(r.Context()).Errorf("validating stop %s failed: %v", stopID, err)
			h.respondError(w, http.StatusInternalServerError, "Failed to validate stop.")
		}
		return
	}

	content := h.compress(upload)

	photo, ok := h.storePhoto(w, r, content, upload.filename, orgID, huntID, teamID, stopID, sessionID, true)
	if !ok {
		return
	}

	// Link the photo into progress. Failure here triggers compensation
	// so no completed stop ever points at a missing image and no stored
	// image is silently forgotten.
	if err := h.progressService.SetStopCompleted(r.Context(), orgID, teamID, huntID, stopID, photo.ID, sessionID); err != nil {
		h.logger.WithContext(r.Context()).Errorf("progress link failed for photo %s: %v", photo.ID, err)
		h.compensate(r, photo)
		if h.metrics != nil {
			h.metrics.RecordCompensation(r.Context(), "orchestrated")
			h.metrics.RecordPhotoUpload(r.Context(), "orchestrated", photo.FileSize, false)
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to record progress for the uploaded photo.")
		return
	}

	if h.metrics != nil {
		h.metrics.RecordPhotoUpload(r.Context(), "orchestrated", photo.FileSize, true)
	}
	h.respondJSON(w, http.StatusOK, models.UploadResult{
		PhotoReference: photo.ID,
		UploadedAt:     photo.UploadedAt,
	})
}

// Signed stores the image and returns its reference. Progress linking
// happens separately on the client; a crash in between can leave an
// uploaded-but-unlinked image (accepted gap of this path).
func (h *UploadHandler) Signed(w http.ResponseWriter, r *http.Request) {
	h.storeOnly(w, r, "signed", true)
}

// Legacy is the last-resort path: no resize, no size limit
func (h *UploadHandler) Legacy(w http.ResponseWriter, r *http.Request) {
	h.storeOnly(w, r, "legacy", false)
}

func (h *UploadHandler) storeOnly(w http.ResponseWriter, r *http.Request, path string, enforceLimits bool) {
	upload, ok := h.parseUpload(w, r, enforceLimits)
	if !ok {
		return
	}

	eventName := r.FormValue("eventName")
	teamName := r.FormValue("teamName")
	locationName := r.FormValue("locationName")
	sessionID := r.FormValue("sessionId")
	if eventName == "" {
		eventName = "event"
	}
	if teamName == "" {
		teamName = "team"
	}

	content := upload.content
	if enforceLimits {
		content = h.compress(upload)
	}

	photo, ok := h.storePhoto(w, r, content, upload.filename, eventName, locationName, teamName, "", sessionID, enforceLimits)
	if !ok {
		return
	}

	if h.metrics != nil {
		h.metrics.RecordPhotoUpload(r.Context(), path, photo.FileSize, true)
	}
	h.respondJSON(w, http.StatusOK, models.UploadResult{
		PhotoReference: photo.ID,
		UploadedAt:     photo.UploadedAt,
	})
}

type parsedUpload struct {
	content  []byte
	filename string
}

// parseUpload reads the multipart image and applies MIME/size gates.
// Validation failures are terminal: the client must fix the file, not
// retry it.
func (h *UploadHandler) parseUpload(w http.ResponseWriter, r *http.Request, enforceLimits bool) (parsedUpload, bool) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		h.respondError(w, http.StatusBadRequest, "Request must be multipart/form-data.")
		return parsedUpload{}, false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "No image provided or image is empty.")
		return parsedUpload{}, false
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to read image.")
		return parsedUpload{}, false
	}
	if len(content) == 0 {
		h.respondError(w, http.StatusBadRequest, "No image provided or image is empty.")
		return parsedUpload{}, false
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}
	if !services.IsImageMIME(contentType) {
		h.respondError(w, http.StatusBadRequest, models.ErrNotAnImage.Error())
		return parsedUpload{}, false
	}

	if enforceLimits && !h.allowLargeUploads && int64(len(content)) > h.storageService.MaxFileSizeBytes() {
		h.respondError(w, http.StatusBadRequest, models.ErrFileTooLarge.Error())
		return parsedUpload{}, false
	}

	filename := header.Filename
	if filename == "" {
		filename = "capture.jpg"
	}

	return parsedUpload{content: content, filename: filename}, true
}

// compress re-encodes the image within bounds; on failure the original
// bytes are used rather than aborting the upload
func (h *UploadHandler) compress(upload parsedUpload) []byte {
	compressed, err := h.imageService.Recompress(upload.content, upload.filename)
	if err != nil {
		h.logger.Warnf("compression failed for %s, storing original: %v", upload.filename, err)
		return upload.content
	}
	return compressed
}

func (h *UploadHandler) storePhoto(w http.ResponseWriter, r *http.Request, content []byte, filename, orgID, huntID, teamID, stopID, sessionID string, enforceLimits bool) (*models.StopPhoto, bool) {
	storedPath, err := h.storageService.Store(
		bytes.NewReader(content), filename, orgID, huntID, teamID,
		int64(len(content)), enforceLimits,
	)
	if err != nil {
		switch err {
		case models.ErrFileTooLarge, models.ErrInvalidExtension:
			h.respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.WithContext(r.Context()).Errorf("storing image failed: %v", err)
			h.respondError(w, http.StatusInternalServerError, "Failed to store image.")
		}
		return nil, false
	}

	photo, err := models.NewStopPhoto(
		orgID, huntID, teamID, stopID, filename, storedPath,
		h.hashService.ComputeHashBytes(content), int64(len(content)), sessionID,
	)
	if err != nil {
		h.storageService.Delete(storedPath) // Clean up
		h.respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	if err := h.photoRepo.Add(r.Context(), photo); err != nil {
		h.storageService.Delete(storedPath) // Clean up
		h.logger.WithContext(r.Context()).Errorf("recording photo failed: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to record photo.")
		return nil, false
	}

	return photo, true
}

// compensate undoes a stored image whose progress link failed
func (h *UploadHandler) compensate(r *http.Request, photo *models.StopPhoto) {
	if h.storageService.Delete(photo.StoredPath) {
		if _, err := h.photoRepo.Delete(r.Context(), photo.ID); err != nil {
			h.logger.Errorf("compensation: deleting photo row %s failed: %v", photo.ID, err)
		}
		return
	}

	// File delete failed; keep the row and flag it for the orphan sweep
	if err := h.photoRepo.MarkOrphaned(r.Context(), photo.ID); err != nil {
		h.logger.Errorf("compensation: marking photo %s orphaned failed: %v", photo.ID, err)
	}
}

func (h *UploadHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *UploadHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}
