package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/huntsync/server/internal/models"
	"github.com/huntsync/server/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploadEnv struct {
	handler      *UploadHandler
	photoRepo    *fakePhotoRepo
	progressRepo *fakeProgressRepo
	progress     *services.ProgressService
	storage      *services.PhotoStorageService
}

func setupUploadHandler(t *testing.T, maxFileSizeMB int64) *uploadEnv {
	t.Helper()

	storage, err := services.NewPhotoStorageService(t.TempDir(), nil, maxFileSizeMB)
	require.NoError(t, err)

	photoRepo := newFakePhotoRepo()
	progressRepo := &fakeProgressRepo{snapshots: map[string]models.ProgressSnapshot{}}
	locationRepo := &fakeLocationRepo{stops: []*models.Stop{
		{ID: "stop-1", OrgID: "org-1", HuntID: "hunt-1", Title: "Fountain"},
	}}
	progress := services.NewProgressService(progressRepo, locationRepo)

	handler := NewUploadHandler(
		photoRepo, storage, services.NewImageService(1600, 85),
		services.NewHashService(), progress, false, nil,
	)

	return &uploadEnv{
		handler:      handler,
		photoRepo:    photoRepo,
		progressRepo: progressRepo,
		progress:     progress,
		storage:      storage,
	}
}

func uploadJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 24, 16)), &jpeg.Options{Quality: 80}))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, target string, fields map[string]string, filename, contentType string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func orchestratedFields() map[string]string {
	return map[string]string{
		"stopId":    "stop-1",
		"teamId":    "team-1",
		"orgId":     "org-1",
		"huntId":    "hunt-1",
		"sessionId": "session-1",
	}
}

func TestUploadHandler_Orchestrated(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the photo and links it into progress", func(t *testing.T) {
		env := setupUploadHandler(t, 10)

		rec := httptest.NewRecorder()
		req := uploadRequest(t, "/api/upload/orchestrated", orchestratedFields(), "proof.jpg", "image/jpeg", uploadJPEG(t))
		env.handler.Orchestrated(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var result models.UploadResult
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
		assert.NotEmpty(t, result.PhotoReference)

		photo, err := env.photoRepo.GetByID(ctx, result.PhotoReference)
		require.NoError(t, err)
		require.NotNil(t, photo)
		assert.True(t, env.storage.Exists(photo.StoredPath))
		assert.False(t, photo.Orphaned)

		snapshot, err := env.progress.Get(ctx, "org-1", "team-1", "hunt-1")
		require.NoError(t, err)
		state := snapshot["stop-1"]
		assert.True(t, state.Done)
		require.NotNil(t, state.PhotoReference)
		assert.Equal(t, result.PhotoReference, *state.PhotoReference)
		require.NotNil(t, state.CompletedAt)
	})

	t.Run("rejects a stop outside the hunt before storing anything", func(t *testing.T) {
		env := setupUploadHandler(t, 10)

		fields := orchestratedFields()
		fields["stopId"] = "ghost-stop"
		rec := httptest.NewRecorder()
		env.handler.Orchestrated(rec, uploadRequest(t, "/api/upload/orchestrated", fields, "proof.jpg", "image/jpeg", uploadJPEG(t)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, env.photoRepo.added)

		snapshot, err := env.progress.Get(ctx, "org-1", "team-1", "hunt-1")
		require.NoError(t, err)
		assert.Empty(t, snapshot)
	})

	t.Run("rejects missing identity fields", func(t *testing.T) {
		env := setupUploadHandler(t, 10)

		fields := orchestratedFields()
		delete(fields, "teamId")
		rec := httptest.NewRecorder()
		env.handler.Orchestrated(rec, uploadRequest(t, "/api/upload/orchestrated", fields, "proof.jpg", "image/jpeg", uploadJPEG(t)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, env.photoRepo.added)
	})

	t.Run("compensates a stored photo when the progress link fails", func(t *testing.T) {
		env := setupUploadHandler(t, 10)
		env.progressRepo.putErr = errors.New("storage unavailable")

		rec := httptest.NewRecorder()
		env.handler.Orchestrated(rec, uploadRequest(t, "/api/upload/orchestrated", orchestratedFields(), "proof.jpg", "image/jpeg", uploadJPEG(t)))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		// The photo was stored, then both file and row were undone
		require.Len(t, env.photoRepo.added, 1)
		stored := env.photoRepo.added[0]
		assert.False(t, env.storage.Exists(stored.StoredPath))
		assert.Empty(t, env.photoRepo.photos)
	})
}

func TestUploadHandler_Compensate(t *testing.T) {
	ctx := context.Background()

	t.Run("marks the row orphaned when the file cannot be deleted", func(t *testing.T) {
		env := setupUploadHandler(t, 10)

		photo, err := models.NewStopPhoto("org-1", "hunt-1", "team-1", "stop-1",
			"proof.jpg", "org-1/hunt-1/team-1/gone.jpg", "abc123", 42, "")
		require.NoError(t, err)
		require.NoError(t, env.photoRepo.Add(ctx, photo))

		env.handler.compensate(httptest.NewRequest(http.MethodPost, "/", nil), photo)

		kept, err := env.photoRepo.GetByID(ctx, photo.ID)
		require.NoError(t, err)
		require.NotNil(t, kept)
		assert.True(t, kept.Orphaned)
	})

	t.Run("deletes the row once the file is gone", func(t *testing.T) {
		env := setupUploadHandler(t, 10)

		content := uploadJPEG(t)
		storedPath, err := env.storage.Store(bytes.NewReader(content), "proof.jpg", "org-1", "hunt-1", "team-1", int64(len(content)), true)
		require.NoError(t, err)

		photo, err := models.NewStopPhoto("org-1", "hunt-1", "team-1", "stop-1",
			"proof.jpg", storedPath, "abc123", int64(len(content)), "")
		require.NoError(t, err)
		require.NoError(t, env.photoRepo.Add(ctx, photo))

		env.handler.compensate(httptest.NewRequest(http.MethodPost, "/", nil), photo)

		assert.False(t, env.storage.Exists(storedPath))
		assert.Empty(t, env.photoRepo.photos)
	})
}

func TestUploadHandler_Signed(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the photo without touching progress", func(t *testing.T) {
		env := setupUploadHandler(t, 10)

		rec := httptest.NewRecorder()
		req := uploadRequest(t, "/api/upload/signed",
			map[string]string{"eventName": "summer-hunt", "teamName": "pathfinders"},
			"proof.jpg", "image/jpeg", uploadJPEG(t))
		env.handler.Signed(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var result models.UploadResult
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))

		photo, err := env.photoRepo.GetByID(ctx, result.PhotoReference)
		require.NoError(t, err)
		require.NotNil(t, photo)
		assert.True(t, env.storage.Exists(photo.StoredPath))
		assert.Zero(t, env.progressRepo.puts)
	})

	t.Run("rejects non-image content", func(t *testing.T) {
		env := setupUploadHandler(t, 10)

		rec := httptest.NewRecorder()
		env.handler.Signed(rec, uploadRequest(t, "/api/upload/signed", nil, "notes.txt", "text/plain", []byte("not a picture")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), models.ErrNotAnImage.Error())
		assert.Empty(t, env.photoRepo.added)
	})
}

func TestUploadHandler_Legacy(t *testing.T) {
	t.Run("accepts a file the signed path rejects as too large", func(t *testing.T) {
		env := setupUploadHandler(t, 0) // zero-byte limit

		content := uploadJPEG(t)

		rec := httptest.NewRecorder()
		env.handler.Signed(rec, uploadRequest(t, "/api/upload/signed", nil, "proof.jpg", "image/jpeg", content))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), models.ErrFileTooLarge.Error())

		rec = httptest.NewRecorder()
		env.handler.Legacy(rec, uploadRequest(t, "/api/upload/legacy", nil, "proof.jpg", "image/jpeg", content))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, env.photoRepo.added, 1)
	})
}
