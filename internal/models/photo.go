package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StopPhoto represents a stored proof-of-completion image
type StopPhoto struct {
	ID               string    `json:"id"`
	OrgID            string    `json:"orgId"`
	HuntID           string    `json:"huntId"`
	TeamID           string    `json:"teamId"`
	StopID           string    `json:"stopId"`
	OriginalFilename string    `json:"originalFilename"`
	StoredPath       string    `json:"storedPath"`
	FileHash         string    `json:"fileHash"`
	FileSize         int64     `json:"fileSize"`
	SessionID        string    `json:"sessionId"` // audit only, not identity
	Orphaned         bool      `json:"orphaned"`
	UploadedAt       time.Time `json:"uploadedAt"`
}

// NewStopPhoto creates a photo record with validation and sanitization
func NewStopPhoto(orgID, huntID, teamID, stopID, originalFilename, storedPath, fileHash string, fileSize int64, sessionID string) (*StopPhoto, error) {
	if strings.TrimSpace(originalFilename) == "" {
		return nil, ErrEmptyFilename
	}
	if strings.TrimSpace(storedPath) == "" {
		return nil, ErrEmptyStoredPath
	}
	if fileSize <= 0 {
		return nil, ErrInvalidFileSize
	}

	return &StopPhoto{
		ID:               uuid.New().String(),
		OrgID:            orgID,
		HuntID:           huntID,
		TeamID:           teamID,
		StopID:           stopID,
		OriginalFilename: sanitizeFilename(originalFilename),
		StoredPath:       storedPath,
		FileHash:         strings.ToLower(fileHash),
		FileSize:         fileSize,
		SessionID:        sessionID,
		UploadedAt:       time.Now().UTC(),
	}, nil
}

// sanitizeFilename removes path components and invalid characters
func sanitizeFilename(filename string) string {
	// Get just the filename, no path
	name := filepath.Base(filename)

	replacer := strings.NewReplacer(
		"..", "",
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)

	return replacer.Replace(name)
}

// Photo errors
var (
	ErrEmptyFilename    = PhotoError{"filename cannot be empty"}
	ErrEmptyStoredPath  = PhotoError{"stored path cannot be empty"}
	ErrInvalidFileSize  = PhotoError{"file size must be positive"}
	ErrFileTooLarge     = PhotoError{"file exceeds the maximum allowed size"}
	ErrInvalidExtension = PhotoError{"file extension is not allowed"}
	ErrNotAnImage       = PhotoError{"file is not an image"}
	ErrPathTraversal    = PhotoError{"path escapes the storage root"}
	ErrPhotoNotFound    = PhotoError{"photo not found"}
)

type PhotoError struct {
	Message string
}

func (e PhotoError) Error() string {
	return e.Message
}
