package models

import "time"

// AcquireLockRequest is the request body for claiming a team's device slot
type AcquireLockRequest struct {
	TeamCode          string `json:"teamCode"`
	DeviceFingerprint string `json:"deviceFingerprint"`
}

// LockGrant is returned when a device successfully acquires the lock
type LockGrant struct {
	TeamID    string    `json:"teamIdentifier"`
	OrgID     string    `json:"orgId"`
	HuntID    string    `json:"huntId"`
	LockToken string    `json:"lockToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LockConflictResponse is returned when another device holds the lock
type LockConflictResponse struct {
	Error     string    `json:"error"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SaveProgressRequest is the request body for the snapshot PUT.
// The snapshot replaces the stored record wholesale.
type SaveProgressRequest struct {
	Snapshot  ProgressSnapshot `json:"snapshot"`
	SessionID string           `json:"sessionId"`
}

// SaveProgressResponse echoes the snapshot the server now holds
type SaveProgressResponse struct {
	Snapshot ProgressSnapshot `json:"snapshot"`
}

// UploadResult is returned after a photo upload
type UploadResult struct {
	PhotoReference string    `json:"photoReference"`
	UploadedAt     time.Time `json:"uploadedAt"`
}

// UploadContext carries the identifiers an upload is attributed to.
// SessionID is audit-only, never identity.
type UploadContext struct {
	TeamID       string `json:"teamId"`
	StopID       string `json:"stopId"`
	SessionID    string `json:"sessionId"`
	OrgID        string `json:"orgId"`
	HuntID       string `json:"huntId"`
	EventName    string `json:"eventName"`
	LocationName string `json:"locationName"`
	TeamName     string `json:"teamName"`
}

// HasFullIdentity reports whether the context names the team, org and
// hunt. The orchestrated upload path requires all three.
func (c UploadContext) HasFullIdentity() bool {
	return c.TeamID != "" && c.OrgID != "" && c.HuntID != ""
}

// ActiveResponse is the consolidated read the client seeds from
type ActiveResponse struct {
	Locations []*Stop          `json:"locations"`
	Progress  ProgressSnapshot `json:"progress"`
	Settings  map[string]any   `json:"settings"`
	Sponsors  []Sponsor        `json:"sponsors"`
}

// Sponsor is presentation data passed through unmodified
type Sponsor struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	LinkURL  string `json:"linkUrl,omitempty"`
}

// HealthResponse is returned by health check
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error string `json:"error"`
}
