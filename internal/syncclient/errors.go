package syncclient

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError means the input itself is bad (wrong file type,
// oversized image). Client-fixable and never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// LockConflictError means another device holds the team's slot.
// Terminal per attempt; the user must wait or free the other device.
type LockConflictError struct {
	ExpiresAt time.Time
}

func (e *LockConflictError) Error() string {
	if e.ExpiresAt.IsZero() {
		return "another device is already active for this team"
	}
	return fmt.Sprintf("another device is already active for this team (lock expires %s)", e.ExpiresAt.Format(time.RFC3339))
}

// PersistenceError means a snapshot save failed and local state was
// rolled back to the last known-good snapshot.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "progress save failed: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// UploadError records one failed strategy in the fallback chain. Not
// surfaced to the user unless the whole chain fails.
type UploadError struct {
	Strategy string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload via %s failed: %v", e.Strategy, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// UploadChainError means every strategy in the chain failed
type UploadChainError struct {
	Attempts []*UploadError
}

func (e *UploadChainError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Error())
	}
	return "all upload strategies failed: " + strings.Join(parts, "; ")
}

// ServerError is a 5xx (or unexpected status) from any endpoint
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server error (%d)", e.StatusCode)
}
