package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/huntsync/server/internal/models"
)

type contextKey string

const (
	// LockContextKey holds the validated TeamLock for the request
	LockContextKey contextKey = "teamLock"

	// LockTokenHeader carries the device's lock token
	LockTokenHeader = "X-Lock-Token"
)

// LockValidator resolves a lock token to a live lock
type LockValidator interface {
	Validate(ctx context.Context, lockToken string) (*models.TeamLock, error)
}

// GetLockFromContext retrieves the validated lock from request context
func GetLockFromContext(ctx context.Context) *models.TeamLock {
	if lock, ok := ctx.Value(LockContextKey).(*models.TeamLock); ok {
		return lock
	}
	return nil
}

// RequireLock creates middleware that admits only the team's currently
// locked device. The lock is session admission only; it carries no
// data-level guarantees.
func RequireLock(validator LockValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(LockTokenHeader)
			if token == "" {
				respondUnauthorized(w, "Lock token is required.")
				return
			}

			lock, err := validator.Validate(r.Context(), token)
			if err != nil {
				respondUnauthorized(w, "Lock token is invalid or expired.")
				return
			}

			ctx := context.WithValue(r.Context(), LockContextKey, lock)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: message})
}
