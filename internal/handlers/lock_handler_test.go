package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/huntsync/server/internal/middleware"
	"github.com/huntsync/server/internal/models"
	"github.com/huntsync/server/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLockHandler(t *testing.T) (*LockHandler, *models.Team) {
	team, err := models.NewTeam("org-1", "hunt-1", "The Pathfinders", "secret99")
	require.NoError(t, err)

	teamRepo := &fakeTeamRepo{teams: map[string]*models.Team{team.CodeLookupHash: team}}
	lockRepo := &fakeLockRepo{locks: map[string]*models.TeamLock{}}
	svc := services.NewLockService(teamRepo, lockRepo, time.Hour)

	return NewLockHandler(svc, nil), team
}

func acquireRequest(t *testing.T, teamCode, fingerprint string) *http.Request {
	body, err := json.Marshal(models.AcquireLockRequest{
		TeamCode:          teamCode,
		DeviceFingerprint: fingerprint,
	})
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, "/api/lock/acquire", bytes.NewReader(body))
}

func TestLockHandler_Acquire(t *testing.T) {
	t.Run("returns a grant for a valid code", func(t *testing.T) {
		handler, team := setupLockHandler(t)

		rec := httptest.NewRecorder()
		handler.Acquire(rec, acquireRequest(t, "secret99", "device-a"))

		require.Equal(t, http.StatusOK, rec.Code)
		var grant models.LockGrant
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&grant))
		assert.Equal(t, team.ID, grant.TeamID)
		assert.NotEmpty(t, grant.LockToken)
	})

	t.Run("rejects a wrong code with 401", func(t *testing.T) {
		handler, _ := setupLockHandler(t)

		rec := httptest.NewRecorder()
		handler.Acquire(rec, acquireRequest(t, "wrong-code", "device-a"))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("returns 409 with the holder's expiry on conflict", func(t *testing.T) {
		handler, _ := setupLockHandler(t)

		rec := httptest.NewRecorder()
		handler.Acquire(rec, acquireRequest(t, "secret99", "device-a"))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		handler.Acquire(rec, acquireRequest(t, "secret99", "device-b"))

		require.Equal(t, http.StatusConflict, rec.Code)
		var conflict models.LockConflictResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&conflict))
		assert.False(t, conflict.ExpiresAt.IsZero())
	})

	t.Run("rejects missing fields with 400", func(t *testing.T) {
		handler, _ := setupLockHandler(t)

		rec := httptest.NewRecorder()
		handler.Acquire(rec, acquireRequest(t, "secret99", "   "))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects malformed body with 400", func(t *testing.T) {
		handler, _ := setupLockHandler(t)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/lock/acquire", bytes.NewReader([]byte("{")))
		handler.Acquire(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLockHandler_Release(t *testing.T) {
	t.Run("releases a held lock", func(t *testing.T) {
		handler, _ := setupLockHandler(t)

		rec := httptest.NewRecorder()
		handler.Acquire(rec, acquireRequest(t, "secret99", "device-a"))
		var grant models.LockGrant
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&grant))

		rec = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/lock", nil)
		req.Header.Set(middleware.LockTokenHeader, grant.LockToken)
		handler.Release(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("unknown token returns 404", func(t *testing.T) {
		handler, _ := setupLockHandler(t)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/lock", nil)
		req.Header.Set(middleware.LockTokenHeader, "no-such-token")
		handler.Release(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing token returns 400", func(t *testing.T) {
		handler, _ := setupLockHandler(t)

		rec := httptest.NewRecorder()
		handler.Release(rec, httptest.NewRequest(http.MethodDelete, "/api/lock", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
