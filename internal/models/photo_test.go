package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStopPhoto(t *testing.T) {
	t.Run("creates photo with valid parameters", func(t *testing.T) {
		hash := "abc123def456abc123def456abc123def456abc123def456abc123def456abcd"

		photo, err := NewStopPhoto("org-1", "hunt-1", "team-1", "stop-1",
			"proof.jpg", "org-1/hunt-1/team-1/proof.jpg", hash, 1024, "session-1")

		require.NoError(t, err)
		assert.NotEmpty(t, photo.ID)
		assert.Equal(t, "org-1", photo.OrgID)
		assert.Equal(t, "hunt-1", photo.HuntID)
		assert.Equal(t, "team-1", photo.TeamID)
		assert.Equal(t, "stop-1", photo.StopID)
		assert.Equal(t, "proof.jpg", photo.OriginalFilename)
		assert.Equal(t, "org-1/hunt-1/team-1/proof.jpg", photo.StoredPath)
		assert.Equal(t, hash, photo.FileHash)
		assert.Equal(t, int64(1024), photo.FileSize)
		assert.Equal(t, "session-1", photo.SessionID)
		assert.False(t, photo.Orphaned)
		assert.WithinDuration(t, time.Now().UTC(), photo.UploadedAt, time.Second*5)
	})

	t.Run("rejects empty filename", func(t *testing.T) {
		_, err := NewStopPhoto("org", "hunt", "team", "stop", "", "path", "hash", 1024, "")
		assert.ErrorIs(t, err, ErrEmptyFilename)
	})

	t.Run("rejects empty stored path", func(t *testing.T) {
		_, err := NewStopPhoto("org", "hunt", "team", "stop", "file.jpg", "", "hash", 1024, "")
		assert.ErrorIs(t, err, ErrEmptyStoredPath)
	})

	t.Run("rejects zero file size", func(t *testing.T) {
		_, err := NewStopPhoto("org", "hunt", "team", "stop", "file.jpg", "path", "hash", 0, "")
		assert.ErrorIs(t, err, ErrInvalidFileSize)
	})

	t.Run("rejects negative file size", func(t *testing.T) {
		_, err := NewStopPhoto("org", "hunt", "team", "stop", "file.jpg", "path", "hash", -100, "")
		assert.ErrorIs(t, err, ErrInvalidFileSize)
	})

	t.Run("sanitizes filename with path components", func(t *testing.T) {
		photo, err := NewStopPhoto("org", "hunt", "team", "stop",
			"../../../etc/passwd.jpg", "safe/path.jpg", "hash", 1024, "")

		require.NoError(t, err)
		assert.NotContains(t, photo.OriginalFilename, "..")
		assert.NotContains(t, photo.OriginalFilename, "/")
	})

	t.Run("normalizes hash to lowercase", func(t *testing.T) {
		upperHash := "ABC123DEF456ABC123DEF456ABC123DEF456ABC123DEF456ABC123DEF456ABCD"

		photo, err := NewStopPhoto("org", "hunt", "team", "stop", "file.jpg", "path", upperHash, 1024, "")

		require.NoError(t, err)
		assert.Equal(t, strings.ToLower(upperHash), photo.FileHash)
	})

	t.Run("generates unique IDs", func(t *testing.T) {
		photo1, err := NewStopPhoto("org", "hunt", "team", "stop-a", "a.jpg", "path1", "hash1", 100, "")
		require.NoError(t, err)

		photo2, err := NewStopPhoto("org", "hunt", "team", "stop-b", "b.jpg", "path2", "hash2", 100, "")
		require.NoError(t, err)

		assert.NotEqual(t, photo1.ID, photo2.ID)
	})
}
