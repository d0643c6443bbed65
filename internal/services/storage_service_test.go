package services

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huntsync/server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) (*PhotoStorageService, string) {
	tempDir, err := os.MkdirTemp("", "huntsync-test-*")
	require.NoError(t, err)

	svc, err := NewPhotoStorageService(tempDir, nil, 50)
	require.NoError(t, err)

	return svc, tempDir
}

func cleanupTestStorage(tempDir string) {
	os.RemoveAll(tempDir)
}

func TestPhotoStorageService_Store(t *testing.T) {
	t.Run("stores file under org/hunt/team folder", func(t *testing.T) {
		svc, tempDir := setupTestStorage(t)
		defer cleanupTestStorage(tempDir)

		content := []byte("fake image content")

		storedPath, err := svc.Store(
			bytes.NewReader(content),
			"proof.jpg",
			"org-1", "hunt-1", "team-1",
			int64(len(content)),
			true,
		)

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(storedPath, "org-1/hunt-1/team-1/"))
		assert.True(t, strings.HasSuffix(storedPath, ".jpg"))
		assert.True(t, svc.Exists(storedPath))
	})

	t.Run("creates unique filename for duplicates", func(t *testing.T) {
		svc, tempDir := setupTestStorage(t)
		defer cleanupTestStorage(tempDir)

		content := []byte("content")

		path1, err := svc.Store(bytes.NewReader(content), "duplicate.jpg", "org-1", "hunt-1", "team-1", int64(len(content)), true)
		require.NoError(t, err)

		path2, err := svc.Store(bytes.NewReader(content), "duplicate.jpg", "org-1", "hunt-1", "team-1", int64(len(content)), true)
		require.NoError(t, err)

		assert.NotEqual(t, path1, path2)
		assert.True(t, svc.Exists(path1))
		assert.True(t, svc.Exists(path2))
	})

	t.Run("rejects oversized file when limits enforced", func(t *testing.T) {
		tempDir, err := os.MkdirTemp("", "huntsync-test-*")
		require.NoError(t, err)
		defer cleanupTestStorage(tempDir)

		svc, err := NewPhotoStorageService(tempDir, nil, 1)
		require.NoError(t, err)

		_, err = svc.Store(bytes.NewReader([]byte("content")), "big.jpg", "org-1", "hunt-1", "team-1", 2*1024*1024, true)
		assert.ErrorIs(t, err, models.ErrFileTooLarge)
	})

	t.Run("accepts oversized file when limits disabled", func(t *testing.T) {
		tempDir, err := os.MkdirTemp("", "huntsync-test-*")
		require.NoError(t, err)
		defer cleanupTestStorage(tempDir)

		svc, err := NewPhotoStorageService(tempDir, nil, 1)
		require.NoError(t, err)

		content := []byte("content")
		storedPath, err := svc.Store(bytes.NewReader(content), "big.jpg", "org-1", "hunt-1", "team-1", 2*1024*1024, false)
		require.NoError(t, err)
		assert.True(t, svc.Exists(storedPath))
	})

	t.Run("rejects disallowed extensions", func(t *testing.T) {
		svc, tempDir := setupTestStorage(t)
		defer cleanupTestStorage(tempDir)

		disallowed := []string{".exe", ".bat", ".sh", ".php"}
		for _, ext := range disallowed {
			_, err := svc.Store(
				bytes.NewReader([]byte("content")),
				"file"+ext,
				"org-1", "hunt-1", "team-1",
				7,
				true,
			)
			assert.ErrorIs(t, err, models.ErrInvalidExtension, "extension %s should be rejected", ext)
		}
	})

	t.Run("sanitizes path traversal attempts", func(t *testing.T) {
		svc, tempDir := setupTestStorage(t)
		defer cleanupTestStorage(tempDir)

		maliciousNames := []string{
			"../../../etc/passwd.jpg",
			"..\\..\\windows\\system32.jpg",
			"/etc/passwd.jpg",
		}

		for _, name := range maliciousNames {
			storedPath, err := svc.Store(
				bytes.NewReader([]byte("content")),
				name,
				"org-1", "hunt-1", "team-1",
				7,
				true,
			)

			require.NoError(t, err)
			assert.NotContains(t, storedPath, "..")
			assert.NotContains(t, storedPath, "/etc/")
			assert.NotContains(t, storedPath, "\\windows\\")
		}
	})

	t.Run("sanitizes identifiers used as folders", func(t *testing.T) {
		svc, tempDir := setupTestStorage(t)
		defer cleanupTestStorage(tempDir)

		storedPath, err := svc.Store(
			bytes.NewReader([]byte("content")),
			"proof.jpg",
			"../org", "hunt/../1", "team-1",
			7,
			true,
		)

		require.NoError(t, err)
		assert.NotContains(t, storedPath, "..")
		assert.True(t, svc.Exists(storedPath))
	})
}

func TestPhotoStorageService_Delete(t *testing.T) {
	t.Run("deletes existing file", func(t *testing.T) {
		svc, tempDir := setupTestStorage(t)
		defer cleanupTestStorage(tempDir)

		storedPath, err := svc.Store(
			bytes.NewReader([]byte("content")),
			"delete_me.jpg",
			"org-1", "hunt-1", "team-1",
			7,
			true,
		)
		require.NoError(t, err)
		assert.True(t, svc.Exists(storedPath))

		result := svc.Delete(storedPath)
		assert.True(t, result)
		assert.False(t, svc.Exists(storedPath))
	})

	t.Run("returns false for non-existent file", func(t *testing.T) {
		svc, tempDir := setupTestStorage(t)
		defer cleanupTestStorage(tempDir)

		result := svc.Delete("org-1/hunt-1/team-1/nonexistent.jpg")
		assert.False(t, result)
	})
}

func TestPhotoStorageService_GetFullPath(t *testing.T) {
	t.Run("returns full path for valid stored path", func(t *testing.T) {
		svc, tempDir := setupTestStorage(t)
		defer cleanupTestStorage(tempDir)

		fullPath, err := svc.GetFullPath("org-1/hunt-1/team-1/proof.jpg")
		require.NoError(t, err)
		assert.True(t, filepath.HasPrefix(fullPath, tempDir))
	})

	t.Run("rejects path traversal", func(t *testing.T) {
		svc, tempDir := setupTestStorage(t)
		defer cleanupTestStorage(tempDir)

		_, err := svc.GetFullPath("../../../etc/passwd")
		assert.Error(t, err)
	})
}

func TestPhotoStorageService_Exists(t *testing.T) {
	t.Run("returns true for existing file", func(t *testing.T) {
		svc, tempDir := setupTestStorage(t)
		defer cleanupTestStorage(tempDir)

		storedPath, err := svc.Store(
			bytes.NewReader([]byte("content")),
			"exists.jpg",
			"org-1", "hunt-1", "team-1",
			7,
			true,
		)
		require.NoError(t, err)

		assert.True(t, svc.Exists(storedPath))
	})

	t.Run("returns false for non-existent file", func(t *testing.T) {
		svc, tempDir := setupTestStorage(t)
		defer cleanupTestStorage(tempDir)

		assert.False(t, svc.Exists("org-1/hunt-1/team-1/nonexistent.jpg"))
	})
}
