package services

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// HashService handles file hashing
type HashService struct{}

// NewHashService creates a new HashService
func NewHashService() *HashService {
	return &HashService{}
}

// ComputeHash computes the SHA256 hash of a reader
func (s *HashService) ComputeHash(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ComputeHashBytes computes the SHA256 hash of bytes
func (s *HashService) ComputeHashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
