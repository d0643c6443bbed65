package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TeamLock records which device is currently admitted for a team.
// At most one non-expired lock exists per team; an expired lock is
// treated as free and reclaimed by the next acquirer.
type TeamLock struct {
	TeamID            string    `json:"teamId"`
	OrgID             string    `json:"orgId"`
	HuntID            string    `json:"huntId"`
	DeviceFingerprint string    `json:"-"` // Never expose the fingerprint
	LockToken         string    `json:"lockToken"`
	IssuedAt          time.Time `json:"issuedAt"`
	ExpiresAt         time.Time `json:"expiresAt"`
}

// NewTeamLock creates a lock for a device with the given time-to-live
func NewTeamLock(teamID, orgID, huntID, deviceFingerprint string, ttl time.Duration) (*TeamLock, error) {
	deviceFingerprint = strings.TrimSpace(deviceFingerprint)
	if deviceFingerprint == "" {
		return nil, ErrEmptyFingerprint
	}
	if ttl <= 0 {
		return nil, ErrInvalidLockTTL
	}

	now := time.Now().UTC()
	return &TeamLock{
		TeamID:            teamID,
		OrgID:             orgID,
		HuntID:            huntID,
		DeviceFingerprint: deviceFingerprint,
		LockToken:         uuid.New().String(),
		IssuedAt:          now,
		ExpiresAt:         now.Add(ttl),
	}, nil
}

// IsExpired reports whether the lock has lapsed at the given instant
func (l *TeamLock) IsExpired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// HeldBy reports whether the given fingerprint owns this lock
func (l *TeamLock) HeldBy(deviceFingerprint string) bool {
	return l.DeviceFingerprint == deviceFingerprint
}

// Refresh extends the lock for the same device and rotates the token
func (l *TeamLock) Refresh(ttl time.Duration) {
	now := time.Now().UTC()
	l.LockToken = uuid.New().String()
	l.IssuedAt = now
	l.ExpiresAt = now.Add(ttl)
}

// Lock errors
var (
	ErrEmptyFingerprint = LockError{"device fingerprint cannot be empty"}
	ErrInvalidLockTTL   = LockError{"lock TTL must be positive"}
	ErrLockConflict     = LockError{"another device already holds the lock for this team"}
	ErrLockNotFound     = LockError{"lock not found"}
	ErrInvalidTeamCode  = LockError{"invalid team code"}
)

type LockError struct {
	Message string
}

func (e LockError) Error() string {
	return e.Message
}
