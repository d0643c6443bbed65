package services

import (
	"context"
	"fmt"
	"time"

	"github.com/huntsync/server/internal/models"
	"github.com/huntsync/server/internal/repository"
)

// LockService grants and validates the single active device slot per
// team. The lock is advisory session admission only; it never touches
// progress data.
type LockService struct {
	teamRepo repository.TeamRepo
	lockRepo repository.TeamLockRepo
	ttl      time.Duration
	now      func() time.Time
}

// NewLockService creates a LockService with the given lock TTL
func NewLockService(teamRepo repository.TeamRepo, lockRepo repository.TeamLockRepo, ttl time.Duration) *LockService {
	return &LockService{
		teamRepo: teamRepo,
		lockRepo: lockRepo,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Acquire verifies the team code and claims the device slot.
// Returns ErrInvalidTeamCode for an unknown or wrong code,
// ErrLockConflict when a different device holds a live lock. The same
// fingerprint re-acquiring gets a refreshed lock with extended expiry;
// expired locks are reclaimed silently.
func (s *LockService) Acquire(ctx context.Context, teamCode, deviceFingerprint string) (*models.LockGrant, error) {
	team, err := s.teamRepo.GetByCodeLookupHash(ctx, models.CodeLookupHash(teamCode))
	if err != nil {
		return nil, fmt.Errorf("looking up team: %w", err)
	}
	if team == nil || !team.VerifyCode(teamCode) {
		return nil, models.ErrInvalidTeamCode
	}

	existing, err := s.lockRepo.GetByTeam(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("loading lock: %w", err)
	}

	now := s.now()
	var lock *models.TeamLock
	if existing != nil && !existing.IsExpired(now) && existing.HeldBy(deviceFingerprint) {
		existing.Refresh(s.ttl)
		lock = existing
	} else {
		lock, err = models.NewTeamLock(team.ID, team.OrgID, team.HuntID, deviceFingerprint, s.ttl)
		if err != nil {
			return nil, err
		}
	}

	// The write itself is conditional on the slot being open, so a
	// concurrent acquire that won the slot after our read still loses
	applied, err := s.lockRepo.UpsertIfAvailable(ctx, lock, now)
	if err != nil {
		return nil, fmt.Errorf("storing lock: %w", err)
	}
	if !applied {
		// Conflict is terminal for this attempt, no retry
		return nil, models.ErrLockConflict
	}
	return grantFor(lock), nil
}

// Release drops the lock for an explicit logout. Unknown tokens return
// ErrLockNotFound.
func (s *LockService) Release(ctx context.Context, lockToken string) error {
	deleted, err := s.lockRepo.DeleteByToken(ctx, lockToken)
	if err != nil {
		return fmt.Errorf("releasing lock: %w", err)
	}
	if !deleted {
		return models.ErrLockNotFound
	}
	return nil
}

// Validate resolves a lock token to its live lock. Expired or unknown
// tokens return ErrLockNotFound.
func (s *LockService) Validate(ctx context.Context, lockToken string) (*models.TeamLock, error) {
	lock, err := s.lockRepo.GetByToken(ctx, lockToken)
	if err != nil {
		return nil, fmt.Errorf("loading lock: %w", err)
	}
	if lock == nil || lock.IsExpired(s.now()) {
		return nil, models.ErrLockNotFound
	}
	return lock, nil
}

// ConflictExpiry reports when the current holder's lock lapses, for
// surfacing alongside a conflict. Zero time when no lock exists.
func (s *LockService) ConflictExpiry(ctx context.Context, teamCode string) time.Time {
	team, err := s.teamRepo.GetByCodeLookupHash(ctx, models.CodeLookupHash(teamCode))
	if err != nil || team == nil {
		return time.Time{}
	}
	lock, err := s.lockRepo.GetByTeam(ctx, team.ID)
	if err != nil || lock == nil {
		return time.Time{}
	}
	return lock.ExpiresAt
}

func grantFor(lock *models.TeamLock) *models.LockGrant {
	return &models.LockGrant{
		TeamID:    lock.TeamID,
		OrgID:     lock.OrgID,
		HuntID:    lock.HuntID,
		LockToken: lock.LockToken,
		ExpiresAt: lock.ExpiresAt,
	}
}
