package repository

import (
	"context"
	"time"

	"github.com/huntsync/server/internal/models"
)

// TeamRepo defines team lookup and registration operations
type TeamRepo interface {
	GetByCodeLookupHash(ctx context.Context, lookupHash string) (*models.Team, error)
	GetByID(ctx context.Context, id string) (*models.Team, error)
	Add(ctx context.Context, team *models.Team) error
}

// TeamLockRepo defines device-lock persistence operations. UpsertIfAvailable
// writes the lock only when the slot is open for the lock's device: no
// existing row, an expired row, or a row already held by the same
// fingerprint. It reports whether the write was applied, so concurrent
// acquires cannot both win the slot.
type TeamLockRepo interface {
	GetByTeam(ctx context.Context, teamID string) (*models.TeamLock, error)
	GetByToken(ctx context.Context, lockToken string) (*models.TeamLock, error)
	UpsertIfAvailable(ctx context.Context, lock *models.TeamLock, now time.Time) (bool, error)
	DeleteByToken(ctx context.Context, lockToken string) (bool, error)
}

// ProgressRepo defines snapshot persistence operations. Put replaces
// the stored snapshot wholesale; there is no partial merge.
type ProgressRepo interface {
	Get(ctx context.Context, orgID, teamID, huntID string) (models.ProgressSnapshot, error)
	Put(ctx context.Context, orgID, teamID, huntID string, snapshot models.ProgressSnapshot, sessionID string, updatedAt time.Time) error
}

// PhotoRepo defines stop-photo persistence operations
type PhotoRepo interface {
	GetByID(ctx context.Context, id string) (*models.StopPhoto, error)
	Add(ctx context.Context, photo *models.StopPhoto) error
	Delete(ctx context.Context, id string) (bool, error)
	MarkOrphaned(ctx context.Context, id string) error
	ListOrphaned(ctx context.Context) ([]*models.StopPhoto, error)
}

// LocationRepo defines hunt stop list operations
type LocationRepo interface {
	ListByHunt(ctx context.Context, orgID, huntID string) ([]*models.Stop, error)
	Add(ctx context.Context, stop *models.Stop) error
}
