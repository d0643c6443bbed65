package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/huntsync/server/internal/models"
)

// TeamLockRepository implements TeamLockRepo for PostgreSQL/SQLite
type TeamLockRepository struct {
	db *sql.DB
}

// NewTeamLockRepository creates a new TeamLockRepository
func NewTeamLockRepository(db *sql.DB) *TeamLockRepository {
	return &TeamLockRepository{db: db}
}

func (r *TeamLockRepository) GetByTeam(ctx context.Context, teamID string) (*models.TeamLock, error) {
	query := `SELECT team_id, org_id, hunt_id, device_fingerprint, lock_token, issued_at, expires_at
			  FROM team_locks WHERE team_id = $1`

	var lock models.TeamLock
	err := r.db.QueryRowContext(ctx, query, teamID).Scan(
		&lock.TeamID, &lock.OrgID, &lock.HuntID, &lock.DeviceFingerprint,
		&lock.LockToken, &lock.IssuedAt, &lock.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

func (r *TeamLockRepository) GetByToken(ctx context.Context, lockToken string) (*models.TeamLock, error) {
	query := `SELECT team_id, org_id, hunt_id, device_fingerprint, lock_token, issued_at, expires_at
			  FROM team_locks WHERE lock_token = $1`

	var lock models.TeamLock
	err := r.db.QueryRowContext(ctx, query, lockToken).Scan(
		&lock.TeamID, &lock.OrgID, &lock.HuntID, &lock.DeviceFingerprint,
		&lock.LockToken, &lock.IssuedAt, &lock.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

// UpsertIfAvailable writes the lock row for a team when the slot is
// open: no row, an expired row, or a row held by the same device. The
// condition lives in the upsert itself so two concurrent acquires
// cannot both claim the slot; one row per team is enforced by the
// primary key. Reports whether the write was applied.
func (r *TeamLockRepository) UpsertIfAvailable(ctx context.Context, lock *models.TeamLock, now time.Time) (bool, error) {
	query := `INSERT INTO team_locks (team_id, org_id, hunt_id, device_fingerprint, lock_token, issued_at, expires_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  ON CONFLICT (team_id) DO UPDATE SET
				device_fingerprint = EXCLUDED.device_fingerprint,
				lock_token = EXCLUDED.lock_token,
				issued_at = EXCLUDED.issued_at,
				expires_at = EXCLUDED.expires_at
			  WHERE team_locks.expires_at <= $8
				 OR team_locks.device_fingerprint = EXCLUDED.device_fingerprint`

	result, err := r.db.ExecContext(ctx, query,
		lock.TeamID, lock.OrgID, lock.HuntID, lock.DeviceFingerprint,
		lock.LockToken, lock.IssuedAt, lock.ExpiresAt, now,
	)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *TeamLockRepository) DeleteByToken(ctx context.Context, lockToken string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM team_locks WHERE lock_token = $1`, lockToken)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
