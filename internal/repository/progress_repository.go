package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/huntsync/server/internal/models"
)

// ProgressRepository implements ProgressRepo for PostgreSQL/SQLite.
// Snapshots are stored as a single JSON document per team and replaced
// wholesale on every save (last write wins).
type ProgressRepository struct {
	db *sql.DB
}

// NewProgressRepository creates a new ProgressRepository
func NewProgressRepository(db *sql.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func (r *ProgressRepository) Get(ctx context.Context, orgID, teamID, huntID string) (models.ProgressSnapshot, error) {
	query := `SELECT snapshot FROM progress_snapshots
			  WHERE org_id = $1 AND team_id = $2 AND hunt_id = $3`

	var raw string
	err := r.db.QueryRowContext(ctx, query, orgID, teamID, huntID).Scan(&raw)
	if err == sql.ErrNoRows {
		// A team with no saved progress has an empty snapshot
		return models.ProgressSnapshot{}, nil
	}
	if err != nil {
		return nil, err
	}

	var snapshot models.ProgressSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (r *ProgressRepository) Put(ctx context.Context, orgID, teamID, huntID string, snapshot models.ProgressSnapshot, sessionID string, updatedAt time.Time) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	query := `INSERT INTO progress_snapshots (org_id, team_id, hunt_id, snapshot, session_id, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (org_id, team_id, hunt_id) DO UPDATE SET
				snapshot = EXCLUDED.snapshot,
				session_id = EXCLUDED.session_id,
				updated_at = EXCLUDED.updated_at`

	_, err = r.db.ExecContext(ctx, query, orgID, teamID, huntID, string(raw), sessionID, updatedAt)
	return err
}
