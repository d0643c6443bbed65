package repository

import (
	"context"
	"database/sql"

	"github.com/huntsync/server/internal/models"
)

// TeamRepository implements TeamRepo for PostgreSQL/SQLite
type TeamRepository struct {
	db *sql.DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *sql.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) GetByCodeLookupHash(ctx context.Context, lookupHash string) (*models.Team, error) {
	query := `SELECT id, org_id, hunt_id, name, code_hash, code_lookup_hash, created_at
			  FROM teams WHERE code_lookup_hash = $1`

	var team models.Team
	err := r.db.QueryRowContext(ctx, query, lookupHash).Scan(
		&team.ID, &team.OrgID, &team.HuntID, &team.Name,
		&team.CodeHash, &team.CodeLookupHash, &team.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	query := `SELECT id, org_id, hunt_id, name, code_hash, code_lookup_hash, created_at
			  FROM teams WHERE id = $1`

	var team models.Team
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&team.ID, &team.OrgID, &team.HuntID, &team.Name,
		&team.CodeHash, &team.CodeLookupHash, &team.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *TeamRepository) Add(ctx context.Context, team *models.Team) error {
	query := `INSERT INTO teams (id, org_id, hunt_id, name, code_hash, code_lookup_hash, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		team.ID, team.OrgID, team.HuntID, team.Name,
		team.CodeHash, team.CodeLookupHash, team.CreatedAt,
	)
	return err
}
