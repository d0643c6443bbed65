package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/huntsync/server/internal/models"
)

// LocationRepository implements LocationRepo for PostgreSQL/SQLite
type LocationRepository struct {
	db *sql.DB
}

// NewLocationRepository creates a new LocationRepository
func NewLocationRepository(db *sql.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) ListByHunt(ctx context.Context, orgID, huntID string) ([]*models.Stop, error) {
	query := `SELECT id, org_id, hunt_id, title, clue, hints, position
			  FROM stops WHERE org_id = $1 AND hunt_id = $2 ORDER BY position, id`

	rows, err := r.db.QueryContext(ctx, query, orgID, huntID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stops []*models.Stop
	for rows.Next() {
		var stop models.Stop
		var hintsJSON string
		if err := rows.Scan(&stop.ID, &stop.OrgID, &stop.HuntID, &stop.Title, &stop.Clue, &hintsJSON, &stop.Position); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(hintsJSON), &stop.Hints); err != nil {
			return nil, err
		}
		stops = append(stops, &stop)
	}
	return stops, rows.Err()
}

func (r *LocationRepository) Add(ctx context.Context, stop *models.Stop) error {
	hintsJSON, err := json.Marshal(stop.Hints)
	if err != nil {
		return err
	}
	if stop.Hints == nil {
		hintsJSON = []byte("[]")
	}

	query := `INSERT INTO stops (id, org_id, hunt_id, title, clue, hints, position)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.db.ExecContext(ctx, query,
		stop.ID, stop.OrgID, stop.HuntID, stop.Title, stop.Clue, string(hintsJSON), stop.Position,
	)
	return err
}
