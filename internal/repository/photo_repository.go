package repository

import (
	"context"
	"database/sql"

	"github.com/huntsync/server/internal/models"
)

// PhotoRepository implements PhotoRepo for PostgreSQL/SQLite
type PhotoRepository struct {
	db *sql.DB
}

// NewPhotoRepository creates a new PhotoRepository
func NewPhotoRepository(db *sql.DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

const photoColumns = `id, org_id, hunt_id, team_id, stop_id, original_filename,
			stored_path, file_hash, file_size, session_id, orphaned, uploaded_at`

func (r *PhotoRepository) GetByID(ctx context.Context, id string) (*models.StopPhoto, error) {
	query := `SELECT ` + photoColumns + ` FROM stop_photos WHERE id = $1`

	var photo models.StopPhoto
	var sessionID sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&photo.ID, &photo.OrgID, &photo.HuntID, &photo.TeamID, &photo.StopID,
		&photo.OriginalFilename, &photo.StoredPath, &photo.FileHash,
		&photo.FileSize, &sessionID, &photo.Orphaned, &photo.UploadedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	photo.SessionID = sessionID.String
	return &photo, nil
}

func (r *PhotoRepository) Add(ctx context.Context, photo *models.StopPhoto) error {
	query := `INSERT INTO stop_photos (` + photoColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		photo.ID, photo.OrgID, photo.HuntID, photo.TeamID, photo.StopID,
		photo.OriginalFilename, photo.StoredPath, photo.FileHash,
		photo.FileSize, photo.SessionID, photo.Orphaned, photo.UploadedAt,
	)
	return err
}

func (r *PhotoRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM stop_photos WHERE id = $1`, id)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// MarkOrphaned flags a photo whose progress link failed so a later
// sweep can reclaim the stored file.
func (r *PhotoRepository) MarkOrphaned(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE stop_photos SET orphaned = $1 WHERE id = $2`, true, id)
	return err
}

func (r *PhotoRepository) ListOrphaned(ctx context.Context) ([]*models.StopPhoto, error) {
	query := `SELECT ` + photoColumns + ` FROM stop_photos WHERE orphaned = $1 ORDER BY uploaded_at`

	rows, err := r.db.QueryContext(ctx, query, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []*models.StopPhoto
	for rows.Next() {
		var photo models.StopPhoto
		var sessionID sql.NullString
		if err := rows.Scan(
			&photo.ID, &photo.OrgID, &photo.HuntID, &photo.TeamID, &photo.StopID,
			&photo.OriginalFilename, &photo.StoredPath, &photo.FileHash,
			&photo.FileSize, &sessionID, &photo.Orphaned, &photo.UploadedAt,
		); err != nil {
			return nil, err
		}
		photo.SessionID = sessionID.String
		photos = append(photos, &photo)
	}
	return photos, rows.Err()
}
