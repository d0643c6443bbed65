package repository

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// NewPostgresDB creates and initializes a PostgreSQL database connection
func NewPostgresDB(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := createPostgresTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createPostgresTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS teams (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		hunt_id TEXT NOT NULL,
		name TEXT NOT NULL,
		code_hash TEXT NOT NULL,
		code_lookup_hash TEXT UNIQUE NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_teams_code_lookup ON teams(code_lookup_hash);
	CREATE INDEX IF NOT EXISTS idx_teams_hunt ON teams(org_id, hunt_id);

	CREATE TABLE IF NOT EXISTS team_locks (
		team_id TEXT PRIMARY KEY REFERENCES teams(id) ON DELETE CASCADE,
		org_id TEXT NOT NULL,
		hunt_id TEXT NOT NULL,
		device_fingerprint TEXT NOT NULL,
		lock_token TEXT UNIQUE NOT NULL,
		issued_at TIMESTAMP NOT NULL,
		expires_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_team_locks_token ON team_locks(lock_token);

	CREATE TABLE IF NOT EXISTS progress_snapshots (
		org_id TEXT NOT NULL,
		team_id TEXT NOT NULL,
		hunt_id TEXT NOT NULL,
		snapshot TEXT NOT NULL,
		session_id TEXT,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (org_id, team_id, hunt_id)
	);

	CREATE TABLE IF NOT EXISTS stop_photos (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		hunt_id TEXT NOT NULL,
		team_id TEXT NOT NULL,
		stop_id TEXT NOT NULL,
		original_filename TEXT NOT NULL,
		stored_path TEXT NOT NULL,
		file_hash TEXT NOT NULL,
		file_size BIGINT NOT NULL,
		session_id TEXT,
		orphaned BOOLEAN NOT NULL DEFAULT FALSE,
		uploaded_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stop_photos_team ON stop_photos(org_id, team_id, hunt_id);
	CREATE INDEX IF NOT EXISTS idx_stop_photos_orphaned ON stop_photos(orphaned);

	CREATE TABLE IF NOT EXISTS stops (
		id TEXT NOT NULL,
		org_id TEXT NOT NULL,
		hunt_id TEXT NOT NULL,
		title TEXT NOT NULL,
		clue TEXT NOT NULL DEFAULT '',
		hints TEXT NOT NULL DEFAULT '[]',
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (id, org_id, hunt_id)
	);

	CREATE INDEX IF NOT EXISTS idx_stops_hunt ON stops(org_id, hunt_id);
	`

	_, err := db.Exec(schema)
	return err
}
