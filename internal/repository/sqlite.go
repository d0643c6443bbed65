package repository

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteDB creates and initializes a SQLite database
func NewSQLiteDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	schema := `
	-- Teams (join code stored hashed, lookup hash indexed)
	CREATE TABLE IF NOT EXISTS teams (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		hunt_id TEXT NOT NULL,
		name TEXT NOT NULL,
		code_hash TEXT NOT NULL,
		code_lookup_hash TEXT UNIQUE NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_teams_code_lookup ON teams(code_lookup_hash);
	CREATE INDEX IF NOT EXISTS idx_teams_hunt ON teams(org_id, hunt_id);

	-- Device locks: at most one row per team
	CREATE TABLE IF NOT EXISTS team_locks (
		team_id TEXT PRIMARY KEY REFERENCES teams(id) ON DELETE CASCADE,
		org_id TEXT NOT NULL,
		hunt_id TEXT NOT NULL,
		device_fingerprint TEXT NOT NULL,
		lock_token TEXT UNIQUE NOT NULL,
		issued_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_team_locks_token ON team_locks(lock_token);

	-- Progress snapshots: one JSON blob per (org, team, hunt), replaced wholesale
	CREATE TABLE IF NOT EXISTS progress_snapshots (
		org_id TEXT NOT NULL,
		team_id TEXT NOT NULL,
		hunt_id TEXT NOT NULL,
		snapshot TEXT NOT NULL,
		session_id TEXT,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (org_id, team_id, hunt_id)
	);

	-- Stop photos (proof images)
	CREATE TABLE IF NOT EXISTS stop_photos (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		hunt_id TEXT NOT NULL,
		team_id TEXT NOT NULL,
		stop_id TEXT NOT NULL,
		original_filename TEXT NOT NULL,
		stored_path TEXT NOT NULL,
		file_hash TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		session_id TEXT,
		orphaned INTEGER NOT NULL DEFAULT 0,
		uploaded_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stop_photos_team ON stop_photos(org_id, team_id, hunt_id);
	CREATE INDEX IF NOT EXISTS idx_stop_photos_orphaned ON stop_photos(orphaned);

	-- Hunt stops (clue locations)
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
