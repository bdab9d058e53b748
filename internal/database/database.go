package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const sqlitePrefix = "sqlite://"

// Connect opens the database behind databaseURL. postgres:// URLs use lib/pq;
// sqlite:// URLs open a local SQLite file (or :memory:) and create the schema
// in place, since golang-migrate only manages the postgres deployment.
func Connect(databaseURL string) (*sqlx.DB, error) {
	if IsSQLite(databaseURL) {
		return connectSQLite(strings.TrimPrefix(databaseURL, sqlitePrefix))
	}

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

// IsSQLite reports whether databaseURL points at a SQLite database.
func IsSQLite(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, sqlitePrefix)
}

func connectSQLite(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps :memory: databases shared and avoids
	// SQLITE_BUSY on concurrent writers.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}
	if err := EnsureSQLiteSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS matches (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	player1_username TEXT NOT NULL,
	player2_username TEXT NOT NULL,
	status           TEXT NOT NULL DEFAULT 'WAITING',
	winner_username  TEXT,
	player1_score    INTEGER NOT NULL DEFAULT 0,
	player2_score    INTEGER NOT NULL DEFAULT 0,
	created_at       DATETIME NOT NULL,
	started_at       DATETIME,
	completed_at     DATETIME
);
CREATE INDEX IF NOT EXISTS idx_matches_completed_at ON matches (completed_at);
CREATE INDEX IF NOT EXISTS idx_matches_player1 ON matches (player1_username);
CREATE INDEX IF NOT EXISTS idx_matches_player2 ON matches (player2_username);
`

// EnsureSQLiteSchema creates the matches table if it does not exist.
func EnsureSQLiteSchema(db *sqlx.DB) error {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("create sqlite schema: %w", err)
	}
	return nil
}
