// db.go
//
// Database helpers for the riddles server.
// Responsibilities:
//   - Opening SQLite with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying the embedded migrations (idempotent, recorded in _migrations).

package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// openDB opens (and creates if missing) a SQLite database file, ensuring
// the parent directory exists for relative DSNs like ./data/riddles.db.
func openDB(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// migrations are applied in order; each entry runs once, recorded by name
// in _migrations. The schema is small enough to ship inline instead of
// walking a ./sql directory.
var migrations = []struct {
	name string
	sql  string
}{
	{
		name: "001_users",
		sql: `CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    TEXT NOT NULL
		);`,
	},
	{
		name: "002_user_stats",
		sql: `CREATE TABLE IF NOT EXISTS user_stats (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL UNIQUE,
			current_streak INTEGER NOT NULL DEFAULT 0,
			max_streak     INTEGER NOT NULL DEFAULT 0,
			version        INTEGER NOT NULL DEFAULT 1
		);`,
	},
	{
		name: "003_daily_sessions",
		sql: `CREATE TABLE IF NOT EXISTS daily_sessions (
			id              TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL,
			date            TEXT NOT NULL,
			solved_ids      TEXT NOT NULL DEFAULT '[]',
			lives_remaining INTEGER NOT NULL,
			version         INTEGER NOT NULL DEFAULT 1,
			UNIQUE(user_id, date)
		);`,
	},
	{
		name: "004_riddles",
		sql: `CREATE TABLE IF NOT EXISTS riddles (
			id              TEXT PRIMARY KEY,
			date            TEXT NOT NULL,
			seq             INTEGER NOT NULL,
			riddle_text     TEXT NOT NULL,
			correct_answers TEXT NOT NULL,
			explanation     TEXT NOT NULL DEFAULT '',
			hint            TEXT NOT NULL DEFAULT '',
			UNIQUE(date, seq)
		);
		CREATE INDEX IF NOT EXISTS idx_riddles_date ON riddles(date);`,
	},
}

// migrate applies the embedded migrations that have not run yet.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	for _, m := range migrations {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, m.name).Scan(&done)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("query _migrations: %w", err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", m.name, err)
		}
		log.Info().Str("migration", m.name).Msg("applied")
	}
	return nil
}
