package store

import (
	"fmt"
	"log"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Initial schema",
		SQL: `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at DATETIME NOT NULL,
    source_path TEXT NOT NULL,
    row_count INTEGER NOT NULL,
    rows_dropped INTEGER NOT NULL DEFAULT 0,
    temperature_filled INTEGER NOT NULL DEFAULT 0,
    rainfall_filled INTEGER NOT NULL DEFAULT 0,
    humidity_filled INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL REFERENCES runs(id),
    date DATE NOT NULL,
    temperature REAL NOT NULL,
    rainfall REAL NOT NULL,
    humidity REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_run_date ON records(run_id, date);

CREATE TABLE IF NOT EXISTS seasonal_summaries (
    run_id INTEGER NOT NULL REFERENCES runs(id),
    season TEXT NOT NULL,
    column_name TEXT NOT NULL,
    mean REAL,
    stddev REAL,
    min REAL,
    max REAL,
    sum REAL,
    count INTEGER,
    UNIQUE(run_id, season, column_name)
);
`,
	},
}

// Migrate applies any pending schema migrations in order.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if _, err := s.db.Exec(m.SQL); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := s.db.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.Version); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		log.Printf("store: applied migration %d: %s", m.Version, m.Description)
	}
	return nil
}
