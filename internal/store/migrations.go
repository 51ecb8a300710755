package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lox/sunsetcast/internal/logging"
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
CREATE TABLE IF NOT EXISTS spots (
    id TEXT PRIMARY KEY,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    description TEXT,
    latitude REAL NOT NULL,
    longitude REAL NOT NULL,
    icon TEXT
);

CREATE INDEX IF NOT EXISTS idx_spots_position ON spots(position);
`,
	},
	{
		Version:     2,
		Description: "Add refresh_runs table auditing each weather and air fetch cycle",
		SQL: `
CREATE TABLE IF NOT EXISTS refresh_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at DATETIME NOT NULL,
    finished_at DATETIME,
    weather_status INTEGER,
    air_status INTEGER,
    response_bytes INTEGER NOT NULL DEFAULT 0,
    days_assembled INTEGER NOT NULL DEFAULT 0,
    success BOOLEAN NOT NULL DEFAULT FALSE,
    error TEXT
);

CREATE INDEX IF NOT EXISTS idx_refresh_runs_started ON refresh_runs(started_at);
`,
	},
	{
		Version:     3,
		Description: "Add raw_payloads table archiving Open-Meteo responses",
		SQL: `
CREATE TABLE IF NOT EXISTS raw_payloads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER REFERENCES refresh_runs(id) ON DELETE SET NULL,
    endpoint TEXT NOT NULL,
    fetched_at DATETIME NOT NULL,
    body_gz BLOB NOT NULL,
    sha256 TEXT NOT NULL UNIQUE
);

CREATE INDEX IF NOT EXISTS idx_raw_payloads_fetched ON raw_payloads(fetched_at);
`,
	},
	{
		Version:     4,
		Description: "Add outlook_history table",
		SQL: `
CREATE TABLE IF NOT EXISTS outlook_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    fetched_at DATETIME NOT NULL,
    valid_date DATE NOT NULL,
    day_offset INTEGER NOT NULL,
    score INTEGER NOT NULL,
    confidence INTEGER NOT NULL,
    sunset_kind TEXT NOT NULL,
    matched_kind TEXT NOT NULL,
    sunset_at DATETIME,
    cloud_low REAL,
    cloud_mid REAL,
    cloud_high REAL,
    humidity REAL,
    visibility REAL,
    wind_speed REAL,
    pressure REAL,
    pm10 REAL,
    UNIQUE(fetched_at, valid_date)
);

CREATE INDEX IF NOT EXISTS idx_outlook_history_date ON outlook_history(valid_date);
`,
	},
}

func (s *Store) Migrate() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("get applied migrations: %w", err)
	}

	log := logging.Get()
	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		log.Infow("migrations: applying", "version", m.Version, "description", m.Description)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx for migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Description, time.Now().UTC(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

func (s *Store) ensureMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME
		)
	`)
	return err
}

func (s *Store) getAppliedMigrations() (map[int]bool, error) {
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (s *Store) MigrationVersion() (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
