package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS traffic_incidents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			external_id TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			date DATETIME NOT NULL,
			end_time DATETIME,
			location TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			severity TEXT NOT NULL CHECK (severity IN ('Low','Medium','High')),
			incident_type TEXT NOT NULL DEFAULT '',
			description TEXT,
			delay_seconds INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_traffic_incidents_external_id ON traffic_incidents(external_id);
		CREATE INDEX IF NOT EXISTS idx_traffic_incidents_date ON traffic_incidents(date);
		CREATE INDEX IF NOT EXISTS idx_traffic_incidents_severity ON traffic_incidents(severity);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
