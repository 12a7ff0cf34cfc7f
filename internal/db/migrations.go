package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS access_events (
		id              BIGSERIAL PRIMARY KEY,
		plate           TEXT NOT NULL,
		vehicle_type    TEXT NOT NULL,
		owner           TEXT NOT NULL,
		status          TEXT NOT NULL,
		timestamp       TIMESTAMPTZ NOT NULL,
		raw_payload     JSONB,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_access_events_plate ON access_events(plate);`,
	`CREATE INDEX IF NOT EXISTS idx_access_events_timestamp ON access_events(timestamp);`,
	`CREATE TABLE IF NOT EXISTS whitelist_entries (
		plate           TEXT PRIMARY KEY,
		vehicle_type    TEXT NOT NULL,
		owner           TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
