package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// SchemaVersion is stored in PRAGMA user_version after a successful migration.
const SchemaVersion = 2

// Migrate runs all schema migrations. Every statement is safe to re-run.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE ADD COLUMN is not idempotent in SQLite.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	return nil
}

var migrations = []string{
	// Local plan cache: one serialized plan per cache key.
	`CREATE TABLE IF NOT EXISTS plan_cache (
		cache_key  TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		plan_date  TEXT NOT NULL,
		section    TEXT NOT NULL DEFAULT '',
		payload    TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_plan_cache_user_date ON plan_cache(user_id, plan_date)`,

	`CREATE TABLE IF NOT EXISTS activity_starts (
		activity_id TEXT PRIMARY KEY,
		started_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS activity_durations (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		activity_type     TEXT NOT NULL,
		estimated_minutes INTEGER NOT NULL DEFAULT 0,
		actual_minutes    INTEGER NOT NULL
		                  CHECK(actual_minutes BETWEEN 1 AND 240),
		completed_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_activity_durations_type ON activity_durations(activity_type)`,

	`CREATE TABLE IF NOT EXISTS activity_feedback (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		activity_type TEXT NOT NULL,
		rating        INTEGER NOT NULL CHECK(rating IN (-1, 1)),
		recorded_at   TEXT NOT NULL
	)`,

	// v2: optional free-form feedback tag
	`ALTER TABLE activity_feedback ADD COLUMN tag TEXT NOT NULL DEFAULT ''`,
}
