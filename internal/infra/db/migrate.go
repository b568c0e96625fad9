package db

import (
	"database/sql"
)

// MigrateUp creates the dead-letter schema. All statements are idempotent so
// the migration can run at every startup.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS dead_letters (
    id            BIGSERIAL PRIMARY KEY,
    queue_name    TEXT NOT NULL,
    job_id        TEXT NOT NULL,
    payload       BYTEA,
    failed_reason TEXT NOT NULL DEFAULT '',
    category      TEXT NOT NULL DEFAULT 'unknown',
    attempts_made INTEGER NOT NULL DEFAULT 0,
    stack_lines   TEXT[],
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (queue_name, job_id)
)`); err != nil {
		return err
	}

	indexes := []string{
		// List order is created_at DESC.
		`CREATE INDEX IF NOT EXISTS idx_dead_letters_created_at ON dead_letters(created_at DESC)`,
		// Per-queue gauge refresh and triage filtering.
		`CREATE INDEX IF NOT EXISTS idx_dead_letters_queue_name ON dead_letters(queue_name)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown rolls back the dead-letter schema.
// Use with caution: this deletes every stored dead letter.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP INDEX IF EXISTS idx_dead_letters_created_at`,
		`DROP INDEX IF EXISTS idx_dead_letters_queue_name`,
		`DROP TABLE IF EXISTS dead_letters CASCADE`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
