package archive

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaSteps build the entries table. A step's index+1 is its version in
// archive_schema; append new steps, never edit shipped ones.
var schemaSteps = []string{
	`CREATE TABLE IF NOT EXISTS entries (
		timestamp   TIMESTAMP NOT NULL,
		unix_time   BIGINT NOT NULL,
		level       VARCHAR NOT NULL,
		level_num   INTEGER NOT NULL,
		message     VARCHAR NOT NULL,
		length      INTEGER NOT NULL,
		received_at TIMESTAMP DEFAULT current_timestamp
	)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_unix_time ON entries (unix_time)`,
}

// SchemaVersion is the version a freshly opened store ends up at.
var SchemaVersion = len(schemaSteps)

// ensureSchema brings db up to SchemaVersion. Each pending step commits
// together with its version row, so a crash never leaves a step half-recorded.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS archive_schema (
		version    INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT current_timestamp
	)`); err != nil {
		return fmt.Errorf("archive: schema table: %w", err)
	}

	current, err := schemaVersion(ctx, db)
	if err != nil {
		return err
	}
	for v := current + 1; v <= len(schemaSteps); v++ {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("archive: schema v%d: %w", v, err)
		}
		if _, err := tx.ExecContext(ctx, schemaSteps[v-1]); err != nil {
			tx.Rollback()
			return fmt.Errorf("archive: schema v%d: %w", v, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO archive_schema (version) VALUES (?)`, v); err != nil {
			tx.Rollback()
			return fmt.Errorf("archive: record schema v%d: %w", v, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("archive: commit schema v%d: %w", v, err)
		}
	}
	return nil
}

func schemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM archive_schema`).Scan(&v); err != nil {
		return 0, fmt.Errorf("archive: read schema version: %w", err)
	}
	return int(v.Int64), nil
}
