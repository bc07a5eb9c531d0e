package db

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS assessments (
		id          TEXT PRIMARY KEY,
		job_id      TEXT NOT NULL DEFAULT '',
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		document    JSONB NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_assessments_job_created
		ON assessments (job_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS assessment_responses (
		id               BIGSERIAL PRIMARY KEY,
		assessment_id    TEXT NOT NULL REFERENCES assessments(id) ON DELETE CASCADE,
		job_id           TEXT NOT NULL DEFAULT '',
		candidate_id     TEXT NOT NULL,
		responses        JSONB NOT NULL DEFAULT '{}'::jsonb,
		responses_digest TEXT NOT NULL DEFAULT '',
		submitted_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_assessment_responses_lookup
		ON assessment_responses (assessment_id, job_id, candidate_id)`,
}

// EnsureSchema creates the tables the store needs. It is idempotent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
