package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/indexbuild/pipeline/pkg/postgres"
)

// JobStore persists build-job status transitions to PostgreSQL so an
// operator can inspect in-flight and historical jobs without tailing logs.
type JobStore struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewJobStore wraps a Postgres client as a JobStore.
func NewJobStore(db *postgres.Client) *JobStore {
	return &JobStore{db: db, logger: slog.Default().With("component", "job-store")}
}

// CreateJob inserts a new job row in the "running" status.
func (s *JobStore) CreateJob(ctx context.Context, jobID, collectionID, collectionPath string) error {
	_, err := s.db.DB.ExecContext(ctx,
		`INSERT INTO build_jobs (job_id, collection_id, collection_path, status, created_at)
		 VALUES ($1, $2, $3, 'running', NOW())`,
		jobID, collectionID, collectionPath,
	)
	if err != nil {
		return fmt.Errorf("creating job %s: %w", jobID, err)
	}
	return nil
}

// MarkCompleted records a successful build, along with the resulting
// counts, for later inspection.
func (s *JobStore) MarkCompleted(ctx context.Context, jobID string, docsIndexed, termsIndexed, blocksWritten int) error {
	_, err := s.db.DB.ExecContext(ctx,
		`UPDATE build_jobs
		 SET status = 'completed', docs_indexed = $2, terms_indexed = $3, blocks_written = $4, completed_at = NOW()
		 WHERE job_id = $1`,
		jobID, docsIndexed, termsIndexed, blocksWritten,
	)
	if err != nil {
		return fmt.Errorf("marking job %s completed: %w", jobID, err)
	}
	return nil
}

// MarkFailed records a job failure and its reason.
func (s *JobStore) MarkFailed(ctx context.Context, jobID, reason string) error {
	_, err := s.db.DB.ExecContext(ctx,
		`UPDATE build_jobs SET status = 'failed', error = $2, completed_at = NOW() WHERE job_id = $1`,
		jobID, reason,
	)
	if err != nil {
		return fmt.Errorf("marking job %s failed: %w", jobID, err)
	}
	return nil
}

// EnsureSchema creates the build_jobs table if it does not already exist.
// Migrations for a real deployment would live outside the binary; this
// keeps local development and tests self-contained.
func (s *JobStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS build_jobs (
			job_id          TEXT PRIMARY KEY,
			collection_id   TEXT NOT NULL,
			collection_path TEXT NOT NULL,
			status          TEXT NOT NULL,
			docs_indexed    INTEGER,
			terms_indexed   INTEGER,
			blocks_written  INTEGER,
			error           TEXT,
			created_at      TIMESTAMPTZ NOT NULL,
			completed_at    TIMESTAMPTZ
		)
	`)
	if err != nil {
		return fmt.Errorf("ensuring build_jobs schema: %w", err)
	}
	return nil
}
