// Package history records job lifecycle transitions in Postgres for
// observability. It is optional: when no database is configured the bot
// uses the no-op store. The Redis queues remain the source of truth for
// the job lifecycle; nothing reads the history to make decisions.
package history

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/sevigo/taxonomy-bot/internal/core"
)

// Store captures job lifecycle transitions and serves them back for
// inspection. Implementations must be safe for concurrent use by the
// dispatcher, the poller and the HTTP API.
type Store interface {
	// RecordPending records a freshly submitted job.
	RecordPending(ctx context.Context, jobID int64, prNumber int, installationID int64) error
	// RecordDelivered records that the result comment was posted.
	RecordDelivered(ctx context.Context, jobID int64, resultURL string) error
	// RecordDropped records a job abandoned because its metadata was
	// incomplete at delivery time.
	RecordDropped(ctx context.Context, jobID int64) error
	// Recent returns the most recently updated jobs, newest first.
	Recent(ctx context.Context, limit int) ([]core.JobRecord, error)
}

type postgresStore struct {
	db *sqlx.DB
}

// NewStore creates a Postgres-backed history store.
func NewStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) RecordPending(ctx context.Context, jobID int64, prNumber int, installationID int64) error {
	query := `
		INSERT INTO job_history (job_id, pr_number, installation_id, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (job_id) DO NOTHING`
	_, err := s.db.ExecContext(ctx, query, jobID, prNumber, installationID, core.StatusPending)
	return err
}

func (s *postgresStore) RecordDelivered(ctx context.Context, jobID int64, resultURL string) error {
	return s.upsertStatus(ctx, jobID, core.StatusDelivered, resultURL)
}

func (s *postgresStore) RecordDropped(ctx context.Context, jobID int64) error {
	return s.upsertStatus(ctx, jobID, core.StatusDropped, "")
}

// upsertStatus tolerates jobs submitted before the history was enabled:
// a terminal transition for an unknown job inserts a bare row instead of
// updating nothing.
func (s *postgresStore) upsertStatus(ctx context.Context, jobID int64, status core.JobStatus, resultURL string) error {
	query := `
		INSERT INTO job_history (job_id, status, result_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_id) DO UPDATE
		SET status = EXCLUDED.status, result_url = EXCLUDED.result_url, updated_at = now()`
	_, err := s.db.ExecContext(ctx, query, jobID, status, resultURL)
	return err
}

func (s *postgresStore) Recent(ctx context.Context, limit int) ([]core.JobRecord, error) {
	query := `
		SELECT job_id, pr_number, installation_id, status, result_url, created_at, updated_at
		FROM job_history
		ORDER BY updated_at DESC
		LIMIT $1`

	var records []core.JobRecord
	if err := s.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, err
	}
	return records, nil
}

// NopStore discards all records and reports an empty history. Used when no
// database is configured.
type NopStore struct{}

func (NopStore) RecordPending(context.Context, int64, int, int64) error { return nil }
func (NopStore) RecordDelivered(context.Context, int64, string) error   { return nil }
func (NopStore) RecordDropped(context.Context, int64) error             { return nil }
func (NopStore) Recent(context.Context, int) ([]core.JobRecord, error)  { return nil, nil }
