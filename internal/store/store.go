// Package store defines the shared job store the bot coordinates through:
// a key-value space for per-job metadata plus two FIFO queues, "generate"
// for submitted work and "results" for completed work. The external worker
// pool consumes "generate" and produces "results"; this package is the
// bot's side of that contract.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a metadata key is absent or a queue pop
// times out with nothing available. Callers must distinguish it from
// transport errors: absence is part of the protocol, not a failure.
var ErrNotFound = errors.New("store: not found")

const (
	counterKey    = "jobs"
	generateQueue = "generate"
	resultsQueue  = "results"
)

// Metadata field names, shared with the external worker.
const (
	FieldPRNumber       = "pr_number"
	FieldInstallationID = "installation_id"
	// FieldResultURL is written by the worker once generation finishes.
	FieldResultURL = "s3_url"
)

// JobKey builds the metadata key for one field of one job,
// e.g. "jobs:5:pr_number".
func JobKey(jobID, field string) string {
	return counterKey + ":" + jobID + ":" + field
}

// JobStore is the bot's contract with the shared job store. Job ids are
// allocated as integers and travel through the queues as decimal strings.
type JobStore interface {
	// NextJobID atomically increments the shared job counter and returns
	// the new value. Ids are strictly increasing and never reused, even
	// across concurrent callers and processes.
	NextJobID(ctx context.Context) (int64, error)

	// SetField writes one metadata field for a job. Fields are written
	// once, before the job id is pushed onto the generate queue, and are
	// read-only thereafter.
	SetField(ctx context.Context, jobID int64, field, value string) error

	// GetField reads one metadata field for a job. Returns ErrNotFound
	// when the field was never written.
	GetField(ctx context.Context, jobID, field string) (string, error)

	// PushGenerate appends the job id to the generate queue, making the
	// job visible to the worker pool.
	PushGenerate(ctx context.Context, jobID int64) error

	// PopResult removes and returns one completed job id from the results
	// queue, blocking up to timeout. Returns ErrNotFound when the wait
	// expires with nothing available. The pop is destructive: an id is
	// handed out at most once.
	PopResult(ctx context.Context, timeout time.Duration) (string, error)

	Close() error
}
