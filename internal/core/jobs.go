package core

import (
	"context"
	"time"
)

// Dispatcher defines the contract for the component that turns validated
// webhook events into queued jobs and user-visible replies. It decouples the
// HTTP webhook handler from the job submission mechanism.
type Dispatcher interface {
	// HandleComment processes a comment addressed to the bot: it replies on
	// the issue and, for a valid generate command on a pull request,
	// allocates a job id, persists its metadata and pushes it onto the
	// generate queue.
	HandleComment(ctx context.Context, event *CommentEvent) error
	// HandlePullRequestOpened posts the bot's welcome comment on a newly
	// opened pull request.
	HandlePullRequestOpened(ctx context.Context, event *PullRequestEvent) error
}

// JobStatus is the lifecycle state recorded in the optional job history.
// The queues remain the source of truth; history is observability only.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusDelivered JobStatus = "delivered"
	StatusDropped   JobStatus = "dropped"
)

// JobRecord is one row of the optional job history.
type JobRecord struct {
	JobID          int64     `db:"job_id" json:"job_id"`
	PRNumber       int       `db:"pr_number" json:"pr_number"`
	InstallationID int64     `db:"installation_id" json:"installation_id"`
	Status         JobStatus `db:"status" json:"status"`
	ResultURL      string    `db:"result_url" json:"result_url"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
