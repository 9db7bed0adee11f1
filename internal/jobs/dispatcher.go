// Package jobs implements the bot's job handoff: the dispatcher that turns
// validated comment commands into queued work, and the poller that delivers
// finished results back to GitHub.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/sevigo/taxonomy-bot/internal/config"
	"github.com/sevigo/taxonomy-bot/internal/core"
	"github.com/sevigo/taxonomy-bot/internal/github"
	"github.com/sevigo/taxonomy-bot/internal/history"
	"github.com/sevigo/taxonomy-bot/internal/store"
)

// CommandDispatcher turns comment commands into queued generation jobs and
// replies to the commenter. Each invocation is independent; all shared
// state lives in the job store, whose atomic increment keeps job ids unique
// across concurrent webhook deliveries and across bot replicas.
type CommandDispatcher struct {
	cfg     *config.Config
	store   store.JobStore
	clients github.ClientCreator
	history history.Store
	logger  *slog.Logger
}

// NewCommandDispatcher creates a dispatcher backed by the given job store.
func NewCommandDispatcher(cfg *config.Config, jobStore store.JobStore, clients github.ClientCreator, hist history.Store, logger *slog.Logger) core.Dispatcher {
	return &CommandDispatcher{
		cfg:     cfg,
		store:   jobStore,
		clients: clients,
		history: hist,
		logger:  logger,
	}
}

// HandleComment processes one comment addressed to the bot. Every branch
// posts exactly one reply; only the valid-generate-on-PR branch touches the
// job store. Errors propagate to the webhook handler so GitHub's redelivery
// can retry the whole event; redelivered events are not deduplicated and
// produce a second ack and a second job.
func (d *CommandDispatcher) HandleComment(ctx context.Context, event *core.CommentEvent) error {
	client, err := d.clients.NewInstallationClient(ctx, event.InstallationID)
	if err != nil {
		return fmt.Errorf("failed to create installation client: %w", err)
	}

	if event.Command != core.CommandGenerate {
		return client.CreateComment(ctx, event.RepoOwner, event.RepoName, event.IssueNumber,
			github.UnknownCommandComment(d.cfg.BotUsername))
	}

	if !event.IsPullRequest {
		return client.CreateComment(ctx, event.RepoOwner, event.RepoName, event.IssueNumber,
			github.NotPullRequestComment())
	}

	if err := client.CreateComment(ctx, event.RepoOwner, event.RepoName, event.IssueNumber, github.AckComment()); err != nil {
		return fmt.Errorf("failed to post ack comment: %w", err)
	}

	return d.submit(ctx, event)
}

// submit allocates a job id, persists the job's metadata and makes the job
// visible to the worker pool. Metadata is written before the queue push so
// a worker can never observe a job without its PR number.
func (d *CommandDispatcher) submit(ctx context.Context, event *core.CommentEvent) error {
	jobID, err := d.store.NextJobID(ctx)
	if err != nil {
		return fmt.Errorf("failed to allocate job id: %w", err)
	}

	if err := d.store.SetField(ctx, jobID, store.FieldPRNumber, strconv.Itoa(event.IssueNumber)); err != nil {
		return fmt.Errorf("failed to persist pr_number for job %d: %w", jobID, err)
	}
	if event.InstallationID != 0 {
		if err := d.store.SetField(ctx, jobID, store.FieldInstallationID, strconv.FormatInt(event.InstallationID, 10)); err != nil {
			return fmt.Errorf("failed to persist installation_id for job %d: %w", jobID, err)
		}
	}

	if err := d.store.PushGenerate(ctx, jobID); err != nil {
		return fmt.Errorf("failed to enqueue job %d: %w", jobID, err)
	}

	if err := d.history.RecordPending(ctx, jobID, event.IssueNumber, event.InstallationID); err != nil {
		// History is observability only; a failed record never fails the
		// submission.
		d.logger.Error("failed to record pending job", "job_id", jobID, "error", err)
	}

	d.logger.Info("generation job queued",
		"job_id", jobID,
		"pr", event.IssueNumber,
		"repo", event.RepoOwner+"/"+event.RepoName,
	)
	return nil
}

// HandlePullRequestOpened posts the bot's welcome comment on a freshly
// opened pull request.
func (d *CommandDispatcher) HandlePullRequestOpened(ctx context.Context, event *core.PullRequestEvent) error {
	client, err := d.clients.NewInstallationClient(ctx, event.InstallationID)
	if err != nil {
		return fmt.Errorf("failed to create installation client: %w", err)
	}
	return client.CreateComment(ctx, event.RepoOwner, event.RepoName, event.PRNumber,
		github.WelcomeComment(d.cfg.BotUsername))
}
