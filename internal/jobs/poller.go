package jobs

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/sevigo/taxonomy-bot/internal/config"
	"github.com/sevigo/taxonomy-bot/internal/github"
	"github.com/sevigo/taxonomy-bot/internal/history"
	"github.com/sevigo/taxonomy-bot/internal/store"
)

// ResultPoller drains the results queue and posts a result comment on the
// originating pull request. A job id popped from the queue is consumed
// exactly once: if its metadata turns out to be incomplete the job is
// dropped with an error log, never requeued.
type ResultPoller struct {
	cfg     *config.Config
	store   store.JobStore
	clients github.ClientCreator
	history history.Store
	logger  *slog.Logger
}

// NewResultPoller creates a poller that delivers results to the repository
// configured in cfg.
func NewResultPoller(cfg *config.Config, jobStore store.JobStore, clients github.ClientCreator, hist history.Store, logger *slog.Logger) *ResultPoller {
	return &ResultPoller{
		cfg:     cfg,
		store:   jobStore,
		clients: clients,
		history: hist,
		logger:  logger,
	}
}

// Run blocks on the results queue until ctx is cancelled. Each blocking pop
// waits at most cfg.PollTimeout so cancellation is observed promptly even
// when the queue stays empty.
func (p *ResultPoller) Run(ctx context.Context) error {
	p.logger.Info("result poller started", "poll_timeout", p.cfg.PollTimeout)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("result poller stopped")
			return nil
		default:
		}

		jobID, err := p.store.PopResult(ctx, p.cfg.PollTimeout)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) || errors.Is(err, context.Canceled) {
				continue
			}
			p.logger.Error("failed to pop result", "error", err)
			continue
		}

		p.deliver(ctx, jobID)
	}
}

// deliver posts the result comment for one completed job. Failures are
// terminal for the job: the id was already popped, so the job is logged,
// recorded as dropped where that applies, and abandoned.
func (p *ResultPoller) deliver(ctx context.Context, jobID string) {
	id, err := strconv.ParseInt(jobID, 10, 64)
	if err != nil {
		p.logger.Error("malformed job id on results queue", "job_id", jobID, "error", err)
		return
	}

	prField, err := p.store.GetField(ctx, jobID, store.FieldPRNumber)
	if err != nil {
		p.drop(ctx, id, "no PR number found for job", err)
		return
	}
	resultURL, err := p.store.GetField(ctx, jobID, store.FieldResultURL)
	if err != nil {
		p.drop(ctx, id, "no result URL found for job", err)
		return
	}
	installField, err := p.store.GetField(ctx, jobID, store.FieldInstallationID)
	if err != nil {
		p.drop(ctx, id, "no installation ID found for job", err)
		return
	}

	prNumber, err := strconv.Atoi(prField)
	if err != nil {
		p.drop(ctx, id, "malformed PR number for job", err)
		return
	}
	installationID, err := strconv.ParseInt(installField, 10, 64)
	if err != nil {
		p.drop(ctx, id, "malformed installation ID for job", err)
		return
	}

	client, err := p.clients.NewInstallationClient(ctx, installationID)
	if err != nil {
		p.logger.Error("failed to create installation client", "job_id", id, "error", err)
		return
	}

	body := github.ResultComment(resultURL, p.cfg.ResultExpiryDays)
	if err := client.CreateComment(ctx, p.cfg.RepoOwner, p.cfg.RepoName, prNumber, body); err != nil {
		p.logger.Error("failed to post result comment", "job_id", id, "pr", prNumber, "error", err)
		return
	}

	if err := p.history.RecordDelivered(ctx, id, resultURL); err != nil {
		p.logger.Error("failed to record delivered job", "job_id", id, "error", err)
	}
	p.logger.Info("result delivered", "job_id", id, "pr", prNumber)
}

func (p *ResultPoller) drop(ctx context.Context, jobID int64, msg string, err error) {
	p.logger.Error(msg+", dropping", "job_id", jobID, "error", err)
	if err := p.history.RecordDropped(ctx, jobID); err != nil {
		p.logger.Error("failed to record dropped job", "job_id", jobID, "error", err)
	}
}
