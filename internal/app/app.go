// Package app initializes and orchestrates the main components of the bot.
// It wires together the configuration, job store, GitHub clients, dispatcher,
// result poller and HTTP server.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/taxonomy-bot/internal/config"
	"github.com/sevigo/taxonomy-bot/internal/db"
	"github.com/sevigo/taxonomy-bot/internal/github"
	"github.com/sevigo/taxonomy-bot/internal/history"
	"github.com/sevigo/taxonomy-bot/internal/jobs"
	"github.com/sevigo/taxonomy-bot/internal/server"
	"github.com/sevigo/taxonomy-bot/internal/store"
)

// App holds the main application components.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	server   *server.Server
	poller   *jobs.ResultPoller
	jobStore store.JobStore
	dbClose  func()
}

// NewApp sets up the application with all its dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	logger.Info("initializing taxonomy bot",
		"bot", cfg.BotUsername,
		"repo", cfg.RepoOwner+"/"+cfg.RepoName,
		"redis", cfg.RedisAddr)

	jobStore, err := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to job store: %w", err)
	}

	var clients github.ClientCreator
	if cfg.GitHubToken != "" {
		logger.Warn("using personal access token auth, intended for local development only")
		clients = github.NewStaticClientCreator(github.NewPATClient(ctx, cfg.GitHubToken, logger))
	} else {
		clients, err = github.NewClientCreator(cfg.GitHubAppID, cfg.GitHubPrivateKeyPath, logger)
		if err != nil {
			_ = jobStore.Close()
			return nil, fmt.Errorf("failed to create GitHub client creator: %w", err)
		}
	}

	// The job history is optional; without a database the bot runs on the
	// queues alone.
	var hist history.Store = history.NopStore{}
	dbClose := func() {}
	if cfg.DatabaseURL != "" {
		database, cleanup, err := db.NewDatabase(cfg.DatabaseURL)
		if err != nil {
			_ = jobStore.Close()
			return nil, fmt.Errorf("failed to open job history database: %w", err)
		}
		hist = history.NewStore(database.DB)
		dbClose = cleanup
	} else {
		logger.Info("no DATABASE_URL configured, job history disabled")
	}

	dispatcher := jobs.NewCommandDispatcher(cfg, jobStore, clients, hist, logger)
	poller := jobs.NewResultPoller(cfg, jobStore, clients, hist, logger)
	httpServer := server.NewServer(cfg, dispatcher, hist, logger)

	logger.Info("taxonomy bot initialized successfully")
	return &App{
		cfg:      cfg,
		logger:   logger,
		server:   httpServer,
		poller:   poller,
		jobStore: jobStore,
		dbClose:  dbClose,
	}, nil
}

// Start runs the HTTP server and the result poller and blocks until both
// have stopped. The poller stops when ctx is cancelled; the server stops
// when Stop is called.
func (a *App) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.server.Start()
	})
	g.Go(func() error {
		return a.poller.Run(ctx)
	})

	return g.Wait()
}

// Stop shuts down the application cleanly.
func (a *App) Stop() error {
	a.logger.Info("shutting down taxonomy bot")

	// Stop the HTTP server first to prevent new incoming requests.
	serverErr := a.server.Stop()
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
		// Continue to stop other components even if the server failed.
	}

	if err := a.jobStore.Close(); err != nil {
		a.logger.Error("error closing job store", "error", err)
	}
	a.dbClose()

	if serverErr != nil {
		return serverErr
	}
	a.logger.Info("taxonomy bot stopped successfully")
	return nil
}
