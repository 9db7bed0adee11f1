package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sevigo/taxonomy-bot/internal/app"
	"github.com/sevigo/taxonomy-bot/internal/config"
	"github.com/sevigo/taxonomy-bot/internal/logger"
)

// flagKeys maps command-line flags onto the config keys they override.
var flagKeys = map[string]string{
	"server-port":  "SERVER_PORT",
	"redis-addr":   "REDIS_ADDR",
	"bot-username": "BOT_USERNAME",
	"log-level":    "LOG_LEVEL",
	"log-format":   "LOG_FORMAT",
	"config-file":  "CONFIG_FILE",
}

var rootCmd = &cobra.Command{
	Use:   "taxonomy-bot",
	Short: "Bot that receives GitHub events and queues test-data generation jobs",
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		bindFlags(cmd)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmd.SilenceUsage = true
		return run()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("server-port", "", "HTTP port to bind to")
	flags.String("redis-addr", "", "The Redis instance to connect to")
	flags.String("bot-username", "", "The mention token of the bot, e.g. @taxonomy-bot")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (text, json, console)")
	flags.String("config-file", "", "Optional YAML config file applied on top of the environment")
}

// bindFlags pushes explicitly set flags into viper so they take precedence
// over environment variables and the .env file.
func bindFlags(cmd *cobra.Command) {
	for flag, key := range flagKeys {
		if f := cmd.PersistentFlags().Lookup(flag); f != nil && f.Changed {
			viper.Set(key, f.Value.String())
		}
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.NewLogger(logger.Config{
		Level:  cfg.LogLevel.String(),
		Format: cfg.LogFormat,
	}, os.Stdout)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bot, err := app.NewApp(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- bot.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			log.Error("application error", "error", err)
			_ = bot.Stop()
			return err
		}
		return bot.Stop()
	}

	if err := bot.Stop(); err != nil {
		return fmt.Errorf("failed to stop application: %w", err)
	}
	// Wait for the poller goroutine to wind down.
	<-errCh
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("application failed to run", "error", err)
		os.Exit(1)
	}
}
