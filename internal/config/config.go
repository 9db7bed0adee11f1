package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application's configuration values.
type Config struct {
	ServerPort string
	LogLevel   slog.Level
	LogFormat  string

	// BotUsername is the mention token a comment must start with to be
	// treated as a command, e.g. "@taxonomy-bot".
	BotUsername string

	RedisAddr     string
	RedisPassword string

	GitHubAppID          int64
	GitHubWebhookSecret  string
	GitHubPrivateKeyPath string

	// GitHubToken switches the bot to personal-access-token auth. Intended
	// for local development; installation ids on events are then ignored.
	GitHubToken string

	// RepoOwner/RepoName identify the repository the poller posts result
	// comments to. The results queue carries only the PR number.
	RepoOwner string
	RepoName  string

	PollTimeout      time.Duration
	ResultExpiryDays int

	// DatabaseURL enables the Postgres job history when set.
	DatabaseURL string
}

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults, and validates required fields. An optional YAML
// config file (CONFIG_FILE) is applied on top of the environment values.
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("BOT_USERNAME", "@taxonomy-bot")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("GITHUB_PRIVATE_KEY_PATH", "keys/taxonomy-bot.private-key.pem")
	viper.SetDefault("GITHUB_REPO_OWNER", "instruct-lab")
	viper.SetDefault("GITHUB_REPO_NAME", "taxonomy")
	viper.SetDefault("POLL_TIMEOUT", "5s")
	viper.SetDefault("RESULT_EXPIRY_DAYS", 5)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", "error", err)
		}
	}

	cfg := &Config{
		ServerPort:           viper.GetString("SERVER_PORT"),
		LogLevel:             parseLogLevel(viper.GetString("LOG_LEVEL")),
		LogFormat:            viper.GetString("LOG_FORMAT"),
		BotUsername:          viper.GetString("BOT_USERNAME"),
		RedisAddr:            viper.GetString("REDIS_ADDR"),
		RedisPassword:        viper.GetString("REDIS_PASSWORD"),
		GitHubAppID:          viper.GetInt64("GITHUB_APP_ID"),
		GitHubWebhookSecret:  viper.GetString("GITHUB_WEBHOOK_SECRET"),
		GitHubPrivateKeyPath: viper.GetString("GITHUB_PRIVATE_KEY_PATH"),
		GitHubToken:          viper.GetString("GITHUB_TOKEN"),
		RepoOwner:            viper.GetString("GITHUB_REPO_OWNER"),
		RepoName:             viper.GetString("GITHUB_REPO_NAME"),
		PollTimeout:          viper.GetDuration("POLL_TIMEOUT"),
		ResultExpiryDays:     viper.GetInt("RESULT_EXPIRY_DAYS"),
		DatabaseURL:          viper.GetString("DATABASE_URL"),
	}

	if path := viper.GetString("CONFIG_FILE"); path != "" {
		if err := applyConfigFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required fields are set and values are sane.
func (c *Config) Validate() error {
	if c.GitHubAppID == 0 && c.GitHubToken == "" {
		return fmt.Errorf("either GITHUB_APP_ID or GITHUB_TOKEN must be set")
	}
	if c.GitHubWebhookSecret == "" {
		return fmt.Errorf("GITHUB_WEBHOOK_SECRET must be set")
	}
	if !strings.HasPrefix(c.BotUsername, "@") {
		return fmt.Errorf("BOT_USERNAME must start with '@', got %q", c.BotUsername)
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("POLL_TIMEOUT must be positive, got %s", c.PollTimeout)
	}
	if c.ResultExpiryDays <= 0 {
		return fmt.Errorf("RESULT_EXPIRY_DAYS must be positive, got %d", c.ResultExpiryDays)
	}
	return nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		return slog.LevelInfo
	default:
		slog.Warn("unrecognized log level, defaulting to info", "provided", s)
		return slog.LevelInfo
	}
}
