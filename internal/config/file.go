package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParsing  = errors.New("config parsing failed")
)

// fileConfig is the YAML shape of the optional config file. All fields are
// optional; zero values leave the environment-derived value untouched.
type fileConfig struct {
	ServerPort           string `yaml:"server_port"`
	LogLevel             string `yaml:"log_level"`
	LogFormat            string `yaml:"log_format"`
	BotUsername          string `yaml:"bot_username"`
	RedisAddr            string `yaml:"redis_addr"`
	RedisPassword        string `yaml:"redis_password"`
	GitHubAppID          int64  `yaml:"github_app_id"`
	GitHubWebhookSecret  string `yaml:"github_webhook_secret"`
	GitHubPrivateKeyPath string `yaml:"github_private_key_path"`
	RepoOwner            string `yaml:"github_repo_owner"`
	RepoName             string `yaml:"github_repo_name"`
	PollTimeout          string `yaml:"poll_timeout"`
	ResultExpiryDays     int    `yaml:"result_expiry_days"`
	DatabaseURL          string `yaml:"database_url"`
}

// applyConfigFile overlays values from a YAML file onto cfg.
func applyConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigParsing, err)
	}

	if fc.ServerPort != "" {
		cfg.ServerPort = fc.ServerPort
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = parseLogLevel(fc.LogLevel)
	}
	if fc.LogFormat != "" {
		cfg.LogFormat = fc.LogFormat
	}
	if fc.BotUsername != "" {
		cfg.BotUsername = fc.BotUsername
	}
	if fc.RedisAddr != "" {
		cfg.RedisAddr = fc.RedisAddr
	}
	if fc.RedisPassword != "" {
		cfg.RedisPassword = fc.RedisPassword
	}
	if fc.GitHubAppID != 0 {
		cfg.GitHubAppID = fc.GitHubAppID
	}
	if fc.GitHubWebhookSecret != "" {
		cfg.GitHubWebhookSecret = fc.GitHubWebhookSecret
	}
	if fc.GitHubPrivateKeyPath != "" {
		cfg.GitHubPrivateKeyPath = fc.GitHubPrivateKeyPath
	}
	if fc.RepoOwner != "" {
		cfg.RepoOwner = fc.RepoOwner
	}
	if fc.RepoName != "" {
		cfg.RepoName = fc.RepoName
	}
	if fc.PollTimeout != "" {
		d, err := time.ParseDuration(fc.PollTimeout)
		if err != nil {
			return fmt.Errorf("%w: invalid poll_timeout: %w", ErrConfigParsing, err)
		}
		cfg.PollTimeout = d
	}
	if fc.ResultExpiryDays != 0 {
		cfg.ResultExpiryDays = fc.ResultExpiryDays
	}
	if fc.DatabaseURL != "" {
		cfg.DatabaseURL = fc.DatabaseURL
	}
	return nil
}
