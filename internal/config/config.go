// Package config provides configuration loading, validation, and management
// for the analyzer bot. It handles reading from YAML files, environment
// variables, setting default values, and validating configuration parameters.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// LoggerConfig controls log output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DiscordConfig holds Discord connection settings.
type DiscordConfig struct {
	Token         string `mapstructure:"token" validate:"required"`
	GuildID       string `mapstructure:"guild_id"`
	CommandPrefix string `mapstructure:"command_prefix" validate:"required"`
}

// GeminiConfig holds settings for the Gemini API client.
type GeminiConfig struct {
	APIKey            string  `mapstructure:"api_key" validate:"required"`
	ModelName         string  `mapstructure:"model_name" validate:"required"`
	Temperature       float32 `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"min=0,max=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"min=1,max=60"`
}

// AnalysisConfig tunes the customer-intent analysis pipeline.
type AnalysisConfig struct {
	// Keywords steer the model's attention toward customer-intent phrases.
	Keywords []string `mapstructure:"keywords" validate:"required,min=1"`

	// MaxBatchTokens bounds the message content tokens per model request,
	// leaving room for the surrounding prompt.
	MaxBatchTokens int `mapstructure:"max_batch_tokens" validate:"min=100,max=100000"`

	// RateLimitDelay is the pause between consecutive model calls in a run.
	RateLimitDelay time.Duration `mapstructure:"rate_limit_delay" validate:"min=0,max=30s"`

	// FetchDelay is the pause between paged Discord history requests.
	FetchDelay time.Duration `mapstructure:"fetch_delay" validate:"min=0,max=30s"`

	MaxMessagesPerChannel int `mapstructure:"max_messages_per_channel" validate:"min=1,max=100000"`
	DefaultLookbackDays   int `mapstructure:"default_lookback_days" validate:"min=1,max=3650"`
}

// TaskConfig enables and schedules a single background task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig holds per-task scheduling settings keyed by task name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// Config defines the application configuration parameters for all components.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Discord   DiscordConfig   `mapstructure:"discord"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

// LoadConfig reads configuration from the given YAML file, overlays
// BOT_-prefixed environment variables, fills defaults, and validates the
// result. Missing credentials are a fatal startup error, surfaced here
// before any component starts.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing file is tolerated (env vars may carry everything);
	// a malformed file is not.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	v.SetDefault("discord.command_prefix", "!")

	v.SetDefault("gemini.model_name", "gemini-2.0-flash")
	v.SetDefault("gemini.temperature", 0.3)
	v.SetDefault("gemini.max_retries", 3)
	v.SetDefault("gemini.retry_delay_seconds", 2)

	v.SetDefault("analysis.keywords", []string{
		"looking for", "need help with", "does anyone know", "recommendation",
		"suggest", "problem with", "issue with", "frustrated with", "solution for",
	})
	v.SetDefault("analysis.max_batch_tokens", 3000)
	v.SetDefault("analysis.rate_limit_delay", 500*time.Millisecond)
	v.SetDefault("analysis.fetch_delay", time.Second)
	v.SetDefault("analysis.max_messages_per_channel", 1000)
	v.SetDefault("analysis.default_lookback_days", 30)

	v.SetDefault("database.path", "prospector.db")
}
