package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mveiga/prospector/internal/config"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, `
discord:
  token: "test-token"
gemini:
  api_key: "test-key"
`)

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Logger.Level != "info" {
		t.Errorf("logger level default: got %q, want info", cfg.Logger.Level)
	}
	if cfg.Discord.CommandPrefix != "!" {
		t.Errorf("command prefix default: got %q, want !", cfg.Discord.CommandPrefix)
	}
	if cfg.Gemini.ModelName == "" {
		t.Error("model name default missing")
	}
	if cfg.Analysis.MaxBatchTokens != 3000 {
		t.Errorf("max batch tokens default: got %d, want 3000", cfg.Analysis.MaxBatchTokens)
	}
	if cfg.Analysis.RateLimitDelay != 500*time.Millisecond {
		t.Errorf("rate limit delay default: got %v, want 500ms", cfg.Analysis.RateLimitDelay)
	}
	if len(cfg.Analysis.Keywords) == 0 {
		t.Error("keyword defaults missing")
	}
	if cfg.Database.Path == "" {
		t.Error("database path default missing")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfigFile(t, `
logger:
  level: debug
  json: true
discord:
  token: "test-token"
  command_prefix: "?"
gemini:
  api_key: "test-key"
  model_name: "gemini-2.5-pro"
analysis:
  max_batch_tokens: 1500
  default_lookback_days: 7
`)

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Logger.Level != "debug" || !cfg.Logger.JSON {
		t.Errorf("logger overrides not applied: %+v", cfg.Logger)
	}
	if cfg.Discord.CommandPrefix != "?" {
		t.Errorf("command prefix override: got %q", cfg.Discord.CommandPrefix)
	}
	if cfg.Gemini.ModelName != "gemini-2.5-pro" {
		t.Errorf("model name override: got %q", cfg.Gemini.ModelName)
	}
	if cfg.Analysis.MaxBatchTokens != 1500 || cfg.Analysis.DefaultLookbackDays != 7 {
		t.Errorf("analysis overrides not applied: %+v", cfg.Analysis)
	}
}

func TestLoadConfigMissingCredentials(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{
			name: "missing discord token",
			contents: `
gemini:
  api_key: "test-key"
`,
		},
		{
			name: "missing gemini api key",
			contents: `
discord:
  token: "test-token"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.contents)
			if _, err := config.LoadConfig(path); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadConfigInvalidLevel(t *testing.T) {
	path := writeConfigFile(t, `
logger:
  level: verbose
discord:
  token: "test-token"
gemini:
  api_key: "test-key"
`)

	if _, err := config.LoadConfig(path); err == nil {
		t.Error("expected validation error for unknown log level, got nil")
	}
}
