package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"twinkle/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("ANTHROPIC_API_KEY", "env-anthropic")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "twinkle")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.SocketPath != filepath.Join(wantState, "twinkle.sock") {
		t.Fatalf("unexpected socket path: %q", cfg.Paths.SocketPath)
	}
	if cfg.Storage.Backend != config.StorageJSON {
		t.Fatalf("unexpected storage backend: %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Path != filepath.Join(wantState, "config.json") {
		t.Fatalf("unexpected storage path: %q", cfg.Storage.Path)
	}
	if len(cfg.Watch.DefaultFolders) != 1 || cfg.Watch.DefaultFolders[0] != filepath.Join(tempHome, "Downloads") {
		t.Fatalf("unexpected default folders: %v", cfg.Watch.DefaultFolders)
	}
	if cfg.StabilityThreshold() != time.Second {
		t.Fatalf("unexpected stability threshold: %s", cfg.StabilityThreshold())
	}
	if cfg.PollInterval() != 100*time.Millisecond {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
	if cfg.ClassifierTimeout() != 30*time.Second {
		t.Fatalf("unexpected classifier timeout: %s", cfg.ClassifierTimeout())
	}
	if cfg.Organizer.Rules["Downloads"] != "Downloads_Organized" {
		t.Fatalf("expected default Downloads rule, got %v", cfg.Organizer.Rules)
	}
	if cfg.Anthropic.APIKey != "env-anthropic" {
		t.Fatalf("expected anthropic key from env, got %q", cfg.Anthropic.APIKey)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "twinkle.toml")

	type payload struct {
		Storage struct {
			Backend string `toml:"backend"`
		} `toml:"storage"`
		Organizer struct {
			DefaultSubfolder string            `toml:"default_subfolder"`
			Rules            map[string]string `toml:"rules"`
		} `toml:"organizer"`
		Classifier struct {
			Provider string `toml:"provider"`
		} `toml:"classifier"`
		Paths struct {
			StateDir string `toml:"state_dir"`
		} `toml:"paths"`
	}
	custom := payload{}
	custom.Storage.Backend = "SQLite"
	custom.Organizer.DefaultSubfolder = "Sorted"
	custom.Organizer.Rules = map[string]string{"Inbox": "Inbox_Sorted"}
	custom.Classifier.Provider = "none"
	custom.Paths.StateDir = tempDir
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Storage.Backend != config.StorageSQLite {
		t.Fatalf("expected normalized sqlite backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Path != filepath.Join(tempDir, "twinkle.db") {
		t.Fatalf("unexpected sqlite path: %q", cfg.Storage.Path)
	}
	if cfg.Classifier.Provider != config.ProviderNone {
		t.Fatalf("unexpected provider: %q", cfg.Classifier.Provider)
	}
	if cfg.Organizer.Rules["Inbox"] != "Inbox_Sorted" {
		t.Fatalf("expected custom rule, got %v", cfg.Organizer.Rules)
	}

	names := cfg.OrganizedFolderNames()
	if !contains(names, "Sorted") || !contains(names, "Inbox_Sorted") {
		t.Fatalf("expected reserved names to include custom targets, got %v", names)
	}
}

func TestEnvFillsMissingSecrets(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "twinkle.toml")

	type payload struct {
		LLM struct {
			APIKey string `toml:"api_key"`
		} `toml:"llm"`
	}
	custom := payload{}
	custom.LLM.APIKey = "file-openrouter"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("OPENROUTER_API_KEY", "env-openrouter")
	t.Setenv("ANTHROPIC_API_KEY", "env-anthropic")
	t.Setenv("TWINKLE_NTFY_TOPIC", "https://ntfy.sh/twinkle")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "file-openrouter" {
		t.Errorf("expected file key to win, got %q", cfg.LLM.APIKey)
	}
	if cfg.Anthropic.APIKey != "env-anthropic" {
		t.Errorf("expected anthropic key from env, got %q", cfg.Anthropic.APIKey)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/twinkle" {
		t.Errorf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_anthropic_api_key_here") {
		t.Fatalf("sample config missing placeholder key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.StateDir, "twinkle") {
		t.Fatalf("expected state dir to contain twinkle, got %q", cfg.Paths.StateDir)
	}
	if cfg.Organizer.Rules["Desktop"] != "Desktop_Organized" {
		t.Fatalf("expected Desktop rule in sample, got %v", cfg.Organizer.Rules)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown backend", func(c *config.Config) { c.Storage.Backend = "redis" }},
		{"zero stability", func(c *config.Config) { c.Watch.StabilityThresholdMS = 0 }},
		{"poll slower than threshold", func(c *config.Config) { c.Watch.PollIntervalMS = 5000 }},
		{"bad glob", func(c *config.Config) { c.Watch.IgnorePatterns = []string{"[abc"} }},
		{"bad cron", func(c *config.Config) { c.Watch.RescanSchedule = "every tuesday" }},
		{"nested subfolder", func(c *config.Config) { c.Organizer.DefaultSubfolder = "a/b" }},
		{"dot rule", func(c *config.Config) { c.Organizer.Rules["Desktop"] = ".." }},
		{"unknown provider", func(c *config.Config) { c.Classifier.Provider = "gpt" }},
		{"zero timeout", func(c *config.Config) { c.Classifier.TimeoutSeconds = 0 }},
		{"zero activity limit", func(c *config.Config) { c.Notifications.ActivityLimit = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Storage.Path = filepath.Join(t.TempDir(), "config.json")
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "config.json")
	cfg.Watch.RescanSchedule = "@every 1h"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
