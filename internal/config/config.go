package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains state, log, and control socket locations.
type Paths struct {
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
	SocketPath string `toml:"socket_path"`
}

// Storage selects the persistence backend for folders, stats, and history.
type Storage struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// Watch contains folder watching and write-stability settings.
type Watch struct {
	DefaultFolders       []string `toml:"default_folders"`
	StabilityThresholdMS int      `toml:"stability_threshold_ms"`
	PollIntervalMS       int      `toml:"poll_interval_ms"`
	EventBuffer          int      `toml:"event_buffer"`
	IgnorePatterns       []string `toml:"ignore_patterns"`
	RescanSchedule       string   `toml:"rescan_schedule"`
}

// Organizer contains destination layout settings.
type Organizer struct {
	// DefaultSubfolder is used for watched folders without a rule.
	DefaultSubfolder string `toml:"default_subfolder"`
	// Rules maps a watched folder's base name to its organized subfolder.
	Rules map[string]string `toml:"rules"`
}

// Classifier contains the classification oracle settings.
type Classifier struct {
	Provider       string `toml:"provider"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	SampleChars    int    `toml:"sample_chars"`
	MaxSampleBytes int64  `toml:"max_sample_bytes"`
}

// LLM contains OpenRouter-compatible chat completion settings.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Anthropic contains Claude Messages API settings.
type Anthropic struct {
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens"`
}

// Notifications contains configuration for ntfy push notifications and the activity feed.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Organized      bool   `toml:"organized"`
	Folders        bool   `toml:"folders"`
	Undo           bool   `toml:"undo"`
	Errors         bool   `toml:"errors"`
	ActivityLimit  int    `toml:"activity_limit"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Twinkle.
//
// Configuration sections by subsystem:
//   - Paths: state, log, and socket locations
//   - Storage: json or sqlite persistence of folders, stats, and history
//   - Watch: default folders, stability timing, ignore patterns, rescans
//   - Organizer: per-folder organized subfolder rules
//   - Classifier: oracle provider, timeout, and content sampling
//   - LLM: OpenRouter connection settings
//   - Anthropic: Claude connection settings
//   - Notifications: ntfy push and activity feed settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Storage       Storage       `toml:"storage"`
	Watch         Watch         `toml:"watch"`
	Organizer     Organizer     `toml:"organizer"`
	Classifier    Classifier    `toml:"classifier"`
	LLM           LLM           `toml:"llm"`
	Anthropic     Anthropic     `toml:"anthropic"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("twinkle.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StateDir, c.Paths.LogDir, filepath.Dir(c.Storage.Path), filepath.Dir(c.Paths.SocketPath)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "twinkled.lock")
}

// StabilityThreshold returns how long a file must stay unchanged before it is reported.
func (c *Config) StabilityThreshold() time.Duration {
	return time.Duration(c.Watch.StabilityThresholdMS) * time.Millisecond
}

// PollInterval returns the write-stability polling cadence.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Watch.PollIntervalMS) * time.Millisecond
}

// ClassifierTimeout bounds a single oracle request.
func (c *Config) ClassifierTimeout() time.Duration {
	return time.Duration(c.Classifier.TimeoutSeconds) * time.Second
}

// OrganizedFolderNames returns every reserved organized-subfolder name: the
// default subfolder plus each rule target, sorted and deduplicated.
func (c *Config) OrganizedFolderNames() []string {
	seen := map[string]struct{}{}
	names := make([]string, 0, len(c.Organizer.Rules)+1)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	add(c.Organizer.DefaultSubfolder)
	for _, target := range c.Organizer.Rules {
		add(target)
	}
	slices.Sort(names)
	return names
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the OpenRouter settings consumed by the llm client.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetLLM returns the OpenRouter connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
	}
}
