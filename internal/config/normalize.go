package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	if err := c.normalizeWatch(); err != nil {
		return err
	}
	c.normalizeOrganizer()
	c.normalizeClassifier()
	c.normalizeLLM()
	c.normalizeAnthropic()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = filepath.Join(c.Paths.StateDir, socketFile)
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		name := storageJSONFile
		if c.Storage.Backend == StorageSQLite {
			name = storageSQLiteFile
		}
		c.Storage.Path = filepath.Join(c.Paths.StateDir, name)
	}
	var err error
	if c.Storage.Path, err = expandPath(c.Storage.Path); err != nil {
		return fmt.Errorf("storage.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeWatch() error {
	folders := make([]string, 0, len(c.Watch.DefaultFolders))
	seen := make(map[string]struct{}, len(c.Watch.DefaultFolders))
	for _, folder := range c.Watch.DefaultFolders {
		if strings.TrimSpace(folder) == "" {
			continue
		}
		expanded, err := expandPath(strings.TrimSpace(folder))
		if err != nil {
			return fmt.Errorf("watch.default_folders: %w", err)
		}
		if _, ok := seen[expanded]; ok {
			continue
		}
		seen[expanded] = struct{}{}
		folders = append(folders, expanded)
	}
	c.Watch.DefaultFolders = folders
	if c.Watch.StabilityThresholdMS <= 0 {
		c.Watch.StabilityThresholdMS = defaultStabilityThresholdMS
	}
	if c.Watch.PollIntervalMS <= 0 {
		c.Watch.PollIntervalMS = defaultPollIntervalMS
	}
	if c.Watch.EventBuffer <= 0 {
		c.Watch.EventBuffer = defaultEventBuffer
	}
	patterns := make([]string, 0, len(c.Watch.IgnorePatterns))
	for _, pattern := range c.Watch.IgnorePatterns {
		if trimmed := strings.TrimSpace(pattern); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	c.Watch.IgnorePatterns = patterns
	c.Watch.RescanSchedule = strings.TrimSpace(c.Watch.RescanSchedule)
	return nil
}

func (c *Config) normalizeOrganizer() {
	c.Organizer.DefaultSubfolder = strings.TrimSpace(c.Organizer.DefaultSubfolder)
	if c.Organizer.DefaultSubfolder == "" {
		c.Organizer.DefaultSubfolder = defaultOrganizedSubfolder
	}
	if c.Organizer.Rules == nil {
		c.Organizer.Rules = map[string]string{}
	}
	rules := make(map[string]string, len(c.Organizer.Rules))
	for folder, target := range c.Organizer.Rules {
		folder = strings.TrimSpace(folder)
		target = strings.TrimSpace(target)
		if folder == "" || target == "" {
			continue
		}
		rules[folder] = target
	}
	c.Organizer.Rules = rules
}

func (c *Config) normalizeClassifier() {
	c.Classifier.Provider = strings.ToLower(strings.TrimSpace(c.Classifier.Provider))
	if c.Classifier.Provider == "" {
		c.Classifier.Provider = defaultClassifierProvider
	}
	if c.Classifier.TimeoutSeconds <= 0 {
		c.Classifier.TimeoutSeconds = defaultClassifierTimeout
	}
	if c.Classifier.SampleChars <= 0 {
		c.Classifier.SampleChars = defaultSampleChars
	}
	if c.Classifier.MaxSampleBytes <= 0 {
		c.Classifier.MaxSampleBytes = defaultMaxSampleBytes
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeAnthropic() {
	c.Anthropic.Model = strings.TrimSpace(c.Anthropic.Model)
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = defaultAnthropicModel
	}
	if c.Anthropic.MaxTokens <= 0 {
		c.Anthropic.MaxTokens = defaultAnthropicMaxTokens
	}
	c.Anthropic.APIKey = strings.TrimSpace(c.Anthropic.APIKey)
	if c.Anthropic.APIKey == "" {
		if value, ok := os.LookupEnv("ANTHROPIC_API_KEY"); ok {
			c.Anthropic.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("TWINKLE_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.ActivityLimit <= 0 {
		c.Notifications.ActivityLimit = defaultNotifyActivityLimit
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
