package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateOrganizer(); err != nil {
		return err
	}
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case StorageJSON, StorageSQLite:
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", StorageJSON, StorageSQLite, c.Storage.Backend)
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		return errors.New("storage.path must be set")
	}
	return nil
}

func (c *Config) validateWatch() error {
	if err := ensurePositiveMap(map[string]int{
		"watch.stability_threshold_ms": c.Watch.StabilityThresholdMS,
		"watch.poll_interval_ms":       c.Watch.PollIntervalMS,
		"watch.event_buffer":           c.Watch.EventBuffer,
	}); err != nil {
		return err
	}
	if c.Watch.PollIntervalMS > c.Watch.StabilityThresholdMS {
		return errors.New("watch.poll_interval_ms must not exceed watch.stability_threshold_ms")
	}
	for _, pattern := range c.Watch.IgnorePatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("watch.ignore_patterns: invalid pattern %q: %w", pattern, err)
		}
	}
	if c.Watch.RescanSchedule != "" {
		if _, err := cron.ParseStandard(c.Watch.RescanSchedule); err != nil {
			return fmt.Errorf("watch.rescan_schedule: %w", err)
		}
	}
	return nil
}

func (c *Config) validateOrganizer() error {
	if err := validateSegment("organizer.default_subfolder", c.Organizer.DefaultSubfolder); err != nil {
		return err
	}
	for folder, target := range c.Organizer.Rules {
		if err := validateSegment(fmt.Sprintf("organizer.rules.%s", folder), target); err != nil {
			return err
		}
	}
	return nil
}

func validateSegment(key, value string) error {
	if value == "" {
		return fmt.Errorf("%s must be set", key)
	}
	if value == "." || value == ".." || strings.ContainsAny(value, `/\`) {
		return fmt.Errorf("%s must be a single folder name, got %q", key, value)
	}
	if strings.HasPrefix(value, ".") {
		return fmt.Errorf("%s must not be a hidden folder, got %q", key, value)
	}
	return nil
}

func (c *Config) validateClassifier() error {
	switch c.Classifier.Provider {
	case ProviderAnthropic, ProviderOpenRouter, ProviderNone:
	default:
		return fmt.Errorf("classifier.provider must be one of %q, %q, %q; got %q",
			ProviderAnthropic, ProviderOpenRouter, ProviderNone, c.Classifier.Provider)
	}
	if c.Classifier.TimeoutSeconds <= 0 {
		return errors.New("classifier.timeout_seconds must be positive")
	}
	if c.Classifier.SampleChars <= 0 {
		return errors.New("classifier.sample_chars must be positive")
	}
	if c.Classifier.MaxSampleBytes <= 0 {
		return errors.New("classifier.max_sample_bytes must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	if c.Notifications.ActivityLimit <= 0 {
		return errors.New("notifications.activity_limit must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
