package testsupport

import (
	"path/filepath"
	"testing"

	"twinkle/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The classifier oracle is disabled so tests never reach the network.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.SocketPath = filepath.Join(base, "state", "twinkle.sock")
	cfgVal.Storage.Backend = config.StorageJSON
	cfgVal.Storage.Path = filepath.Join(base, "state", "config.json")
	cfgVal.Watch.DefaultFolders = nil
	cfgVal.Watch.StabilityThresholdMS = 50
	cfgVal.Watch.PollIntervalMS = 10
	cfgVal.Watch.RescanSchedule = ""
	cfgVal.Classifier.Provider = config.ProviderNone
	cfgVal.LLM.APIKey = ""
	cfgVal.Anthropic.APIKey = ""
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSQLite switches the test config to the SQLite storage backend.
func WithSQLite() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Storage.Backend = config.StorageSQLite
		b.cfg.Storage.Path = filepath.Join(b.baseDir, "state", "twinkle.db")
	}
}

// WithRule maps a watched folder base name to an organized subfolder.
func WithRule(folderName, subfolder string) ConfigOption {
	return func(b *configBuilder) {
		if b.cfg.Organizer.Rules == nil {
			b.cfg.Organizer.Rules = map[string]string{}
		}
		b.cfg.Organizer.Rules[folderName] = subfolder
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
