package config

const (
	defaultConfigPath             = "~/.config/twinkle/config.toml"
	defaultStateDir               = "~/.local/share/twinkle"
	defaultLogDir                 = "~/.local/share/twinkle/logs"
	defaultLogRetentionDays       = 30
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultStorageBackend         = StorageJSON
	defaultStabilityThresholdMS   = 1000
	defaultPollIntervalMS         = 100
	defaultEventBuffer            = 256
	defaultOrganizedSubfolder     = "Organized"
	defaultClassifierProvider     = ProviderAnthropic
	defaultClassifierTimeout      = 30
	defaultSampleChars            = 500
	defaultMaxSampleBytes         = 1024 * 1024
	defaultLLMBaseURL             = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel               = "google/gemini-3-flash-preview"
	defaultLLMReferer             = "https://github.com/twinkle-app/twinkle"
	defaultLLMTitle               = "Twinkle File Organizer"
	defaultLLMTimeoutSeconds      = 30
	defaultAnthropicModel         = "claude-sonnet-4-5-20250929"
	defaultAnthropicMaxTokens     = 1024
	defaultNotifyRequestTimeout   = 10
	defaultNotifyActivityLimit    = 200
	defaultDownloadsFolder        = "~/Downloads"
	storageJSONFile               = "config.json"
	storageSQLiteFile             = "twinkle.db"
	socketFile                    = "twinkle.sock"
)

// Storage backends.
const (
	StorageJSON   = "json"
	StorageSQLite = "sqlite"
)

// Classifier oracle providers.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
	ProviderNone       = "none"
)

// DefaultIgnorePatterns are base-name globs for in-progress downloads.
var DefaultIgnorePatterns = []string{"*.part", "*.crdownload", "*.download", "*.tmp"}

func defaultRules() map[string]string {
	return map[string]string{
		"Desktop":   "Desktop_Organized",
		"Downloads": "Downloads_Organized",
		"Documents": "Documents_Organized",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Storage: Storage{
			Backend: defaultStorageBackend,
		},
		Watch: Watch{
			DefaultFolders:       []string{defaultDownloadsFolder},
			StabilityThresholdMS: defaultStabilityThresholdMS,
			PollIntervalMS:       defaultPollIntervalMS,
			EventBuffer:          defaultEventBuffer,
			IgnorePatterns:       append([]string(nil), DefaultIgnorePatterns...),
		},
		Organizer: Organizer{
			DefaultSubfolder: defaultOrganizedSubfolder,
			Rules:            defaultRules(),
		},
		Classifier: Classifier{
			Provider:       defaultClassifierProvider,
			TimeoutSeconds: defaultClassifierTimeout,
			SampleChars:    defaultSampleChars,
			MaxSampleBytes: defaultMaxSampleBytes,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Anthropic: Anthropic{
			Model:     defaultAnthropicModel,
			MaxTokens: defaultAnthropicMaxTokens,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Organized:      false,
			Folders:        true,
			Undo:           true,
			Errors:         true,
			ActivityLimit:  defaultNotifyActivityLimit,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
