package daemon

import (
	"context"
	"log/slog"

	"twinkle/internal/classifier"
	"twinkle/internal/config"
	"twinkle/internal/logging"
	"twinkle/internal/services/claude"
	"twinkle/internal/services/llm"
)

// oracleBackend is the configured classification oracle plus its health probe.
type oracleBackend struct {
	oracle   classifier.Oracle
	provider string
	model    string
	health   func(context.Context) error
}

// newOracleBackend selects the oracle named by classifier.provider. A provider
// without an API key degrades to the extension table with a warning.
func newOracleBackend(cfg *config.Config, logger *slog.Logger) oracleBackend {
	switch cfg.Classifier.Provider {
	case config.ProviderAnthropic:
		if cfg.Anthropic.APIKey == "" {
			warnMissingKey(logger, cfg.Classifier.Provider, "ANTHROPIC_API_KEY")
			return oracleBackend{provider: config.ProviderNone}
		}
		client := claude.NewClient(claude.Config{
			APIKey:    cfg.Anthropic.APIKey,
			Model:     cfg.Anthropic.Model,
			MaxTokens: cfg.Anthropic.MaxTokens,
		})
		return oracleBackend{
			oracle:   classifier.NewPromptOracle(client),
			provider: config.ProviderAnthropic,
			model:    client.Model(),
			health:   client.HealthCheck,
		}
	case config.ProviderOpenRouter:
		settings := cfg.GetLLM()
		if settings.APIKey == "" {
			warnMissingKey(logger, cfg.Classifier.Provider, "OPENROUTER_API_KEY")
			return oracleBackend{provider: config.ProviderNone}
		}
		client := llm.NewClient(llm.Config{
			APIKey:         settings.APIKey,
			BaseURL:        settings.BaseURL,
			Model:          settings.Model,
			Referer:        settings.Referer,
			Title:          settings.Title,
			TimeoutSeconds: settings.TimeoutSeconds,
		})
		return oracleBackend{
			oracle:   classifier.NewPromptOracle(client),
			provider: config.ProviderOpenRouter,
			model:    settings.Model,
			health:   client.HealthCheck,
		}
	default:
		return oracleBackend{provider: config.ProviderNone}
	}
}

func warnMissingKey(logger *slog.Logger, provider, envVar string) {
	logging.WarnWithContext(logger, "classifier api key missing; using extension table", "classifier_unconfigured",
		logging.String("provider", provider),
		logging.String(logging.FieldImpact, "files are classified by extension only"),
		logging.String(logging.FieldErrorHint, "set the api key in config.toml or export "+envVar),
	)
}
