// Package llm provides an OpenRouter chat client used as a file
// classification oracle.
//
// # Classification Logic
//
// The classifier sends a prompt describing a file (name, extension, size, and
// an optional content sample) to the configured model and asks for a JSON
// object with category, confidence, suggestedFolder, and reasoning. This
// package only transports prompts and returns the raw completion; parsing and
// fallback live in internal/classifier.
//
// # Configuration
//
// Requires api_key, model, and optionally base_url, referer, title, timeout.
// When unconfigured, the classifier uses its extension table instead.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: send system/user prompts, receive the raw JSON text.
// Client.HealthCheck: classify a probe file to verify key and model.
// DecodeLLMJSON: decode model output, tolerating code fences and prose.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors and network timeouts with
// exponential backoff (base 1s, max 10s, up to 5 attempts by default).
// Context cancellation aborts retries immediately, so the classifier's
// request timeout bounds the whole exchange.
package llm
