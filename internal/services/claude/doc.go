// Package claude wraps the Anthropic Messages API as a file classification
// oracle backend.
//
// The client sends one system prompt and one user message per request and
// returns the first text block of the reply. Retries are left to the SDK;
// the classifier's request context bounds the whole exchange.
package claude
