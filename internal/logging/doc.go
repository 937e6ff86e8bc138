// Package logging assembles structured slog loggers and formatting helpers used
// across Twinkle services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so organizer and watcher code can
// tag log lines with the watched folder and correlation IDs. A bounded
// StreamHub keeps recent records in memory for the `twinkle logs` command. The
// package also provides a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape and routing guarantees as the rest
// of the system.
package logging
