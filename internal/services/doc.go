// Package services defines shared utilities consumed by the organizer engine
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp the watched folder and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so watch, classification,
//     organize, undo, and persistence failures can be told apart with
//     errors.Is regardless of how deeply they were wrapped.
//
// Use these helpers when wiring new components so operational behaviour
// (error handling, observability) stays uniform across the daemon.
package services
