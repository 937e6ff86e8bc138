// Package main hosts the twinkle CLI entrypoint and command graph.
//
// The Cobra command tree translates terminal invocations into JSON-RPC calls
// against the organizer daemon: watched folder management, history and undo,
// lifetime stats, the activity feed, log streaming, and one-off classification
// previews. Configuration scaffolding and daemon lifecycle commands (start,
// stop, restart, status) also live here.
//
// Keep this package lean. New behavior belongs in the internal packages first
// and is surfaced here through a command or flag.
package main
