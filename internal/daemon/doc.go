// Package daemon coordinates the long-running Twinkle process.
//
// It builds the App (store, ledger, classifier, watch registry, organizer
// pipeline, notification sinks) once from configuration, then runs a single
// lifecycle around it with flock-based locking to prevent multiple instances.
// The daemon restores watched folders on start, feeds watch events to the
// organizer one at a time, schedules periodic rescans, and exposes the folder,
// history, undo, and activity helpers that the IPC layer serves.
//
// Keep orchestration logic here: organizing and undo belong to the organizer
// package while the daemon focuses on startup, shutdown, and high level
// coordination.
package daemon
