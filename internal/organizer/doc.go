// Package organizer moves newly settled files into per-category folders and
// reverses those moves on request.
//
// Pipeline.Organize handles one canonical watch event: it classifies the file,
// derives the destination from the watched folder's rule and the suggested
// folder, creates the folder if needed, moves the file under a collision-free
// name, and records the move together with the organized-file counters in a
// single store update. UndoLastAction pops the newest history entry and moves
// the file back without clobbering anything that took its place.
//
// Organize and undo hold the same mutex around placement, the move, and the
// ledger update. Classification runs outside it so a slow oracle never blocks
// undo.
package organizer
