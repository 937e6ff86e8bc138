// Package watch turns raw filesystem notifications for a set of folders into
// canonical Created, Modified, and Removed events.
//
// Each watched folder gets its own non-recursive fsnotify watcher and a
// goroutine that debounces writes: a file is only reported once its size and
// modification time have held still for the stability threshold. All folders
// deliver into one bounded Events channel. Watch failures are reported per
// folder on Errors and never stop the other folders.
//
// Filter decides which paths are never reported: dotfiles, organizer output
// folders, OS bookkeeping files, and configurable glob patterns such as
// partial downloads.
package watch
