// Package placement computes collision-free destination paths and moves files
// without ever replacing an existing entry.
//
// Resolve picks the first free name in the sequence name, name_1, name_2, ...
// Move and Restore pair that choice with an atomic no-replace rename
// (renameat2 with RENAME_NOREPLACE on Linux, hard link plus unlink elsewhere)
// so a name taken between the check and the move is detected and resolution
// starts over instead of clobbering the newcomer.
package placement
