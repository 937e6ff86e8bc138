// Package store persists the organizer's durable state: the watched folder
// list, cumulative statistics, and the action history.
//
// The whole state is a single Record that is loaded once at startup and
// rewritten after every mutation. Two Backends are provided: a JSON file that
// keeps the original application's config.json layout, and a SQLite database
// (modernc.org/sqlite) with an embedded schema. Store serializes mutations
// through Update so that related changes, such as appending a history entry
// and bumping the organized-file counters, land in one save.
package store
