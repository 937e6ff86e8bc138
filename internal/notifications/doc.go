// Package notifications publishes organizer events to interested sinks.
//
// Every component reports through Service.Publish with an Event name and a
// loosely typed Payload. NewService assembles the configured sinks: an
// in-memory activity Feed that the CLI reads over IPC, and an optional ntfy
// topic that receives push messages for the event classes enabled in the
// [notifications] config section. Sinks never block organizing; publish
// errors are returned for logging only.
package notifications
