// Package classifier assigns every file a category and a suggested folder.
//
// Classify never fails. It gathers file metadata, samples the head of small
// text files, and asks an Oracle for a JSON verdict under a timeout. Any oracle
// error, timeout, or unparseable reply falls back to a fixed extension table,
// so the organizer always receives a complete Classification whose Source
// records which path produced it.
//
// PromptOracle adapts any Completer (the OpenRouter and Claude clients) to the
// Oracle interface by rendering the classification prompt.
package classifier
