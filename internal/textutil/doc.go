// Package textutil provides filename sanitization and display helpers.
//
// Folder names suggested by the classification oracle are untrusted input:
// SanitizeFolderName reduces them to one NFC-normalized path segment that can
// never escape the organized subtree. DisplayLabel turns snake_case event
// names into title-cased labels for notifications.
package textutil
