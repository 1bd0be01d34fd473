// Package notifications pushes run results to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// the workflow always holds a usable Service. Messages are plain text with
// ntfy Title, Tags and Priority headers.
package notifications
