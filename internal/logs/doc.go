// Package logs reads the JSON run log written next to the console output.
//
// Tail returns the last N matching records, or the records appended after a
// byte offset, with bounded memory. Follow mode polls for new lines until the
// wait expires or the context is cancelled. Records can be filtered by run id,
// category, item, and minimum level, which backs `torrentify logs`.
package logs
