// Package preflight provides readiness checks for the binaries, services, and
// directories a torrentify run depends on.
//
// The "torrentify preflight" command prints every result. The run command
// calls RunAll before processing and refuses to start when a required check
// fails, so a missing mkbrr binary is reported once instead of per item.
//
// Each check is gated by its config toggle; disabled categories are skipped.
package preflight
