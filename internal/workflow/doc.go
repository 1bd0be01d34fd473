// Package workflow performs one torrentify run.
//
// A run takes the run lock, stamps a run id on the context, sweeps existing
// packages when the tracker set changed, then discovers and processes every
// enabled category in order (films, series, music) through the bounded
// scheduler. Per-item failures are logged and counted without stopping the
// run. Assemble builds the production collaborators from a validated config;
// tests construct Deps directly with fakes.
package workflow
