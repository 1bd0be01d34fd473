// Package runstats aggregates per-run counters shared by concurrent jobs.
//
// Counters use sync/atomic so pipelines increment them without locks. The
// per-category map is built once in New and never mutated afterwards.
// Snapshot returns a plain value for rendering once all jobs have joined.
package runstats
