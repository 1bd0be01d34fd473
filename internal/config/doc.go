// Package config loads, normalizes, and validates torrentify configuration.
//
// It resolves the TOML file location, merges user values over repository
// defaults, applies the legacy environment variables (TRACKERS, ENABLE_*,
// TMDB_API_KEY, PARALLEL_JOBS), expands paths, and exposes helpers for the
// category layout. Validation failures are configuration-fatal: callers report
// them and exit before any work starts.
package config
