// Package fingerprint detects changes to the configured tracker set and
// re-applies the current set to every package produced earlier.
//
// The digest is a SHA-256 over the sorted, deduplicated, pipe-joined tracker
// URLs, so reordering the same set never triggers a sweep. The new digest is
// persisted only after a sweep in which every update succeeded; otherwise the
// previous digest stays on disk and the next run sweeps again, skipping the
// artifacts its journal already holds.
package fingerprint
