// Package retagjournal records which package artifacts were already updated
// for a tracker digest.
//
// A tracker change triggers a sweep that rewrites every package. When the
// sweep is interrupted or some updates fail, the digest file keeps its old
// value and the next run sweeps again; the journal lets that run skip the
// artifacts already updated for the same digest. It is reset once a digest is
// committed. Storage is a small SQLite database (modernc.org/sqlite) with
// queries built through squirrel.
package retagjournal
