// Package release turns a discovered item into its release folder.
//
// Three stages run in order: metadata (.nfo), package (.torrent) and lookup
// (.txt). The presence of an artifact marks its stage as done, so every stage
// is skipped once complete and a crashed run resumes where it stopped. Status
// is computed once per item and drives both the fast skip path and the
// per-stage guards. Artifacts are written atomically; the package goes
// through a hidden partial file that is renamed only after the creator
// succeeds.
package release
