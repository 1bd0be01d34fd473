// Package overrides loads user-authored lookup overrides from a YAML file.
//
// Each entry names a release and either pins a provider id, forces the query
// used for the search, or marks the release as never identifiable. The file is
// re-read whenever its modification time changes.
package overrides
