// Package main hosts the torrentify CLI entrypoint and command graph.
//
// The root command performs a run: load and validate the configuration,
// check the required binaries and directories, process every enabled
// category, and print a summary table. Maintenance subcommands manage the
// lookup caches, the tracker fingerprint, and the configuration file.
//
// Keep this package lean: behavior lives in the internal packages and is only
// surfaced here through commands and flags.
package main
