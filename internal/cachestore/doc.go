// Package cachestore persists metadata lookup responses as one JSON file per
// key under a cache root.
//
// Reads self-heal: a file that cannot be read or parsed is deleted and
// reported as a miss so a corrupt entry never blocks the next lookup. Writes go
// through a unique temporary file renamed over the final name. There is no
// eviction; entries live until removed through the CLI.
package cachestore
