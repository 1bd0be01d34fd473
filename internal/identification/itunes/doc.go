// Package itunes is a small client for the iTunes Search API used to tag
// music releases. Results are returned as raw JSON for verbatim caching.
package itunes
