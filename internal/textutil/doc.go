// Package textutil normalizes names for release folders, cache keys, and
// metadata queries.
//
// Release names replace spaces with dots. Queries fold accents and keep only
// ASCII letters, digits, and spaces so both TMDB and iTunes receive the same
// cleaned title regardless of how the source was named.
package textutil
