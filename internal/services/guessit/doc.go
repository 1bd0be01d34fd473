// Package guessit extracts a title, artist and year from release file names.
//
// The python guessit library is used when available. Whenever it is disabled,
// missing, or returns nothing usable, a rule-based parser derives the same
// fields from the file name so lookups always have a query.
package guessit
