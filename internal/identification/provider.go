package identification

import (
	"context"
	"encoding/json"

	"torrentify/internal/discovery"
	"torrentify/internal/identification/itunes"
	"torrentify/internal/identification/overrides"
	"torrentify/internal/identification/tmdb"
	"torrentify/internal/services/guessit"
)

// Guesser extracts query fields from a media path.
type Guesser interface {
	Guess(ctx context.Context, path string) guessit.Guess
}

// MovieSearcher is the TMDB surface used by the movie and TV providers.
type MovieSearcher interface {
	Search(ctx context.Context, kind, query string, year int, language string) (*tmdb.Result, error)
	Details(ctx context.Context, kind string, id int64, language string) (json.RawMessage, error)
}

// MusicSearcher is the iTunes surface used by the music provider.
type MusicSearcher interface {
	Search(ctx context.Context, term string) (json.RawMessage, error)
	Lookup(ctx context.Context, id int64) (json.RawMessage, error)
}

var (
	_ MovieSearcher = (*tmdb.Client)(nil)
	_ MusicSearcher = (*itunes.Client)(nil)
)

// Provider adapts one metadata service to the resolver.
type Provider interface {
	// Name is the provider label used for statistics and logs.
	Name() string
	// CacheKey derives the cache key of item. guess is only meaningful when
	// KeyNeedsGuess reports true.
	CacheKey(item discovery.Item, guess guessit.Guess) string
	KeyNeedsGuess() bool
	// Search returns the record to cache, or nil when nothing matched.
	Search(ctx context.Context, guess guessit.Guess) (json.RawMessage, error)
	// Fetch returns the record for a pinned id, or nil when unknown.
	Fetch(ctx context.Context, id int64) (json.RawMessage, error)
	// PinnedID returns the id an override pins for this provider, or zero.
	PinnedID(o overrides.Override) int64
	// RecordID extracts the provider id of a cached record.
	RecordID(record json.RawMessage) (int64, error)
	// Tag renders the positive tag for record.
	Tag(record json.RawMessage) (string, error)
	// NotFound is the sentinel tag written when nothing matched.
	NotFound() string
}
