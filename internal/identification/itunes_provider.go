package identification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"torrentify/internal/discovery"
	"torrentify/internal/identification/itunes"
	"torrentify/internal/identification/overrides"
	"torrentify/internal/runstats"
	"torrentify/internal/services/guessit"
	"torrentify/internal/textutil"
)

// ITunesNotFound is the tag written when iTunes has no match.
const ITunesNotFound = "iTunes not found"

type itunesProvider struct {
	searcher MusicSearcher
}

// NewITunesProvider returns the music provider.
func NewITunesProvider(searcher MusicSearcher) Provider {
	return &itunesProvider{searcher: searcher}
}

func (p *itunesProvider) Name() string { return runstats.ProviderITunes }

// CacheKey keeps the artist_title layout of existing cache directories.
func (p *itunesProvider) CacheKey(_ discovery.Item, guess guessit.Guess) string {
	return textutil.CacheKey(guess.Artist, guess.Title)
}

func (p *itunesProvider) KeyNeedsGuess() bool { return true }

func (p *itunesProvider) Search(ctx context.Context, guess guessit.Guess) (json.RawMessage, error) {
	term := strings.TrimSpace(strings.Join([]string{guess.Artist, guess.Title}, " "))
	if term == "" {
		return nil, nil
	}
	return p.searcher.Search(ctx, term)
}

func (p *itunesProvider) Fetch(ctx context.Context, id int64) (json.RawMessage, error) {
	return p.searcher.Lookup(ctx, id)
}

func (p *itunesProvider) PinnedID(o overrides.Override) int64 { return o.ITunesID }

func (p *itunesProvider) RecordID(record json.RawMessage) (int64, error) {
	var r itunes.Record
	if err := json.Unmarshal(record, &r); err != nil {
		return 0, fmt.Errorf("decode itunes record: %w", err)
	}
	if r.ID() <= 0 {
		return 0, fmt.Errorf("itunes record has no id")
	}
	return r.ID(), nil
}

func (p *itunesProvider) Tag(record json.RawMessage) (string, error) {
	id, err := p.RecordID(record)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("iTunes ID : %d", id), nil
}

func (p *itunesProvider) NotFound() string { return ITunesNotFound }
