package identification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"torrentify/internal/discovery"
	"torrentify/internal/identification/overrides"
	"torrentify/internal/runstats"
	"torrentify/internal/services/guessit"
	"torrentify/internal/textutil"
)

// TMDBNotFound is the tag written when TMDB has no match.
const TMDBNotFound = "TMDB not found"

type searchAttempt struct {
	language string
	year     int
}

type tmdbProvider struct {
	searcher  MovieSearcher
	kind      string
	languages []string
}

// NewTMDBProvider returns a provider searching kind ("movie" or "tv") in
// language first, then in fallback.
func NewTMDBProvider(searcher MovieSearcher, kind, language, fallback string) Provider {
	var languages []string
	for _, lang := range []string{language, fallback} {
		lang = strings.TrimSpace(lang)
		if lang == "" || (len(languages) > 0 && languages[0] == lang) {
			continue
		}
		languages = append(languages, lang)
	}
	if len(languages) == 0 {
		languages = []string{""}
	}
	return &tmdbProvider{searcher: searcher, kind: kind, languages: languages}
}

func (p *tmdbProvider) Name() string { return runstats.ProviderTMDB }

func (p *tmdbProvider) CacheKey(item discovery.Item, _ guessit.Guess) string {
	return textutil.CacheKey(p.kind, item.Name)
}

func (p *tmdbProvider) KeyNeedsGuess() bool { return false }

func (p *tmdbProvider) Search(ctx context.Context, guess guessit.Guess) (json.RawMessage, error) {
	query := textutil.CleanQuery(guess.Title)
	if query == "" {
		return nil, nil
	}

	// Each language with the year, then the primary language without it.
	attempts := make([]searchAttempt, 0, len(p.languages)+1)
	for _, lang := range p.languages {
		attempts = append(attempts, searchAttempt{language: lang, year: guess.Year})
	}
	if guess.Year > 0 {
		attempts = append(attempts, searchAttempt{language: p.languages[0]})
	}

	for _, attempt := range attempts {
		result, err := p.searcher.Search(ctx, p.kind, query, attempt.year, attempt.language)
		if err != nil {
			return nil, err
		}
		if result != nil && result.ID > 0 {
			return p.Fetch(ctx, result.ID)
		}
	}
	return nil, nil
}

func (p *tmdbProvider) Fetch(ctx context.Context, id int64) (json.RawMessage, error) {
	for _, lang := range p.languages {
		details, err := p.searcher.Details(ctx, p.kind, id, lang)
		if err != nil {
			return nil, err
		}
		if details != nil {
			return details, nil
		}
	}
	return nil, nil
}

func (p *tmdbProvider) PinnedID(o overrides.Override) int64 { return o.TMDBID }

func (p *tmdbProvider) RecordID(record json.RawMessage) (int64, error) {
	var payload struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(record, &payload); err != nil {
		return 0, fmt.Errorf("decode tmdb record: %w", err)
	}
	if payload.ID <= 0 {
		return 0, fmt.Errorf("tmdb record has no id")
	}
	return payload.ID, nil
}

func (p *tmdbProvider) Tag(record json.RawMessage) (string, error) {
	id, err := p.RecordID(record)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ID TMDB : %d", id), nil
}

func (p *tmdbProvider) NotFound() string { return TMDBNotFound }
