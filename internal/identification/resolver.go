package identification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"torrentify/internal/cachestore"
	"torrentify/internal/discovery"
	"torrentify/internal/identification/overrides"
	"torrentify/internal/logging"
	"torrentify/internal/services"
	"torrentify/internal/services/guessit"
)

// ErrNoProvider is returned for categories without a registered provider.
var ErrNoProvider = errors.New("no lookup provider for category")

// Result is the outcome of Resolve.
type Result struct {
	Tag      string
	Found    bool
	Provider string
	CacheKey string
	// Cached is true when the tag came from an existing cache entry.
	Cached bool
	// Overridden is true when an override pinned or skipped the lookup.
	Overridden bool
	Guess      guessit.Guess
}

type binding struct {
	provider Provider
	cache    *cachestore.Store
}

// Resolver resolves lookup tags per category.
type Resolver struct {
	guesser   Guesser
	overrides *overrides.Catalog
	bindings  map[string]binding
	logger    *slog.Logger
}

// NewResolver creates a resolver. catalog may be nil.
func NewResolver(guesser Guesser, catalog *overrides.Catalog, logger *slog.Logger) *Resolver {
	return &Resolver{
		guesser:   guesser,
		overrides: catalog,
		bindings:  map[string]binding{},
		logger:    logging.NewComponentLogger(logger, "lookup"),
	}
}

// Register binds a provider and its cache to category. Call before use.
func (r *Resolver) Register(category string, provider Provider, cache *cachestore.Store) {
	r.bindings[category] = binding{provider: provider, cache: cache}
}

func (r *Resolver) binding(category string) (binding, error) {
	b, ok := r.bindings[category]
	if !ok || b.provider == nil || b.cache == nil {
		return binding{}, fmt.Errorf("%w: %s", ErrNoProvider, category)
	}
	return b, nil
}

// TagCurrent reports whether tag, read from item's tag file, still reflects
// the lookup the resolver would produce now. The not-found sentinel is
// current unless an override pins an id. A positive tag is current when the
// cache entry renders the same tag and matches the pinned id, if any.
func (r *Resolver) TagCurrent(ctx context.Context, item discovery.Item, tag string) (bool, error) {
	b, err := r.binding(item.Category)
	if err != nil {
		return false, err
	}
	guess, override, err := r.prepare(ctx, b, item, b.provider.KeyNeedsGuess())
	if err != nil {
		return false, err
	}
	pin := pinnedID(b.provider, override)
	if tag == b.provider.NotFound() {
		return pin == 0, nil
	}
	if override != nil && override.Skip {
		return false, nil
	}
	entry, ok := b.cache.Get(b.provider.CacheKey(item, guess))
	if !ok {
		return false, nil
	}
	id, err := b.provider.RecordID(entry.Value)
	if err != nil || (pin > 0 && id != pin) {
		return false, nil
	}
	rendered, err := b.provider.Tag(entry.Value)
	return err == nil && rendered == tag, nil
}

// Resolve returns the tag of item: override, then cache, then service.
func (r *Resolver) Resolve(ctx context.Context, item discovery.Item) (Result, error) {
	b, err := r.binding(item.Category)
	if err != nil {
		return Result{}, err
	}
	logger := logging.WithContext(ctx, r.logger)
	guess, override, err := r.prepare(ctx, b, item, true)
	if err != nil {
		return Result{}, err
	}
	key := b.provider.CacheKey(item, guess)
	result := Result{Provider: b.provider.Name(), CacheKey: key, Guess: guess}

	if override != nil && override.Skip {
		result.Tag = b.provider.NotFound()
		result.Overridden = true
		logger.Info("lookup skipped by override", logging.String("release", item.Name))
		return result, nil
	}

	pin := pinnedID(b.provider, override)
	if entry, ok := b.cache.Get(key); ok {
		id, idErr := b.provider.RecordID(entry.Value)
		switch {
		case idErr != nil:
			logging.WarnWithContext(logger, "cached lookup record unusable", "cache_entry_invalid",
				logging.String("cache_key", key),
				logging.Error(idErr),
				logging.String(logging.FieldImpact, "record is fetched again"))
			_ = b.cache.Remove(key)
		case pin > 0 && id != pin:
			logger.Info("cached record superseded by pinned id",
				logging.String("cache_key", key),
				logging.Int64("cached_id", id),
				logging.Int64("pinned_id", pin))
		default:
			tag, tagErr := b.provider.Tag(entry.Value)
			if tagErr == nil {
				result.Tag, result.Found, result.Cached = tag, true, true
				result.Overridden = pin > 0
				logger.Debug("lookup served from cache", logging.String("cache_key", key))
				return result, nil
			}
		}
	}

	var record json.RawMessage
	if pin > 0 {
		id := pin
		result.Overridden = true
		record, err = b.provider.Fetch(ctx, id)
		if err == nil && record == nil {
			logging.WarnWithContext(logger, "pinned id unknown to provider", "override_id_unknown",
				logging.Int64("id", id),
				logging.String(logging.FieldErrorHint, "check the id in the overrides file"),
				logging.String(logging.FieldImpact, "release is tagged as not found"))
		}
	} else {
		record, err = b.provider.Search(ctx, guess)
	}
	if err != nil {
		return Result{}, fmt.Errorf("%s lookup %q: %w", b.provider.Name(), guess.Title, err)
	}
	if record == nil {
		result.Tag = b.provider.NotFound()
		return result, nil
	}

	tag, err := b.provider.Tag(record)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "lookup", b.provider.Name(), "unusable record", err)
	}
	if err := b.cache.Put(key, record); err != nil {
		return Result{}, fmt.Errorf("cache lookup record: %w", err)
	}
	result.Tag, result.Found = tag, true
	return result, nil
}

func pinnedID(p Provider, override *overrides.Override) int64 {
	if override == nil || override.Skip {
		return 0
	}
	return p.PinnedID(*override)
}

// prepare applies overrides to the guess. When needGuess is false and no
// override forces fields, the guesser is not run.
func (r *Resolver) prepare(ctx context.Context, b binding, item discovery.Item, needGuess bool) (guessit.Guess, *overrides.Override, error) {
	override, ok, err := r.overrides.Lookup(item.Name)
	if err != nil {
		return guessit.Guess{}, nil, services.Wrap(services.ErrConfiguration, "lookup", "overrides", "", err)
	}
	var guess guessit.Guess
	if needGuess {
		guess = r.guess(ctx, item)
	}
	if !ok {
		return guess, nil, nil
	}
	if override.Title != "" {
		guess.Title = override.Title
	}
	if override.Artist != "" {
		guess.Artist = override.Artist
	}
	if override.Year > 0 {
		guess.Year = override.Year
	}
	return guess, &override, nil
}

func (r *Resolver) guess(ctx context.Context, item discovery.Item) guessit.Guess {
	path := item.Reference
	if strings.TrimSpace(path) == "" {
		path = item.Root
	}
	if r.guesser == nil {
		return guessit.Parse(path)
	}
	return r.guesser.Guess(ctx, path)
}
