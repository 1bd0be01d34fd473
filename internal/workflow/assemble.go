package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"torrentify/internal/cachestore"
	"torrentify/internal/config"
	"torrentify/internal/fingerprint"
	"torrentify/internal/identification"
	"torrentify/internal/identification/itunes"
	"torrentify/internal/identification/overrides"
	"torrentify/internal/identification/tmdb"
	"torrentify/internal/media/mediainfo"
	"torrentify/internal/notifications"
	"torrentify/internal/release"
	"torrentify/internal/retagjournal"
	"torrentify/internal/runstats"
	"torrentify/internal/services"
	"torrentify/internal/services/guessit"
	"torrentify/internal/services/mkbrr"
)

// Runtime is the set of production collaborators built from a config.
type Runtime struct {
	Deps    Deps
	Caches  map[string]*cachestore.Store
	journal *retagjournal.Journal
}

// Close releases resources held by the runtime.
func (r *Runtime) Close() error {
	if r == nil || r.journal == nil {
		return nil
	}
	return r.journal.Close()
}

// Assemble builds the production dependencies of a run from cfg. The config
// must already be validated.
func Assemble(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "prepare directories", "cannot create working directories", err)
	}

	stats := runstats.New(config.CategoryNames...)
	toolTimeout := time.Duration(cfg.Tools.TimeoutSeconds) * time.Second
	runner := services.ExecRunner{Timeout: toolTimeout}

	caches, err := OpenCaches(cfg, logger)
	if err != nil {
		return nil, err
	}

	catalog := overrides.NewCatalog(cfg.Overrides.Path, logger)
	guesser := guessit.New(cfg.Tools.Python, cfg.Tools.Guessit, runner, logger)
	resolver := identification.NewResolver(guesser, catalog, logger)

	if cfg.NeedsTMDB() {
		client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL,
			tmdb.WithTimeout(time.Duration(cfg.TMDB.TimeoutSeconds)*time.Second))
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "workflow", "tmdb client", "invalid tmdb settings", err)
		}
		films, _ := cfg.Category(config.CategoryFilms)
		if films.Enabled {
			resolver.Register(config.CategoryFilms,
				identification.NewTMDBProvider(client, tmdb.KindMovie, cfg.TMDB.Language, cfg.TMDB.FallbackLanguage),
				caches[runstats.ProviderTMDB])
		}
		series, _ := cfg.Category(config.CategorySeries)
		if series.Enabled {
			resolver.Register(config.CategorySeries,
				identification.NewTMDBProvider(client, tmdb.KindTV, cfg.TMDB.Language, cfg.TMDB.FallbackLanguage),
				caches[runstats.ProviderTMDB])
		}
	}
	music, _ := cfg.Category(config.CategoryMusic)
	if music.Enabled {
		client, err := itunes.New(cfg.ITunes.BaseURL,
			itunes.WithTimeout(time.Duration(cfg.ITunes.TimeoutSeconds)*time.Second),
			itunes.WithCountry(cfg.ITunes.Country),
			itunes.WithMedia(cfg.ITunes.Media),
			itunes.WithLimit(cfg.ITunes.Limit))
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "workflow", "itunes client", "invalid itunes settings", err)
		}
		resolver.Register(config.CategoryMusic, identification.NewITunesProvider(client), caches[runstats.ProviderITunes])
	}

	packager := mkbrr.New(cfg.Tools.Mkbrr, runner, mkbrr.WithPrivate(cfg.Trackers.Private))
	processor, err := release.NewProcessor(release.Options{
		Inspector:         mediainfo.New(cfg.Tools.Mediainfo, runner),
		Creator:           packager,
		Resolver:          resolver,
		Trackers:          cfg.Trackers.Announce,
		PartialExtensions: PartialExtensions(cfg),
		Stats:             stats,
		Logger:            logger,
	})
	if err != nil {
		return nil, err
	}

	gate, err := fingerprint.Open(cfg.Paths.FingerprintFile, cfg.Trackers.Announce, logger)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		Caches: caches,
		Deps: Deps{
			Config:    cfg,
			Gate:      gate,
			Updater:   packager,
			Processor: processor,
			Notifier:  notifications.NewService(cfg),
			Stats:     stats,
			Logger:    logger,
		},
	}
	if cfg.Retag.Journal {
		journal, err := retagjournal.Open(ctx, cfg.RetagJournalPath())
		if err != nil {
			return nil, fmt.Errorf("open retag journal: %w", err)
		}
		rt.journal = journal
		rt.Deps.Journal = journal
	}
	return rt, nil
}

// OpenCaches opens the per-provider lookup caches keyed by provider name.
func OpenCaches(cfg *config.Config, logger *slog.Logger) (map[string]*cachestore.Store, error) {
	roots := map[string]string{
		runstats.ProviderTMDB:   cfg.Paths.TMDBCacheDir,
		runstats.ProviderITunes: cfg.Paths.ITunesCacheDir,
	}
	caches := make(map[string]*cachestore.Store, len(roots))
	for provider, root := range roots {
		store, err := cachestore.New(root, logger)
		if err != nil {
			return nil, fmt.Errorf("open %s cache: %w", provider, err)
		}
		caches[provider] = store
	}
	return caches, nil
}

// PartialExtensions maps each guarded enabled category to its in-progress
// extensions.
func PartialExtensions(cfg *config.Config) map[string][]string {
	out := make(map[string][]string)
	for _, name := range cfg.EnabledCategories() {
		category, ok := cfg.Category(name)
		if !ok || !category.PartialGuard {
			continue
		}
		out[name] = append([]string(nil), category.PartialExtensions...)
	}
	return out
}
