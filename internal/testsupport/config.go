package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"torrentify/internal/config"
)

// DefaultTracker is the announce URL of generated configs.
const DefaultTracker = "https://tracker.example/announce"

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a fresh temp directory, with one
// tracker and every category disabled. Options enable what the test needs.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths = config.Paths{
		DestDir:         filepath.Join(base, "out"),
		TMDBCacheDir:    filepath.Join(base, "cache_tmdb"),
		ITunesCacheDir:  filepath.Join(base, "cache_itunes"),
		FingerprintFile: filepath.Join(base, "state", "trackers.sha256"),
		StateDir:        filepath.Join(base, "state"),
	}
	cfgVal.Trackers.Announce = []string{DefaultTracker}
	cfgVal.TMDB.APIKey = "test"
	cfgVal.Retag.Journal = false
	for _, name := range config.CategoryNames {
		setCategory(&cfgVal, name, config.Category{})
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithCategory enables a category with source <base>/src/<name> and
// destination <dest_dir>/<name>, creating the source directory.
func WithCategory(name string, extensions ...string) ConfigOption {
	return func(b *configBuilder) {
		source := filepath.Join(b.baseDir, "src", name)
		if err := os.MkdirAll(source, 0o755); err != nil {
			b.t.Fatalf("mkdir source %s: %v", source, err)
		}
		setCategory(b.cfg, name, config.Category{
			Enabled:    true,
			SourceDir:  source,
			DestDir:    filepath.Join(b.cfg.Paths.DestDir, name),
			Extensions: extensions,
		})
	}
}

// WithPartialGuard enables the in-progress guard on an already enabled
// category.
func WithPartialGuard(name string, extensions ...string) ConfigOption {
	return func(b *configBuilder) {
		category, ok := b.cfg.Category(name)
		if !ok {
			b.t.Fatalf("unknown category %q", name)
		}
		category.PartialGuard = true
		category.PartialExtensions = extensions
		setCategory(b.cfg, name, category)
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// points the tool settings at them. If names is empty, mediainfo and mkbrr
// are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"mediainfo", "mkbrr"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
			switch name {
			case "mediainfo":
				b.cfg.Tools.Mediainfo = target
			case "mkbrr":
				b.cfg.Tools.Mkbrr = target
			case "python3":
				b.cfg.Tools.Python = target
			}
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

func setCategory(cfg *config.Config, name string, category config.Category) {
	switch name {
	case config.CategoryFilms:
		cfg.Categories.Films = category
	case config.CategorySeries:
		cfg.Categories.Series = category
	case config.CategoryMusic:
		cfg.Categories.Music = category
	}
}
