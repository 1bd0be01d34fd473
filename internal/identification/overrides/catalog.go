package overrides

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"torrentify/internal/logging"
)

// Catalog loads user-authored lookup overrides.
type Catalog struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	loaded  time.Time
	entries map[string]Override
}

// Override pins a release to fixed lookup behaviour.
type Override struct {
	Release  string `yaml:"release"`
	TMDBID   int64  `yaml:"tmdb_id"`
	ITunesID int64  `yaml:"itunes_id"`
	Title    string `yaml:"title"`
	Year     int    `yaml:"year"`
	Artist   string `yaml:"artist"`
	Skip     bool   `yaml:"skip"`
}

// NewCatalog constructs a catalog backed by the YAML file at path. A blank
// path yields nil, which Lookup treats as an empty catalog.
func NewCatalog(path string, logger *slog.Logger) *Catalog {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	return &Catalog{path: trimmed, logger: logging.NewComponentLogger(logger, "overrides")}
}

// Lookup returns the override for release (case-insensitive).
func (c *Catalog) Lookup(release string) (Override, bool, error) {
	if c == nil {
		return Override{}, false, nil
	}
	if err := c.ensureLoaded(); err != nil {
		return Override{}, false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[normalizeKey(release)]
	return entry, ok, nil
}

// Len returns the number of loaded entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Catalog) ensureLoaded() error {
	info, err := os.Stat(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat overrides: %w", err)
	}

	c.mu.RLock()
	alreadyLoaded := !c.loaded.IsZero() && c.loaded.Equal(info.ModTime())
	c.mu.RUnlock()
	if alreadyLoaded {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read overrides: %w", err)
	}
	entries, err := parseOverrides(data)
	if err != nil {
		return fmt.Errorf("parse overrides %s: %w", c.path, err)
	}

	c.mu.Lock()
	c.entries = entries
	c.loaded = info.ModTime()
	c.mu.Unlock()
	c.logger.Info("loaded lookup overrides", logging.String("path", c.path), logging.Int("count", len(entries)))
	return nil
}

// parseOverrides accepts either a top-level list or a mapping with an
// "overrides" list. Later entries for the same release win.
func parseOverrides(data []byte) (map[string]Override, error) {
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	entries := map[string]Override{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return entries, nil
	}

	var list []Override
	if trimmed[0] == '-' || trimmed[0] == '[' {
		if err := yaml.Unmarshal(data, &list); err != nil {
			return nil, err
		}
	} else {
		var wrapper struct {
			Overrides []Override `yaml:"overrides"`
		}
		if err := yaml.Unmarshal(data, &wrapper); err != nil {
			return nil, err
		}
		list = wrapper.Overrides
	}

	for idx, entry := range list {
		entry.normalize()
		if entry.Release == "" {
			return nil, fmt.Errorf("entry %d: release is required", idx+1)
		}
		if entry.TMDBID < 0 || entry.ITunesID < 0 {
			return nil, fmt.Errorf("entry %d (%s): ids must be positive", idx+1, entry.Release)
		}
		entries[normalizeKey(entry.Release)] = entry
	}
	return entries, nil
}

func (o *Override) normalize() {
	o.Release = strings.TrimSpace(o.Release)
	o.Title = strings.TrimSpace(o.Title)
	o.Artist = strings.TrimSpace(o.Artist)
}

// normalizeKey matches release names regardless of case and of the
// space-versus-dot convention.
func normalizeKey(release string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(release), " ", "."))
}
