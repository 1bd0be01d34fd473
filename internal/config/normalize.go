package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnvironment()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeCategories(); err != nil {
		return err
	}
	c.normalizeTrackers()
	c.normalizeTMDB()
	c.normalizeITunes()
	c.normalizeTools()
	if c.Workflow.ParallelJobs < 1 {
		c.Workflow.ParallelJobs = 1
	}
	if c.Retag.ParallelJobs < 0 {
		c.Retag.ParallelJobs = 0
	}
	if err := c.normalizeOverrides(); err != nil {
		return err
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
	c.normalizeLogging()
	return nil
}

// applyEnvironment honours the variables of the container deployment.
// ENABLE_* and PARALLEL_JOBS override the file when set; TRACKERS and
// TMDB_API_KEY only fill values the file leaves empty.
func (c *Config) applyEnvironment() {
	envBool := func(key string, target *bool) {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			*target = strings.EqualFold(strings.TrimSpace(value), "true")
		}
	}
	envBool("ENABLE_FILMS", &c.Categories.Films.Enabled)
	envBool("ENABLE_SERIES", &c.Categories.Series.Enabled)
	envBool("ENABLE_MUSIQUES", &c.Categories.Music.Enabled)

	if value, ok := os.LookupEnv("PARALLEL_JOBS"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			c.Workflow.ParallelJobs = n
		}
	}
	if len(c.Trackers.Announce) == 0 {
		if value, ok := os.LookupEnv("TRACKERS"); ok {
			c.Trackers.Announce = strings.Split(value, ",")
		}
	}
	if strings.TrimSpace(c.TMDB.APIKey) == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name     string
		value    *string
		fallback string
	}{
		{"paths.dest_dir", &c.Paths.DestDir, defaultDestDir},
		{"paths.tmdb_cache_dir", &c.Paths.TMDBCacheDir, defaultTMDBCacheDir},
		{"paths.itunes_cache_dir", &c.Paths.ITunesCacheDir, defaultITunesCacheDir},
		{"paths.fingerprint_file", &c.Paths.FingerprintFile, defaultFingerprintFile},
		{"paths.state_dir", &c.Paths.StateDir, defaultStateDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	// An empty log_dir disables the JSON log file.
	if strings.TrimSpace(c.Paths.LogDir) != "" {
		expanded, err := expandPath(strings.TrimSpace(c.Paths.LogDir))
		if err != nil {
			return fmt.Errorf("paths.log_dir: %w", err)
		}
		c.Paths.LogDir = expanded
	}
	return nil
}

func (c *Config) normalizeCategories() error {
	sections := map[string]*Category{
		CategoryFilms:  &c.Categories.Films,
		CategorySeries: &c.Categories.Series,
		CategoryMusic:  &c.Categories.Music,
	}
	for _, name := range CategoryNames {
		cat := sections[name]
		var err error
		if cat.SourceDir, err = expandPath(strings.TrimSpace(cat.SourceDir)); err != nil {
			return fmt.Errorf("categories.%s.source_dir: %w", name, err)
		}
		if strings.TrimSpace(cat.DestDir) == "" {
			cat.DestDir = filepath.Join(c.Paths.DestDir, destNames[name])
		}
		if cat.DestDir, err = expandPath(strings.TrimSpace(cat.DestDir)); err != nil {
			return fmt.Errorf("categories.%s.dest_dir: %w", name, err)
		}
		cat.Extensions = normalizeExtensions(cat.Extensions)
		if len(cat.Extensions) == 0 {
			if name == CategoryMusic {
				cat.Extensions = cloneStrings(defaultAudioExtensions)
			} else {
				cat.Extensions = cloneStrings(defaultVideoExtensions)
			}
		}
		cat.PartialExtensions = normalizeExtensions(cat.PartialExtensions)
		if len(cat.PartialExtensions) == 0 {
			cat.PartialExtensions = cloneStrings(defaultPartialExtensions)
		}
	}
	return nil
}

func normalizeExtensions(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), "."))
		if ext == "" {
			continue
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

func (c *Config) normalizeTrackers() {
	announce := make([]string, 0, len(c.Trackers.Announce))
	seen := make(map[string]struct{}, len(c.Trackers.Announce))
	for _, tracker := range c.Trackers.Announce {
		tracker = strings.TrimSpace(tracker)
		if tracker == "" {
			continue
		}
		if _, ok := seen[tracker]; ok {
			continue
		}
		seen[tracker] = struct{}{}
		announce = append(announce, tracker)
	}
	c.Trackers.Announce = announce
}

func (c *Config) normalizeTMDB() {
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	c.TMDB.FallbackLanguage = strings.TrimSpace(c.TMDB.FallbackLanguage)
	if c.TMDB.FallbackLanguage == "" {
		c.TMDB.FallbackLanguage = defaultTMDBFallback
	}
	if c.TMDB.TimeoutSeconds <= 0 {
		c.TMDB.TimeoutSeconds = defaultHTTPTimeout
	}
}

func (c *Config) normalizeITunes() {
	c.ITunes.BaseURL = strings.TrimRight(strings.TrimSpace(c.ITunes.BaseURL), "/")
	if c.ITunes.BaseURL == "" {
		c.ITunes.BaseURL = defaultITunesBaseURL
	}
	c.ITunes.Country = strings.ToUpper(strings.TrimSpace(c.ITunes.Country))
	c.ITunes.Media = strings.TrimSpace(c.ITunes.Media)
	if c.ITunes.Media == "" {
		c.ITunes.Media = defaultITunesMedia
	}
	if c.ITunes.Limit <= 0 {
		c.ITunes.Limit = 1
	}
	if c.ITunes.TimeoutSeconds <= 0 {
		c.ITunes.TimeoutSeconds = defaultHTTPTimeout
	}
}

func (c *Config) normalizeTools() {
	trimOr := func(value *string, fallback string) {
		*value = strings.TrimSpace(*value)
		if *value == "" {
			*value = fallback
		}
	}
	trimOr(&c.Tools.Mediainfo, "mediainfo")
	trimOr(&c.Tools.Mkbrr, "mkbrr")
	trimOr(&c.Tools.Python, "python3")
	if c.Tools.TimeoutSeconds < 0 {
		c.Tools.TimeoutSeconds = 0
	}
}

func (c *Config) normalizeOverrides() error {
	path := strings.TrimSpace(c.Overrides.Path)
	if path == "" {
		c.Overrides.Path = ""
		return nil
	}
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("overrides.path: %w", err)
	}
	c.Overrides.Path = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format != "json" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
