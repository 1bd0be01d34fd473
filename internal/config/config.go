package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Category names in processing order.
const (
	CategoryFilms  = "films"
	CategorySeries = "series"
	CategoryMusic  = "music"
)

// CategoryNames lists every supported category in the order a run visits them.
var CategoryNames = []string{CategoryFilms, CategorySeries, CategoryMusic}

// Paths contains output, cache, and state locations.
type Paths struct {
	DestDir         string `toml:"dest_dir"`
	TMDBCacheDir    string `toml:"tmdb_cache_dir"`
	ITunesCacheDir  string `toml:"itunes_cache_dir"`
	FingerprintFile string `toml:"fingerprint_file"`
	StateDir        string `toml:"state_dir"`
	LogDir          string `toml:"log_dir"`
}

// Category configures one media category.
type Category struct {
	Enabled   bool   `toml:"enabled"`
	SourceDir string `toml:"source_dir"`
	// DestDir defaults to <paths.dest_dir>/<dest name>.
	DestDir string `toml:"dest_dir"`
	// Extensions selects media files (no leading dot, case-insensitive).
	Extensions []string `toml:"extensions"`
	// PartialGuard defers folders that still contain in-progress transfers.
	PartialGuard      bool     `toml:"partial_guard"`
	PartialExtensions []string `toml:"partial_extensions"`
}

// Categories groups the per-category sections.
type Categories struct {
	Films  Category `toml:"films"`
	Series Category `toml:"series"`
	Music  Category `toml:"music"`
}

// Trackers configures the announce list embedded in every package.
type Trackers struct {
	Announce []string `toml:"announce"`
	Private  bool     `toml:"private"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey           string `toml:"api_key"`
	BaseURL          string `toml:"base_url"`
	Language         string `toml:"language"`
	FallbackLanguage string `toml:"fallback_language"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
}

// ITunes contains configuration for the iTunes Search API.
type ITunes struct {
	BaseURL        string `toml:"base_url"`
	Country        string `toml:"country"`
	Media          string `toml:"media"`
	Limit          int    `toml:"limit"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Tools names the external binaries and their process timeout.
type Tools struct {
	Mediainfo      string `toml:"mediainfo"`
	Mkbrr          string `toml:"mkbrr"`
	Python         string `toml:"python"`
	Guessit        bool   `toml:"guessit"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Workflow contains run-level scheduling settings.
type Workflow struct {
	ParallelJobs int `toml:"parallel_jobs"`
}

// Retag configures the tracker-change sweep.
type Retag struct {
	// Journal records per-artifact completion so an interrupted sweep resumes
	// without updating the same package twice.
	Journal bool `toml:"journal"`
	// ParallelJobs overrides workflow.parallel_jobs for the sweep when > 0.
	ParallelJobs int `toml:"parallel_jobs"`
}

// Overrides points at the optional identification overrides file.
type Overrides struct {
	Path string `toml:"path"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	// OnlyWhenChanged suppresses the summary when nothing was processed,
	// retagged, or failed.
	OnlyWhenChanged bool `toml:"only_when_changed"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for torrentify.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Categories    Categories    `toml:"categories"`
	Trackers      Trackers      `toml:"trackers"`
	TMDB          TMDB          `toml:"tmdb"`
	ITunes        ITunes        `toml:"itunes"`
	Tools         Tools         `toml:"tools"`
	Workflow      Workflow      `toml:"workflow"`
	Retag         Retag         `toml:"retag"`
	Overrides     Overrides     `toml:"overrides"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg, resolvedPath, exists, err := LoadUnvalidated(path)
	if err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, resolvedPath, exists, err
	}
	return cfg, resolvedPath, exists, nil
}

// LoadUnvalidated parses and normalizes the configuration without running
// Validate, for commands that only inspect state (cache, fingerprint show).
func LoadUnvalidated(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("torrentify.toml")
	if err != nil {
		return "", false, err
	}

	for _, candidate := range []string{defaultPath, projectPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return defaultPath, false, nil
}

// Category returns the section for a category name.
func (c *Config) Category(name string) (Category, bool) {
	switch name {
	case CategoryFilms:
		return c.Categories.Films, true
	case CategorySeries:
		return c.Categories.Series, true
	case CategoryMusic:
		return c.Categories.Music, true
	default:
		return Category{}, false
	}
}

// EnabledCategories returns enabled category names in processing order.
func (c *Config) EnabledCategories() []string {
	var names []string
	for _, name := range CategoryNames {
		if cat, _ := c.Category(name); cat.Enabled {
			names = append(names, name)
		}
	}
	return names
}

// NeedsTMDB reports whether any enabled category resolves through TMDB.
func (c *Config) NeedsTMDB() bool {
	return c.Categories.Films.Enabled || c.Categories.Series.Enabled
}

// OutputRoots returns every directory that may hold package artifacts:
// paths.dest_dir followed by each category destination, deduplicated.
func (c *Config) OutputRoots() []string {
	seen := make(map[string]struct{})
	var roots []string
	add := func(dir string) {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			return
		}
		if _, ok := seen[dir]; ok {
			return
		}
		seen[dir] = struct{}{}
		roots = append(roots, dir)
	}
	add(c.Paths.DestDir)
	for _, name := range CategoryNames {
		cat, _ := c.Category(name)
		add(cat.DestDir)
	}
	return roots
}

// RetagParallelism returns the sweep parallelism.
func (c *Config) RetagParallelism() int {
	if c.Retag.ParallelJobs > 0 {
		return c.Retag.ParallelJobs
	}
	return c.Workflow.ParallelJobs
}

// RetagJournalPath returns the journal database location.
func (c *Config) RetagJournalPath() string {
	return filepath.Join(c.Paths.StateDir, "retag.db")
}

// LockPath returns the run lock location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "torrentify.lock")
}

// EnsureDirectories creates the output, cache, and state directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DestDir, c.Paths.TMDBCacheDir, c.Paths.ITunesCacheDir, c.Paths.StateDir, filepath.Dir(c.Paths.FingerprintFile)}
	for _, name := range c.EnabledCategories() {
		cat, _ := c.Category(name)
		dirs = append(dirs, cat.DestDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
