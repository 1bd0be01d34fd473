package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"torrentify/internal/services"
)

// Validate ensures the configuration is usable. Every error wraps
// services.ErrConfiguration.
func (c *Config) Validate() error {
	var problems []error
	problems = append(problems, c.validateTrackers()...)
	problems = append(problems, c.validateCategories()...)
	problems = append(problems, c.validateTMDB()...)
	problems = append(problems, c.validateLogging()...)
	if len(problems) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "config", "validate", "invalid configuration", errors.Join(problems...))
}

func (c *Config) validateTrackers() []error {
	if len(c.Trackers.Announce) == 0 {
		return []error{errors.New("trackers.announce must list at least one tracker (or set TRACKERS)")}
	}
	var problems []error
	for _, tracker := range c.Trackers.Announce {
		parsed, err := url.Parse(tracker)
		if err != nil || parsed.Host == "" {
			problems = append(problems, fmt.Errorf("trackers.announce: %q is not a valid URL", tracker))
			continue
		}
		switch strings.ToLower(parsed.Scheme) {
		case "http", "https", "udp":
		default:
			problems = append(problems, fmt.Errorf("trackers.announce: %q must use http, https, or udp", tracker))
		}
	}
	return problems
}

func (c *Config) validateCategories() []error {
	enabled := c.EnabledCategories()
	if len(enabled) == 0 {
		return []error{errors.New("no category enabled: set categories.<name>.enabled (or ENABLE_FILMS, ENABLE_SERIES, ENABLE_MUSIQUES)")}
	}
	var problems []error
	for _, name := range enabled {
		cat, _ := c.Category(name)
		if strings.TrimSpace(cat.SourceDir) == "" {
			problems = append(problems, fmt.Errorf("categories.%s.source_dir must be set", name))
		}
		if cat.SourceDir != "" && cat.SourceDir == cat.DestDir {
			problems = append(problems, fmt.Errorf("categories.%s: source_dir and dest_dir must differ", name))
		}
	}
	return problems
}

func (c *Config) validateTMDB() []error {
	if !c.NeedsTMDB() || c.TMDB.APIKey != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return []error{fmt.Errorf("tmdb.api_key is required when films or series are enabled. Set TMDB_API_KEY or edit %s (create with 'torrentify config init')", defaultPath)}
}

func (c *Config) validateLogging() []error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return []error{fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)}
	}
}
