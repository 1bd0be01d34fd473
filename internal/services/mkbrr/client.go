package mkbrr

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"torrentify/internal/services"
)

const defaultBinary = "mkbrr"

// Client invokes mkbrr through a CommandRunner.
type Client struct {
	binary  string
	private bool
	runner  services.CommandRunner
}

// Option customizes a Client.
type Option func(*Client)

// WithPrivate toggles the private flag on created packages.
func WithPrivate(private bool) Option {
	return func(c *Client) { c.private = private }
}

// New constructs a Client. Packages are private unless WithPrivate(false) is given.
func New(binary string, runner services.CommandRunner, opts ...Option) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = defaultBinary
	}
	c := &Client{binary: binary, private: true, runner: runner}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create builds a package for source at output announcing to trackers.
func (c *Client) Create(ctx context.Context, source, output string, trackers []string) error {
	if strings.TrimSpace(source) == "" || strings.TrimSpace(output) == "" {
		return services.Wrap(services.ErrValidation, "package", "mkbrr create", "source and output required", nil)
	}
	if len(trackers) == 0 {
		return services.Wrap(services.ErrConfiguration, "package", "mkbrr create", "no tracker configured", nil)
	}
	args := []string{"create", source, "--output", output}
	if c.private {
		args = append(args, "--private")
	}
	args = appendTrackers(args, trackers)
	return c.run(ctx, "mkbrr create", filepath.Base(source), args)
}

// Update rewrites the tracker list of pkg in place.
func (c *Client) Update(ctx context.Context, pkg string, trackers []string) error {
	if strings.TrimSpace(pkg) == "" {
		return services.Wrap(services.ErrValidation, "retag", "mkbrr modify", "package path required", nil)
	}
	if len(trackers) == 0 {
		return services.Wrap(services.ErrConfiguration, "retag", "mkbrr modify", "no tracker configured", nil)
	}
	args := appendTrackers([]string{"modify", pkg}, trackers)
	args = append(args, "--output", OutputBase(pkg))
	return c.run(ctx, "mkbrr modify", filepath.Base(pkg), args)
}

func (c *Client) run(ctx context.Context, operation, subject string, args []string) error {
	if c.runner == nil {
		return services.Wrap(services.ErrConfiguration, "package", operation, "command runner unavailable", nil)
	}
	if _, err := c.runner.Run(ctx, c.binary, args...); err != nil {
		if errors.Is(err, services.ErrTimeout) {
			return services.Wrap(services.ErrTimeout, "package", operation, subject, err)
		}
		return services.Wrap(services.ErrExternalTool, "package", operation, subject, err)
	}
	return nil
}

// OutputBase returns pkg without its extension, the form mkbrr expects for
// --output when rewriting a package next to itself.
func OutputBase(pkg string) string {
	return strings.TrimSuffix(pkg, filepath.Ext(pkg))
}

func appendTrackers(args, trackers []string) []string {
	for _, t := range trackers {
		if t = strings.TrimSpace(t); t != "" {
			args = append(args, "--tracker", t)
		}
	}
	return args
}
