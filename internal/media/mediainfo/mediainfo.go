package mediainfo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"torrentify/internal/services"
)

const defaultBinary = "mediainfo"

// Inspector produces mediainfo text reports.
type Inspector struct {
	Binary string
	Runner services.CommandRunner
}

// New returns an Inspector using binary (mediainfo when blank) and runner.
func New(binary string, runner services.CommandRunner) *Inspector {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = defaultBinary
	}
	return &Inspector{Binary: binary, Runner: runner}
}

// Inspect returns the mediainfo report for path with the Complete name line
// reduced to the file's base name, so reports never leak host paths.
func (i *Inspector) Inspect(ctx context.Context, path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("mediainfo inspect: empty path")
	}
	if i.Runner == nil {
		return "", services.Wrap(services.ErrConfiguration, "metadata", "mediainfo", "command runner unavailable", nil)
	}
	output, err := i.Runner.Run(ctx, i.Binary, path)
	if err != nil {
		if errors.Is(err, services.ErrTimeout) {
			return "", services.Wrap(services.ErrTimeout, "metadata", "mediainfo", filepath.Base(path), err)
		}
		return "", services.Wrap(services.ErrExternalTool, "metadata", "mediainfo", filepath.Base(path), err)
	}
	report := strings.TrimRight(string(output), "\r\n\t ")
	if report == "" {
		return "", services.Wrap(services.ErrExternalTool, "metadata", "mediainfo", fmt.Sprintf("empty report for %s", filepath.Base(path)), nil)
	}
	return RewriteCompleteName(report, filepath.Base(path)), nil
}

// RewriteCompleteName replaces the value of every "Complete name" field with name,
// keeping the report's column alignment.
func RewriteCompleteName(report, name string) string {
	lines := strings.Split(report, "\n")
	for idx, line := range lines {
		key, _, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(key) != "Complete name" {
			continue
		}
		lines[idx] = key + ": " + name
	}
	return strings.Join(lines, "\n")
}
