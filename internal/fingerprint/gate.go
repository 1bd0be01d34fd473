package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"torrentify/internal/discovery"
	"torrentify/internal/fileutil"
	"torrentify/internal/logging"
	"torrentify/internal/runstats"
	"torrentify/internal/scheduler"
	"torrentify/internal/services"
)

// Digest returns the hex SHA-256 of the sorted, deduplicated, pipe-joined set.
// Blank entries are ignored.
func Digest(set []string) string {
	seen := make(map[string]struct{}, len(set))
	values := make([]string, 0, len(set))
	for _, v := range set {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	sum := sha256.Sum256([]byte(strings.Join(values, "|")))
	return hex.EncodeToString(sum[:])
}

// Updater replaces the tracker list embedded in an existing package.
type Updater interface {
	Update(ctx context.Context, pkg string, trackers []string) error
}

// Journal records per-artifact completion for a digest.
type Journal interface {
	Completed(ctx context.Context, digest string) (map[string]struct{}, error)
	Record(ctx context.Context, digest, path string) error
	Prune(ctx context.Context, keep string) error
	Reset(ctx context.Context) error
}

// Gate compares the current tracker digest with the persisted one.
type Gate struct {
	path     string
	trackers []string
	current  string
	previous string
	hasPrev  bool
	logger   *slog.Logger
}

// Open reads the persisted digest at path. A missing file means no previous digest.
func Open(path string, trackers []string, logger *slog.Logger) (*Gate, error) {
	g := &Gate{
		path:     path,
		trackers: append([]string(nil), trackers...),
		current:  Digest(trackers),
		logger:   logging.NewComponentLogger(logger, "fingerprint"),
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		g.previous = strings.TrimSpace(string(data))
		g.hasPrev = g.previous != ""
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read fingerprint %s: %w", path, err)
	}
	return g, nil
}

// Changed reports whether the current digest differs from the persisted one.
func (g *Gate) Changed() bool {
	return !g.hasPrev || g.previous != g.current
}

// Current returns the digest of the configured trackers.
func (g *Gate) Current() string { return g.current }

// Previous returns the persisted digest, if any.
func (g *Gate) Previous() (string, bool) { return g.previous, g.hasPrev }

// Path returns the digest file location.
func (g *Gate) Path() string { return g.path }

// Commit persists the current digest.
func (g *Gate) Commit() error {
	if err := os.MkdirAll(filepath.Dir(g.path), 0o755); err != nil {
		return fmt.Errorf("create fingerprint directory: %w", err)
	}
	if err := fileutil.WriteFileAtomic(g.path, []byte(g.current+"\n"), 0o644); err != nil {
		return fmt.Errorf("write fingerprint: %w", err)
	}
	g.previous = g.current
	g.hasPrev = true
	return nil
}

// SweepOptions configures Sweep.
type SweepOptions struct {
	Roots       []string
	Parallelism int
	Updater     Updater
	// Journal is optional; without it an interrupted sweep restarts from scratch.
	Journal Journal
	Stats   *runstats.Stats
}

// SweepResult summarizes a sweep.
type SweepResult struct {
	Triggered bool
	Scanned   int
	Updated   int
	Failed    int
	Resumed   int
	Committed bool
}

// Sweep retags every package under opts.Roots when the digest changed, then
// commits the digest when no update failed.
func (g *Gate) Sweep(ctx context.Context, opts SweepOptions) (SweepResult, error) {
	if !g.Changed() {
		g.logger.Debug("tracker set unchanged", logging.String("digest", g.current))
		return SweepResult{}, nil
	}
	if opts.Updater == nil {
		return SweepResult{}, services.Wrap(services.ErrConfiguration, "retag", "sweep", "package updater required", nil)
	}

	result := SweepResult{Triggered: true}
	packages, err := discovery.FindPackages(opts.Roots)
	if err != nil {
		return result, services.Wrap(services.ErrValidation, "retag", "enumerate packages", "", err)
	}
	result.Scanned = len(packages)
	if opts.Stats != nil {
		opts.Stats.RetagStarted(len(packages))
	}

	previous, _ := g.Previous()
	g.logger.Info("tracker set changed, retagging existing packages",
		logging.String("previous", shortDigest(previous)),
		logging.String("current", shortDigest(g.current)),
		logging.Int("packages", len(packages)))

	done := map[string]struct{}{}
	if opts.Journal != nil {
		if err := opts.Journal.Prune(ctx, g.current); err != nil {
			return result, fmt.Errorf("prune retag journal: %w", err)
		}
		if done, err = opts.Journal.Completed(ctx, g.current); err != nil {
			return result, fmt.Errorf("read retag journal: %w", err)
		}
	}

	var jobs []scheduler.Job
	for _, pkg := range packages {
		if _, ok := done[pkg]; ok {
			result.Resumed++
			if opts.Stats != nil {
				opts.Stats.RetagResumed()
			}
			continue
		}
		jobs = append(jobs, g.retagJob(pkg, opts))
	}
	if result.Resumed > 0 {
		g.logger.Info("resuming interrupted retag sweep", logging.Int("already_updated", result.Resumed))
	}

	report := scheduler.Run(ctx, opts.Parallelism, jobs)
	result.Updated = report.Succeeded
	result.Failed = report.Failed + report.NotStarted

	if result.Failed > 0 {
		logging.WarnWithContext(g.logger, "retag sweep incomplete, fingerprint kept",
			"retag_incomplete",
			logging.Int("failed", result.Failed),
			logging.Int("updated", result.Updated),
			logging.String(logging.FieldErrorHint, "check mkbrr output for the failed packages"),
			logging.String(logging.FieldImpact, "the next run retries the remaining packages"))
		return result, nil
	}

	if err := g.Commit(); err != nil {
		return result, err
	}
	result.Committed = true
	if opts.Journal != nil {
		if err := opts.Journal.Reset(ctx); err != nil {
			logging.WarnWithContext(g.logger, "retag journal reset failed", "retag_journal_reset_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "stale journal entries are pruned on the next tracker change"))
		}
	}
	g.logger.Info("retag sweep complete",
		logging.Int("updated", result.Updated),
		logging.Int("resumed", result.Resumed),
		logging.String("digest", shortDigest(g.current)))
	return result, nil
}

func (g *Gate) retagJob(pkg string, opts SweepOptions) scheduler.Job {
	return func(ctx context.Context) error {
		ctx = services.WithStage(ctx, "retag")
		logger := logging.WithContext(ctx, g.logger)
		if err := opts.Updater.Update(ctx, pkg, g.trackers); err != nil {
			if opts.Stats != nil {
				opts.Stats.RetagFailed()
			}
			logging.ErrorWithContext(logger, "package retag failed", "retag_failed",
				logging.String("package", pkg),
				logging.Error(err),
				logging.String("error_kind", services.Kind(err)),
				logging.String(logging.FieldErrorHint, "verify the package is readable and mkbrr is installed"))
			return err
		}
		if opts.Stats != nil {
			opts.Stats.RetagUpdated()
		}
		if opts.Journal != nil {
			if err := opts.Journal.Record(ctx, g.current, pkg); err != nil {
				logging.WarnWithContext(logger, "retag journal write failed", "retag_journal_write_failed",
					logging.String("package", pkg),
					logging.Error(err),
					logging.String(logging.FieldImpact, "package may be updated again if the sweep is interrupted"))
			}
		}
		logger.Debug("package retagged", logging.String("package", pkg))
		return nil
	}
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	if d == "" {
		return "none"
	}
	return d
}
