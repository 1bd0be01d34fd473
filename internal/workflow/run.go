package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"torrentify/internal/config"
	"torrentify/internal/discovery"
	"torrentify/internal/fingerprint"
	"torrentify/internal/logging"
	"torrentify/internal/notifications"
	"torrentify/internal/release"
	"torrentify/internal/runstats"
	"torrentify/internal/scheduler"
	"torrentify/internal/services"
	"torrentify/internal/staging"
)

// stalePartialAge is how old an abandoned partial package must be before a
// run deletes it.
const stalePartialAge = time.Hour

// ErrAlreadyRunning is returned when another run holds the lock.
var ErrAlreadyRunning = errors.New("another torrentify run is in progress")

// ItemProcessor processes one discovered item.
type ItemProcessor interface {
	Process(ctx context.Context, item discovery.Item) (release.Outcome, error)
}

var _ ItemProcessor = (*release.Processor)(nil)

// Deps holds the collaborators of a run.
type Deps struct {
	Config    *config.Config
	Gate      *fingerprint.Gate
	Updater   fingerprint.Updater
	Journal   fingerprint.Journal
	Processor ItemProcessor
	Notifier  notifications.Service
	Stats     *runstats.Stats
	Logger    *slog.Logger
	// Categories restricts the run to these enabled categories when set.
	Categories []string
	// Parallelism overrides the configured job count when positive.
	Parallelism int
}

// Failure records one item that failed.
type Failure struct {
	Category string
	Item     string
	Kind     string
	Err      error
}

// Summary is the result of a run.
type Summary struct {
	RunID    string
	Stats    runstats.Snapshot
	Retag    fingerprint.SweepResult
	Failures []Failure
}

// Run executes one complete run. Item failures are reported in the Summary;
// the returned error covers lock, sweep setup, and cancellation failures.
func Run(ctx context.Context, deps Deps) (Summary, error) {
	if deps.Config == nil || deps.Processor == nil {
		return Summary{}, errors.New("workflow requires config and processor")
	}
	cfg := deps.Config
	logger := logging.NewComponentLogger(deps.Logger, "workflow")

	unlock, err := acquireLock(cfg.LockPath())
	if err != nil {
		return Summary{}, err
	}
	defer unlock()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger = logging.WithContext(ctx, logger)

	stats := deps.Stats
	if stats == nil {
		stats = runstats.New(config.CategoryNames...)
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	parallelism := cfg.Workflow.ParallelJobs
	if deps.Parallelism > 0 {
		parallelism = deps.Parallelism
	}

	summary := Summary{RunID: runID}
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("parallel_jobs", parallelism),
		logging.Any("categories", selectCategories(cfg, deps.Categories)))

	if deps.Gate != nil {
		retagParallelism := cfg.RetagParallelism()
		if deps.Parallelism > 0 && cfg.Retag.ParallelJobs <= 0 {
			retagParallelism = deps.Parallelism
		}
		result, err := deps.Gate.Sweep(ctx, fingerprint.SweepOptions{
			Roots:       cfg.OutputRoots(),
			Parallelism: retagParallelism,
			Updater:     deps.Updater,
			Journal:     deps.Journal,
			Stats:       stats,
		})
		summary.Retag = result
		if err != nil {
			logging.ErrorWithContext(logger, "retag sweep failed", "retag_sweep_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the output directories and the retag journal"),
				logging.String(logging.FieldImpact, "existing packages keep their previous trackers until the next run"))
			_ = notifier.NotifyError(ctx, err, "retag sweep")
		}
	}

	if ctx.Err() == nil {
		staging.CleanStale(ctx, cfg.OutputRoots(), stalePartialAge, logger)
	}

	for _, name := range selectCategories(cfg, deps.Categories) {
		if ctx.Err() != nil {
			break
		}
		failures := runCategory(ctx, logger, cfg, name, parallelism, deps.Processor, stats)
		summary.Failures = append(summary.Failures, failures...)
	}

	stats.Finish()
	summary.Stats = stats.Snapshot()
	logRunSummary(logger, summary)

	if ctx.Err() != nil {
		return summary, fmt.Errorf("run interrupted: %w", ctx.Err())
	}
	if err := notifier.NotifyRunCompleted(ctx, summary.Stats); err != nil {
		logging.WarnWithContext(logger, "run notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "summary only available in logs"))
	}
	return summary, nil
}

func acquireLock(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, path)
	}
	return func() { _ = lock.Unlock() }, nil
}

func selectCategories(cfg *config.Config, only []string) []string {
	enabled := cfg.EnabledCategories()
	if len(only) == 0 {
		return enabled
	}
	wanted := make(map[string]struct{}, len(only))
	for _, name := range only {
		wanted[name] = struct{}{}
	}
	var selected []string
	for _, name := range enabled {
		if _, ok := wanted[name]; ok {
			selected = append(selected, name)
		}
	}
	return selected
}

// LayoutFor returns the discovery layout of category: films are discovered
// file by file, series and music by top-level entry.
func LayoutFor(category string) discovery.Layout {
	if category == config.CategoryFilms {
		return discovery.LayoutFiles
	}
	return discovery.LayoutEntries
}

func runCategory(ctx context.Context, logger *slog.Logger, cfg *config.Config, name string, parallelism int, processor ItemProcessor, stats *runstats.Stats) []Failure {
	ctx = services.WithCategory(ctx, name)
	logger = logging.WithContext(ctx, logger)
	category, _ := cfg.Category(name)

	mode := "sequential"
	if parallelism > 1 {
		mode = fmt.Sprintf("parallel (%d jobs)", parallelism)
	}
	logger.Info("category started", logging.String("mode", mode), logging.String("source", category.SourceDir))

	items, err := discovery.Discover(discovery.Options{
		Category:   name,
		SourceDir:  category.SourceDir,
		DestDir:    category.DestDir,
		Extensions: category.Extensions,
		Layout:     LayoutFor(name),
		Logger:     logger,
	})
	if err != nil {
		logging.ErrorWithContext(logger, "discovery failed", "discovery_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the category source directory permissions"))
		return []Failure{{Category: name, Kind: services.Kind(err), Err: err}}
	}
	stats.AddDiscovered(name, len(items))
	if len(items) == 0 {
		logger.Info("no items to process")
		return nil
	}

	var mu sync.Mutex
	var failures []Failure
	jobs := make([]scheduler.Job, len(items))
	for idx, item := range items {
		position := idx + 1
		jobs[idx] = func(ctx context.Context) error {
			itemLogger := logging.WithContext(services.WithItem(ctx, item.Name), logger)
			itemLogger.Debug("item started",
				logging.Int("position", position),
				logging.Int("total", len(items)))
			outcome, err := processor.Process(ctx, item)
			if err != nil {
				stats.Failed(name)
				logging.ErrorWithContext(itemLogger, "item failed", "item_failed",
					logging.Error(err),
					logging.String("error_kind", services.Kind(err)),
					logging.String(logging.FieldErrorHint, "the item is retried on the next run"))
				mu.Lock()
				failures = append(failures, Failure{Category: name, Item: item.Name, Kind: services.Kind(err), Err: err})
				mu.Unlock()
				return err
			}
			switch outcome {
			case release.Processed:
				stats.Processed(name)
			case release.Skipped:
				stats.Skipped(name)
			case release.Deferred:
				stats.Deferred(name)
			case release.Empty:
				stats.Empty(name)
			}
			return nil
		}
	}

	report := scheduler.Run(ctx, parallelism, jobs)
	for _, jobErr := range report.Errors {
		if !errors.Is(jobErr, scheduler.ErrNotStarted) && !errors.Is(jobErr, scheduler.ErrPanic) {
			continue
		}
		item := items[jobErr.Index]
		stats.Failed(name)
		if errors.Is(jobErr, scheduler.ErrPanic) {
			logging.ErrorWithContext(logger, "item panicked", "item_panic",
				logging.String(logging.FieldItem, item.Name),
				logging.Error(jobErr.Err))
		}
		failures = append(failures, Failure{Category: name, Item: item.Name, Kind: services.Kind(jobErr.Err), Err: jobErr.Err})
	}

	logger.Info("category finished",
		logging.Int("items", report.Total),
		logging.Int("succeeded", report.Succeeded),
		logging.Int("failed", report.Failed),
		logging.Int("not_started", report.NotStarted))
	return failures
}

func logRunSummary(logger *slog.Logger, summary Summary) {
	snap := summary.Stats
	logger.Info("run summary",
		logging.String(logging.FieldEventType, "run_summary"),
		logging.Int64("processed", snap.Processed),
		logging.Int64("skipped", snap.Skipped),
		logging.Int64("deferred", snap.Deferred),
		logging.Int64("empty", snap.Empty),
		logging.Int64("failed", snap.Failed),
		logging.Int64("tmdb_found", snap.TMDB.Found),
		logging.Int64("tmdb_missing", snap.TMDB.Missing),
		logging.Int64("itunes_found", snap.ITunes.Found),
		logging.Int64("itunes_missing", snap.ITunes.Missing),
		logging.Bool("retag_triggered", snap.Retag.Triggered),
		logging.Int64("retag_updated", snap.Retag.Updated),
		logging.Int64("retag_failed", snap.Retag.Failed),
		logging.String("duration", runstats.FormatDuration(snap.Duration)))
}
