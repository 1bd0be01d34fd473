package release

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"torrentify/internal/discovery"
	"torrentify/internal/fileutil"
	"torrentify/internal/identification"
	"torrentify/internal/logging"
	"torrentify/internal/runstats"
	"torrentify/internal/services"
)

// Outcome is the result of processing one item.
type Outcome int

const (
	// Processed means at least one stage ran.
	Processed Outcome = iota
	// Skipped means every stage was already done.
	Skipped
	// Deferred means the source is still being transferred.
	Deferred
	// Empty means the item has no media file to describe.
	Empty
)

func (o Outcome) String() string {
	switch o {
	case Processed:
		return "processed"
	case Skipped:
		return "skipped"
	case Deferred:
		return "deferred"
	case Empty:
		return "empty"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Inspector produces the technical report of a media file.
type Inspector interface {
	Inspect(ctx context.Context, path string) (string, error)
}

// PackageCreator writes a package for source at output.
type PackageCreator interface {
	Create(ctx context.Context, source, output string, trackers []string) error
}

// LookupResolver resolves lookup tags and reports whether a written tag is
// still current.
type LookupResolver interface {
	Resolve(ctx context.Context, item discovery.Item) (identification.Result, error)
	TagCurrent(ctx context.Context, item discovery.Item, tag string) (bool, error)
}

var _ LookupResolver = (*identification.Resolver)(nil)

// Options configures a Processor.
type Options struct {
	Inspector Inspector
	Creator   PackageCreator
	Resolver  LookupResolver
	Trackers  []string
	// PartialExtensions maps a category to the in-progress extensions that
	// defer its folder items. Categories without an entry are never deferred.
	PartialExtensions map[string][]string
	Stats             *runstats.Stats
	Logger            *slog.Logger
	// Now overrides the clock used for the Added On stamp.
	Now func() time.Time
}

// Processor runs the stages of items. It is safe for concurrent use on
// distinct items.
type Processor struct {
	inspector Inspector
	creator   PackageCreator
	resolver  LookupResolver
	trackers  []string
	partial   map[string][]string
	stats     *runstats.Stats
	logger    *slog.Logger
	now       func() time.Time
}

// NewProcessor validates opts and returns a Processor.
func NewProcessor(opts Options) (*Processor, error) {
	if opts.Inspector == nil || opts.Creator == nil || opts.Resolver == nil {
		return nil, services.Wrap(services.ErrConfiguration, "release", "init", "inspector, creator and resolver are required", nil)
	}
	if len(opts.Trackers) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "release", "init", "at least one tracker is required", nil)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Processor{
		inspector: opts.Inspector,
		creator:   opts.Creator,
		resolver:  opts.Resolver,
		trackers:  append([]string(nil), opts.Trackers...),
		partial:   opts.PartialExtensions,
		stats:     opts.Stats,
		logger:    logging.NewComponentLogger(opts.Logger, "release"),
		now:       now,
	}, nil
}

// Process runs the pending stages of item. A stage failure stops the item
// and is returned; completed artifacts stay on disk for the next run.
func (p *Processor) Process(ctx context.Context, item discovery.Item) (Outcome, error) {
	ctx = services.WithItem(services.WithCategory(ctx, item.Category), item.Name)
	logger := logging.WithContext(ctx, p.logger)

	if exts, ok := p.partial[item.Category]; ok && item.Kind == discovery.KindFolder {
		busy, err := discovery.HasPartial(item.Root, exts)
		if err != nil {
			return Processed, services.Wrap(services.ErrValidation, "release", "partial scan", "", err)
		}
		if busy {
			logger.Info("transfer in progress, deferring item",
				logging.String(logging.FieldEventType, "item_deferred"),
				logging.String("source", item.Root))
			return Deferred, nil
		}
	}

	if strings.TrimSpace(item.Reference) == "" {
		logging.WarnWithContext(logger, "no media file found, item ignored", "item_empty",
			logging.String("source", item.Root),
			logging.String(logging.FieldErrorHint, "check the folder contains files with a configured extension"),
			logging.String(logging.FieldImpact, "no release is produced for this folder"))
		return Empty, nil
	}

	status, err := p.Status(ctx, item)
	if err != nil {
		return Processed, err
	}
	if status.Complete() {
		logger.Debug("release already complete", logging.String(logging.FieldEventType, "item_skipped"))
		return Skipped, nil
	}

	artifacts := ArtifactsFor(item)
	if err := os.MkdirAll(artifacts.Dir, 0o755); err != nil {
		return Processed, fmt.Errorf("create release dir: %w", err)
	}

	start := time.Now()
	pending := status.Pending()
	for _, stage := range pending {
		stageCtx := services.WithStage(ctx, string(stage))
		stageStart := time.Now()
		if err := p.runStage(stageCtx, stage, item, artifacts); err != nil {
			return Processed, err
		}
		logging.WithContext(stageCtx, p.logger).Debug("stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("duration", time.Since(stageStart)))
	}

	logger.Info("release written",
		logging.String(logging.FieldEventType, "item_processed"),
		logging.Int("stages_run", len(pending)),
		logging.Duration("duration", time.Since(start)))
	return Processed, nil
}

func (p *Processor) runStage(ctx context.Context, stage Stage, item discovery.Item, a Artifacts) error {
	switch stage {
	case StageMetadata:
		return p.writeMetadata(ctx, item, a)
	case StagePackage:
		return p.writePackage(ctx, item, a)
	case StageLookup:
		return p.writeTag(ctx, item, a)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

func (p *Processor) writeMetadata(ctx context.Context, item discovery.Item, a Artifacts) error {
	report, err := p.inspector.Inspect(ctx, item.Reference)
	if err != nil {
		return err
	}
	content := FormatNFO(item.Name, p.now(), report)
	if err := fileutil.WriteFileAtomic(a.NFO, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write nfo: %w", err)
	}
	return nil
}

func (p *Processor) writePackage(ctx context.Context, item discovery.Item, a Artifacts) error {
	partial := a.PartialPackage()
	if err := fileutil.RemoveIfExists(partial); err != nil {
		return fmt.Errorf("remove stale partial package: %w", err)
	}
	if err := p.creator.Create(ctx, item.Root, partial, p.trackers); err != nil {
		_ = fileutil.RemoveIfExists(partial)
		return err
	}
	if !fileutil.Exists(partial) {
		return services.Wrap(services.ErrExternalTool, "package", "create", "creator reported success but wrote no package", nil)
	}
	if err := os.Rename(partial, a.Package); err != nil {
		_ = fileutil.RemoveIfExists(partial)
		return fmt.Errorf("finalize package: %w", err)
	}
	return nil
}

func (p *Processor) writeTag(ctx context.Context, item discovery.Item, a Artifacts) error {
	result, err := p.resolver.Resolve(ctx, item)
	if err != nil {
		if errors.Is(err, identification.ErrNoProvider) {
			return services.Wrap(services.ErrConfiguration, "lookup", "resolve", "", err)
		}
		return err
	}
	if err := fileutil.WriteFileAtomic(a.Tag, []byte(result.Tag), 0o644); err != nil {
		return fmt.Errorf("write tag: %w", err)
	}
	logger := logging.WithContext(ctx, p.logger)
	if result.Found {
		if p.stats != nil {
			p.stats.LookupFound(result.Provider)
		}
		logger.Debug("lookup resolved",
			logging.String("tag", result.Tag),
			logging.Bool("cached", result.Cached))
		return nil
	}
	if p.stats != nil {
		p.stats.LookupMissing(result.Provider)
	}
	logging.WarnWithContext(logger, "no metadata match", "lookup_not_found",
		logging.String("provider", result.Provider),
		logging.String("query", result.Guess.Title),
		logging.String(logging.FieldErrorHint, "add an override for this release to pin an id"),
		logging.String(logging.FieldImpact, "release tagged as not found"))
	return nil
}
