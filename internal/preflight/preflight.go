package preflight

import (
	"context"
	"fmt"

	"torrentify/internal/config"
	"torrentify/internal/deps"
	"torrentify/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// Options tunes RunAll.
type Options struct {
	// Runner executes the guessit import probe. Nil skips it.
	Runner services.CommandRunner
	// Network enables the TMDB connectivity check.
	Network bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		results = append(results, fromStatus(status))
	}
	if cfg.Tools.Guessit && opts.Runner != nil {
		results = append(results, fromStatus(deps.CheckPythonModule(ctx, opts.Runner, cfg.Tools.Python, "guessit")))
	}

	for _, name := range cfg.EnabledCategories() {
		category, _ := cfg.Category(name)
		results = append(results, CheckSourceDirectory(fmt.Sprintf("Source (%s)", name), category.SourceDir))
	}
	results = append(results,
		CheckDirectoryAccess("Output directory", cfg.Paths.DestDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	)

	if opts.Network && cfg.NeedsTMDB() {
		results = append(results, CheckTMDB(ctx, cfg.TMDB.BaseURL, cfg.TMDB.APIKey))
	}
	return results
}

// Failed returns the failed required results.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

func fromStatus(status deps.Status) Result {
	detail := status.Detail
	if status.Available {
		detail = status.Command
	}
	return Result{
		Name:     status.Name,
		Passed:   status.Available,
		Optional: status.Optional,
		Detail:   detail,
	}
}
