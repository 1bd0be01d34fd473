package main

import (
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"torrentify/internal/config"
	"torrentify/internal/logging"
	"torrentify/internal/preflight"
	"torrentify/internal/services"
	"torrentify/internal/workflow"
)

type runOptions struct {
	jobs          int
	categories    []string
	skipPreflight bool
}

func bindRunFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "Parallel jobs (overrides workflow.parallel_jobs)")
	cmd.Flags().StringSliceVar(&opts.categories, "category", nil, "Restrict the run to these categories (films, series, music)")
	cmd.Flags().BoolVar(&opts.skipPreflight, "skip-preflight", false, "Do not check binaries and directories before the run")
}

func newRunCommand(ctx *commandContext, opts *runOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process every enabled category (default action)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, ctx, opts)
		},
	}
	bindRunFlags(cmd, opts)
	return cmd
}

func runWorkflow(cmd *cobra.Command, ctx *commandContext, opts *runOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.jobs < 0 {
		return fmt.Errorf("--jobs must be positive, got %d", opts.jobs)
	}
	categories, err := selectCategories(cfg, opts.categories)
	if err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !opts.skipPreflight {
		results := preflight.RunAll(signalCtx, cfg, preflight.Options{
			Runner: services.ExecRunner{Timeout: 30 * time.Second},
		})
		if failed := preflight.Failed(results); len(failed) > 0 {
			for _, r := range failed {
				logging.ErrorWithContext(logger, "preflight check failed", "preflight_failed",
					logging.String("check", r.Name),
					logging.String("detail", r.Detail),
					logging.String(logging.FieldErrorHint, "run `torrentify preflight` for the full report"))
			}
			return fmt.Errorf("preflight failed: %d check(s) did not pass", len(failed))
		}
	}

	rt, err := workflow.Assemble(signalCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	deps := rt.Deps
	deps.Categories = categories
	deps.Parallelism = opts.jobs

	summary, runErr := workflow.Run(signalCtx, deps)
	if summary.RunID != "" {
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary, shouldColorize(cmd.OutOrStdout())))
	}
	return runErr
}

func selectCategories(cfg *config.Config, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return nil, nil
	}
	enabled := cfg.EnabledCategories()
	selected := make([]string, 0, len(requested))
	for _, raw := range requested {
		name := strings.ToLower(strings.TrimSpace(raw))
		if !slices.Contains(config.CategoryNames, name) {
			return nil, fmt.Errorf("unknown category %q (want one of %s)", raw, strings.Join(config.CategoryNames, ", "))
		}
		if !slices.Contains(enabled, name) {
			fmt.Fprintf(os.Stderr, "warn: category %s is disabled in the configuration\n", name)
			continue
		}
		selected = append(selected, name)
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("none of the requested categories are enabled")
	}
	return selected, nil
}
