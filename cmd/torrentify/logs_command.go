package main

import (
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"torrentify/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines    int
		follow   bool
		lastRun  bool
		filter   logs.Filter
		filePath string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show records from the JSON run log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(filePath)
			if path == "" {
				cfg, err := ctx.inspectConfig()
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if strings.TrimSpace(cfg.Paths.LogDir) == "" {
					return errors.New("paths.log_dir is empty; no log file is written")
				}
				path = filepath.Join(cfg.Paths.LogDir, "torrentify.log")
			}
			if lastRun && filter.RunID == "" {
				id, err := logs.LastRunID(path)
				if err != nil {
					return err
				}
				if id == "" {
					return fmt.Errorf("no run recorded in %s", path)
				}
				filter.RunID = id
			}

			out := cmd.OutOrStdout()
			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines, Filter: filter})
			if err != nil {
				return err
			}
			for _, rec := range result.Records {
				fmt.Fprintln(out, rec.Format())
			}
			if !follow {
				return nil
			}

			followCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			offset := result.Offset
			for followCtx.Err() == nil {
				result, err := logs.Tail(followCtx, path, logs.TailOptions{
					Offset: offset,
					Follow: true,
					Wait:   5 * time.Second,
					Filter: filter,
				})
				if err != nil {
					if followCtx.Err() != nil {
						return nil
					}
					return err
				}
				for _, rec := range result.Records {
					fmt.Fprintln(out, rec.Format())
				}
				offset = result.Offset
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of records to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new records")
	cmd.Flags().BoolVar(&lastRun, "last-run", false, "Only show records of the most recent run")
	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only show records of this run id")
	cmd.Flags().StringVar(&filter.Category, "category", "", "Only show records of this category")
	cmd.Flags().StringVar(&filter.Item, "item", "", "Only show records whose item contains this text")
	cmd.Flags().StringVar(&filter.MinLevel, "level", "info", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&filePath, "file", "", "Read this log file instead of <log_dir>/torrentify.log")
	return cmd
}
