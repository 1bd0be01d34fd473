package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"torrentify/internal/config"
	"torrentify/internal/fileutil"
	"torrentify/internal/fingerprint"
	"torrentify/internal/logging"
	"torrentify/internal/retagjournal"
)

func newFingerprintCommand(ctx *commandContext) *cobra.Command {
	fpCmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Inspect the tracker fingerprint that gates retagging",
	}

	fpCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the stored and current tracker digests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.inspectConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			gate, err := fingerprint.Open(cfg.Paths.FingerprintFile, cfg.Trackers.Announce, logging.NewNop())
			if err != nil {
				return err
			}
			previous, ok := gate.Previous()
			if !ok {
				previous = "(none)"
			}
			rows := [][]string{
				{"File", gate.Path()},
				{"Stored", previous},
				{"Current", gate.Current()},
				{"Trackers", fmt.Sprintf("%d", len(cfg.Trackers.Announce))},
				{"Retag pending", yesNo(gate.Changed())},
			}
			if done, ok := journalProgress(cmd.Context(), cfg, gate.Current()); ok {
				rows = append(rows, []string{"Already retagged", fmt.Sprintf("%d", done)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Fingerprint", "Value"}, rows, nil))
			return nil
		},
	})

	fpCmd.AddCommand(&cobra.Command{
		Use:   "accept",
		Short: "Store the current digest without retagging existing packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			gate, err := fingerprint.Open(cfg.Paths.FingerprintFile, cfg.Trackers.Announce, logging.NewNop())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !gate.Changed() {
				fmt.Fprintln(out, "Fingerprint already current")
				return nil
			}
			if err := gate.Commit(); err != nil {
				return err
			}
			if cfg.Retag.Journal {
				journal, err := retagjournal.Open(cmd.Context(), cfg.RetagJournalPath())
				if err != nil {
					return err
				}
				defer journal.Close()
				if err := journal.Reset(cmd.Context()); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "Stored digest %s; existing packages keep their current trackers\n", gate.Current())
			return nil
		},
	})

	return fpCmd
}

func journalProgress(ctx context.Context, cfg *config.Config, digest string) (int, bool) {
	if !cfg.Retag.Journal || !fileutil.Exists(cfg.RetagJournalPath()) {
		return 0, false
	}
	journal, err := retagjournal.Open(ctx, cfg.RetagJournalPath())
	if err != nil {
		return 0, false
	}
	defer journal.Close()
	n, err := journal.Count(ctx, digest)
	if err != nil {
		return 0, false
	}
	return n, true
}
