package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"torrentify/internal/preflight"
	"torrentify/internal/services"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	var network bool

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check binaries, directories, and optionally TMDB access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{
				Runner:  services.ExecRunner{Timeout: 30 * time.Second},
				Network: network,
			})

			out := cmd.OutOrStdout()
			color := shouldColorize(out)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, statusLabel(color, r), r.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d required check(s) failed", len(failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&network, "network", false, "Also verify the TMDB API key")
	return cmd
}

func statusLabel(color bool, r preflight.Result) string {
	switch {
	case r.Passed:
		return colorize(color, text.Colors{text.FgGreen}, "ok")
	case r.Optional:
		return colorize(color, text.Colors{text.FgYellow}, "warn")
	default:
		return colorize(color, text.Colors{text.FgRed}, "fail")
	}
}
