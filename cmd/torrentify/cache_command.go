package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"torrentify/internal/cachestore"
	"torrentify/internal/logging"
	"torrentify/internal/runstats"
	"torrentify/internal/workflow"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	var provider string

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune the lookup caches",
	}
	cacheCmd.PersistentFlags().StringVar(&provider, "provider", "", "Cache to operate on (tmdb or itunes); list and clear default to both")

	open := func(requireOne bool) (map[string]*cachestore.Store, error) {
		cfg, err := ctx.inspectConfig()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		caches, err := workflow.OpenCaches(cfg, logging.NewNop())
		if err != nil {
			return nil, err
		}
		name := strings.ToLower(strings.TrimSpace(provider))
		if name == "" {
			if requireOne {
				return nil, fmt.Errorf("--provider is required (%s or %s)", runstats.ProviderTMDB, runstats.ProviderITunes)
			}
			return caches, nil
		}
		store, ok := caches[name]
		if !ok {
			return nil, fmt.Errorf("unknown provider %q (want %s or %s)", provider, runstats.ProviderTMDB, runstats.ProviderITunes)
		}
		return map[string]*cachestore.Store{name: store}, nil
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached lookups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caches, err := open(false)
			if err != nil {
				return err
			}
			var rows [][]string
			for _, name := range sortedProviders(caches) {
				entries, err := caches[name].List()
				if err != nil {
					return err
				}
				for _, entry := range entries {
					rows = append(rows, []string{name, entry.Key, entry.ModTime.Format("2006-01-02 15:04")})
				}
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No cached lookups")
				return nil
			}
			fmt.Fprintln(out, renderTable([]string{"Provider", "Key", "Updated"}, rows, nil))
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "show <key>",
		Short: "Print one cached lookup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caches, err := open(true)
			if err != nil {
				return err
			}
			for _, store := range caches {
				entry, ok := store.Get(args[0])
				if !ok {
					return fmt.Errorf("no cache entry %q", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(entry.Value)))
			}
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "remove <key>",
		Short: "Remove one cached lookup so the next run queries the provider again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caches, err := open(true)
			if err != nil {
				return err
			}
			for name, store := range caches {
				if err := store.Remove(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from the %s cache\n", args[0], name)
			}
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached lookup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caches, err := open(false)
			if err != nil {
				return err
			}
			for _, name := range sortedProviders(caches) {
				removed, err := caches[name].Clear()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s entries\n", removed, name)
			}
			return nil
		},
	})

	return cacheCmd
}

func sortedProviders(caches map[string]*cachestore.Store) []string {
	names := make([]string, 0, len(caches))
	for name := range caches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
