package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"torrentify/internal/config"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := newCommandContext(&configFlag)
	opts := &runOptions{}

	rootCmd := &cobra.Command{
		Use:           "torrentify",
		Short:         "Build release artifacts for a media library",
		Long:          "torrentify scans the configured films, series, and music folders and writes a technical report, a torrent package, and a lookup tag for every new item.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, ctx, opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	bindRunFlags(rootCmd, opts)

	rootCmd.AddCommand(newRunCommand(ctx, opts))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))
	rootCmd.AddCommand(newFingerprintCommand(ctx))
	rootCmd.AddCommand(newPreflightCommand(ctx))
	rootCmd.AddCommand(newNotifyCommand(ctx))
	rootCmd.AddCommand(newLogsCommand(ctx))

	return rootCmd
}

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) path() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// ensureConfig loads and validates the configuration once per invocation.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(c.path())
		c.configPath = path
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// inspectConfig loads the configuration without validation, for commands
// that only read state.
func (c *commandContext) inspectConfig() (*config.Config, error) {
	cfg, _, _, err := config.LoadUnvalidated(c.path())
	return cfg, err
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
