package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"imgcompare/config"
	"imgcompare/logging"
)

// commandContext carries the persistent flags shared by every subcommand
type commandContext struct {
	configFlag string
	logLevel   string
	logFormat  string
	logFile    string
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "imgcompare",
		Short:         "Find visually similar images in a directory tree",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path (TOML)")
	flags.StringVar(&ctx.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&ctx.logFormat, "log-format", "", "Console log format: text or json")
	flags.StringVar(&ctx.logFile, "log-file", "", "Also write a JSON debug log to this file")

	rootCmd.AddCommand(newCompareCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// loadConfig reads the config file and layers the logging flags and opts on top
func (c *commandContext) loadConfig(opts ...config.Option) (*config.Config, error) {
	all := []config.Option{func(cfg *config.Config) {
		if strings.TrimSpace(c.logLevel) != "" {
			cfg.Logging.Level = c.logLevel
		}
		if strings.TrimSpace(c.logFormat) != "" {
			cfg.Logging.Format = c.logFormat
		}
		if strings.TrimSpace(c.logFile) != "" {
			cfg.Logging.File = c.logFile
		}
	}}
	all = append(all, opts...)

	cfg, _, err := config.Load(c.configFlag, all...)
	return cfg, err
}

// newLogger builds the run logger tagged with a fresh run id
func newLogger(cfg *config.Config, console io.Writer) (*slog.Logger, func() error, error) {
	logger, cleanup, err := logging.Setup(logging.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		File:    cfg.Logging.File,
		Console: console,
	})
	if err != nil {
		return nil, nil, err
	}
	return logger.With("run_id", uuid.NewString()), cleanup, nil
}
