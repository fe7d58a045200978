package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"imgcompare/cache"
	"imgcompare/config"
	"imgcompare/output"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	var dirFlag string

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the persistent cache",
	}
	cacheCmd.PersistentFlags().StringVar(&dirFlag, "cache-dir", "", "Cache directory (default: cache.dir from the config file)")

	cacheCmd.AddCommand(newCacheInfoCommand(ctx, &dirFlag))
	cacheCmd.AddCommand(newCacheClearCommand(ctx, &dirFlag))

	return cacheCmd
}

func newCacheInfoCommand(ctx *commandContext, dirFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show how many normalized images the cache holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := ctx.cacheDir(*dirFlag)
			if err != nil {
				return err
			}
			stats, err := cache.ReadStats(dir)
			if err != nil {
				return err
			}

			sqlEntries := "no database"
			if stats.HasDatabase {
				sqlEntries = strconv.Itoa(stats.SQLEntries)
			}
			rows := [][]string{
				{"Directory", stats.Dir},
				{"Directory entries", strconv.Itoa(stats.DirEntries)},
				{"SQLite entries", sqlEntries},
				{"Size", humanize.IBytes(uint64(stats.Bytes))},
			}
			fmt.Fprintln(cmd.OutOrStdout(), output.RenderTable([]output.Column{
				{Header: "Cache"},
				{Header: "Value", Numeric: true},
			}, rows))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext, dirFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached normalized image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := ctx.cacheDir(*dirFlag)
			if err != nil {
				return err
			}
			removed, err := cache.Clear(dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache files from %s\n", removed, dir)
			return nil
		},
	}
}

// cacheDir prefers the flag and falls back to cache.dir from the config file
func (c *commandContext) cacheDir(flagValue string) (string, error) {
	if flagValue != "" {
		return config.ExpandPath(flagValue)
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.Cache.Dir == "" {
		return "", errors.New("no cache directory: pass --cache-dir or set cache.dir in the config file")
	}
	return cfg.Cache.Dir, nil
}
