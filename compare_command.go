package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"imgcompare/cache"
	"imgcompare/compare"
	"imgcompare/config"
	"imgcompare/imageprocessor"
	"imgcompare/output"
	"imgcompare/scanner"
	"imgcompare/signalhandler"
	"imgcompare/types"
)

const (
	progressAuto = "auto"
	progressBar  = "bar"
	progressLog  = "log"
	progressNone = "none"
)

type compareFlags struct {
	threshold    string
	workers      int
	strict       bool
	cacheDir     string
	cacheBackend string
	noCache      bool
	format       string
	outputPath   string
	allScores    bool
	progress     string
}

func newCompareCommand(ctx *commandContext) *cobra.Command {
	flags := &compareFlags{}

	cmd := &cobra.Command{
		Use:   "compare <dir>",
		Short: "Compare every pair of images under a directory",
		Long: `Compare every pair of images found under <dir> and report the pairs whose
similarity score is above the threshold.

Images are resized to a 100x100 grayscale grid and scored with SSIM. Pairs
whose aspect ratios differ by 0.01 or more score 0 without being compared.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}
			cfg, err := ctx.loadConfig(opts...)
			if err != nil {
				return err
			}
			return runCompare(cmd, cfg, args[0], flags.progress)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.threshold, "threshold", "t", "", "Similarity threshold between 0.0 and 1.0 (default 0.9)")
	f.IntVarP(&flags.workers, "workers", "w", 0, "Worker count (default: number of CPUs)")
	f.BoolVar(&flags.strict, "strict", false, "Abort on the first unreadable image instead of skipping it")
	f.StringVar(&flags.cacheDir, "cache-dir", "", "Keep normalized images in this directory between runs")
	f.StringVar(&flags.cacheBackend, "cache-backend", "", "Persistent cache backend: dir or sqlite (default dir)")
	f.BoolVar(&flags.noCache, "no-cache", false, "Normalize every image in memory, ignoring any cache in the config file")
	f.StringVarP(&flags.format, "format", "f", "", "Output format: txt, json, csv, yaml or table")
	f.StringVarP(&flags.outputPath, "output", "o", "", "Write results to this file instead of stdout")
	f.BoolVar(&flags.allScores, "all-scores", false, "Output every pair, not only similar ones")
	f.StringVar(&flags.progress, "progress", progressAuto, "Progress display: auto, bar, log or none")

	return cmd
}

// options turns explicitly set flags into config options so that unset flags
// leave config file values alone
func (f *compareFlags) options(cmd *cobra.Command) ([]config.Option, error) {
	var opts []config.Option
	changed := cmd.Flags().Changed

	if changed("threshold") {
		threshold, err := config.ParseThreshold(f.threshold)
		if err != nil {
			return nil, err
		}
		opts = append(opts, config.WithThreshold(threshold))
	}
	if changed("workers") {
		opts = append(opts, config.WithWorkers(f.workers))
	}
	if changed("strict") {
		opts = append(opts, config.WithStrict(f.strict))
	}
	if f.noCache && (changed("cache-dir") || changed("cache-backend")) {
		return nil, errors.New("--no-cache cannot be combined with --cache-dir or --cache-backend")
	}
	if f.noCache {
		opts = append(opts, config.WithEphemeralCache())
	}
	if changed("cache-dir") || changed("cache-backend") {
		opts = append(opts, func(c *config.Config) {
			dir, backend := c.Cache.Dir, c.Cache.Backend
			if changed("cache-dir") {
				dir = f.cacheDir
			}
			if changed("cache-backend") {
				backend = f.cacheBackend
			}
			config.WithPersistentCache(dir, backend)(c)
		})
	}
	if changed("format") || changed("output") || changed("all-scores") {
		format, path, all := f.format, f.outputPath, f.allScores
		opts = append(opts, func(c *config.Config) {
			if !changed("format") {
				format = c.Output.Format
			}
			if !changed("output") {
				path = c.Output.Path
			}
			if !changed("all-scores") {
				all = c.Output.AllScores
			}
			config.WithOutput(format, path, all)(c)
		})
	}
	switch f.progress {
	case progressAuto, progressBar, progressLog, progressNone:
	default:
		return nil, fmt.Errorf("--progress: unsupported value %q", f.progress)
	}
	return opts, nil
}

func runCompare(cmd *cobra.Command, cfg *config.Config, root, progressMode string) error {
	logger, closeLog, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	signals := signalhandler.SetupHandler(logger)
	defer signals.Stop()
	signals.OnSignal(func() { closeLog() })

	scan, err := scanner.ListImages(scanner.ScanOptions{Root: root, Logger: logger})
	if err != nil {
		return err
	}

	provider, closeCache, err := cache.Open(cfg, imageprocessor.NewImageLoaderRegistry(), logger)
	if err != nil {
		return err
	}
	defer closeCache()
	signals.OnSignal(func() { closeCache() })

	orchestrator := compare.NewOrchestrator(cfg, provider, logger)
	orchestrator.Progress = newProgress(progressMode, cmd.ErrOrStderr(), logger)

	report, err := orchestrator.CompareAll(cmd.Context(), scan.Paths)
	if err != nil {
		return err
	}
	logReport(logger, report, provider)

	out, closeOut, err := output.Open(cfg.Output.Path, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	writeErr := output.Write(out, report.Results, output.Options{
		Format:    cfg.Output.Format,
		Threshold: cfg.SimilarityThreshold,
	})
	return errors.Join(writeErr, closeOut())
}

func newProgress(mode string, stderr io.Writer, logger *slog.Logger) compare.Progress {
	switch mode {
	case progressBar:
		return compare.NewBarProgress(stderr)
	case progressLog:
		return compare.NewLogProgress(logger)
	case progressNone:
		return compare.NopProgress{}
	}
	if f, ok := stderr.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return compare.NewBarProgress(stderr)
	}
	return compare.NewLogProgress(logger)
}

func logReport(logger *slog.Logger, report *types.Report, provider cache.Provider) {
	if persistent, ok := provider.(*cache.Persistent); ok {
		counters := persistent.Counters()
		logger.Info("cache usage",
			"hits", counters.Hits,
			"misses", counters.Misses,
			"write_failures", counters.WriteFails)
	}
	if len(report.Skipped) == 0 {
		return
	}
	logger.Warn("some images were skipped",
		"skipped_images", len(report.Skipped),
		"skipped_pairs", report.PairsSkipped)
	for _, item := range report.Skipped {
		logger.Debug("skipped", "path", item.Path, "other", item.Other, "stage", item.Stage, "error", item.Err)
	}
}
