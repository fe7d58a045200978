// Package compare scores every unordered pair of a list of images and keeps
// the pairs whose similarity is above a threshold.
package compare

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"imgcompare/cache"
	"imgcompare/config"
	"imgcompare/logging"
	"imgcompare/signalhandler"
	"imgcompare/similarity"
	"imgcompare/types"
)

// ErrStrict wraps the first per-item failure of a strict run
var ErrStrict = errors.New("comparison aborted")

// Orchestrator runs the all-pairs comparison. Workers bounds both the number
// of outer indices in flight and the number of concurrent decode or score
// steps.
type Orchestrator struct {
	Provider   cache.Provider
	Scorer     *similarity.Scorer
	Workers    int
	Threshold  float64
	IncludeAll bool
	Strict     bool
	Progress   Progress
	Logger     *slog.Logger
}

// NewOrchestrator wires an orchestrator from a validated configuration with
// the MSSIM metric and no progress reporting.
func NewOrchestrator(cfg *config.Config, provider cache.Provider, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		Provider:   provider,
		Scorer:     similarity.NewScorer(similarity.MSSIM{}),
		Workers:    cfg.Workers,
		Threshold:  cfg.SimilarityThreshold,
		IncludeAll: cfg.Output.AllScores,
		Strict:     cfg.Strict,
		Progress:   NopProgress{},
		Logger:     logger,
	}
}

// unit is everything produced by one outer index
type unit struct {
	results      []types.SimilarityResult
	skipped      []types.SkippedItem
	scored       int
	skippedPairs int
	prefiltered  int
}

// CompareAll compares every pair (i, j) with i < j. Per-item failures are
// recorded in the report and the affected pairs skipped, unless Strict is set.
// Results are ordered by (A, B) and then by input position.
func (o *Orchestrator) CompareAll(ctx context.Context, paths []string) (*types.Report, error) {
	start := time.Now()
	logger := o.logger()
	progress := o.Progress
	if progress == nil {
		progress = NopProgress{}
	}
	workers := o.Workers
	if workers <= 0 {
		workers = signalhandler.OptimalWorkers()
	}

	n := len(paths)
	report := &types.Report{Images: n}
	logger.Info("starting comparison",
		"images", n,
		"pairs", types.TotalPairs(n),
		"workers", workers,
		"threshold", o.Threshold)

	progress.Start(n)

	sem := semaphore.NewWeighted(int64(workers))
	seen := newSkipSet()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range n {
		g.Go(func() error {
			u, err := o.compareFrom(gctx, sem, workers, paths, i)
			if err != nil {
				return err
			}

			mu.Lock()
			report.Results = append(report.Results, u.results...)
			for _, item := range u.skipped {
				if seen.add(item) {
					report.Skipped = append(report.Skipped, item)
					logging.ImageSkipped(logger, item.Path, item)
				}
			}
			report.PairsScored += u.scored
			report.PairsSkipped += u.skippedPairs
			report.PairsPrefiltered += u.prefiltered
			mu.Unlock()

			progress.Advance()
			return nil
		})
	}
	err := g.Wait()
	progress.Finish()
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(report.Results, func(a, b types.SimilarityResult) int {
		return cmp.Or(
			cmp.Compare(a.A, b.A),
			cmp.Compare(a.B, b.B),
			cmp.Compare(a.IndexA, b.IndexA),
			cmp.Compare(a.IndexB, b.IndexB),
		)
	})
	report.Elapsed = time.Since(start)

	logger.Info("comparison complete",
		"scored", report.PairsScored,
		"skipped", report.PairsSkipped,
		"prefiltered", report.PairsPrefiltered,
		"matches", len(report.Results),
		"elapsed", report.Elapsed.Round(time.Millisecond))
	return report, nil
}

// compareFrom normalizes paths[i] once and scores it against every later
// index. The semaphore is held only around CPU work, never while waiting on
// the inner group, so nested fan-out cannot deadlock.
func (o *Orchestrator) compareFrom(ctx context.Context, sem *semaphore.Weighted, workers int, paths []string, i int) (unit, error) {
	var u unit
	pending := len(paths) - 1 - i

	if err := ctx.Err(); err != nil {
		return u, err
	}

	outer, err := o.get(ctx, sem, paths[i])
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return u, ctxErr
		}
		item := types.SkippedItem{Path: paths[i], Stage: stageOf(err), Err: err}
		if o.Strict {
			return u, fmt.Errorf("%w: %w", ErrStrict, item)
		}
		u.skipped = append(u.skipped, item)
		u.skippedPairs = pending
		return u, nil
	}
	if pending == 0 {
		return u, nil
	}

	// goroutines beyond the worker count would only wait on the semaphore
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(workers, pending))
	for j := i + 1; j < len(paths); j++ {
		g.Go(func() error {
			result, outcome, item, err := o.scorePair(gctx, sem, paths, i, j, outer)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			if item != nil {
				if o.Strict {
					return fmt.Errorf("%w: %w", ErrStrict, *item)
				}
				u.skipped = append(u.skipped, *item)
				u.skippedPairs++
				return nil
			}
			u.scored++
			if outcome.Prefiltered {
				u.prefiltered++
			}
			if o.IncludeAll || outcome.Score > o.Threshold {
				u.results = append(u.results, result)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return u, err
	}
	return u, nil
}

// scorePair returns either a result or a skipped item. A non-nil error means
// the run itself must stop.
func (o *Orchestrator) scorePair(ctx context.Context, sem *semaphore.Weighted, paths []string, i, j int, outer *types.NormalizedImage) (types.SimilarityResult, similarity.Outcome, *types.SkippedItem, error) {
	var result types.SimilarityResult

	inner, err := o.get(ctx, sem, paths[j])
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, similarity.Outcome{}, nil, ctxErr
		}
		return result, similarity.Outcome{}, &types.SkippedItem{Path: paths[j], Stage: stageOf(err), Err: err}, nil
	}

	if err := sem.Acquire(ctx, 1); err != nil {
		return result, similarity.Outcome{}, nil, err
	}
	outcome, err := o.Scorer.Score(outer, inner)
	sem.Release(1)
	if err != nil {
		return result, outcome, &types.SkippedItem{Path: paths[i], Other: paths[j], Stage: types.StageScore, Err: err}, nil
	}

	result = types.SimilarityResult{
		A:      paths[i],
		B:      paths[j],
		Score:  outcome.Score,
		IndexA: i,
		IndexB: j,
	}
	return result, outcome, nil, nil
}

func (o *Orchestrator) get(ctx context.Context, sem *semaphore.Weighted, path string) (*types.NormalizedImage, error) {
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer sem.Release(1)
	return o.Provider.Get(path)
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger == nil {
		return logging.NewNop()
	}
	return logging.Component(o.Logger, "compare")
}

func stageOf(err error) types.Stage {
	if errors.Is(err, cache.ErrCorruptEntry) {
		return types.StageCache
	}
	return types.StageNormalize
}

// skipSet reports each failing image once even though it fails in every
// unit that pairs with it
type skipSet struct {
	seen map[string]struct{}
}

func newSkipSet() *skipSet {
	return &skipSet{seen: make(map[string]struct{})}
}

func (s *skipSet) add(item types.SkippedItem) bool {
	key := string(item.Stage) + "\x00" + item.Path + "\x00" + item.Other
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}
