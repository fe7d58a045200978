package similarity

import (
	"errors"
	"math"

	"imgcompare/types"
)

// DefaultAspectTolerance is the aspect ratio difference at which a pair is
// rejected without running the metric.
const DefaultAspectTolerance = 0.01

// aspectEpsilon absorbs float error in differences of two-decimal ratios,
// so that 0.58 and 0.57 count as 0.01 apart.
const aspectEpsilon = 1e-9

// Outcome is the result of scoring one pair.
type Outcome struct {
	Score       float64
	Prefiltered bool
}

// Scorer applies the aspect ratio pre-filter and then the metric. It holds no
// mutable state and is safe for concurrent use.
type Scorer struct {
	metric    Metric
	tolerance float64
}

// NewScorer creates a scorer around metric with the default tolerance.
func NewScorer(metric Metric) *Scorer {
	return &Scorer{metric: metric, tolerance: DefaultAspectTolerance}
}

// WithTolerance returns a copy of s using a different aspect tolerance.
func (s *Scorer) WithTolerance(tolerance float64) *Scorer {
	cp := *s
	cp.tolerance = tolerance
	return &cp
}

// Score returns 0 without calling the metric when the aspect ratios differ
// by the tolerance or more. Otherwise the metric score is returned as is.
// Dissimilar aspect ratios are assumed to mean dissimilar content.
func (s *Scorer) Score(a, b *types.NormalizedImage) (Outcome, error) {
	if a == nil || b == nil {
		return Outcome{}, errors.New("nil normalized image")
	}
	if AspectMismatch(a.Aspect, b.Aspect, s.tolerance) {
		return Outcome{Score: 0, Prefiltered: true}, nil
	}
	score, err := s.metric.Compare(a.Gray, b.Gray)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Score: score}, nil
}

// AspectMismatch reports whether two aspect ratios differ by at least tolerance.
func AspectMismatch(a, b, tolerance float64) bool {
	return math.Abs(a-b) >= tolerance-aspectEpsilon
}
