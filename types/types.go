package types

import (
	"fmt"
	"image"
	"time"
)

// NormalizedImage holds the fixed-size grayscale grid used for scoring together
// with the aspect ratio of the source image before it was resized.
type NormalizedImage struct {
	Gray   *image.Gray
	Aspect float64
}

// Width returns the grid width in pixels
func (n *NormalizedImage) Width() int {
	return n.Gray.Bounds().Dx()
}

// Height returns the grid height in pixels
func (n *NormalizedImage) Height() int {
	return n.Gray.Bounds().Dy()
}

// SimilarityResult holds the similarity score of one unordered pair
type SimilarityResult struct {
	A      string  `json:"file_name_1" yaml:"file_name_1"`
	B      string  `json:"file_name_2" yaml:"file_name_2"`
	Score  float64 `json:"similarity_score" yaml:"similarity_score"`
	IndexA int     `json:"-" yaml:"-"`
	IndexB int     `json:"-" yaml:"-"`
}

// Stage names the step at which a per-item failure happened
type Stage string

const (
	StageNormalize Stage = "normalize"
	StageCache     Stage = "cache"
	StageScore     Stage = "score"
)

// SkippedItem records a recoverable failure. Other is set when the failure
// belongs to a specific pair.
type SkippedItem struct {
	Path  string `json:"path" yaml:"path"`
	Other string `json:"other,omitempty" yaml:"other,omitempty"`
	Stage Stage  `json:"stage" yaml:"stage"`
	Err   error  `json:"-" yaml:"-"`
}

// Error renders the skipped item as a single line
func (s SkippedItem) Error() string {
	if s.Other != "" {
		return fmt.Sprintf("%s (%s vs %s): %v", s.Stage, s.Path, s.Other, s.Err)
	}
	return fmt.Sprintf("%s (%s): %v", s.Stage, s.Path, s.Err)
}

// Report is the outcome of a full comparison run
type Report struct {
	Results          []SimilarityResult
	Skipped          []SkippedItem
	Images           int
	PairsScored      int
	PairsSkipped     int
	PairsPrefiltered int
	Elapsed          time.Duration
}

// TotalPairs returns the number of unordered pairs for the given image count
func TotalPairs(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}
