package similarity

import (
	"errors"
	"fmt"
	"image"
)

// ErrSizeMismatch is returned when two grids do not have the same shape.
var ErrSizeMismatch = errors.New("images differ in size")

// Metric computes a similarity score in [0, 1] for two equally sized
// single-channel grids.
type Metric interface {
	Compare(a, b *image.Gray) (float64, error)
}

// MetricFunc adapts a function to the Metric interface.
type MetricFunc func(a, b *image.Gray) (float64, error)

// Compare calls f(a, b).
func (f MetricFunc) Compare(a, b *image.Gray) (float64, error) {
	return f(a, b)
}

const (
	defaultWindow = 8
	dynamicRange  = 255.0
	k1            = 0.01
	k2            = 0.03
)

// MSSIM is the mean structural similarity over non-overlapping square
// windows. Windows cut by the right or bottom edge are used as they are.
type MSSIM struct {
	// Window is the window side in pixels; zero means 8.
	Window int
}

// Compare returns the mean SSIM of a and b, clamped to [0, 1].
func (m MSSIM) Compare(a, b *image.Gray) (float64, error) {
	if a == nil || b == nil {
		return 0, errors.New("nil image")
	}
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return 0, fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch, ab.Dx(), ab.Dy(), bb.Dx(), bb.Dy())
	}
	if ab.Empty() {
		return 0, errors.New("empty image")
	}

	window := m.Window
	if window <= 0 {
		window = defaultWindow
	}

	var total float64
	var windows int
	for y := 0; y < ab.Dy(); y += window {
		for x := 0; x < ab.Dx(); x += window {
			w := min(window, ab.Dx()-x)
			h := min(window, ab.Dy()-y)
			total += ssimWindow(a, b, image.Rect(x, y, x+w, y+h))
			windows++
		}
	}

	score := total / float64(windows)
	switch {
	case score < 0:
		return 0, nil
	case score > 1:
		return 1, nil
	}
	return score, nil
}

// ssimWindow computes SSIM over r, given in grid coordinates relative to
// each image's bounds.
func ssimWindow(a, b *image.Gray, r image.Rectangle) float64 {
	const (
		c1 = (k1 * dynamicRange) * (k1 * dynamicRange)
		c2 = (k2 * dynamicRange) * (k2 * dynamicRange)
	)
	ao, bo := a.Bounds().Min, b.Bounds().Min
	n := float64(r.Dx() * r.Dy())

	var sumA, sumB float64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			sumA += float64(a.GrayAt(ao.X+x, ao.Y+y).Y)
			sumB += float64(b.GrayAt(bo.X+x, bo.Y+y).Y)
		}
	}
	meanA, meanB := sumA/n, sumB/n

	var varA, varB, cov float64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			da := float64(a.GrayAt(ao.X+x, ao.Y+y).Y) - meanA
			db := float64(b.GrayAt(bo.X+x, bo.Y+y).Y) - meanB
			varA += da * da
			varB += db * db
			cov += da * db
		}
	}
	varA /= n
	varB /= n
	cov /= n

	return ((2*meanA*meanB + c1) * (2*cov + c2)) /
		((meanA*meanA + meanB*meanB + c1) * (varA + varB + c2))
}
