package imageprocessor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"imgcompare/types"
)

// Normalized grid size. Only coarse structure matters for scoring, so the
// grid is small and resizing uses nearest-neighbor sampling.
const (
	TargetWidth  = 100
	TargetHeight = 100
)

// ErrEmptyImage is returned when an image has no pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// Normalize resizes img to the target grid, converts it to luminance and
// records the aspect ratio of the original dimensions. It does no I/O and
// always yields the same grid for the same input.
func Normalize(img image.Image) (*types.NormalizedImage, error) {
	if img == nil {
		return nil, ErrEmptyImage
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyImage, bounds.Dx(), bounds.Dy())
	}

	resized := imaging.Resize(img, TargetWidth, TargetHeight, imaging.NearestNeighbor)

	return &types.NormalizedImage{
		Gray:   toGray(resized),
		Aspect: AspectRatio(bounds.Dx(), bounds.Dy()),
	}, nil
}

// AspectRatio returns width/height rounded to two decimal places.
func AspectRatio(width, height int) float64 {
	if height == 0 {
		return 0
	}
	return math.Round(float64(width)/float64(height)*100) / 100
}

func toGray(img *image.NRGBA) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			c := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			gray.SetGray(x, y, c)
		}
	}
	return gray
}
