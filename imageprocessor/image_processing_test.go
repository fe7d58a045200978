package imageprocessor_test

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgcompare/imageprocessor"
	"imgcompare/testutil"
)

func TestNormalizeProducesFixedGrayGrid(t *testing.T) {
	norm, err := imageprocessor.Normalize(testutil.Solid(50, 200, testutil.Blue))
	require.NoError(t, err)

	assert.Equal(t, imageprocessor.TargetWidth, norm.Width())
	assert.Equal(t, imageprocessor.TargetHeight, norm.Height())
	assert.Equal(t, 0.25, norm.Aspect)

	first := norm.Gray.GrayAt(0, 0).Y
	for y := 0; y < norm.Height(); y++ {
		for x := 0; x < norm.Width(); x++ {
			require.Equal(t, first, norm.Gray.GrayAt(x, y).Y)
		}
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	src := testutil.Checker(320, 240, 16)

	a, err := imageprocessor.Normalize(src)
	require.NoError(t, err)
	b, err := imageprocessor.Normalize(src)
	require.NoError(t, err)

	assert.Equal(t, a.Gray.Pix, b.Gray.Pix)
	assert.Equal(t, 1.33, a.Aspect)
}

func TestNormalizeKeepsSourceUntouched(t *testing.T) {
	src := testutil.Checker(40, 40, 4)
	before := append([]byte(nil), src.Pix...)

	_, err := imageprocessor.Normalize(src)
	require.NoError(t, err)
	assert.Equal(t, before, src.Pix)
}

func TestNormalizeRejectsEmptyImage(t *testing.T) {
	_, err := imageprocessor.Normalize(image.NewRGBA(image.Rect(0, 0, 0, 10)))
	require.ErrorIs(t, err, imageprocessor.ErrEmptyImage)

	_, err = imageprocessor.Normalize(nil)
	require.ErrorIs(t, err, imageprocessor.ErrEmptyImage)
}

func TestAspectRatioRounding(t *testing.T) {
	assert.Equal(t, 1.0, imageprocessor.AspectRatio(100, 100))
	assert.Equal(t, 1.78, imageprocessor.AspectRatio(1920, 1080))
	assert.Equal(t, 0.67, imageprocessor.AspectRatio(2, 3))
	assert.Equal(t, 0.0, imageprocessor.AspectRatio(2, 0))
}
