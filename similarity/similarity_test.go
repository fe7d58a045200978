package similarity_test

import (
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgcompare/imageprocessor"
	"imgcompare/similarity"
	"imgcompare/testutil"
	"imgcompare/types"
)

func normalized(t *testing.T, img image.Image) *types.NormalizedImage {
	t.Helper()
	n, err := imageprocessor.Normalize(img)
	require.NoError(t, err)
	return n
}

func noisyGray(seed int64, w, h int) *image.Gray {
	rng := rand.New(rand.NewSource(seed))
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = uint8(rng.Intn(256))
	}
	return g
}

func TestMSSIMIdenticalIsOne(t *testing.T) {
	g := noisyGray(1, 100, 100)
	score, err := similarity.MSSIM{}.Compare(g, g)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestMSSIMIsSymmetric(t *testing.T) {
	for seed := int64(0); seed < 5; seed++ {
		a := noisyGray(seed, 100, 100)
		b := noisyGray(seed+100, 100, 100)

		ab, err := similarity.MSSIM{}.Compare(a, b)
		require.NoError(t, err)
		ba, err := similarity.MSSIM{}.Compare(b, a)
		require.NoError(t, err)
		assert.Equal(t, ab, ba)
		assert.GreaterOrEqual(t, ab, 0.0)
		assert.LessOrEqual(t, ab, 1.0)
	}
}

func TestMSSIMSeparatesDifferentContent(t *testing.T) {
	checker := normalized(t, testutil.Checker(200, 200, 20))
	shifted := normalized(t, testutil.Checker(200, 200, 25))
	same := normalized(t, testutil.Checker(200, 200, 20))

	sameScore, err := similarity.MSSIM{}.Compare(checker.Gray, same.Gray)
	require.NoError(t, err)
	diffScore, err := similarity.MSSIM{}.Compare(checker.Gray, shifted.Gray)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, sameScore, 1e-9)
	assert.Less(t, diffScore, sameScore)
}

func TestMSSIMRejectsSizeMismatch(t *testing.T) {
	_, err := similarity.MSSIM{}.Compare(noisyGray(1, 10, 10), noisyGray(1, 10, 12))
	require.ErrorIs(t, err, similarity.ErrSizeMismatch)
}

func TestMSSIMHonoursSubImageBounds(t *testing.T) {
	full := noisyGray(7, 40, 40)
	sub := full.SubImage(image.Rect(10, 10, 30, 30)).(*image.Gray)
	cp := image.NewGray(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			cp.SetGray(x, y, full.GrayAt(10+x, 10+y))
		}
	}
	score, err := similarity.MSSIM{Window: 5}.Compare(sub, cp)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestScorerPrefilterSkipsMetric(t *testing.T) {
	stub := similarity.MetricFunc(func(a, b *image.Gray) (float64, error) {
		t.Fatal("metric must not be called for mismatched aspect ratios")
		return 0, nil
	})
	scorer := similarity.NewScorer(stub)

	square := normalized(t, testutil.Solid(100, 100, testutil.Red))
	tall := normalized(t, testutil.Solid(50, 200, testutil.Blue))

	out, err := scorer.Score(square, tall)
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Score)
	assert.True(t, out.Prefiltered)

	a := &types.NormalizedImage{Gray: square.Gray, Aspect: 0.58}
	b := &types.NormalizedImage{Gray: square.Gray, Aspect: 0.57}
	out, err = scorer.Score(a, b)
	require.NoError(t, err)
	assert.True(t, out.Prefiltered)
}

func TestScorerPassesMetricScoreThrough(t *testing.T) {
	calls := 0
	stub := similarity.MetricFunc(func(a, b *image.Gray) (float64, error) {
		calls++
		return 0.4242, nil
	})
	scorer := similarity.NewScorer(stub)

	a := normalized(t, testutil.Solid(100, 100, testutil.Red))
	b := normalized(t, testutil.Solid(100, 100, testutil.Blue))

	out, err := scorer.Score(a, b)
	require.NoError(t, err)
	assert.Equal(t, 0.4242, out.Score)
	assert.False(t, out.Prefiltered)
	assert.Equal(t, 1, calls)
}

func TestScorerIsSymmetricAndNearMaxForCopies(t *testing.T) {
	scorer := similarity.NewScorer(similarity.MSSIM{})
	a := normalized(t, testutil.Checker(300, 200, 10))
	b := normalized(t, testutil.Checker(300, 200, 10))
	c := normalized(t, testutil.Checker(300, 200, 30))

	same, err := scorer.Score(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, same.Score, 1e-9)

	ac, err := scorer.Score(a, c)
	require.NoError(t, err)
	ca, err := scorer.Score(c, a)
	require.NoError(t, err)
	assert.Equal(t, ac, ca)
}

func TestScorerToleranceOverride(t *testing.T) {
	scorer := similarity.NewScorer(similarity.MSSIM{}).WithTolerance(0.5)
	a := normalized(t, testutil.Solid(100, 100, testutil.Red))
	b := normalized(t, testutil.Solid(120, 100, testutil.Red))

	out, err := scorer.Score(a, b)
	require.NoError(t, err)
	assert.False(t, out.Prefiltered)
	assert.InDelta(t, 1.0, out.Score, 1e-9)
}
