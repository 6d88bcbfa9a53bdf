package pairing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExclusionBandsSymmetric(t *testing.T) {
	bottom, top := ExclusionBands(0, 100)
	assert.Equal(t, 10, bottom)
	assert.Equal(t, 10, top)
}

func TestExclusionBandsRightSkew(t *testing.T) {
	bottom, top := ExclusionBands(1, 100)
	assert.Equal(t, 5, bottom)
	assert.Equal(t, 15, top)
}

func TestExclusionBandsLeftSkew(t *testing.T) {
	bottom, top := ExclusionBands(-1, 100)
	assert.Equal(t, 15, bottom)
	assert.Equal(t, 5, top)
}

func TestExclusionBandsExtremeSkewClamps(t *testing.T) {
	bottom, top := ExclusionBands(10, 100)
	assert.Equal(t, 0, bottom)
	assert.Equal(t, 20, top)

	bottom, top = ExclusionBands(-10, 100)
	assert.Equal(t, 20, bottom)
	assert.Equal(t, 0, top)
}

func TestExclusionFractionsAlwaysSumToTotal(t *testing.T) {
	for _, skew := range []float64{-5, -2.5, -1, -0.3, 0, 0.3, 1, 2.5, 5} {
		bottom, top := exclusionFractions(skew)
		assert.InDelta(t, totalExclusionFraction, bottom+top, 1e-9, "skew %v", skew)
	}
}

func TestExclusionBandsNearSymmetricWithinOne(t *testing.T) {
	for _, n := range []int{7, 10, 33, 99} {
		bottom, top := ExclusionBands(0, n)
		diff := bottom - top
		if diff < 0 {
			diff = -diff
		}
		assert.LessOrEqual(t, diff, 1, "population %d", n)
	}
}

func TestExclusionBandsSmallPopulation(t *testing.T) {
	bottom, top := ExclusionBands(0, 3)
	assert.Equal(t, 0, bottom)
	assert.Equal(t, 0, top)
}
