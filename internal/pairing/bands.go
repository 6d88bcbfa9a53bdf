package pairing

import "math"

const (
	baseExclusionFraction  = 0.10
	totalExclusionFraction = 0.20
	skewShiftPerUnit       = 0.05
)

// ExclusionBands converts a skewness value and population size into the
// number of lowest and highest scorers to withhold from this round's
// pairing. Positive skew (more high scorers than a symmetric distribution
// would have) shifts exclusion toward the top tail; negative skew mirrors.
// The two fractions always renormalise to the fixed 20% total before being
// floored into counts.
func ExclusionBands(skew float64, population int) (bottom, top int) {
	bottomFrac, topFrac := exclusionFractions(skew)
	bottom = int(math.Floor(bottomFrac*float64(population) + 1e-9))
	top = int(math.Floor(topFrac*float64(population) + 1e-9))
	return bottom, top
}

func exclusionFractions(skew float64) (bottom, top float64) {
	shift := skewShiftPerUnit * math.Abs(skew)
	if skew >= 0 {
		bottom = baseExclusionFraction - shift
		top = baseExclusionFraction + shift
	} else {
		bottom = baseExclusionFraction + shift
		top = baseExclusionFraction - shift
	}
	bottom = clampFraction(bottom)
	top = clampFraction(top)

	if sum := bottom + top; sum != totalExclusionFraction && sum > 0 {
		factor := totalExclusionFraction / sum
		bottom *= factor
		top *= factor
	}
	return bottom, top
}

func clampFraction(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > totalExclusionFraction {
		return totalExclusionFraction
	}
	return f
}
