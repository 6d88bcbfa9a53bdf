package pairing

import "math"

// Skewness computes the Fisher-Pearson population skewness of scores.
// Degenerate inputs (fewer than two values, or zero variance) yield 0 so
// downstream band sizing falls back to the symmetric baseline.
func Skewness(scores []float64) float64 {
	n := float64(len(scores))
	if n < 2 {
		return 0
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / n

	var m2, m3 float64
	for _, s := range scores {
		d := s - mean
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n

	if m2 == 0 {
		return 0
	}
	return m3 / math.Pow(m2, 1.5)
}
