package freqscan

import (
	"math"
	"sort"
)

// outlierPercentile is the percentile of strictly positive cells below which
// a cell is not drawn.
const outlierPercentile = 0.5

// Percentile returns the p-th percentile (0-100) of values, interpolating
// linearly between the closest ranks. values must not be empty.
func Percentile(values []float64, p float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (rank-float64(lo))*(sorted[hi]-sorted[lo])
}

// suppressOutliers returns a display copy of m in which low-yield cells are
// nil. With no strictly positive cell every zero cell is nil instead.
func suppressOutliers(m [][]float64) [][]*float64 {
	var positive []float64
	for _, row := range m {
		for _, v := range row {
			if v > 0 {
				positive = append(positive, v)
			}
		}
	}

	hide := func(v float64) bool { return v == 0 }
	if len(positive) > 0 {
		threshold := Percentile(positive, outlierPercentile)
		hide = func(v float64) bool { return v < threshold }
	}

	display := make([][]*float64, len(m))
	for r, row := range m {
		display[r] = make([]*float64, len(row))
		for c, v := range row {
			if hide(v) {
				continue
			}
			value := v
			display[r][c] = &value
		}
	}
	return display
}
