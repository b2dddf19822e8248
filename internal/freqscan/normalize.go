package freqscan

import "gonum.org/v1/gonum/floats"

// normalizeTotal scales values in place so they sum to one. A zero total
// leaves the values untouched.
func normalizeTotal(values []float64) {
	if total := floats.Sum(values); total != 0 {
		floats.Scale(1/total, values)
	}
}

// normalizeColumns scales every column of m in place so it sums to one.
// Columns summing to zero are left as they are.
func normalizeColumns(m [][]float64, cols int) {
	column := make([]float64, len(m))
	for c := 0; c < cols; c++ {
		for r := range m {
			column[r] = m[r][c]
		}
		total := floats.Sum(column)
		if total <= 0 {
			continue
		}
		for r := range m {
			m[r][c] /= total
		}
	}
}

// rowTotals returns the sum of every row of m.
func rowTotals(m [][]float64) []float64 {
	totals := make([]float64, len(m))
	for r, row := range m {
		totals[r] = floats.Sum(row)
	}
	return totals
}
