// Package paramhist computes value distributions of FITACF record fields:
// per-gate vector fields such as velocity or spectral width, scalar fields
// such as sky noise, and vector fields against range gate.
package paramhist

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/roman-kulish/superdarn-freqscan/internal/freqscan"
)

const (
	MaxBeam = 15 // Highest selectable beam number
	MaxGate = 74 // Highest selectable range gate
)

// Stats summarizes the values behind a histogram. Std, Mean and Median are
// computed over every gathered value, including values outside the bins.
type Stats struct {
	Bins   int     `json:"bins"`
	Std    float64 `json:"std"` // Population standard deviation
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Mode   float64 `json:"mode"` // Center of the fullest bin
	Points int     `json:"points"`
}

// Histogram is the distribution of one field.
type Histogram struct {
	Edges      []float64 `json:"edges"`
	Centers    []float64 `json:"centers"`
	Values     []float64 `json:"values"` // Counts, or probability density when Normalized
	Normalized bool      `json:"normalized"`
	Stats      Stats     `json:"stats"`
}

// newHistogram bins values. values must not be empty.
func newHistogram(values []float64, b Binning, normalize bool) *Histogram {
	edges := b.edges(values)
	counts := make([]float64, len(edges)-1)
	for _, v := range values {
		if i := binIndex(edges, v); i >= 0 {
			counts[i]++
		}
	}

	h := &Histogram{
		Edges:      edges,
		Centers:    centers(edges),
		Values:     counts,
		Normalized: normalize,
	}
	if normalize {
		h.Values = density(counts, edges)
	}

	mean, std := stat.PopMeanStdDev(values, nil)
	h.Stats = Stats{
		Bins:   len(counts),
		Std:    std,
		Mean:   mean,
		Median: freqscan.Percentile(values, 50),
		Mode:   h.Centers[floats.MaxIdx(h.Values)],
		Points: len(values),
	}
	return h
}

// density scales counts so that the histogram area is 1.
func density(counts, edges []float64) []float64 {
	out := make([]float64, len(counts))
	total := floats.Sum(counts)
	if total == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = c / (total * (edges[i+1] - edges[i]))
	}
	return out
}

// Text is the statistics line drawn under a histogram.
func (s Stats) Text() string {
	return fmt.Sprintf("Number of bins = %d, Standard deviation = %.2f,\nMean = %.2f, Median = %.2f, Mode = %.2f",
		s.Bins, s.Std, s.Mean, s.Median, s.Mode)
}

func validateBeam(beam *int) error {
	if beam != nil && (*beam < 0 || *beam > MaxBeam) {
		return fmt.Errorf("%w: beam number must be in [0, %d], got %d", freqscan.ErrInvalidInput, MaxBeam, *beam)
	}
	return nil
}

func validateGate(gate *int) error {
	if gate != nil && (*gate < 0 || *gate > MaxGate) {
		return fmt.Errorf("%w: gate number must be in [0, %d], got %d", freqscan.ErrInvalidInput, MaxGate, *gate)
	}
	return nil
}
