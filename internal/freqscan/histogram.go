package freqscan

import (
	"fmt"

	"github.com/roman-kulish/superdarn-freqscan/internal/darn"
)

// Options configures a band histogram.
type Options struct {
	Normalize bool      // Divide counts by their grand total
	Boundary  *Boundary // Frequency limits; the band table extent when nil
	Omit      []string  // Bands excluded from counting and from the ranking
	Observer  Observer  // Optional per-record decision hook
}

// Histogram is the number of ionospheric scatter points per frequency band.
type Histogram struct {
	Boundary   Boundary     // Boundary the histogram was computed with
	Bands      []Band       // Retained bands in band table order
	Centers    []float64    // Bin center of every retained band
	BarWidth   float64      // Display width of a bar in kHz
	Counts     []int        // Raw scatter point count per band
	Values     []float64    // Counts, normalized when requested
	Normalized bool         // Whether Values are normalized
	Ranked     []RankedBand // Bands ordered by descending count
}

// Optimal returns the band with the most ionospheric scatter.
func (h *Histogram) Optimal() RankedBand {
	return h.Ranked[0]
}

// BandHistogram counts ionospheric scatter points of channel 2 records per
// frequency band. Bands take part when their center lies strictly inside the
// boundary. It fails with ErrDataUnavailable when no scatter survives
// filtering. records and bands are not modified.
func BandHistogram(records []darn.Record, bands *BandTable, opts Options) (*Histogram, error) {
	sel, err := selectBands(bands, opts.Boundary, opts.Omit, centerInside)
	if err != nil {
		return nil, err
	}
	obs := observerOrNop(opts.Observer)

	counts := make([]int, len(sel.bands))
	for i := range records {
		s, reason := sel.extract(&records[i])
		if reason != "" {
			obs.Skipped(reason)
			continue
		}
		counts[s.band] += s.points
		obs.Counted(sel.bands[s.band], s.points)
	}

	values := make([]float64, len(counts))
	var total int
	for i, c := range counts {
		values[i] = float64(c)
		total += c
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: %d records, %d bands", ErrDataUnavailable, len(records), len(sel.bands))
	}

	h := &Histogram{
		Boundary:   sel.boundary,
		Bands:      sel.bands,
		Centers:    make([]float64, len(sel.bands)),
		BarWidth:   barWidth(sel.bands),
		Counts:     counts,
		Ranked:     rankBands(sel.bands, values),
		Normalized: opts.Normalize,
	}
	for i, b := range sel.bands {
		h.Centers[i] = b.Center()
	}
	if opts.Normalize {
		normalizeTotal(values)
	}
	h.Values = values
	return h, nil
}

// barWidth is the width of the band with the greatest (low, high) pair.
func barWidth(bands []Band) float64 {
	if len(bands) == 0 {
		return 0
	}
	top := bands[0]
	for _, b := range bands[1:] {
		if b.Low > top.Low || (b.Low == top.Low && b.High > top.High) {
			top = b
		}
	}
	return top.Width()
}
