package freqscan

import (
	"fmt"

	"github.com/roman-kulish/superdarn-freqscan/internal/darn"
)

// Options2D configures a band/time histogram.
type Options2D struct {
	Options
	DateBin darn.Granularity // Time scale of the columns
}

// Histogram2D is the number of ionospheric scatter points per frequency band
// (rows) and time bucket (columns).
type Histogram2D struct {
	Boundary   Boundary
	DateBin    darn.Granularity
	Bands      []Band         // Rows in band table order
	Buckets    []Bucket       // Columns in the order first seen while scanning
	Counts     [][]float64    // Raw counts, Counts[band][bucket]
	Values     [][]float64    // Counts, column-normalized when requested
	Display    [][]*float64   // Values with low-yield cells removed (nil)
	Normalized bool
	Ranked     []RankedBand // Bands ordered by descending total count
}

// Optimal returns the band with the most ionospheric scatter and false when
// the histogram has no bands.
func (h *Histogram2D) Optimal() (RankedBand, bool) {
	if len(h.Ranked) == 0 {
		return RankedBand{}, false
	}
	return h.Ranked[0], true
}

// BandTimeHistogram counts ionospheric scatter points of channel 2 records
// per frequency band and time bucket. Bands take part when their whole
// interval lies within the boundary. An empty result is not an error.
// records and bands are not modified.
func BandTimeHistogram(records []darn.Record, bands *BandTable, opts Options2D) (*Histogram2D, error) {
	if !opts.DateBin.Valid() {
		return nil, fmt.Errorf("%w: invalid date bin type: %q", ErrInvalidInput, opts.DateBin)
	}

	sel, err := selectBands(bands, opts.Boundary, opts.Omit, rangeInside)
	if err != nil {
		return nil, err
	}
	obs := observerOrNop(opts.Observer)

	cols := newBuckets(opts.DateBin)
	for i := range records {
		if records[i].Channel == SweepChannel {
			cols.add(records[i].Time)
		}
	}

	counts := make([][]float64, len(sel.bands))
	for r := range counts {
		counts[r] = make([]float64, len(cols.order))
	}

	for i := range records {
		rec := &records[i]
		s, reason := sel.extract(rec)
		if reason != "" {
			obs.Skipped(reason)
			continue
		}
		col, ok := cols.column(rec.Time)
		if !ok {
			obs.Skipped(SkipOddHour)
			continue
		}
		counts[s.band][col] += float64(s.points)
		obs.Counted(sel.bands[s.band], s.points)
	}

	h := &Histogram2D{
		Boundary:   sel.boundary,
		DateBin:    opts.DateBin,
		Bands:      sel.bands,
		Buckets:    cols.order,
		Counts:     counts,
		Normalized: opts.Normalize,
		Ranked:     rankBands(sel.bands, rowTotals(counts)),
	}

	h.Values = make([][]float64, len(counts))
	for r, row := range counts {
		h.Values[r] = append([]float64(nil), row...)
	}
	if opts.Normalize {
		normalizeColumns(h.Values, len(cols.order))
	}
	h.Display = suppressOutliers(h.Values)
	return h, nil
}
