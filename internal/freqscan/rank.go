package freqscan

import (
	"math"
	"sort"
)

// RankedBand is one entry of a band ranking.
type RankedBand struct {
	ID    string     `json:"band"`      // Band identifier from the band table
	Index int        `json:"index"`     // Position among the bands retained for the histogram
	Range [2]float64 `json:"freqRange"` // Band interval in kHz
	Count int        `json:"count"`     // Number of ionospheric scatter points in the band
}

// rankBands orders bands by descending total. Equal totals keep band table
// order.
func rankBands(bands []Band, totals []float64) []RankedBand {
	ranked := make([]RankedBand, len(bands))
	for i, b := range bands {
		ranked[i] = RankedBand{
			ID:    b.ID,
			Index: i,
			Range: b.Range(),
			Count: int(math.Round(totals[i])),
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}
