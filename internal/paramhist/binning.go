package paramhist

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/roman-kulish/superdarn-freqscan/internal/freqscan"
)

const (
	autoRangeLow  = 0.5  // percentile
	autoRangeHigh = 99.5 // percentile
)

// Range is a closed value interval.
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Binning selects the bins of a single histogram.
type Binning struct {
	Bins      int    // Number of equal-width bins; 0 derives the count from the data
	Range     *Range // Values outside are ignored; nil spans the data
	AutoRange bool   // Span the 0.5th to 99.5th percentile; ignored when Range is set
}

// ParseBinning builds a Binning from a bin count and a range given either as
// "low,high" or as "auto". An empty range spans the data.
func ParseBinning(bins int, rng string) (Binning, error) {
	b := Binning{Bins: bins}

	rng = strings.TrimSpace(rng)
	switch {
	case rng == "":
	case strings.EqualFold(rng, "auto"):
		b.AutoRange = true

	default:
		parts := strings.Split(rng, ",")
		if len(parts) != 2 {
			return b, fmt.Errorf("%w: range must be \"low,high\" or \"auto\", got %q", freqscan.ErrInvalidInput, rng)
		}
		low, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return b, fmt.Errorf("%w: range low bound: %w", freqscan.ErrInvalidInput, err)
		}
		high, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return b, fmt.Errorf("%w: range high bound: %w", freqscan.ErrInvalidInput, err)
		}
		b.Range = &Range{Low: low, High: high}
	}
	return b, b.validate()
}

func (b Binning) validate() error {
	if b.Bins < 0 {
		return fmt.Errorf("%w: bin count must not be negative, got %d", freqscan.ErrInvalidInput, b.Bins)
	}
	if r := b.Range; r != nil {
		if !finite(r.Low) || !finite(r.High) || r.Low > r.High {
			return fmt.Errorf("%w: invalid range [%g, %g]", freqscan.ErrInvalidInput, r.Low, r.High)
		}
	}
	return nil
}

// span returns the outer bin edges for values. values must not be empty.
func (b Binning) span(values []float64) (low, high float64) {
	switch {
	case b.Range != nil:
		low, high = b.Range.Low, b.Range.High
	case b.AutoRange:
		low, high = freqscan.Percentile(values, autoRangeLow), freqscan.Percentile(values, autoRangeHigh)
	default:
		low, high = floats.Min(values), floats.Max(values)
	}
	if low == high {
		low, high = low-0.5, high+0.5
	}
	return low, high
}

// edges returns equally spaced bin edges for values.
func (b Binning) edges(values []float64) []float64 {
	low, high := b.span(values)

	n := b.Bins
	if n == 0 {
		n = autoBinCount(values, low, high)
	}

	edges := make([]float64, n+1)
	floats.Span(edges, low, high)
	return edges
}

// autoBinCount picks the bin count from the smaller of the Sturges and
// Freedman-Diaconis bin widths, computed over the values inside [low, high].
func autoBinCount(values []float64, low, high float64) int {
	var inside []float64
	for _, v := range values {
		if v >= low && v <= high {
			inside = append(inside, v)
		}
	}
	if len(inside) == 0 {
		return 1
	}

	n := float64(len(inside))
	sturges := (floats.Max(inside) - floats.Min(inside)) / (math.Log2(n) + 1)
	iqr := freqscan.Percentile(inside, 75) - freqscan.Percentile(inside, 25)
	fd := 2 * iqr * math.Pow(n, -1.0/3)

	width := sturges
	if fd > 0 {
		width = min(fd, sturges)
	}
	if width <= 0 {
		return 1
	}
	return max(1, int(math.Ceil((high-low)/width)))
}

// binIndex returns the bin holding v, or -1 when v lies outside the edges.
// The last bin includes its upper edge.
func binIndex(edges []float64, v float64) int {
	n := len(edges) - 1
	low, high := edges[0], edges[n]
	if v < low || v > high {
		return -1
	}
	if v == high {
		return n - 1
	}

	i := min(int((v-low)/(high-low)*float64(n)), n-1)
	if v < edges[i] {
		i--
	} else if i+1 < n && v >= edges[i+1] {
		i++
	}
	return i
}

// centers returns the midpoints between consecutive edges.
func centers(edges []float64) []float64 {
	c := make([]float64, len(edges)-1)
	for i := range c {
		c[i] = (edges[i] + edges[i+1]) / 2
	}
	return c
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
