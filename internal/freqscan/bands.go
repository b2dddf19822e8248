package freqscan

import (
	"fmt"
	"math"
)

// Boundary is an inclusive frequency range in kHz restricting which bands
// and transmitted frequencies take part in a histogram.
type Boundary struct {
	Low  float64
	High float64
}

func (b Boundary) validate() error {
	if !finite(b.Low) || !finite(b.High) {
		return fmt.Errorf("%w: boundary %v is not finite", ErrInvalidInput, b)
	}
	if b.Low > b.High {
		return fmt.Errorf("%w: boundary low %g is greater than high %g", ErrInvalidInput, b.Low, b.High)
	}
	return nil
}

// excludes reports whether freq lies on or outside the boundary.
func (b Boundary) excludes(freq float64) bool {
	return freq <= b.Low || freq >= b.High
}

// Band is a named frequency interval [Low, High] in kHz.
type Band struct {
	ID   string
	Low  float64
	High float64
}

// Center returns the band's center frequency.
func (b Band) Center() float64 {
	return (b.Low + b.High) / 2
}

// Width returns the band's width.
func (b Band) Width() float64 {
	return b.High - b.Low
}

// Contains reports whether freq lies within the band, bounds included.
func (b Band) Contains(freq float64) bool {
	return b.Low <= freq && freq <= b.High
}

// Range returns the band interval as a pair.
func (b Band) Range() [2]float64 {
	return [2]float64{b.Low, b.High}
}

// BandTable is an ordered partition of frequency space into named bands.
// Order matters: a frequency claimed by overlapping bands belongs to the
// first one added.
type BandTable struct {
	bands []Band
	index map[string]int
}

// NewBandTable builds a table from parallel id and range slices.
func NewBandTable(ids []string, ranges [][]float64) (*BandTable, error) {
	if len(ids) != len(ranges) {
		return nil, fmt.Errorf("%w: %d band ids for %d ranges", ErrInvalidInput, len(ids), len(ranges))
	}

	t := &BandTable{}
	for i, id := range ids {
		if err := t.Add(id, ranges[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Add appends a band. rng must be a two-element [low, high] pair of finite
// numbers with low <= high, and id must not already be in the table.
func (t *BandTable) Add(id string, rng []float64) error {
	if len(rng) != 2 {
		return fmt.Errorf("%w: band %q must have exactly two bounds, got %d", ErrInvalidInput, id, len(rng))
	}
	if !finite(rng[0]) || !finite(rng[1]) {
		return fmt.Errorf("%w: band %q has non-finite bounds %v", ErrInvalidInput, id, rng)
	}
	if rng[0] > rng[1] {
		return fmt.Errorf("%w: band %q low %g is greater than high %g", ErrInvalidInput, id, rng[0], rng[1])
	}
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if _, ok := t.index[id]; ok {
		return fmt.Errorf("%w: duplicate band %q", ErrInvalidInput, id)
	}

	t.index[id] = len(t.bands)
	t.bands = append(t.bands, Band{ID: id, Low: rng[0], High: rng[1]})
	return nil
}

// Len returns the number of bands.
func (t *BandTable) Len() int {
	return len(t.bands)
}

// Bands returns a copy of the bands in table order.
func (t *BandTable) Bands() []Band {
	return append([]Band(nil), t.bands...)
}

// Lookup returns the band with the given id.
func (t *BandTable) Lookup(id string) (Band, bool) {
	i, ok := t.index[id]
	if !ok {
		return Band{}, false
	}
	return t.bands[i], true
}

// Extent returns the smallest boundary covering every band.
func (t *BandTable) Extent() Boundary {
	ext := Boundary{Low: math.Inf(1), High: math.Inf(-1)}
	for _, b := range t.bands {
		ext.Low = min(ext.Low, b.Low)
		ext.High = max(ext.High, b.High)
	}
	return ext
}

// bandSelection is the working band list of a single histogram call.
type bandSelection struct {
	boundary Boundary
	bands    []Band
	omitted  []Band
}

// omits reports whether freq falls inside any omitted band.
func (s *bandSelection) omits(freq float64) bool {
	for _, b := range s.omitted {
		if b.Contains(freq) {
			return true
		}
	}
	return false
}

// owner returns the index of the first band containing freq, or -1.
func (s *bandSelection) owner(freq float64) int {
	for i, b := range s.bands {
		if b.Contains(freq) {
			return i
		}
	}
	return -1
}

// bandFilter decides whether a band takes part given the active boundary.
type bandFilter func(b Band, boundary Boundary) bool

// centerInside keeps bands whose center lies strictly inside the boundary.
func centerInside(b Band, boundary Boundary) bool {
	c := b.Center()
	return c > boundary.Low && c < boundary.High
}

// rangeInside keeps bands whose whole interval lies within the boundary.
func rangeInside(b Band, boundary Boundary) bool {
	return b.Low >= boundary.Low && b.High <= boundary.High
}

func selectBands(t *BandTable, boundary *Boundary, omit []string, keep bandFilter) (*bandSelection, error) {
	if t == nil || t.Len() == 0 {
		return nil, fmt.Errorf("%w: empty band table", ErrInvalidInput)
	}

	sel := &bandSelection{boundary: t.Extent()}
	if boundary != nil {
		if err := boundary.validate(); err != nil {
			return nil, err
		}
		sel.boundary = *boundary
	}

	omitted := make(map[string]struct{}, len(omit))
	for _, id := range omit {
		b, ok := t.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: cannot omit unknown band %q", ErrInvalidInput, id)
		}
		if _, dup := omitted[id]; !dup {
			sel.omitted = append(sel.omitted, b)
		}
		omitted[id] = struct{}{}
	}

	for _, b := range t.bands {
		if _, ok := omitted[b.ID]; ok {
			continue
		}
		if keep(b, sel.boundary) {
			sel.bands = append(sel.bands, b)
		}
	}
	return sel, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
