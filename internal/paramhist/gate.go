package paramhist

import (
	"gonum.org/v1/gonum/floats"

	"github.com/roman-kulish/superdarn-freqscan/internal/darn"
)

// GateOptions configures a vector field against range gate histogram.
type GateOptions struct {
	Beam          *int    // Single beam; nil for all beams
	GroundScatter bool    // Histogram points flagged as ground scatter separately
	Normalize     bool    // Probability density instead of counts
	Binning       Binning // Value axis bins of the main histogram
	GroundBinning Binning // Value axis bins of the ground scatter histogram
}

// GateHistogram is the joint distribution of range gate and field value.
type GateHistogram struct {
	GateEdges  []float64   `json:"gateEdges"`
	ValueEdges []float64   `json:"valueEdges"`
	Values     [][]float64 `json:"values"` // [gate bin][value bin] counts, or density when Normalized
	Normalized bool        `json:"normalized"`
	Bins       [2]int      `json:"bins"` // Gate and value bin counts
	Points     int         `json:"points"`
}

// Dims, Z, X and Y expose the histogram as a grid with gates along X.
func (h *GateHistogram) Dims() (c, r int)   { return len(h.GateEdges) - 1, len(h.ValueEdges) - 1 }
func (h *GateHistogram) Z(c, r int) float64 { return h.Values[c][r] }
func (h *GateHistogram) X(c int) float64    { return (h.GateEdges[c] + h.GateEdges[c+1]) / 2 }
func (h *GateHistogram) Y(r int) float64    { return (h.ValueEdges[r] + h.ValueEdges[r+1]) / 2 }

// GateResult is the distribution of a vector field across range gates.
type GateResult struct {
	Param   string         `json:"param"`
	Scatter *GateHistogram `json:"scatter"` // Ionospheric scatter when split, all points otherwise
	Ground  *GateHistogram `json:"ground,omitempty"`
}

// RangeGateHistogram computes the joint distribution of range gate and the
// vector field param. The gate axis spans the gates seen, split into as many
// bins as the first record with nrang has range gates.
func RangeGateHistogram(records []darn.Record, param string, opts GateOptions) (*GateResult, error) {
	if err := validateVectorParam(records, param, opts.GroundScatter); err != nil {
		return nil, err
	}
	if err := validateBeam(opts.Beam); err != nil {
		return nil, err
	}
	if err := opts.Binning.validate(); err != nil {
		return nil, err
	}
	if err := opts.GroundBinning.validate(); err != nil {
		return nil, err
	}

	points := gatherVector(records, param, opts.Beam, nil, opts.GroundScatter, true)

	var scatter, ground []scatterPoint
	for _, p := range points {
		if p.ground {
			ground = append(ground, p)
		} else {
			scatter = append(scatter, p)
		}
	}
	if err := checkData(param, pointValues(scatter), pointValues(ground), opts.GroundScatter); err != nil {
		return nil, err
	}

	gateBins := rangeGates(records)
	res := &GateResult{
		Param:   param,
		Scatter: newGateHistogram(scatter, gateBins, opts.Binning, opts.Normalize),
	}
	if opts.GroundScatter {
		res.Ground = newGateHistogram(ground, gateBins, opts.GroundBinning, opts.Normalize)
	}
	return res, nil
}

// rangeGates returns nrang of the first record carrying it, or 0.
func rangeGates(records []darn.Record) int {
	for i := range records {
		if records[i].Nrang != nil && *records[i].Nrang > 0 {
			return *records[i].Nrang
		}
	}
	return 0
}

func pointValues(points []scatterPoint) []float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.value
	}
	return values
}

// newGateHistogram bins points. points must not be empty. With gateBins 0
// every gate between the lowest and highest seen gets its own bin.
func newGateHistogram(points []scatterPoint, gateBins int, b Binning, normalize bool) *GateHistogram {
	gates := make([]float64, len(points))
	for i, p := range points {
		gates[i] = float64(p.gate)
	}
	if gateBins == 0 {
		gateBins = int(floats.Max(gates)-floats.Min(gates)) + 1
	}

	h := &GateHistogram{
		GateEdges:  Binning{Bins: gateBins}.edges(gates),
		ValueEdges: b.edges(pointValues(points)),
		Normalized: normalize,
	}
	c, r := h.Dims()
	h.Bins = [2]int{c, r}

	h.Values = make([][]float64, c)
	for i := range h.Values {
		h.Values[i] = make([]float64, r)
	}

	var total float64
	for _, p := range points {
		gi := binIndex(h.GateEdges, float64(p.gate))
		vi := binIndex(h.ValueEdges, p.value)
		if gi < 0 || vi < 0 {
			continue
		}
		h.Values[gi][vi]++
		total++
	}
	h.Points = len(points)

	if normalize && total > 0 {
		for gi := range h.Values {
			for vi := range h.Values[gi] {
				area := (h.GateEdges[gi+1] - h.GateEdges[gi]) * (h.ValueEdges[vi+1] - h.ValueEdges[vi])
				h.Values[gi][vi] /= total * area
			}
		}
	}
	return h
}
