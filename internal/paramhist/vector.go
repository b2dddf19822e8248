package paramhist

import (
	"fmt"

	"github.com/roman-kulish/superdarn-freqscan/internal/darn"
	"github.com/roman-kulish/superdarn-freqscan/internal/freqscan"
)

// VectorOptions configures a vector field histogram.
type VectorOptions struct {
	Beam          *int    // Single beam; nil for all beams
	Gate          *int    // Single range gate; nil for all gates
	GroundScatter bool    // Histogram points flagged as ground scatter separately
	Normalize     bool    // Probability density instead of counts
	Binning       Binning // Bins of the main histogram
	GroundBinning Binning // Bins of the ground scatter histogram
}

// VectorResult is the distribution of a per-gate vector field.
type VectorResult struct {
	Param string `json:"param"`

	// Scatter holds the ionospheric scatter points when ground scatter is
	// split off, all points otherwise.
	Scatter *Histogram `json:"scatter"`

	Ground        *Histogram `json:"ground,omitempty"`        // nil unless GroundScatter
	GroundPercent float64    `json:"groundPercent,omitempty"` // Share of points flagged as ground scatter
}

// scatterPoint is a single finite value of a vector field.
type scatterPoint struct {
	value  float64
	gate   int
	ground bool
}

// VectorHistogram computes the distribution of the vector field param.
//
// Non-finite values are ignored. Records are skipped when they lack the
// field, when a gate is selected (or gates are needed) and the record has no
// matching slist, or when ground scatter is split off and the record has no
// matching gflg.
func VectorHistogram(records []darn.Record, param string, opts VectorOptions) (*VectorResult, error) {
	if err := validateVectorParam(records, param, opts.GroundScatter); err != nil {
		return nil, err
	}
	if err := validateBeam(opts.Beam); err != nil {
		return nil, err
	}
	if err := validateGate(opts.Gate); err != nil {
		return nil, err
	}
	if err := opts.Binning.validate(); err != nil {
		return nil, err
	}
	if err := opts.GroundBinning.validate(); err != nil {
		return nil, err
	}

	points := gatherVector(records, param, opts.Beam, opts.Gate, opts.GroundScatter, opts.Gate != nil)
	scatter, ground := splitValues(points)
	if err := checkData(param, scatter, ground, opts.GroundScatter); err != nil {
		return nil, err
	}

	res := &VectorResult{
		Param:   param,
		Scatter: newHistogram(scatter, opts.Binning, opts.Normalize),
	}
	if opts.GroundScatter {
		res.Ground = newHistogram(ground, opts.GroundBinning, opts.Normalize)
		res.GroundPercent = float64(len(ground)) / float64(len(scatter)+len(ground)) * 100
	}
	return res, nil
}

func validateVectorParam(records []darn.Record, param string, groundScatter bool) error {
	var found, hasGflg bool
	for i := range records {
		if _, ok := records[i].Vector(param); ok {
			found = true
		}
		if records[i].HasGflg() {
			hasGflg = true
		}
	}
	if !found {
		return fmt.Errorf("%w: unknown vector field parameter: %s", freqscan.ErrInvalidInput, param)
	}
	if groundScatter && !hasGflg {
		return fmt.Errorf("%w: ground scatter flags unavailable", freqscan.ErrInvalidInput)
	}
	return nil
}

func gatherVector(records []darn.Record, param string, beam, gate *int, groundScatter, needGates bool) []scatterPoint {
	var points []scatterPoint
	for i := range records {
		rec := &records[i]
		if beam != nil && rec.Bmnum != *beam {
			continue
		}
		vec, ok := rec.Vector(param)
		if !ok {
			continue
		}
		if needGates && len(rec.Slist) != len(vec) {
			continue
		}
		if groundScatter && len(rec.Gflg) != len(vec) {
			continue
		}

		for j, v := range vec {
			if gate != nil && rec.Slist[j] != *gate {
				continue
			}
			if !finite(v) {
				continue
			}

			p := scatterPoint{value: v}
			if needGates {
				p.gate = rec.Slist[j]
			}
			if groundScatter {
				p.ground = rec.Gflg[j] == 1
			}
			points = append(points, p)
		}
	}
	return points
}

func splitValues(points []scatterPoint) (scatter, ground []float64) {
	for _, p := range points {
		if p.ground {
			ground = append(ground, p.value)
		} else {
			scatter = append(scatter, p.value)
		}
	}
	return scatter, ground
}

func checkData(param string, scatter, ground []float64, groundScatter bool) error {
	if len(scatter) == 0 {
		return fmt.Errorf("%w: no finite %s values", freqscan.ErrDataUnavailable, param)
	}
	if groundScatter && len(ground) == 0 {
		return fmt.Errorf("%w: no finite %s ground scatter values", freqscan.ErrDataUnavailable, param)
	}
	return nil
}
