package paramhist

import (
	"fmt"

	"github.com/roman-kulish/superdarn-freqscan/internal/darn"
	"github.com/roman-kulish/superdarn-freqscan/internal/freqscan"
)

// ScalarOptions configures a scalar field histogram.
type ScalarOptions struct {
	Beam      *int // Single beam; nil for all beams
	Normalize bool // Probability density instead of counts
	Binning   Binning
}

// ScalarResult is the distribution of a per-record scalar field.
type ScalarResult struct {
	Param   string     `json:"param"`
	Scatter *Histogram `json:"scatter"`
}

// ScalarHistogram computes the distribution of the scalar field param, one
// value per record. Records without the field or with a non-finite value
// are ignored.
func ScalarHistogram(records []darn.Record, param string, opts ScalarOptions) (*ScalarResult, error) {
	found := false
	for i := range records {
		if _, ok := records[i].Scalar(param); ok {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: unknown scalar field parameter: %s", freqscan.ErrInvalidInput, param)
	}
	if err := validateBeam(opts.Beam); err != nil {
		return nil, err
	}
	if err := opts.Binning.validate(); err != nil {
		return nil, err
	}

	var values []float64
	for i := range records {
		rec := &records[i]
		if opts.Beam != nil && rec.Bmnum != *opts.Beam {
			continue
		}
		if v, ok := rec.Scalar(param); ok && finite(v) {
			values = append(values, v)
		}
	}
	if err := checkData(param, values, nil, false); err != nil {
		return nil, err
	}

	return &ScalarResult{
		Param:   param,
		Scatter: newHistogram(values, opts.Binning, opts.Normalize),
	}, nil
}
