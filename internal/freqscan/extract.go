package freqscan

import (
	"github.com/roman-kulish/superdarn-freqscan/internal/darn"
)

// SweepChannel is the only channel frequency sweeps are recorded on.
const SweepChannel = 2

const (
	SkipChannel      SkipReason = "channel"
	SkipInvalidFreq  SkipReason = "invalid_tfreq"
	SkipOutOfBounds  SkipReason = "out_of_bounds"
	SkipOmitted      SkipReason = "omitted_band"
	SkipNoGroundFlag SkipReason = "no_gflg"
	SkipNoBand       SkipReason = "no_band"
	SkipOddHour      SkipReason = "odd_hour"
)

// SkipReason explains why a record did not contribute to a histogram.
type SkipReason string

// Observer is notified of every per-record extraction decision.
type Observer interface {
	Skipped(reason SkipReason)
	Counted(band Band, points int)
}

type nopObserver struct{}

func (nopObserver) Skipped(SkipReason) {}
func (nopObserver) Counted(Band, int)  {}

func observerOrNop(o Observer) Observer {
	if o == nil {
		return nopObserver{}
	}
	return o
}

// sample is the contribution of a single record.
type sample struct {
	band   int // index into bandSelection.bands
	points int
}

// extract applies the record filters shared by both histogram kinds and
// locates the owning band. It returns the reason when the record is skipped.
func (s *bandSelection) extract(rec *darn.Record) (sample, SkipReason) {
	if rec.Channel != SweepChannel {
		return sample{}, SkipChannel
	}
	if !finite(rec.Tfreq) {
		return sample{}, SkipInvalidFreq
	}
	if s.boundary.excludes(rec.Tfreq) {
		return sample{}, SkipOutOfBounds
	}
	if s.omits(rec.Tfreq) {
		return sample{}, SkipOmitted
	}
	if !rec.HasGflg() {
		return sample{}, SkipNoGroundFlag
	}

	band := s.owner(rec.Tfreq)
	if band < 0 {
		return sample{}, SkipNoBand
	}
	return sample{band: band, points: rec.IonosphericPoints()}, ""
}
