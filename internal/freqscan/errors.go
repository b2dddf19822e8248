package freqscan

import "errors"

var (
	// ErrInvalidInput is returned for a malformed band table or band interval,
	// an unknown date bin, or an omitted band that is not in the band table.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDataUnavailable is returned when no ionospheric scatter survives
	// filtering and there is nothing to rank.
	ErrDataUnavailable = errors.New("no ionospheric scatter data available")
)
