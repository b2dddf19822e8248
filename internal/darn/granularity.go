package darn

import (
	"fmt"
	"strings"
)

const (
	GranularityYear  Granularity = "year"
	GranularityMonth Granularity = "month"
	GranularityDay   Granularity = "day"
	GranularityHour  Granularity = "hour"
)

// Granularity selects the time scale records are bucketed by.
type Granularity string

var validGranularities = map[Granularity]struct{}{
	GranularityYear:  {},
	GranularityMonth: {},
	GranularityDay:   {},
	GranularityHour:  {},
}

// Valid reports whether g is one of the supported granularities.
func (g Granularity) Valid() bool {
	_, ok := validGranularities[g]
	return ok
}

// ParseGranularity parses a case-insensitive granularity name.
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", fmt.Errorf("invalid date bin type: %s", s)
	}
	return g, nil
}
