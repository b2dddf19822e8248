package freqscan

import (
	"fmt"
	"time"

	"github.com/roman-kulish/superdarn-freqscan/internal/darn"
)

// Title returns a chart title made of the station name of the first record
// and the date span of the records at the given granularity. An empty
// granularity formats dates as year and month.
func Title(records []darn.Record, g darn.Granularity) string {
	if len(records) == 0 {
		return ""
	}

	first, last := records[0], records[len(records)-1]
	start, end := titleDate(first.Time, g), titleDate(last.Time, g)

	date := start
	if start != end {
		date = fmt.Sprintf("%s to %s", start, end)
	}
	return fmt.Sprintf("%s %s", darn.StationName(first.Stid), date)
}

func titleDate(t darn.Time, g darn.Granularity) string {
	switch g {
	case darn.GranularityYear:
		return time.Date(t.Year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")
	case darn.GranularityDay:
		return time.Date(t.Year, time.Month(t.Month), t.Day, 0, 0, 0, 0, time.UTC).Format("2006 Jan 02")
	default:
		return time.Date(t.Year, time.Month(t.Month), 1, 0, 0, 0, 0, time.UTC).Format("2006 Jan")
	}
}
