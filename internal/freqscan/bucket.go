package freqscan

import (
	"fmt"
	"time"

	"github.com/roman-kulish/superdarn-freqscan/internal/darn"
)

// Bucket identifies one time column of a band/time histogram. Only the
// fields relevant to the granularity are set.
type Bucket struct {
	Granularity darn.Granularity
	Year        int
	Month       int
	Day         int
	Hour        int
}

// bucketFor returns the bucket of a record timestamp. Monthly buckets ignore
// the year, and hourly bucketing only accepts even hours.
func bucketFor(g darn.Granularity, t darn.Time) (Bucket, bool) {
	switch g {
	case darn.GranularityYear:
		return Bucket{Granularity: g, Year: t.Year}, true
	case darn.GranularityMonth:
		return Bucket{Granularity: g, Month: t.Month}, true
	case darn.GranularityDay:
		return Bucket{Granularity: g, Year: t.Year, Month: t.Month, Day: t.Day}, true
	case darn.GranularityHour:
		if t.Hour%2 != 0 {
			return Bucket{}, false
		}
		return Bucket{Granularity: g, Hour: t.Hour}, true
	}
	return Bucket{}, false
}

// Label returns the axis label of the bucket.
func (b Bucket) Label() string {
	switch b.Granularity {
	case darn.GranularityYear:
		return fmt.Sprintf("%04d", b.Year)
	case darn.GranularityMonth:
		if b.Month < 1 || b.Month > 12 {
			return fmt.Sprintf("%02d", b.Month)
		}
		return time.Month(b.Month).String()[:3]
	case darn.GranularityDay:
		return fmt.Sprintf("%02d/%02d", b.Month, b.Day)
	case darn.GranularityHour:
		return fmt.Sprintf("%02d:00", b.Hour)
	}
	return ""
}

// buckets collects time buckets in the order they are first seen.
type buckets struct {
	g     darn.Granularity
	order []Bucket
	index map[Bucket]int
}

func newBuckets(g darn.Granularity) *buckets {
	return &buckets{g: g, index: make(map[Bucket]int)}
}

func (bs *buckets) add(t darn.Time) {
	b, ok := bucketFor(bs.g, t)
	if !ok {
		return
	}
	if _, seen := bs.index[b]; !seen {
		bs.index[b] = len(bs.order)
		bs.order = append(bs.order, b)
	}
}

func (bs *buckets) column(t darn.Time) (int, bool) {
	b, ok := bucketFor(bs.g, t)
	if !ok {
		return 0, false
	}
	col, ok := bs.index[b]
	return col, ok
}
