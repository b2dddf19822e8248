package darn

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Time is the timestamp of a radar measurement cycle as carried by the
// "time.*" scalars of a DMAP record.
type Time struct {
	Year   int `json:"time.yr"` // Four-digit year
	Month  int `json:"time.mo"` // Month [1-12]
	Day    int `json:"time.dy"` // Day of month [1-31]
	Hour   int `json:"time.hr"` // Hour [0-23]
	Minute int `json:"time.mt"` // Minute [0-59]
	Second int `json:"time.sc"` // Second [0-59]
}

// UTC returns t as a time.Time in UTC.
func (t Time) UTC() time.Time {
	return time.Date(t.Year, time.Month(t.Month), t.Day, t.Hour, t.Minute, t.Second, 0, time.UTC)
}

// Record represents one radar measurement cycle decoded from a FITACF file.
// Only the fields the toolkit reads are typed; the remaining per-gate vectors
// are kept in Vectors so gate filtering can trim them consistently, and the
// remaining numeric scalars in Scalars.
type Record struct {
	Stid    int                  `json:"stid"`            // Station identifier
	Channel int                  `json:"channel"`         // Channel number; frequency sweeps run on channel 2 (B)
	Bmnum   int                  `json:"bmnum"`           // Beam number
	Tfreq   float64              `json:"tfreq"`           // Transmitted frequency in kHz, NaN if unknown
	Gflg    []int8               `json:"gflg,omitempty"`  // Ground scatter flag per scatter point, nil if absent
	Slist   []int                `json:"slist,omitempty"` // Range gate per scatter point, nil if absent
	Nrang   *int                 `json:"nrang,omitempty"` // Number of range gates
	Time    Time                 `json:"-"`               // Measurement timestamp
	Vectors map[string][]float64 `json:"-"`               // Other per-gate vector fields (v, p_l, w_l, ...); NaN where null
	Scalars map[string]float64   `json:"-"`               // Other numeric scalar fields (noise.sky, lagfr, nave, ...)
}

// HasGflg reports whether the record carries a ground scatter flag vector.
// An empty vector is present; a missing one is not.
func (r *Record) HasGflg() bool {
	return r.Gflg != nil
}

// IonosphericPoints returns the number of scatter points flagged as
// ionospheric scatter (gflg == 0).
func (r *Record) IonosphericPoints() int {
	var n int
	for _, flag := range r.Gflg {
		if flag == 0 {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() Record {
	c := *r
	if r.Gflg != nil {
		c.Gflg = append([]int8{}, r.Gflg...)
	}
	if r.Slist != nil {
		c.Slist = append([]int{}, r.Slist...)
	}
	if r.Nrang != nil {
		n := *r.Nrang
		c.Nrang = &n
	}
	if r.Vectors != nil {
		c.Vectors = make(map[string][]float64, len(r.Vectors))
		for k, v := range r.Vectors {
			c.Vectors[k] = append([]float64{}, v...)
		}
	}
	if r.Scalars != nil {
		c.Scalars = make(map[string]float64, len(r.Scalars))
		for k, v := range r.Scalars {
			c.Scalars[k] = v
		}
	}
	return c
}

// Vector returns the per-gate vector field with the given name.
func (r *Record) Vector(name string) ([]float64, bool) {
	vec, ok := r.Vectors[name]
	return vec, ok
}

// Scalar returns the numeric scalar field with the given name. Typed fields
// are looked up first; a missing tfreq or nrang is reported as absent.
func (r *Record) Scalar(name string) (float64, bool) {
	switch name {
	case "stid":
		return float64(r.Stid), true
	case "channel":
		return float64(r.Channel), true
	case "bmnum":
		return float64(r.Bmnum), true
	case "tfreq":
		return r.Tfreq, !math.IsNaN(r.Tfreq)
	case "nrang":
		if r.Nrang == nil {
			return 0, false
		}
		return float64(*r.Nrang), true
	}
	v, ok := r.Scalars[name]
	return v, ok
}

var knownFields = map[string]struct{}{
	"stid": {}, "channel": {}, "bmnum": {}, "tfreq": {}, "gflg": {}, "slist": {}, "nrang": {},
	"time.yr": {}, "time.mo": {}, "time.dy": {}, "time.hr": {}, "time.mt": {}, "time.sc": {},
}

// UnmarshalJSON decodes a record from a DMAP dump in which every field is a
// top-level key. A null or missing tfreq decodes as NaN.
func (r *Record) UnmarshalJSON(p []byte) error {
	type plain struct {
		Stid    int      `json:"stid"`
		Channel int      `json:"channel"`
		Bmnum   int      `json:"bmnum"`
		Tfreq   *float64 `json:"tfreq"`
		Gflg    []int8   `json:"gflg"`
		Slist   []int    `json:"slist"`
		Nrang   *int     `json:"nrang"`
		Time
	}

	var v plain
	if err := json.Unmarshal(p, &v); err != nil {
		return err
	}

	*r = Record{
		Stid:    v.Stid,
		Channel: v.Channel,
		Bmnum:   v.Bmnum,
		Tfreq:   math.NaN(),
		Gflg:    v.Gflg,
		Slist:   v.Slist,
		Nrang:   v.Nrang,
		Time:    v.Time,
	}
	if v.Tfreq != nil {
		r.Tfreq = *v.Tfreq
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(p, &fields); err != nil {
		return err
	}
	for key, raw := range fields {
		if _, ok := knownFields[key]; ok {
			continue
		}

		var vec []*float64
		if err := json.Unmarshal(raw, &vec); err == nil && vec != nil {
			if r.Vectors == nil {
				r.Vectors = make(map[string][]float64)
			}
			r.Vectors[key] = FromNullable(vec)
			continue
		}

		var scalar *float64
		if err := json.Unmarshal(raw, &scalar); err == nil && scalar != nil {
			if r.Scalars == nil {
				r.Scalars = make(map[string]float64)
			}
			r.Scalars[key] = *scalar
		}
		// strings, booleans and nulls carry nothing to histogram
	}
	return nil
}

// ToNullable converts a vector into its JSON form, in which NaN and
// infinite values are null.
func ToNullable(vec []float64) []*float64 {
	out := make([]*float64, len(vec))
	for i, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = &vec[i]
	}
	return out
}

// FromNullable is the inverse of ToNullable.
func FromNullable(vec []*float64) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	return out
}

// MarshalJSON encodes the record back into the flat DMAP dump layout.
func (r Record) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(knownFields)+len(r.Vectors)+len(r.Scalars))
	for k, v := range r.Scalars {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			fields[k] = v
		}
	}
	for k, v := range r.Vectors {
		fields[k] = ToNullable(v)
	}
	fields["stid"] = r.Stid
	fields["channel"] = r.Channel
	fields["bmnum"] = r.Bmnum
	if !math.IsNaN(r.Tfreq) && !math.IsInf(r.Tfreq, 0) {
		fields["tfreq"] = r.Tfreq
	}
	if r.Gflg != nil {
		fields["gflg"] = r.Gflg
	}
	if r.Slist != nil {
		fields["slist"] = r.Slist
	}
	if r.Nrang != nil {
		fields["nrang"] = *r.Nrang
	}
	fields["time.yr"] = r.Time.Year
	fields["time.mo"] = r.Time.Month
	fields["time.dy"] = r.Time.Day
	fields["time.hr"] = r.Time.Hour
	fields["time.mt"] = r.Time.Minute
	fields["time.sc"] = r.Time.Second

	p, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshaling record: %w", err)
	}
	return p, nil
}
