package darn

import (
	"encoding/json"
	"math"
	"testing"
)

func TestRecord_UnmarshalJSON(t *testing.T) {
	input := `{
		"stid": 65,
		"channel": 2,
		"bmnum": 7,
		"tfreq": 10500,
		"gflg": [0, 1, 0],
		"slist": [10, 11, 30],
		"nrang": 75,
		"v": [120.5, -33.1, 8.0],
		"elv": [12.5, null, 20.0],
		"noise.sky": 3.25,
		"lagfr": 1200,
		"origin.command": "make_fit",
		"time.yr": 2023, "time.mo": 4, "time.dy": 18, "time.hr": 14, "time.mt": 2, "time.sc": 30
	}`

	var rec Record
	if err := json.Unmarshal([]byte(input), &rec); err != nil {
		t.Fatalf("Failed to unmarshal record: %v", err)
	}

	if rec.Stid != 65 || rec.Channel != 2 || rec.Bmnum != 7 {
		t.Errorf("Unexpected scalars: stid=%d channel=%d bmnum=%d", rec.Stid, rec.Channel, rec.Bmnum)
	}
	if rec.Tfreq != 10500 {
		t.Errorf("Expected tfreq 10500, got %f", rec.Tfreq)
	}
	if !rec.HasGflg() || rec.IonosphericPoints() != 2 {
		t.Errorf("Expected 2 ionospheric points, got %d", rec.IonosphericPoints())
	}
	if rec.Nrang == nil || *rec.Nrang != 75 {
		t.Errorf("Expected nrang 75, got %v", rec.Nrang)
	}
	if rec.Time != (Time{Year: 2023, Month: 4, Day: 18, Hour: 14, Minute: 2, Second: 30}) {
		t.Errorf("Unexpected time: %+v", rec.Time)
	}
	if got := rec.Vectors["v"]; len(got) != 3 || got[1] != -33.1 {
		t.Errorf("Expected velocity vector to be kept, got %v", got)
	}
	if got, ok := rec.Vector("elv"); !ok || len(got) != 3 || !math.IsNaN(got[1]) {
		t.Errorf("Expected null elevation to decode as NaN, got %v", got)
	}
	if _, ok := rec.Vectors["origin.command"]; ok {
		t.Error("String field must not be kept as a vector")
	}
	if _, ok := rec.Scalars["origin.command"]; ok {
		t.Error("String field must not be kept as a scalar")
	}

	scalars := []struct {
		name string
		want float64
	}{
		{"noise.sky", 3.25},
		{"lagfr", 1200},
		{"tfreq", 10500},
		{"bmnum", 7},
		{"nrang", 75},
	}
	for _, tt := range scalars {
		if got, ok := rec.Scalar(tt.name); !ok || got != tt.want {
			t.Errorf("Scalar(%q) = %v, %v, want %v", tt.name, got, ok, tt.want)
		}
	}
	if _, ok := rec.Scalar("nave"); ok {
		t.Error("Expected missing scalar to be absent")
	}
}

func TestRecord_UnmarshalJSON_MissingFields(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`{"channel": 2, "tfreq": null}`), &rec); err != nil {
		t.Fatalf("Failed to unmarshal record: %v", err)
	}
	if !math.IsNaN(rec.Tfreq) {
		t.Errorf("Expected NaN tfreq, got %f", rec.Tfreq)
	}
	if rec.HasGflg() {
		t.Error("Expected gflg to be absent")
	}

	if err := json.Unmarshal([]byte(`{"channel": 2, "tfreq": 9000, "gflg": []}`), &rec); err != nil {
		t.Fatalf("Failed to unmarshal record: %v", err)
	}
	if !rec.HasGflg() {
		t.Error("Expected empty gflg to be present")
	}
}

func TestRecord_MarshalJSON(t *testing.T) {
	nrang := 75
	rec := Record{
		Stid:    5,
		Channel: 2,
		Tfreq:   math.NaN(),
		Gflg:    []int8{0, 1},
		Nrang:   &nrang,
		Time:    Time{Year: 2022, Month: 1, Day: 2, Hour: 3},
		Vectors: map[string][]float64{"p_l": {1, math.NaN()}},
		Scalars: map[string]float64{"noise.sky": 4.5},
	}

	p, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Failed to marshal record: %v", err)
	}

	var decoded Record
	if err = json.Unmarshal(p, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal record: %v", err)
	}
	if !math.IsNaN(decoded.Tfreq) {
		t.Errorf("Expected NaN tfreq to survive as missing, got %f", decoded.Tfreq)
	}
	if decoded.Time != rec.Time {
		t.Errorf("Expected time %+v, got %+v", rec.Time, decoded.Time)
	}
	if pl := decoded.Vectors["p_l"]; len(pl) != 2 || pl[0] != 1 || !math.IsNaN(pl[1]) {
		t.Errorf("Expected p_l vector [1 NaN], got %v", decoded.Vectors)
	}
	if decoded.Scalars["noise.sky"] != 4.5 {
		t.Errorf("Expected noise.sky 4.5, got %v", decoded.Scalars)
	}
}

func TestFilterGates(t *testing.T) {
	nrang := 75
	records := []Record{
		{
			Channel: 2,
			Gflg:    []int8{0, 1, 0, 0},
			Slist:   []int{5, 10, 20, 40},
			Nrang:   &nrang,
			Vectors: map[string][]float64{"v": {1, 2, 3, 4}, "x_qflg": {1}},
		},
		{Channel: 2, Slist: []int{50, 60}},
		{Channel: 2},
	}

	filtered := FilterGates(records, 10, 20)
	if len(filtered) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(filtered))
	}

	got := filtered[0]
	if len(got.Slist) != 2 || got.Slist[0] != 10 || got.Slist[1] != 20 {
		t.Errorf("Unexpected slist: %v", got.Slist)
	}
	if len(got.Gflg) != 2 || got.Gflg[0] != 1 || got.Gflg[1] != 0 {
		t.Errorf("Unexpected gflg: %v", got.Gflg)
	}
	if v := got.Vectors["v"]; len(v) != 2 || v[0] != 2 || v[1] != 3 {
		t.Errorf("Unexpected v: %v", v)
	}
	if len(got.Vectors["x_qflg"]) != 1 {
		t.Errorf("Vectors of other lengths must be left alone, got %v", got.Vectors["x_qflg"])
	}
	if *got.Nrang != 11 {
		t.Errorf("Expected nrang 11, got %d", *got.Nrang)
	}

	// input must be untouched
	if len(records[0].Slist) != 4 || len(records[0].Vectors["v"]) != 4 || *records[0].Nrang != 75 {
		t.Error("FilterGates modified its input")
	}
}

func TestParseGranularity(t *testing.T) {
	tests := []struct {
		in      string
		want    Granularity
		wantErr bool
	}{
		{"year", GranularityYear, false},
		{"Month", GranularityMonth, false},
		{" day ", GranularityDay, false},
		{"HOUR", GranularityHour, false},
		{"week", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGranularity(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGranularity(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseGranularity(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStationName(t *testing.T) {
	if got := StationName(65); got != "Inuvik" {
		t.Errorf("StationName(65) = %q, want Inuvik", got)
	}
	if got := StationName(999); got != "Station 999" {
		t.Errorf("StationName(999) = %q, want Station 999", got)
	}
}
