package paramhist

import (
	"errors"
	"math"
	"testing"

	"github.com/roman-kulish/superdarn-freqscan/internal/darn"
	"github.com/roman-kulish/superdarn-freqscan/internal/freqscan"
)

func intPtr(v int) *int { return &v }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func testRecords() []darn.Record {
	at := darn.Time{Year: 2023, Month: 4, Day: 18, Hour: 14}
	return []darn.Record{
		{
			Stid: 65, Bmnum: 3, Time: at,
			Gflg: []int8{0, 1, 0}, Slist: []int{10, 11, 12},
			Vectors: map[string][]float64{"v": {100, 200, math.NaN()}},
			Scalars: map[string]float64{"noise.sky": 2},
		},
		{
			Stid: 65, Bmnum: 3, Time: at,
			Gflg: []int8{0, 0}, Slist: []int{10, 11},
			Vectors: map[string][]float64{"v": {300, 400}},
			Scalars: map[string]float64{"noise.sky": 4},
		},
		{
			Stid: 65, Bmnum: 5, Time: at,
			Gflg: []int8{1}, Slist: []int{10},
			Vectors: map[string][]float64{"v": {500}},
			Scalars: map[string]float64{"noise.sky": math.NaN()},
		},
		{Stid: 65, Bmnum: 3, Time: at},
	}
}

func TestVectorHistogram(t *testing.T) {
	res, err := VectorHistogram(testRecords(), "v", VectorOptions{Binning: Binning{Bins: 4}})
	if err != nil {
		t.Fatalf("Failed to build histogram: %v", err)
	}

	h := res.Scatter
	wantCounts := []float64{1, 1, 1, 2}
	wantCenters := []float64{150, 250, 350, 450}
	for i := range wantCounts {
		if h.Values[i] != wantCounts[i] || h.Centers[i] != wantCenters[i] {
			t.Errorf("Bin %d: expected %v at %v, got %v at %v", i, wantCounts[i], wantCenters[i], h.Values[i], h.Centers[i])
		}
	}

	s := h.Stats
	if s.Points != 5 || s.Bins != 4 {
		t.Errorf("Expected 5 points in 4 bins, got %d in %d", s.Points, s.Bins)
	}
	if !approx(s.Mean, 300) || !approx(s.Median, 300) || !approx(s.Std, math.Sqrt(20000)) {
		t.Errorf("Unexpected stats %+v", s)
	}
	if s.Mode != 450 {
		t.Errorf("Expected mode 450, got %v", s.Mode)
	}
	if res.Ground != nil {
		t.Error("Expected no ground scatter histogram")
	}
}

func TestVectorHistogram_Selection(t *testing.T) {
	tests := []struct {
		name   string
		opts   VectorOptions
		points int
		mean   float64
	}{
		{"beam", VectorOptions{Beam: intPtr(3)}, 4, 250},
		{"gate", VectorOptions{Gate: intPtr(10)}, 3, 300},
		{"beam and gate", VectorOptions{Beam: intPtr(5), Gate: intPtr(10)}, 1, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := VectorHistogram(testRecords(), "v", tt.opts)
			if err != nil {
				t.Fatalf("Failed to build histogram: %v", err)
			}
			if res.Scatter.Stats.Points != tt.points || !approx(res.Scatter.Stats.Mean, tt.mean) {
				t.Errorf("Expected %d points with mean %v, got %+v", tt.points, tt.mean, res.Scatter.Stats)
			}
		})
	}
}

func TestVectorHistogram_GroundScatter(t *testing.T) {
	res, err := VectorHistogram(testRecords(), "v", VectorOptions{GroundScatter: true})
	if err != nil {
		t.Fatalf("Failed to build histogram: %v", err)
	}
	if res.Scatter.Stats.Points != 3 || !approx(res.Scatter.Stats.Mean, 800.0/3) {
		t.Errorf("Unexpected ionospheric stats %+v", res.Scatter.Stats)
	}
	if res.Ground == nil || res.Ground.Stats.Points != 2 || !approx(res.Ground.Stats.Mean, 350) {
		t.Fatalf("Unexpected ground scatter histogram %+v", res.Ground)
	}
	if !approx(res.GroundPercent, 40) {
		t.Errorf("Expected 40%% ground scatter, got %v", res.GroundPercent)
	}
}

func TestVectorHistogram_Normalize(t *testing.T) {
	res, err := VectorHistogram(testRecords(), "v", VectorOptions{Normalize: true, Binning: Binning{Bins: 4}})
	if err != nil {
		t.Fatalf("Failed to build histogram: %v", err)
	}

	var area float64
	for i, v := range res.Scatter.Values {
		area += v * (res.Scatter.Edges[i+1] - res.Scatter.Edges[i])
	}
	if !approx(area, 1) {
		t.Errorf("Expected unit area, got %v", area)
	}
	if !approx(res.Scatter.Values[3], 0.004) {
		t.Errorf("Expected density 0.004 in the last bin, got %v", res.Scatter.Values[3])
	}
}

func TestVectorHistogram_AutoRange(t *testing.T) {
	res, err := VectorHistogram(testRecords(), "v", VectorOptions{Binning: Binning{Bins: 4, AutoRange: true}})
	if err != nil {
		t.Fatalf("Failed to build histogram: %v", err)
	}

	h := res.Scatter
	if !approx(h.Edges[0], 102) || !approx(h.Edges[4], 498) {
		t.Errorf("Expected edges to span [102, 498], got %v", h.Edges)
	}
	var inside float64
	for _, v := range h.Values {
		inside += v
	}
	if inside != 3 {
		t.Errorf("Expected 3 values inside the range, got %v", inside)
	}
	if h.Stats.Points != 5 {
		t.Errorf("Statistics must cover every value, got %d points", h.Stats.Points)
	}
}

func TestVectorHistogram_Errors(t *testing.T) {
	noFlags := []darn.Record{{Vectors: map[string][]float64{"v": {1, 2}}}}
	allNaN := []darn.Record{{Vectors: map[string][]float64{"v": {math.NaN()}}}}
	noGround := []darn.Record{{Gflg: []int8{0}, Vectors: map[string][]float64{"v": {1}}}}

	tests := []struct {
		name    string
		records []darn.Record
		param   string
		opts    VectorOptions
		want    error
	}{
		{"unknown parameter", testRecords(), "xyz", VectorOptions{}, freqscan.ErrInvalidInput},
		{"scalar parameter", testRecords(), "noise.sky", VectorOptions{}, freqscan.ErrInvalidInput},
		{"beam out of range", testRecords(), "v", VectorOptions{Beam: intPtr(16)}, freqscan.ErrInvalidInput},
		{"gate out of range", testRecords(), "v", VectorOptions{Gate: intPtr(75)}, freqscan.ErrInvalidInput},
		{"negative bins", testRecords(), "v", VectorOptions{Binning: Binning{Bins: -1}}, freqscan.ErrInvalidInput},
		{"no ground flags", noFlags, "v", VectorOptions{GroundScatter: true}, freqscan.ErrInvalidInput},
		{"no finite values", allNaN, "v", VectorOptions{}, freqscan.ErrDataUnavailable},
		{"no ground scatter", noGround, "v", VectorOptions{GroundScatter: true}, freqscan.ErrDataUnavailable},
		{"empty beam", testRecords(), "v", VectorOptions{Beam: intPtr(0)}, freqscan.ErrDataUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VectorHistogram(tt.records, tt.param, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestScalarHistogram(t *testing.T) {
	res, err := ScalarHistogram(testRecords(), "noise.sky", ScalarOptions{Binning: Binning{Bins: 2}})
	if err != nil {
		t.Fatalf("Failed to build histogram: %v", err)
	}

	s := res.Scatter.Stats
	if s.Points != 2 || s.Mean != 3 || s.Std != 1 || s.Median != 3 {
		t.Errorf("Unexpected stats %+v", s)
	}
	if s.Mode != 2.5 {
		t.Errorf("Expected the first fullest bin as mode, got %v", s.Mode)
	}

	res, err = ScalarHistogram(testRecords(), "bmnum", ScalarOptions{Beam: intPtr(3)})
	if err != nil {
		t.Fatalf("Failed to build histogram: %v", err)
	}
	if res.Scatter.Stats.Points != 3 || res.Scatter.Stats.Bins != 1 {
		t.Errorf("Expected 3 records in a single bin, got %+v", res.Scatter.Stats)
	}

	if _, err = ScalarHistogram(testRecords(), "v", ScalarOptions{}); !errors.Is(err, freqscan.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for a vector field, got %v", err)
	}
	if _, err = ScalarHistogram(testRecords(), "noise.sky", ScalarOptions{Beam: intPtr(5)}); !errors.Is(err, freqscan.ErrDataUnavailable) {
		t.Errorf("Expected ErrDataUnavailable for a NaN only beam, got %v", err)
	}
}

func TestRangeGateHistogram(t *testing.T) {
	nrang := 3
	records := []darn.Record{
		{Nrang: &nrang, Slist: []int{0, 1, 2}, Vectors: map[string][]float64{"w_l": {10, 20, 30}}},
		{Slist: []int{2}, Vectors: map[string][]float64{"w_l": {30}}},
		{Vectors: map[string][]float64{"w_l": {15}}}, // no slist
	}

	res, err := RangeGateHistogram(records, "w_l", GateOptions{Binning: Binning{Bins: 2}})
	if err != nil {
		t.Fatalf("Failed to build histogram: %v", err)
	}

	h := res.Scatter
	if h.Bins != [2]int{3, 2} || h.Points != 4 {
		t.Fatalf("Expected 3x2 bins over 4 points, got %v over %d", h.Bins, h.Points)
	}
	want := [][]float64{{1, 0}, {0, 1}, {0, 2}}
	for g, row := range want {
		for v, count := range row {
			if h.Values[g][v] != count {
				t.Errorf("Cell [%d][%d]: expected %v, got %v", g, v, count, h.Values[g][v])
			}
		}
	}
	if c, r := h.Dims(); c != 3 || r != 2 || !approx(h.X(0), 1.0/3) || h.Y(1) != 25 {
		t.Errorf("Unexpected grid: dims %dx%d, X(0)=%v, Y(1)=%v", c, r, h.X(0), h.Y(1))
	}

	res, err = RangeGateHistogram(records, "w_l", GateOptions{Normalize: true, Binning: Binning{Bins: 2}})
	if err != nil {
		t.Fatalf("Failed to build histogram: %v", err)
	}
	if got := res.Scatter.Values[2][1]; !approx(got, 2/(4*(2.0/3)*10)) {
		t.Errorf("Expected density %v, got %v", 2/(4*(2.0/3)*10), got)
	}
}

func TestParseBinning(t *testing.T) {
	tests := []struct {
		bins    int
		rng     string
		want    Binning
		wantErr bool
	}{
		{0, "", Binning{}, false},
		{20, "auto", Binning{Bins: 20, AutoRange: true}, false},
		{0, "-500, 500", Binning{Range: &Range{Low: -500, High: 500}}, false},
		{0, "1", Binning{}, true},
		{0, "a,b", Binning{}, true},
		{0, "5,1", Binning{}, true},
		{-1, "", Binning{}, true},
	}

	for _, tt := range tests {
		got, err := ParseBinning(tt.bins, tt.rng)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseBinning(%d, %q) error = %v, wantErr %v", tt.bins, tt.rng, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			if !errors.Is(err, freqscan.ErrInvalidInput) {
				t.Errorf("ParseBinning(%d, %q): expected ErrInvalidInput, got %v", tt.bins, tt.rng, err)
			}
			continue
		}
		if got.Bins != tt.want.Bins || got.AutoRange != tt.want.AutoRange || (got.Range == nil) != (tt.want.Range == nil) {
			t.Errorf("ParseBinning(%d, %q) = %+v, want %+v", tt.bins, tt.rng, got, tt.want)
		}
		if got.Range != nil && *got.Range != *tt.want.Range {
			t.Errorf("ParseBinning(%d, %q) range = %+v, want %+v", tt.bins, tt.rng, *got.Range, *tt.want.Range)
		}
	}
}

func TestAutoBinCount(t *testing.T) {
	if n := autoBinCount([]float64{1, 2, 3, 4, 5}, 1, 5); n != 4 {
		t.Errorf("Expected 4 bins, got %d", n)
	}
	if n := autoBinCount([]float64{7, 7, 7}, 6.5, 7.5); n != 1 {
		t.Errorf("Expected a single bin for constant data, got %d", n)
	}
}

func TestTitle(t *testing.T) {
	got := Title(testRecords(), "v", intPtr(3), nil, GroundScatter)
	want := "Inuvik 2023 Apr 18\nLine of Sight Velocity: Beam 3 (Ground Scatter)"
	if got != want {
		t.Errorf("Title() = %q, want %q", got, want)
	}

	if got = Title(testRecords(), "x_qflg", nil, intPtr(12), AllScatter); got != "Inuvik 2023 Apr 18\nx_qflg: Gate 12" {
		t.Errorf("Unexpected title for an unknown field: %q", got)
	}
}
