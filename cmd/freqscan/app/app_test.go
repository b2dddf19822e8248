package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roman-kulish/superdarn-freqscan/internal/bandplan"
	"github.com/roman-kulish/superdarn-freqscan/internal/darn"
	"github.com/roman-kulish/superdarn-freqscan/internal/freqscan"
	"github.com/roman-kulish/superdarn-freqscan/internal/paramhist"
	"github.com/roman-kulish/superdarn-freqscan/internal/render"
	"github.com/roman-kulish/superdarn-freqscan/internal/storage"
)

const testBandPlan = `
bands:
  "0": [8000, 10000]
  "1": [10000, 12000]
  "2": [12000, 14000]
dateBin: day
`

const testRecordsNDJSON = `{"stid": 65, "channel": 2, "tfreq": 9000, "gflg": [0, 0, 1], "slist": [5, 10, 20], "time.yr": 2023, "time.mo": 4, "time.dy": 18, "time.hr": 14}
{"stid": 65, "channel": 1, "tfreq": 11000, "gflg": [0, 0, 0, 0], "slist": [5, 6, 7, 8], "time.yr": 2023, "time.mo": 4, "time.dy": 18, "time.hr": 14}

{"stid": 65, "channel": 2, "tfreq": 11000, "gflg": [0, 0, 0, 0], "slist": [10, 11, 12, 13], "time.yr": 2023, "time.mo": 4, "time.dy": 19, "time.hr": 2}
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestDecodeRecords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"ndjson", testRecordsNDJSON, 3},
		{"array", ` [{"channel": 2, "tfreq": 9000}, {"channel": 2, "tfreq": null}]`, 2},
		{"empty", "  \n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := decodeRecords(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Failed to decode records: %v", err)
			}
			if len(records) != tt.want {
				t.Errorf("Expected %d records, got %d", tt.want, len(records))
			}
		})
	}

	records, _ := decodeRecords(strings.NewReader(`[{"channel": 2, "tfreq": null}]`))
	if !math.IsNaN(records[0].Tfreq) {
		t.Errorf("Expected NaN tfreq, got %f", records[0].Tfreq)
	}

	if _, err := decodeRecords(strings.NewReader(`{"channel": 2}` + "\n" + `{"channel":`)); err == nil {
		t.Error("Expected truncated input to fail")
	}
}

func TestHistogramConfig_Validate(t *testing.T) {
	valid := func() *HistogramConfig {
		return &HistogramConfig{
			DBPath:     "freqscan.db",
			Dataset:    "inuvik",
			BandPlan:   "bands.yaml",
			OutputFile: "out",
			Format:     ImagePNG,
		}
	}

	c := valid()
	if err := c.Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}
	if c.OutputFile != "out.png" {
		t.Errorf("Expected extension to be added, got %s", c.OutputFile)
	}

	lo, hi := 30, 10
	tests := []struct {
		name   string
		modify func(*HistogramConfig)
	}{
		{"no db", func(c *HistogramConfig) { c.DBPath = "" }},
		{"no dataset", func(c *HistogramConfig) { c.Dataset = "" }},
		{"no band plan", func(c *HistogramConfig) { c.BandPlan = "" }},
		{"no output", func(c *HistogramConfig) { c.OutputFile = "" }},
		{"bad format", func(c *HistogramConfig) { c.Format = "gif" }},
		{"gates", func(c *HistogramConfig) { c.GateMin, c.GateMax = &lo, &hi }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.modify(c)
			if err := c.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestHistogramConfig_Settings(t *testing.T) {
	plan, err := bandplan.DecodeBytes([]byte(testBandPlan + "normalize: false\nomit: \"2\"\ntheme: viridis\n"))
	if err != nil {
		t.Fatalf("Failed to decode band plan: %v", err)
	}

	c := &Histogram2DConfig{HistogramConfig: HistogramConfig{Omit: []string{"1"}}}
	opts, theme, err := c.settings(plan)
	if err != nil {
		t.Fatalf("Failed to merge settings: %v", err)
	}
	if opts.Normalize {
		t.Error("Expected band plan normalize setting to apply")
	}
	if len(opts.Omit) != 2 || opts.Omit[0] != "2" || opts.Omit[1] != "1" {
		t.Errorf("Expected omit [2 1], got %v", opts.Omit)
	}
	if opts.DateBin != darn.GranularityDay || theme != render.ViridisTheme {
		t.Errorf("Expected band plan date bin and theme, got %s %s", opts.DateBin, theme)
	}

	yes := true
	c.Normalize = &yes
	c.DateBin = darn.GranularityYear
	opts, _, _ = c.settings(plan)
	if !opts.Normalize || opts.DateBin != darn.GranularityYear {
		t.Error("Expected command line settings to override the band plan")
	}
}

func TestHistogram2DConfig_SettingsInvalidPlan(t *testing.T) {
	tests := []struct {
		name string
		plan string
	}{
		{"date bin", "bands:\n  \"0\": [8000, 10000]\ndateBin: week\n"},
		{"theme", testBandPlan + "theme: sepia\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := bandplan.DecodeBytes([]byte(tt.plan))
			if err != nil {
				t.Fatalf("Failed to decode band plan: %v", err)
			}

			c := &Histogram2DConfig{}
			if _, _, err = c.settings(plan); !errors.Is(err, freqscan.ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

// brokenStore fails every record write.
type brokenStore struct {
	*storage.SqliteStore
}

func (brokenStore) StoreRecords(context.Context, int64, []darn.Record) error {
	return errors.New("disk full")
}

func TestStoreDataset_RemovesIncompleteDataset(t *testing.T) {
	ctx := context.Background()
	store := storage.NewSqliteStore(filepath.Join(t.TempDir(), "freqscan.db"))
	defer store.Close()

	records, err := decodeRecords(strings.NewReader(testRecordsNDJSON))
	if err != nil {
		t.Fatalf("Failed to decode records: %v", err)
	}

	_, err = storeDataset(ctx, brokenStore{store}, "inuvik", "test", records, discardLogger())
	if err == nil {
		t.Fatal("Expected an error when records cannot be stored")
	}

	if _, err = store.DatasetByName(ctx, "inuvik"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected incomplete dataset to be removed, got %v", err)
	}

	id, err := storeDataset(ctx, store, "inuvik", "test", records, discardLogger())
	if err != nil {
		t.Fatalf("Expected dataset name to be reusable, got %v", err)
	}
	ds, err := store.Dataset(ctx, id)
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}
	if ds.Records != int64(len(records)) {
		t.Errorf("Expected %d records, got %d", len(records), ds.Records)
	}
}

func TestRun_EndToEnd(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	logger := discardLogger()

	dbPath := filepath.Join(dir, "freqscan.db")
	input := writeFile(t, dir, "20230418.inv.json", testRecordsNDJSON)
	plan := writeFile(t, dir, "bands.yaml", testBandPlan)

	err := RunIngest(ctx, &IngestConfig{DBPath: dbPath, Dataset: "inuvik", Inputs: []string{input}}, logger)
	if err != nil {
		t.Fatalf("Failed to ingest records: %v", err)
	}

	var listing bytes.Buffer
	if err = RunDatasets(ctx, &DatasetsConfig{DBPath: dbPath}, logger, &listing); err != nil {
		t.Fatalf("Failed to list datasets: %v", err)
	}
	if !strings.Contains(listing.String(), "inuvik") || !strings.Contains(listing.String(), "20230418.inv.json") {
		t.Errorf("Unexpected dataset listing:\n%s", listing.String())
	}

	var out bytes.Buffer
	metricsFile := filepath.Join(dir, "hist.prom")
	err = RunHistogram(ctx, &HistogramConfig{
		DBPath:      dbPath,
		Dataset:     "inuvik",
		BandPlan:    plan,
		OutputFile:  filepath.Join(dir, "hist"),
		Format:      ImagePNG,
		ShowText:    true,
		MetricsFile: metricsFile,
	}, logger, &out)
	if err != nil {
		t.Fatalf("Failed to run histogram: %v", err)
	}

	var ranked []freqscan.RankedBand
	if err = json.Unmarshal(out.Bytes(), &ranked); err != nil {
		t.Fatalf("Failed to decode ranking: %v", err)
	}
	if len(ranked) != 3 || ranked[0].ID != "1" || ranked[0].Count != 4 || ranked[1].ID != "0" || ranked[1].Count != 2 {
		t.Errorf("Unexpected ranking: %+v", ranked)
	}
	for _, path := range []string{filepath.Join(dir, "hist.png"), metricsFile} {
		if _, err = os.Stat(path); err != nil {
			t.Errorf("Expected %s to be written: %v", path, err)
		}
	}

	// gates 10-20 drop the first record's gate 5 point
	out.Reset()
	gateMin, gateMax := 10, 20
	err = RunHistogram2D(ctx, &Histogram2DConfig{
		HistogramConfig: HistogramConfig{
			DBPath:     dbPath,
			Dataset:    "inuvik",
			BandPlan:   plan,
			OutputFile: filepath.Join(dir, "hist2d.jpg"),
			Format:     ImageJPEG,
			GateMin:    &gateMin,
			GateMax:    &gateMax,
		},
	}, logger, &out)
	if err != nil {
		t.Fatalf("Failed to run 2D histogram: %v", err)
	}

	ranked = nil
	if err = json.Unmarshal(out.Bytes(), &ranked); err != nil {
		t.Fatalf("Failed to decode ranking: %v", err)
	}
	if ranked[0].ID != "1" || ranked[0].Count != 4 || ranked[1].Count != 1 {
		t.Errorf("Unexpected ranking: %+v", ranked)
	}
	if _, err = os.Stat(filepath.Join(dir, "hist2d.jpg")); err != nil {
		t.Errorf("Expected heatmap to be written: %v", err)
	}
}

func TestRun_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	logger := discardLogger()

	err := RunHistogram(ctx, &HistogramConfig{
		DBPath:     filepath.Join(dir, "missing.db"),
		Dataset:    "inuvik",
		BandPlan:   writeFile(t, dir, "bands.yaml", testBandPlan),
		OutputFile: filepath.Join(dir, "out"),
		Format:     ImagePNG,
	}, logger, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("Expected missing database error, got %v", err)
	}

	bad := writeFile(t, dir, "bad.yaml", "bands:\n  \"0\": [8000]\n")
	err = RunHistogram(ctx, &HistogramConfig{
		DBPath:     filepath.Join(dir, "missing.db"),
		Dataset:    "inuvik",
		BandPlan:   bad,
		OutputFile: filepath.Join(dir, "out"),
		Format:     ImagePNG,
	}, logger, io.Discard)
	if !errors.Is(err, freqscan.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for a bad band plan, got %v", err)
	}
}

const testFieldsNDJSON = `{"stid": 65, "channel": 1, "bmnum": 3, "nrang": 75, "tfreq": 10500, "gflg": [0, 0, 1], "slist": [5, 10, 20], "v": [100, -50, 20], "noise.sky": 2.5, "time.yr": 2023, "time.mo": 4, "time.dy": 18, "time.hr": 14}
{"stid": 65, "channel": 1, "bmnum": 5, "nrang": 75, "tfreq": 10500, "gflg": [0, 0], "slist": [5, 6], "v": [200, null], "noise.sky": 3.5, "time.yr": 2023, "time.mo": 4, "time.dy": 18, "time.hr": 15}
`

func TestParamHistConfig_Validate(t *testing.T) {
	gate := 10
	valid := func() *ParamHistConfig {
		return &ParamHistConfig{DBPath: "db", Dataset: "ds", Param: "v", OutputFile: "out", Format: ImagePNG}
	}

	tests := []struct {
		name    string
		modify  func(c *ParamHistConfig)
		wantErr bool
	}{
		{"valid", func(c *ParamHistConfig) {}, false},
		{"missing param", func(c *ParamHistConfig) { c.Param = "" }, true},
		{"missing output", func(c *ParamHistConfig) { c.OutputFile = "" }, true},
		{"invalid kind", func(c *ParamHistConfig) { c.Kind = "matrix" }, true},
		{"scalar with gate", func(c *ParamHistConfig) { c.Kind = ScalarField; c.Gate = &gate }, true},
		{"scalar with ground scatter", func(c *ParamHistConfig) { c.Kind = ScalarField; c.GroundScatter = true }, true},
		{"gates with gate", func(c *ParamHistConfig) { c.Kind = GateField; c.Gate = &gate }, true},
		{"vector with gate", func(c *ParamHistConfig) { c.Kind = VectorField; c.Gate = &gate }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.modify(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	c := valid()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if c.Kind != VectorField || c.OutputFile != "out.png" || c.groundOutputFile() != "out-gs.png" {
		t.Errorf("Unexpected defaults: kind %s, output %s, ground output %s", c.Kind, c.OutputFile, c.groundOutputFile())
	}
}

func TestParseFieldKind(t *testing.T) {
	for in, want := range map[string]FieldKind{"": VectorField, "Scalar": ScalarField, "gates": GateField} {
		if got, err := ParseFieldKind(in); err != nil || got != want {
			t.Errorf("ParseFieldKind(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
	if _, err := ParseFieldKind("matrix"); !errors.Is(err, freqscan.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestRunParamHistogram(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	logger := discardLogger()

	dbPath := filepath.Join(dir, "freqscan.db")
	input := writeFile(t, dir, "20230418.inv.json", testFieldsNDJSON)
	if err := RunIngest(ctx, &IngestConfig{DBPath: dbPath, Dataset: "inuvik", Inputs: []string{input}}, logger); err != nil {
		t.Fatalf("Failed to ingest records: %v", err)
	}

	config := func(kind FieldKind, param, output string) *ParamHistConfig {
		return &ParamHistConfig{
			DBPath:     dbPath,
			Dataset:    "inuvik",
			Param:      param,
			Kind:       kind,
			OutputFile: filepath.Join(dir, output),
			Format:     ImagePNG,
			ShowText:   true,
		}
	}

	t.Run("vector", func(t *testing.T) {
		var out bytes.Buffer
		c := config(VectorField, "v", "velocity")
		c.GroundScatter = true
		c.MetricsFile = filepath.Join(dir, "param.prom")
		if err := RunParamHistogram(ctx, c, logger, &out); err != nil {
			t.Fatalf("RunParamHistogram() error = %v", err)
		}

		var res paramhist.VectorResult
		if err := json.Unmarshal(out.Bytes(), &res); err != nil {
			t.Fatalf("Failed to decode histogram: %v", err)
		}
		if res.Scatter.Stats.Points != 3 || res.Ground == nil || res.Ground.Stats.Points != 1 {
			t.Errorf("Unexpected points: %+v", res)
		}
		if math.Abs(res.GroundPercent-25) > 1e-9 {
			t.Errorf("GroundPercent = %v, want 25", res.GroundPercent)
		}
		for _, name := range []string{"velocity.png", "velocity-gs.png", "param.prom"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				t.Errorf("Expected %s to be written: %v", name, err)
			}
		}
	})

	t.Run("scalar", func(t *testing.T) {
		var out bytes.Buffer
		beam := 5
		c := config(ScalarField, "noise.sky", "noise")
		c.Beam = &beam
		if err := RunParamHistogram(ctx, c, logger, &out); err != nil {
			t.Fatalf("RunParamHistogram() error = %v", err)
		}

		var res paramhist.ScalarResult
		if err := json.Unmarshal(out.Bytes(), &res); err != nil {
			t.Fatalf("Failed to decode histogram: %v", err)
		}
		if res.Scatter.Stats.Points != 1 || res.Scatter.Stats.Mean != 3.5 {
			t.Errorf("Unexpected stats: %+v", res.Scatter.Stats)
		}
	})

	t.Run("gates", func(t *testing.T) {
		var out bytes.Buffer
		c := config(GateField, "v", "gates.jpeg")
		c.Format = ImageJPEG
		if err := RunParamHistogram(ctx, c, logger, &out); err != nil {
			t.Fatalf("RunParamHistogram() error = %v", err)
		}

		var res paramhist.GateResult
		if err := json.Unmarshal(out.Bytes(), &res); err != nil {
			t.Fatalf("Failed to decode histogram: %v", err)
		}
		if res.Scatter.Bins[0] != 75 || res.Scatter.Points != 4 {
			t.Errorf("Unexpected gate histogram: bins %v, points %d", res.Scatter.Bins, res.Scatter.Points)
		}
		if _, err := os.Stat(filepath.Join(dir, "gates.jpeg")); err != nil {
			t.Errorf("Expected heatmap to be written: %v", err)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		err := RunParamHistogram(ctx, config(VectorField, "w_l", "width"), logger, io.Discard)
		if !errors.Is(err, freqscan.ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput, got %v", err)
		}
	})
}
