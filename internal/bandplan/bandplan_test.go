package bandplan

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/roman-kulish/superdarn-freqscan/internal/freqscan"
)

func TestDecode(t *testing.T) {
	input := `
bands:
  "2": [10000, 12000]
  "0": [8000, 9000]
  "1": [9000, 10000]
boundary: [8000, 12000]
omit: 1
normalize: false
dateBin: day
theme: viridis
`
	plan, err := DecodeBytes([]byte(input))
	if err != nil {
		t.Fatalf("Failed to decode band plan: %v", err)
	}

	bands := plan.Bands.Bands()
	order := []string{"2", "0", "1"}
	if len(bands) != len(order) {
		t.Fatalf("Expected %d bands, got %d", len(order), len(bands))
	}
	for i, id := range order {
		if bands[i].ID != id {
			t.Errorf("Band %d: expected %s, got %s", i, id, bands[i].ID)
		}
	}
	if bands[0].Low != 10000 || bands[0].High != 12000 {
		t.Errorf("Unexpected band 2 range: %+v", bands[0])
	}

	if plan.Boundary == nil || plan.Boundary.Low != 8000 || plan.Boundary.High != 12000 {
		t.Errorf("Unexpected boundary: %+v", plan.Boundary)
	}
	if len(plan.Omit) != 1 || plan.Omit[0] != "1" {
		t.Errorf("Unexpected omit: %v", plan.Omit)
	}
	if plan.Normalize == nil || *plan.Normalize {
		t.Errorf("Expected normalize false, got %v", plan.Normalize)
	}
	if plan.DateBin != "day" || plan.Theme != "viridis" {
		t.Errorf("Unexpected settings: %q %q", plan.DateBin, plan.Theme)
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ``},
		{"bands not a mapping", "bands: [[8000, 9000]]"},
		{"band with three bounds", "bands:\n  \"0\": [8000, 9000, 10000]"},
		{"band not a list", "bands:\n  \"0\": 8000"},
		{"band bound not a number", "bands:\n  \"0\": [low, 9000]"},
		{"inverted band", "bands:\n  \"0\": [9000, 8000]"},
		{"boundary with one bound", "bands:\n  \"0\": [8000, 9000]\nboundary: [8000]"},
		{"unknown field", "bands:\n  \"0\": [8000, 9000]\ncolour: red"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBytes([]byte(tt.input))
			if !errors.Is(err, freqscan.ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bands.yaml")
	if err := os.WriteFile(path, []byte("bands:\n  \"0\": [8000, 10000]\nomit: [\"0\"]\n"), 0o644); err != nil {
		t.Fatalf("Failed to write band plan: %v", err)
	}

	plan, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load band plan: %v", err)
	}
	if plan.Bands.Len() != 1 || plan.Boundary != nil {
		t.Errorf("Unexpected plan: %+v", plan)
	}

	if _, err = Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
