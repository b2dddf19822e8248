package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/roman-kulish/superdarn-freqscan/internal/bandplan"
	"github.com/roman-kulish/superdarn-freqscan/internal/darn"
	"github.com/roman-kulish/superdarn-freqscan/internal/freqscan"
	"github.com/roman-kulish/superdarn-freqscan/internal/paramhist"
	"github.com/roman-kulish/superdarn-freqscan/internal/render"
)

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"

	defaultWorkers = 4
)

type ImageFormat string

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

// ParseImageFormat validates an image format name.
func ParseImageFormat(s string) (ImageFormat, error) {
	f := ImageFormat(strings.ToLower(s))
	if f == "jpg" {
		f = ImageJPEG
	}
	if _, ok := validImageFormats[f]; !ok {
		return "", fmt.Errorf("invalid image format: %s", s)
	}
	return f, nil
}

// IngestConfig configures loading of decoded DMAP dumps into the store.
type IngestConfig struct {
	DBPath  string
	Dataset string
	Source  string   // Optional; the input file names when empty
	Inputs  []string // JSON array or newline-delimited JSON files
	Workers int      // Number of files decoded concurrently
}

func (c *IngestConfig) Validate() error {
	if c.DBPath == "" {
		return errors.New("db path is required")
	}
	if c.Dataset == "" {
		return errors.New("dataset name is required")
	}
	if len(c.Inputs) == 0 {
		return errors.New("at least one input file is required")
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	return nil
}

// DatasetsConfig configures listing of stored datasets.
type DatasetsConfig struct {
	DBPath string
}

func (c *DatasetsConfig) Validate() error {
	if c.DBPath == "" {
		return errors.New("db path is required")
	}
	return nil
}

// recordQuery selects the records of a dataset.
type recordQuery struct {
	DBPath    string
	Dataset   string
	GateMin   *int
	GateMax   *int
	StartTime *time.Time
	EndTime   *time.Time
}

// HistogramConfig configures a band histogram run. Settings left unset on
// the command line are taken from the band plan file.
type HistogramConfig struct {
	DBPath     string
	Dataset    string
	BandPlan   string
	OutputFile string
	Format     ImageFormat

	Normalize *bool              // Band plan setting, then true
	Boundary  *freqscan.Boundary // Band plan setting, then the band table extent
	Omit      []string           // Added to the band plan omit list

	GateMin   *int
	GateMax   *int
	StartTime *time.Time
	EndTime   *time.Time

	Title       string // Overrides the station and date title
	ShowText    bool
	MetricsFile string // Prometheus textfile output, optional
}

func (c *HistogramConfig) Validate() error {
	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.Dataset == "" {
		err = errors.New("dataset name is required")
	} else if c.BandPlan == "" {
		err = errors.New("band plan file is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if _, ok := validImageFormats[c.Format]; !ok {
		err = fmt.Errorf("invalid image format: %s", c.Format)
	} else if c.GateMin != nil && c.GateMax != nil && *c.GateMin > *c.GateMax {
		err = fmt.Errorf("gate min %d is greater than gate max %d", *c.GateMin, *c.GateMax)
	} else if c.StartTime != nil && c.EndTime != nil && c.StartTime.After(*c.EndTime) {
		err = fmt.Errorf("start time %s is after end time %s", c.StartTime.Format(time.DateTime), c.EndTime.Format(time.DateTime))
	}
	if err != nil {
		return err
	}

	if filepath.Ext(c.OutputFile) == "" {
		c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	}
	return nil
}

func (c *HistogramConfig) query() recordQuery {
	return recordQuery{
		DBPath:    c.DBPath,
		Dataset:   c.Dataset,
		GateMin:   c.GateMin,
		GateMax:   c.GateMax,
		StartTime: c.StartTime,
		EndTime:   c.EndTime,
	}
}

// settings merges the band plan into the command line configuration.
func (c *HistogramConfig) settings(plan *bandplan.Plan) freqscan.Options {
	opts := freqscan.Options{
		Normalize: true,
		Boundary:  plan.Boundary,
		Omit:      append(append([]string(nil), plan.Omit...), c.Omit...),
	}
	if plan.Normalize != nil {
		opts.Normalize = *plan.Normalize
	}
	if c.Normalize != nil {
		opts.Normalize = *c.Normalize
	}
	if c.Boundary != nil {
		opts.Boundary = c.Boundary
	}
	return opts
}

// Histogram2DConfig configures a band/time histogram run.
type Histogram2DConfig struct {
	HistogramConfig

	DateBin darn.Granularity  // Band plan setting, then hour
	Theme   render.ColorTheme // Band plan setting, then plasma
}

func (c *Histogram2DConfig) Validate() error {
	if err := c.HistogramConfig.Validate(); err != nil {
		return err
	}
	if c.DateBin != "" && !c.DateBin.Valid() {
		return fmt.Errorf("invalid date bin type: %s", c.DateBin)
	}
	if c.Theme != "" {
		if _, err := render.ParseColorTheme(string(c.Theme)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Histogram2DConfig) settings(plan *bandplan.Plan) (freqscan.Options2D, render.ColorTheme, error) {
	opts := freqscan.Options2D{
		Options: c.HistogramConfig.settings(plan),
		DateBin: darn.GranularityHour,
	}

	switch {
	case c.DateBin != "":
		opts.DateBin = c.DateBin
	case plan.DateBin != "":
		g, err := darn.ParseGranularity(plan.DateBin)
		if err != nil {
			return opts, "", fmt.Errorf("%w: band plan: %w", freqscan.ErrInvalidInput, err)
		}
		opts.DateBin = g
	}

	theme := c.Theme
	if theme == "" {
		t, err := render.ParseColorTheme(plan.Theme)
		if err != nil {
			return opts, "", fmt.Errorf("%w: band plan: %w", freqscan.ErrInvalidInput, err)
		}
		theme = t
	}
	return opts, theme, nil
}

// FieldKind selects how a record field is histogrammed.
type FieldKind string

const (
	VectorField FieldKind = "vector" // Per-gate values
	ScalarField FieldKind = "scalar" // One value per record
	GateField   FieldKind = "gates"  // Per-gate values against range gate
)

// ParseFieldKind validates a field kind name. An empty name selects vector.
func ParseFieldKind(s string) (FieldKind, error) {
	switch k := FieldKind(strings.ToLower(s)); k {
	case "":
		return VectorField, nil
	case VectorField, ScalarField, GateField:
		return k, nil
	}
	return "", fmt.Errorf("%w: invalid field kind: %s", freqscan.ErrInvalidInput, s)
}

// ParamHistConfig configures a record field histogram run.
type ParamHistConfig struct {
	DBPath     string
	Dataset    string
	OutputFile string // Ground scatter chart goes next to it with a "-gs" suffix
	Format     ImageFormat

	Param         string
	Kind          FieldKind
	Beam          *int
	Gate          *int
	GroundScatter bool
	Normalize     bool
	Binning       paramhist.Binning
	GroundBinning paramhist.Binning

	GateMin   *int
	GateMax   *int
	StartTime *time.Time
	EndTime   *time.Time

	Title       string // Overrides the generated title
	ShowText    bool
	Theme       render.ColorTheme // Range gate heatmap colors
	MetricsFile string
}

func (c *ParamHistConfig) Validate() error {
	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if c.Dataset == "" {
		err = errors.New("dataset name is required")
	} else if c.Param == "" {
		err = errors.New("field parameter is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if _, ok := validImageFormats[c.Format]; !ok {
		err = fmt.Errorf("invalid image format: %s", c.Format)
	} else if c.Kind != "" && c.Kind != VectorField && c.Kind != ScalarField && c.Kind != GateField {
		err = fmt.Errorf("%w: invalid field kind: %s", freqscan.ErrInvalidInput, c.Kind)
	} else if c.Kind == ScalarField && (c.Gate != nil || c.GroundScatter) {
		err = fmt.Errorf("%w: gate selection and ground scatter apply to vector fields only", freqscan.ErrInvalidInput)
	} else if c.Kind == GateField && c.Gate != nil {
		err = fmt.Errorf("%w: gate selection does not apply to a range gate histogram", freqscan.ErrInvalidInput)
	} else if c.GateMin != nil && c.GateMax != nil && *c.GateMin > *c.GateMax {
		err = fmt.Errorf("gate min %d is greater than gate max %d", *c.GateMin, *c.GateMax)
	} else if c.StartTime != nil && c.EndTime != nil && c.StartTime.After(*c.EndTime) {
		err = fmt.Errorf("start time %s is after end time %s", c.StartTime.Format(time.DateTime), c.EndTime.Format(time.DateTime))
	}
	if err != nil {
		return err
	}

	if c.Kind == "" {
		c.Kind = VectorField
	}
	if c.Theme == "" {
		c.Theme = render.PlasmaTheme
	}
	if filepath.Ext(c.OutputFile) == "" {
		c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	}
	return nil
}

func (c *ParamHistConfig) query() recordQuery {
	return recordQuery{
		DBPath:    c.DBPath,
		Dataset:   c.Dataset,
		GateMin:   c.GateMin,
		GateMax:   c.GateMax,
		StartTime: c.StartTime,
		EndTime:   c.EndTime,
	}
}

// groundOutputFile is the path of the ground scatter chart.
func (c *ParamHistConfig) groundOutputFile() string {
	ext := filepath.Ext(c.OutputFile)
	return strings.TrimSuffix(c.OutputFile, ext) + "-gs" + ext
}
