package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roman-kulish/superdarn-freqscan/cmd/freqscan/app"
	"github.com/roman-kulish/superdarn-freqscan/internal/darn"
	"github.com/roman-kulish/superdarn-freqscan/internal/freqscan"
	"github.com/roman-kulish/superdarn-freqscan/internal/paramhist"
	"github.com/roman-kulish/superdarn-freqscan/internal/render"
)

var timeLayouts = []string{time.RFC3339, time.DateTime, time.DateOnly}

func newRootCmd(logger *slog.Logger, logLevel *slog.LevelVar) *cobra.Command {
	var level, dbPath string

	root := &cobra.Command{
		Use:   "freqscan",
		Short: "SuperDARN frequency scan occupancy histograms",
		Long: `freqscan finds the frequency bands with the most ionospheric scatter in
SuperDARN frequency sweep (channel 2) records.

Decoded FITACF records are ingested from JSON dumps into a SQLite store and
histogrammed per frequency band, or per frequency band and time bucket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logLevel.UnmarshalText([]byte(level)); err != nil {
				return fmt.Errorf("invalid log level: %s", level)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&level, "log-level", "info", "log level [debug, info, warn, error]")
	root.PersistentFlags().StringVar(&dbPath, "db", "freqscan.db", "path to the database file")

	root.AddCommand(
		newIngestCmd(logger, &dbPath),
		newDatasetsCmd(logger, &dbPath),
		newHistCmd(logger, &dbPath),
		newHist2DCmd(logger, &dbPath),
		newParamHistCmd(logger, &dbPath),
	)
	return root
}

func newIngestCmd(logger *slog.Logger, dbPath *string) *cobra.Command {
	config := &app.IngestConfig{}

	cmd := &cobra.Command{
		Use:   "ingest [file.json...]",
		Short: "Store decoded FITACF records as a new dataset",
		Long: `Ingest reads FITACF records decoded to JSON, either as an array of records
or as one record per line, and stores them as a new named dataset.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.DBPath = *dbPath
			config.Inputs = args
			return app.RunIngest(cmd.Context(), config, logger)
		},
	}
	cmd.Flags().StringVarP(&config.Dataset, "dataset", "d", "", "dataset name")
	cmd.Flags().StringVar(&config.Source, "source", "", "dataset source description (default: input file names)")
	cmd.Flags().IntVarP(&config.Workers, "workers", "w", 4, "number of files decoded concurrently")
	return cmd
}

func newDatasetsCmd(logger *slog.Logger, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List stored datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunDatasets(cmd.Context(), &app.DatasetsConfig{DBPath: *dbPath}, logger, cmd.OutOrStdout())
		},
	}
}

// histogramFlags holds the raw values of the flags shared by hist and hist2d.
type histogramFlags struct {
	format    string
	normalize bool
	minFreq   float64
	maxFreq   float64
	gateMin   int
	gateMax   int
	startTime string
	endTime   string
}

func addHistogramFlags(cmd *cobra.Command, config *app.HistogramConfig, f *histogramFlags) {
	flags := cmd.Flags()
	flags.StringVarP(&config.Dataset, "dataset", "d", "", "dataset name")
	flags.StringVarP(&config.BandPlan, "bands", "b", "", "path to the band plan YAML file")
	flags.StringVarP(&config.OutputFile, "output", "o", "", "path to the output image")
	flags.StringVarP(&f.format, "format", "f", string(app.ImagePNG), "output image format [png, jpeg]")
	flags.BoolVar(&f.normalize, "normalize", true, "normalize counts (overrides the band plan)")
	flags.Float64Var(&f.minFreq, "min-freq", 0, "lower frequency boundary in kHz (overrides the band plan)")
	flags.Float64Var(&f.maxFreq, "max-freq", 0, "upper frequency boundary in kHz (overrides the band plan)")
	flags.StringSliceVar(&config.Omit, "omit", nil, "band ids to omit, added to the band plan omit list")
	flags.IntVar(&f.gateMin, "gate-min", 0, "first range gate to keep")
	flags.IntVar(&f.gateMax, "gate-max", 0, "last range gate to keep")
	flags.StringVar(&f.startTime, "start", "", "ignore records before this time (UTC)")
	flags.StringVar(&f.endTime, "end", "", "ignore records after this time (UTC)")
	flags.BoolVar(&config.ShowText, "show-text", true, "annotate the chart with band labels and the optimal band")
	flags.StringVar(&config.Title, "title", "", "chart title (default: station and date range)")
	flags.StringVar(&config.MetricsFile, "metrics", "", "write Prometheus counters to this textfile")
}

// apply copies the flags that were set on the command line into config.
func (f *histogramFlags) apply(cmd *cobra.Command, config *app.HistogramConfig, dbPath string) error {
	config.DBPath = dbPath

	format, err := app.ParseImageFormat(f.format)
	if err != nil {
		return err
	}
	config.Format = format

	flags := cmd.Flags()
	if flags.Changed("normalize") {
		config.Normalize = &f.normalize
	}
	if flags.Changed("min-freq") != flags.Changed("max-freq") {
		return fmt.Errorf("%w: --min-freq and --max-freq must be set together", freqscan.ErrInvalidInput)
	}
	if flags.Changed("min-freq") {
		config.Boundary = &freqscan.Boundary{Low: f.minFreq, High: f.maxFreq}
	}
	if flags.Changed("gate-min") {
		config.GateMin = &f.gateMin
	}
	if flags.Changed("gate-max") {
		config.GateMax = &f.gateMax
	}
	if config.StartTime, err = parseTime("start", f.startTime); err != nil {
		return err
	}
	if config.EndTime, err = parseTime("end", f.endTime); err != nil {
		return err
	}
	return nil
}

func parseTime(name, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid %s time: %s", name, s)
}

func newHistCmd(logger *slog.Logger, dbPath *string) *cobra.Command {
	config := &app.HistogramConfig{}
	var f histogramFlags

	cmd := &cobra.Command{
		Use:   "hist",
		Short: "Histogram of ionospheric scatter per frequency band",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.apply(cmd, config, *dbPath); err != nil {
				return err
			}
			return app.RunHistogram(cmd.Context(), config, logger, cmd.OutOrStdout())
		},
	}
	addHistogramFlags(cmd, config, &f)
	return cmd
}

func newHist2DCmd(logger *slog.Logger, dbPath *string) *cobra.Command {
	config := &app.Histogram2DConfig{}
	var f histogramFlags
	var dateBin, theme string

	cmd := &cobra.Command{
		Use:   "hist2d",
		Short: "Histogram of ionospheric scatter per frequency band and time bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.apply(cmd, &config.HistogramConfig, *dbPath); err != nil {
				return err
			}
			if dateBin != "" {
				g, err := darn.ParseGranularity(dateBin)
				if err != nil {
					return fmt.Errorf("%w: %w", freqscan.ErrInvalidInput, err)
				}
				config.DateBin = g
			}
			if theme != "" {
				t, err := render.ParseColorTheme(theme)
				if err != nil {
					return err
				}
				config.Theme = t
			}
			return app.RunHistogram2D(cmd.Context(), config, logger, cmd.OutOrStdout())
		},
	}
	addHistogramFlags(cmd, &config.HistogramConfig, &f)
	cmd.Flags().StringVar(&dateBin, "date-bin", "", "time bucket size [year, month, day, hour] (default: band plan, then hour)")
	cmd.Flags().StringVar(&theme, "theme", "", "color theme [plasma, viridis, inferno, grayscale, classic] (default: band plan, then plasma)")
	return cmd
}

func newParamHistCmd(logger *slog.Logger, dbPath *string) *cobra.Command {
	config := &app.ParamHistConfig{}
	var format, kind, startTime, endTime, theme string
	var beam, gate, gateMin, gateMax, bins, groundBins int
	var valueRange, groundRange string

	cmd := &cobra.Command{
		Use:   "param-hist <field>",
		Short: "Histogram of a record field such as velocity or sky noise",
		Long: `Param-hist computes the distribution of a single record field over a dataset.

Vector fields (v, p_l, w_l, elv, ...) hold one value per range gate and can
be restricted to a beam and a gate, with ground scatter split into a second
chart. Scalar fields (noise.sky, tfreq, nave, ...) hold one value per record.
The gates kind plots a vector field against range gate.

Bin ranges are "low,high", or "auto" to span the 0.5 to 99.5 percentiles.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config.DBPath = *dbPath
			config.Param = args[0]

			var err error
			if config.Format, err = app.ParseImageFormat(format); err != nil {
				return err
			}
			if config.Kind, err = app.ParseFieldKind(kind); err != nil {
				return err
			}
			if config.Binning, err = paramhist.ParseBinning(bins, valueRange); err != nil {
				return err
			}
			if config.GroundBinning, err = paramhist.ParseBinning(groundBins, groundRange); err != nil {
				return err
			}
			if theme != "" {
				if config.Theme, err = render.ParseColorTheme(theme); err != nil {
					return err
				}
			}

			flags := cmd.Flags()
			if flags.Changed("beam") {
				config.Beam = &beam
			}
			if flags.Changed("gate") {
				config.Gate = &gate
			}
			if flags.Changed("gate-min") {
				config.GateMin = &gateMin
			}
			if flags.Changed("gate-max") {
				config.GateMax = &gateMax
			}
			if config.StartTime, err = parseTime("start", startTime); err != nil {
				return err
			}
			if config.EndTime, err = parseTime("end", endTime); err != nil {
				return err
			}
			return app.RunParamHistogram(cmd.Context(), config, logger, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&config.Dataset, "dataset", "d", "", "dataset name")
	flags.StringVarP(&config.OutputFile, "output", "o", "", "path to the output image")
	flags.StringVarP(&format, "format", "f", string(app.ImagePNG), "output image format [png, jpeg]")
	flags.StringVarP(&kind, "kind", "k", string(app.VectorField), "field kind [vector, scalar, gates]")
	flags.IntVar(&beam, "beam", 0, "only records from this beam")
	flags.IntVar(&gate, "gate", 0, "only points from this range gate (vector fields)")
	flags.BoolVar(&config.GroundScatter, "ground-scatter", false, "histogram ground scatter separately (vector fields)")
	flags.BoolVar(&config.Normalize, "normalize", false, "plot probability density instead of counts")
	flags.IntVar(&bins, "bins", 0, "number of bins (default: automatic)")
	flags.StringVar(&valueRange, "range", "", "bin range as low,high or auto (default: data extent)")
	flags.IntVar(&groundBins, "gs-bins", 0, "number of ground scatter bins (default: automatic)")
	flags.StringVar(&groundRange, "gs-range", "", "ground scatter bin range as low,high or auto")
	flags.IntVar(&gateMin, "gate-min", 0, "first range gate to keep")
	flags.IntVar(&gateMax, "gate-max", 0, "last range gate to keep")
	flags.StringVar(&startTime, "start", "", "ignore records before this time (UTC)")
	flags.StringVar(&endTime, "end", "", "ignore records after this time (UTC)")
	flags.BoolVar(&config.ShowText, "show-text", true, "draw summary statistics below the chart")
	flags.StringVar(&config.Title, "title", "", "chart title (default: station, date and field)")
	flags.StringVar(&theme, "theme", "", "range gate heatmap color theme (default: plasma)")
	flags.StringVar(&config.MetricsFile, "metrics", "", "write Prometheus counters to this textfile")
	return cmd
}
