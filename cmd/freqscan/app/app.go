package app

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/roman-kulish/superdarn-freqscan/internal/bandplan"
	"github.com/roman-kulish/superdarn-freqscan/internal/darn"
	"github.com/roman-kulish/superdarn-freqscan/internal/freqscan"
	"github.com/roman-kulish/superdarn-freqscan/internal/metrics"
	"github.com/roman-kulish/superdarn-freqscan/internal/paramhist"
	"github.com/roman-kulish/superdarn-freqscan/internal/render"
	"github.com/roman-kulish/superdarn-freqscan/internal/storage"
)

const (
	barChartWidth  = 20 * vg.Centimeter
	barChartHeight = 14 * vg.Centimeter
)

// RunDatasets writes a table of the stored datasets to w.
func RunDatasets(ctx context.Context, config *DatasetsConfig, logger *slog.Logger, w io.Writer) (err error) {
	if err = config.Validate(); err != nil {
		return err
	}
	if err = requireDatabase(config.DBPath); err != nil {
		return err
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer closeWithError(store, &err)

	datasets, err := store.Datasets(ctx)
	if err != nil {
		return fmt.Errorf("listing datasets: %w", err)
	}
	logger.Debug("datasets loaded", slog.Int("count", len(datasets)))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tRECORDS\tCREATED\tSOURCE")
	for _, ds := range datasets {
		source := "-"
		if ds.Source != nil {
			source = *ds.Source
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", ds.ID, ds.Name, humanize.Comma(ds.Records), humanize.Time(ds.CreatedAt), source)
	}
	return tw.Flush()
}

// RunHistogram computes the band histogram of a dataset, renders it as a bar
// chart and writes the band ranking as JSON to w.
func RunHistogram(ctx context.Context, config *HistogramConfig, logger *slog.Logger, w io.Writer) error {
	if err := config.Validate(); err != nil {
		return err
	}

	plan, err := bandplan.Load(config.BandPlan)
	if err != nil {
		return fmt.Errorf("loading band plan: %w", err)
	}

	records, ext, err := loadRecords(ctx, config.query(), "hist", logger)
	if err != nil {
		return err
	}

	opts := config.settings(plan)
	opts.Observer = ext

	h, err := freqscan.BandHistogram(records, plan.Bands, opts)
	if err != nil {
		return fmt.Errorf("computing histogram: %w", err)
	}

	best := h.Optimal()
	logger.Info("histogram computed",
		slog.Group("stats",
			slog.Int("records", len(records)),
			slog.Int("bands", len(h.Bands)),
			slog.String("boundary", fmt.Sprintf("%s - %s kHz", humanize.Ftoa(h.Boundary.Low), humanize.Ftoa(h.Boundary.High))),
			slog.String("optimalBand", best.ID),
			slog.Int("optimalCount", best.Count),
			slog.Bool("normalized", h.Normalized),
		))

	title := config.Title
	if title == "" {
		title = freqscan.Title(records, "")
	}

	logger.Info("rendering histogram",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
		))

	c := vgimg.New(barChartWidth, barChartHeight)
	if err = render.BarChart(draw.New(c), h, render.BarChartConfig{Title: title, ShowText: config.ShowText}); err != nil {
		return fmt.Errorf("rendering histogram: %w", err)
	}
	if err = writeImage(config.OutputFile, config.Format, c.Image()); err != nil {
		return err
	}

	if err = writeMetrics(config.MetricsFile, ext); err != nil {
		return err
	}
	return writeRanking(w, h.Ranked)
}

// RunHistogram2D computes the band/time histogram of a dataset, renders it
// as a heatmap and writes the band ranking as JSON to w.
func RunHistogram2D(ctx context.Context, config *Histogram2DConfig, logger *slog.Logger, w io.Writer) error {
	if err := config.Validate(); err != nil {
		return err
	}

	plan, err := bandplan.Load(config.BandPlan)
	if err != nil {
		return fmt.Errorf("loading band plan: %w", err)
	}

	opts, theme, err := config.settings(plan)
	if err != nil {
		return err
	}

	records, ext, err := loadRecords(ctx, config.query(), "hist2d", logger)
	if err != nil {
		return err
	}
	opts.Observer = ext

	h, err := freqscan.BandTimeHistogram(records, plan.Bands, opts)
	if err != nil {
		return fmt.Errorf("computing histogram: %w", err)
	}

	stats := []any{
		slog.Int("records", len(records)),
		slog.Int("bands", len(h.Bands)),
		slog.Int("buckets", len(h.Buckets)),
		slog.String("dateBin", string(h.DateBin)),
		slog.Bool("normalized", h.Normalized),
	}
	if best, ok := h.Optimal(); ok {
		stats = append(stats, slog.String("optimalBand", best.ID), slog.Int("optimalCount", best.Count))
	}
	logger.Info("histogram computed", slog.Group("stats", stats...))

	title := config.Title
	if title == "" {
		title = freqscan.Title(records, h.DateBin)
	}

	renderer := render.NewHeatmapRenderer(render.HeatmapConfig{
		Title:      title,
		ShowText:   config.ShowText,
		ColorTheme: theme,
	})
	img := image.NewRGBA(renderer.Bounds(h))

	logger.Info("rendering histogram",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("theme", string(theme)),
			slog.Int("width", img.Bounds().Dx()),
			slog.Int("height", img.Bounds().Dy()),
		))

	if err = renderer.Render(img, h); err != nil {
		return fmt.Errorf("rendering histogram: %w", err)
	}
	if err = writeImage(config.OutputFile, config.Format, img); err != nil {
		return err
	}

	if err = writeMetrics(config.MetricsFile, ext); err != nil {
		return err
	}
	return writeRanking(w, h.Ranked)
}

// RunParamHistogram computes the distribution of a record field, renders it
// and writes the histogram as JSON to w. With ground scatter split off, the
// ground scatter chart is written next to the output file.
func RunParamHistogram(ctx context.Context, config *ParamHistConfig, logger *slog.Logger, w io.Writer) error {
	if err := config.Validate(); err != nil {
		return err
	}

	records, ext, err := loadRecords(ctx, config.query(), "param-hist", logger)
	if err != nil {
		return err
	}

	var result any
	switch config.Kind {
	case ScalarField:
		res, err := paramhist.ScalarHistogram(records, config.Param, paramhist.ScalarOptions{
			Beam:      config.Beam,
			Normalize: config.Normalize,
			Binning:   config.Binning,
		})
		if err != nil {
			return fmt.Errorf("computing histogram: %w", err)
		}
		logHistogram(logger, config, res.Scatter, nil, 0)

		err = renderField(config.OutputFile, config.Format, res.Scatter, render.FieldChartConfig{
			Title:    config.title(records, paramhist.AllScatter),
			Param:    config.Param,
			ShowText: config.ShowText,
		})
		if err != nil {
			return err
		}
		result = res

	case GateField:
		res, err := paramhist.RangeGateHistogram(records, config.Param, paramhist.GateOptions{
			Beam:          config.Beam,
			GroundScatter: config.GroundScatter,
			Normalize:     config.Normalize,
			Binning:       config.Binning,
			GroundBinning: config.GroundBinning,
		})
		if err != nil {
			return fmt.Errorf("computing histogram: %w", err)
		}
		logger.Info("histogram computed",
			slog.Group("stats",
				slog.String("param", config.Param),
				slog.Int("records", len(records)),
				slog.Int("points", res.Scatter.Points),
				slog.Any("bins", res.Scatter.Bins),
			))

		scatter := paramhist.AllScatter
		if res.Ground != nil {
			scatter = paramhist.IonosphericScatter
		}
		if err = renderGates(config.OutputFile, config.Format, res.Scatter, render.GateChartConfig{
			Title:      config.title(records, scatter),
			Param:      config.Param,
			ColorTheme: config.Theme,
		}); err != nil {
			return err
		}
		if res.Ground != nil {
			if err = renderGates(config.groundOutputFile(), config.Format, res.Ground, render.GateChartConfig{
				Title:      config.title(records, paramhist.GroundScatter),
				Param:      config.Param,
				ColorTheme: config.Theme,
			}); err != nil {
				return err
			}
		}
		result = res

	default:
		res, err := paramhist.VectorHistogram(records, config.Param, paramhist.VectorOptions{
			Beam:          config.Beam,
			Gate:          config.Gate,
			GroundScatter: config.GroundScatter,
			Normalize:     config.Normalize,
			Binning:       config.Binning,
			GroundBinning: config.GroundBinning,
		})
		if err != nil {
			return fmt.Errorf("computing histogram: %w", err)
		}
		logHistogram(logger, config, res.Scatter, res.Ground, res.GroundPercent)

		scatter := paramhist.AllScatter
		if res.Ground != nil {
			scatter = paramhist.IonosphericScatter
		}
		if err = renderField(config.OutputFile, config.Format, res.Scatter, render.FieldChartConfig{
			Title:    config.title(records, scatter),
			Param:    config.Param,
			ShowText: config.ShowText,
		}); err != nil {
			return err
		}
		if res.Ground != nil {
			if err = renderField(config.groundOutputFile(), config.Format, res.Ground, render.FieldChartConfig{
				Title:    config.title(records, paramhist.GroundScatter),
				Param:    config.Param,
				ShowText: config.ShowText,
			}); err != nil {
				return err
			}
		}
		result = res
	}

	if err = writeMetrics(config.MetricsFile, ext); err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err = enc.Encode(result); err != nil {
		return fmt.Errorf("writing histogram: %w", err)
	}
	return nil
}

func logHistogram(logger *slog.Logger, config *ParamHistConfig, scatter, ground *paramhist.Histogram, groundPercent float64) {
	stats := []any{
		slog.String("param", config.Param),
		slog.Int("points", scatter.Stats.Points),
		slog.Int("bins", scatter.Stats.Bins),
		slog.String("mean", humanize.FtoaWithDigits(scatter.Stats.Mean, 2)),
		slog.String("median", humanize.FtoaWithDigits(scatter.Stats.Median, 2)),
	}
	if ground != nil {
		stats = append(stats,
			slog.Int("groundPoints", ground.Stats.Points),
			slog.String("groundPercent", humanize.FtoaWithDigits(groundPercent, 1)))
	}
	logger.Info("histogram computed", slog.Group("stats", stats...))
}

func (c *ParamHistConfig) title(records []darn.Record, scatter paramhist.Scatter) string {
	if c.Title != "" {
		return c.Title
	}
	return paramhist.Title(records, c.Param, c.Beam, c.Gate, scatter)
}

func renderField(path string, format ImageFormat, h *paramhist.Histogram, config render.FieldChartConfig) error {
	c := vgimg.New(barChartWidth, barChartHeight)
	render.FieldHistogram(draw.New(c), h, config)
	return writeImage(path, format, c.Image())
}

func renderGates(path string, format ImageFormat, h *paramhist.GateHistogram, config render.GateChartConfig) error {
	c := vgimg.New(barChartWidth, barChartHeight)
	render.GateHeatmap(draw.New(c), h, config)
	return writeImage(path, format, c.Image())
}

// loadRecords reads the dataset records, applying the time and gate filters.
func loadRecords(ctx context.Context, config recordQuery, command string, logger *slog.Logger) (records []darn.Record, ext *metrics.Extraction, err error) {
	if err = requireDatabase(config.DBPath); err != nil {
		return nil, nil, err
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer closeWithError(store, &err)

	datasetID, err := store.DatasetByName(ctx, config.Dataset)
	if err != nil {
		return nil, nil, err
	}

	var opts []storage.ReaderOption
	var filters []any
	switch {
	case config.StartTime != nil && config.EndTime != nil:
		opts = append(opts, storage.WithTimeRange(config.StartTime.UTC(), config.EndTime.UTC()))
		filters = append(filters,
			slog.String("startTime", config.StartTime.UTC().Format(time.DateTime)),
			slog.String("endTime", config.EndTime.UTC().Format(time.DateTime)))

	case config.StartTime != nil:
		opts = append(opts, storage.WithStartTime(config.StartTime.UTC()))
		filters = append(filters, slog.String("startTime", config.StartTime.UTC().Format(time.DateTime)))

	case config.EndTime != nil:
		opts = append(opts, storage.WithEndTime(config.EndTime.UTC()))
		filters = append(filters, slog.String("endTime", config.EndTime.UTC().Format(time.DateTime)))
	}
	logger.Info("reader configuration", filters...)

	reader, err := store.ReadRecords(ctx, datasetID, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("reading dataset '%s': %w", config.Dataset, err)
	}
	defer closeWithError(reader, &err)

	if records, err = storage.ReadAll(ctx, reader); err != nil {
		return nil, nil, fmt.Errorf("reading dataset '%s': %w", config.Dataset, err)
	}

	ext = metrics.NewExtraction(command)
	ext.RecordsRead(config.Dataset, len(records))

	if config.GateMin != nil || config.GateMax != nil {
		gateMin, gateMax := 0, math.MaxInt
		if config.GateMin != nil {
			gateMin = *config.GateMin
		}
		if config.GateMax != nil {
			gateMax = *config.GateMax
		}
		total := len(records)
		records = darn.FilterGates(records, gateMin, gateMax)
		logger.Info("gates filtered",
			slog.Int("gateMin", gateMin),
			slog.Int("gateMax", gateMax),
			slog.Int("recordsKept", len(records)),
			slog.Int("recordsDropped", total-len(records)))
	}

	logger.Info("records loaded",
		slog.String("dataset", reader.Dataset().Name),
		slog.String("records", humanize.Comma(int64(len(records)))))
	return records, ext, nil
}

func requireDatabase(path string) error {
	if _, err := os.Stat(path); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", path, err)
	}
	return nil
}

func writeImage(path string, format ImageFormat, img image.Image) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer closeWithError(out, &err)

	switch format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	if err != nil {
		return fmt.Errorf("encoding %s image: %w", format, err)
	}
	return nil
}

func writeMetrics(path string, ext *metrics.Extraction) error {
	if path == "" {
		return nil
	}
	return ext.WriteTextfile(path)
}

func writeRanking(w io.Writer, ranked []freqscan.RankedBand) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ranked); err != nil {
		return fmt.Errorf("writing band ranking: %w", err)
	}
	return nil
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}
