package render

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/superdarn-freqscan/internal/darn"
	"github.com/roman-kulish/superdarn-freqscan/internal/freqscan"
)

const (
	defaultCellWidth  = 48
	defaultCellHeight = 28
	colorBarWidth     = 20

	// Default border sizes in pixels
	defaultTopBorder    = 50
	defaultLeftBorder   = 90
	defaultBottomBorder = 90
	defaultRightBorder  = 120
)

// BorderConfig defines the sizes of white space around the cell grid.
type BorderConfig struct {
	Top    int // Space for the title
	Left   int // Space for band labels
	Bottom int // Space for bucket labels and the optimal band text
	Right  int // Space for the color bar
}

// HeatmapConfig holds the configuration of a band/time heatmap.
type HeatmapConfig struct {
	Title        string     // Chart title
	ShowText     bool       // Draw the optimal band text
	FontSize     float64    // Font size in points
	ColorTheme   ColorTheme // Color scheme for cell values
	ColorMapSize int        // Number of colors in gradient (0 for default)
	CellWidth    int        // Width of a time bucket in pixels
	CellHeight   int        // Height of a band in pixels

	BorderConfig BorderConfig
}

// HeatmapRenderer draws a Histogram2D as a grid of colored cells: one row
// per band with the first band at the bottom, one column per time bucket.
type HeatmapRenderer struct {
	config HeatmapConfig
}

// NewHeatmapRenderer creates a heatmap renderer with the given configuration.
func NewHeatmapRenderer(config HeatmapConfig) *HeatmapRenderer {
	if config.FontSize == 0 {
		config.FontSize = defaultFontSize
	}
	if config.ColorTheme == "" {
		config.ColorTheme = PlasmaTheme
	}
	if config.CellWidth == 0 {
		config.CellWidth = defaultCellWidth
	}
	if config.CellHeight == 0 {
		config.CellHeight = defaultCellHeight
	}
	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultLeftBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultRightBorder
	}
	return &HeatmapRenderer{config: config}
}

// Bounds returns the image rectangle needed to render h.
func (r *HeatmapRenderer) Bounds(h *freqscan.Histogram2D) image.Rectangle {
	grid := r.gridArea(h)
	return image.Rect(0, 0, grid.Max.X+r.config.BorderConfig.Right, grid.Max.Y+r.config.BorderConfig.Bottom)
}

func (r *HeatmapRenderer) gridArea(h *freqscan.Histogram2D) image.Rectangle {
	cols, rows := max(len(h.Buckets), 1), max(len(h.Bands), 1)
	return image.Rect(
		r.config.BorderConfig.Left,
		r.config.BorderConfig.Top,
		r.config.BorderConfig.Left+cols*r.config.CellWidth,
		r.config.BorderConfig.Top+rows*r.config.CellHeight,
	)
}

// cellRect returns the pixel area of a cell. Row 0 is drawn at the bottom.
func (r *HeatmapRenderer) cellRect(grid image.Rectangle, row, col int) image.Rectangle {
	x := grid.Min.X + col*r.config.CellWidth
	y := grid.Max.Y - (row+1)*r.config.CellHeight
	return image.Rect(x, y, x+r.config.CellWidth, y+r.config.CellHeight)
}

// Render draws h onto dst, which should cover Bounds(h).
func (r *HeatmapRenderer) Render(dst draw.Image, h *freqscan.Histogram2D) error {
	if !r.Bounds(h).In(dst.Bounds()) {
		return fmt.Errorf("render target %v does not fit heatmap %v", dst.Bounds(), r.Bounds(h))
	}

	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)

	grid := r.gridArea(h)
	mapper := NewColorMapperWithSize(r.config.ColorTheme, displayBounds(h.Display), r.config.ColorMapSize)
	r.renderCells(dst, grid, h, mapper)

	ann, err := newAnnotator(dst, r.config.FontSize)
	if err != nil {
		return fmt.Errorf("creating annotator: %w", err)
	}
	defer ann.Close()

	ops := []struct {
		msg string
		fn  func() error
	}{
		{"drawing title", func() error { return r.drawTitle(ann, dst) }},
		{"drawing band scale", func() error { return r.drawBandScale(ann, dst, grid, h) }},
		{"drawing time scale", func() error { return r.drawTimeScale(ann, dst, grid, h) }},
		{"drawing color bar", func() error { return r.drawColorBar(ann, dst, grid, mapper, h.Normalized) }},
		{"drawing info", func() error { return r.drawInfo(ann, dst, h) }},
	}
	for _, op := range ops {
		if err = op.fn(); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}
	return nil
}

func (r *HeatmapRenderer) renderCells(dst draw.Image, grid image.Rectangle, h *freqscan.Histogram2D, mapper *ColorMapper) {
	for row, cells := range h.Display {
		for col, v := range cells {
			c := mapper.GetColor(v)
			draw.Draw(dst, r.cellRect(grid, row, col), &image.Uniform{C: c}, image.Point{}, draw.Src)
		}
	}

	frame(dst, grid)
}

func (r *HeatmapRenderer) drawTitle(ann *annotator, dst draw.Image) error {
	if r.config.Title == "" {
		return nil
	}
	return ann.drawCentered(r.config.Title, dst.Bounds().Dx()/2, r.config.BorderConfig.Top/2)
}

func (r *HeatmapRenderer) drawBandScale(ann *annotator, dst draw.Image, grid image.Rectangle, h *freqscan.Histogram2D) error {
	for row, b := range h.Bands {
		cell := r.cellRect(grid, row, 0)
		y := (cell.Min.Y + cell.Max.Y) / 2

		hLine(dst, grid.Min.X-1-tickMarkLength, grid.Min.X-1, y)
		if err := ann.drawRightAligned(b.ID, grid.Min.X-tickMarkLength-4, y); err != nil {
			return fmt.Errorf("drawing band label: %w", err)
		}
	}
	return ann.drawVertical(dst, "Frequency Band", ann.textHeight(), (grid.Min.Y+grid.Max.Y)/2)
}

func (r *HeatmapRenderer) drawTimeScale(ann *annotator, dst draw.Image, grid image.Rectangle, h *freqscan.Histogram2D) error {
	y := grid.Max.Y + tickMarkLength + ann.textHeight()
	for col, b := range h.Buckets {
		cell := r.cellRect(grid, 0, col)
		x := (cell.Min.X + cell.Max.X) / 2

		vLine(dst, x, grid.Max.Y, grid.Max.Y+tickMarkLength)
		if err := ann.drawCentered(b.Label(), x, y); err != nil {
			return fmt.Errorf("drawing bucket label: %w", err)
		}
	}
	return ann.drawCentered(timeAxisLabel(h), (grid.Min.X+grid.Max.X)/2, y+2*ann.textHeight())
}

func (r *HeatmapRenderer) drawColorBar(ann *annotator, dst draw.Image, grid image.Rectangle, mapper *ColorMapper, normalized bool) error {
	left := grid.Max.X + 20
	bar := image.Rect(left, grid.Min.Y, left+colorBarWidth, grid.Max.Y)

	for y := bar.Min.Y; y < bar.Max.Y; y++ {
		t := float64(bar.Max.Y-1-y) / float64(max(bar.Dy()-1, 1))
		draw.Draw(dst, image.Rect(bar.Min.X, y, bar.Max.X, y+1), &image.Uniform{C: mapper.At(t)}, image.Point{}, draw.Src)
	}
	frame(dst, bar)

	bounds := mapper.Bounds()
	labels := []struct {
		value float64
		y     int
	}{
		{bounds.Max, bar.Min.Y},
		{bounds.Min, bar.Max.Y},
	}
	for _, l := range labels {
		if err := ann.drawString(formatValue(l.value, normalized), bar.Max.X+4, l.y+ann.textHeight()/3); err != nil {
			return fmt.Errorf("drawing color bar label: %w", err)
		}
	}
	return ann.drawVertical(dst, "Number of Ionospheric Scatter Points", bar.Max.X+ann.textWidth("0.000")+4+ann.textHeight(), (bar.Min.Y+bar.Max.Y)/2)
}

func (r *HeatmapRenderer) drawInfo(ann *annotator, dst draw.Image, h *freqscan.Histogram2D) error {
	if !r.config.ShowText {
		return nil
	}
	best, ok := h.Optimal()
	if !ok {
		return nil
	}
	return ann.drawCentered(OptimalBandText(best), dst.Bounds().Dx()/2, dst.Bounds().Max.Y-ann.textHeight())
}

// OptimalBandText describes the band with the most ionospheric scatter.
func OptimalBandText(b freqscan.RankedBand) string {
	return fmt.Sprintf("Optimal Frequency Band = %s - %s kHz", humanize.Ftoa(b.Range[0]), humanize.Ftoa(b.Range[1]))
}

func timeAxisLabel(h *freqscan.Histogram2D) string {
	switch h.DateBin {
	case darn.GranularityYear:
		return "Date [year]"
	case darn.GranularityMonth:
		return "Date [month]"
	case darn.GranularityDay:
		return "Date [mm/dd]"
	default:
		return "Time [hour]"
	}
}

// displayBounds is the range of the visible cells, [0, 1] when there are none.
func displayBounds(display [][]*float64) Bounds {
	b := Bounds{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, row := range display {
		for _, v := range row {
			if v == nil {
				continue
			}
			b.Min = math.Min(b.Min, *v)
			b.Max = math.Max(b.Max, *v)
		}
	}
	if math.IsInf(b.Min, 1) {
		return Bounds{Min: 0, Max: 1}
	}
	return b
}

func formatValue(v float64, normalized bool) string {
	if normalized {
		return fmt.Sprintf("%.3f", v)
	}
	return humanize.Commaf(math.Round(v))
}
