package render

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/roman-kulish/superdarn-freqscan/internal/paramhist"
)

var fieldBarColor = color.NRGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xcc}

// FieldChartConfig holds the configuration of a field histogram chart.
type FieldChartConfig struct {
	Title    string // Chart title
	Param    string // Field key, used for the axis caption
	ShowText bool   // Draw the summary statistics below the chart
}

// FieldHistogram draws a field value histogram onto dc.
func FieldHistogram(dc draw.Canvas, h *paramhist.Histogram, config FieldChartConfig) {
	p := plot.New()
	p.Title.Text = config.Title
	p.X.Label.Text = paramhist.FieldLabel(config.Param).AxisText()
	if h.Normalized {
		p.Y.Label.Text = "Probability Density"
	} else {
		p.Y.Label.Text = "Number of Points"
	}
	p.Y.Min = 0
	p.Add(plotter.NewGrid())

	bins := make([]plotter.HistogramBin, len(h.Values))
	for i, v := range h.Values {
		bins[i] = plotter.HistogramBin{Min: h.Edges[i], Max: h.Edges[i+1], Weight: v}
	}
	p.Add(&plotter.Histogram{
		Bins:      bins,
		FillColor: fieldBarColor,
		LineStyle: draw.LineStyle{Color: color.Black, Width: vg.Points(0.5)},
	})

	if !config.ShowText {
		p.Draw(dc)
		return
	}
	drawWithFooter(dc, p, h.Stats.Text())
}

// GateChartConfig holds the configuration of a range gate heatmap.
type GateChartConfig struct {
	Title      string     // Chart title
	Param      string     // Field key, used for the axis caption
	ColorTheme ColorTheme // Color scheme for cell values
}

// GateHeatmap draws a range gate histogram onto dc with gates along the
// horizontal axis and a color bar on the right.
func GateHeatmap(dc draw.Canvas, h *paramhist.GateHistogram, config GateChartConfig) {
	if config.ColorTheme == "" {
		config.ColorTheme = PlasmaTheme
	}

	hm := plotter.NewHeatMap(h, NewColorMapper(config.ColorTheme, Bounds{}))
	if hm.Max <= hm.Min {
		hm.Max = hm.Min + 1
	}

	p := plot.New()
	p.Title.Text = config.Title
	p.X.Label.Text = "Range Gate"
	p.Y.Label.Text = paramhist.FieldLabel(config.Param).AxisText()
	p.Add(hm)

	bar := plot.New()
	bar.HideX()
	bar.Y.Padding = 0
	if h.Normalized {
		bar.Title.Text = "Density"
	} else {
		bar.Title.Text = "Points"
	}
	bar.Add(&plotter.ColorBar{
		ColorMap: newThemeColorMap(config.ColorTheme, hm.Min, hm.Max),
		Vertical: true,
	})

	width := vg.Points(colorBarWidth * 4)
	p.Draw(draw.Crop(dc, 0, -width, 0, 0))
	bar.Draw(draw.Crop(dc, dc.Max.X-dc.Min.X-width, 0, 0, 0))
}

// themeColorMap adapts a color theme to palette.ColorMap. Values outside
// [min, max] are clamped.
type themeColorMap struct {
	theme    ColorTheme
	mapper   *ColorMapper
	min, max float64
	alpha    float64
}

func newThemeColorMap(theme ColorTheme, min, max float64) *themeColorMap {
	return &themeColorMap{
		theme:  theme,
		mapper: NewColorMapper(theme, Bounds{Min: min, Max: max}),
		min:    min,
		max:    max,
		alpha:  1,
	}
}

func (m *themeColorMap) At(v float64) (color.Color, error) {
	var c color.Color
	if m.max <= m.min {
		c = m.mapper.At(1)
	} else {
		c = m.mapper.At((v - m.min) / (m.max - m.min))
	}
	if m.alpha == 1 {
		return c, nil
	}
	r, g, b, _ := c.RGBA()
	a := uint8(math.Round(m.alpha * 0xff))
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: a}, nil
}

func (m *themeColorMap) Max() float64 { return m.max }

func (m *themeColorMap) SetMax(v float64) { m.max = v }

func (m *themeColorMap) Min() float64 { return m.min }

func (m *themeColorMap) SetMin(v float64) { m.min = v }

func (m *themeColorMap) Alpha() float64 { return m.alpha }

func (m *themeColorMap) SetAlpha(a float64) { m.alpha = a }

func (m *themeColorMap) Palette(colors int) palette.Palette {
	return NewColorMapperWithSize(m.theme, Bounds{Min: m.min, Max: m.max}, colors)
}
