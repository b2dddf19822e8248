package render

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/roman-kulish/superdarn-freqscan/internal/freqscan"
)

var (
	barColor     = color.NRGBA{B: 0xff, A: 0xb3}
	optimalColor = color.NRGBA{R: 0xff, A: 0xb3}
)

// BarChartConfig holds the configuration of a band histogram chart.
type BarChartConfig struct {
	Title    string // Chart title
	ShowText bool   // Label bars with band ids and draw the optimal band text
}

// BarChart draws h onto dc: one bar per retained band at its center
// frequency, the optimal band highlighted in red.
func BarChart(dc draw.Canvas, h *freqscan.Histogram, config BarChartConfig) error {
	p := plot.New()
	p.Title.Text = config.Title
	p.X.Label.Text = "Transmitted Frequency [kHz]"
	if h.Normalized {
		p.Y.Label.Text = "Fraction of Ionospheric Scatter Points"
	} else {
		p.Y.Label.Text = "Number of Ionospheric Scatter Points"
	}
	p.Y.Min = 0
	p.Add(plotter.NewGrid())

	best := h.Optimal()
	var labelXYs plotter.XYs
	var labels []string

	half := h.BarWidth / 2
	for i, b := range h.Bands {
		x, y := h.Centers[i], h.Values[i]
		bar, err := plotter.NewPolygon(plotter.XYs{
			{X: x - half, Y: 0},
			{X: x + half, Y: 0},
			{X: x + half, Y: y},
			{X: x - half, Y: y},
		})
		if err != nil {
			return fmt.Errorf("creating bar for band %s: %w", b.ID, err)
		}
		bar.Color = barColor
		if i == best.Index {
			bar.Color = optimalColor
		}
		bar.LineStyle.Color = color.Black
		bar.LineStyle.Width = vg.Points(0.5)
		p.Add(bar)

		if h.Counts[i] > 0 {
			labelXYs = append(labelXYs, plotter.XY{X: x, Y: y})
			labels = append(labels, b.ID)
		}
	}

	if config.ShowText && len(labels) > 0 {
		l, err := plotter.NewLabels(plotter.XYLabels{XYs: labelXYs, Labels: labels})
		if err != nil {
			return fmt.Errorf("creating bar labels: %w", err)
		}
		for i := range l.TextStyle {
			l.TextStyle[i].XAlign = text.XCenter
		}
		l.Offset = vg.Point{Y: vg.Points(3)}
		p.Add(l)
	}

	if !config.ShowText {
		p.Draw(dc)
		return nil
	}
	drawWithFooter(dc, p, OptimalBandText(best))
	return nil
}

// drawWithFooter draws p above a centered line of text at the bottom of dc.
func drawWithFooter(dc draw.Canvas, p *plot.Plot, footer string) {
	sty := text.Style{
		Color:   color.Black,
		Font:    font.From(plot.DefaultFont, vg.Points(10)),
		XAlign:  text.XCenter,
		YAlign:  text.YBottom,
		Handler: plot.DefaultTextHandler,
	}
	height := sty.Height(footer) + sty.Height("X")

	p.Draw(draw.Crop(dc, 0, 0, height, 0))
	dc.FillText(sty, vg.Point{X: dc.Center().X, Y: dc.Min.Y + height/4}, footer)
}
