package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

const (
	dpi             = 72.0
	defaultFontSize = 12.0
	tickMarkLength  = 5
)

type annotator struct {
	context  *freetype.Context
	fontFace font.Face
	fontSize float64
}

func newAnnotator(dst draw.Image, fontSize float64) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(fontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)
	ctx.SetClip(dst.Bounds())
	ctx.SetDst(dst)

	return &annotator{
		context:  ctx,
		fontSize: fontSize,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    fontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) textWidth(s string) int {
	return font.MeasureString(a.fontFace, s).Round()
}

func (a *annotator) textHeight() int {
	metrics := a.fontFace.Metrics()
	return (metrics.Ascent + metrics.Descent).Round()
}

// drawString draws s with its baseline starting at (x, y).
func (a *annotator) drawString(s string, x, y int) error {
	_, err := a.context.DrawString(s, freetype.Pt(x, y))
	return err
}

// drawCentered draws s horizontally centered on x with its vertical center at y.
func (a *annotator) drawCentered(s string, x, y int) error {
	metrics := a.fontFace.Metrics()
	baseline := y + a.textHeight()/2 - metrics.Descent.Round()
	return a.drawString(s, x-a.textWidth(s)/2, baseline)
}

// drawRightAligned draws s ending at x with its vertical center at y.
func (a *annotator) drawRightAligned(s string, x, y int) error {
	metrics := a.fontFace.Metrics()
	baseline := y + a.textHeight()/2 - metrics.Descent.Round()
	return a.drawString(s, x-a.textWidth(s), baseline)
}

// drawVertical draws s rotated by 90 degrees counter-clockwise, centered on
// (x, y). freetype only draws horizontal text, so the string is rendered
// onto a scratch image and copied over column by column.
func (a *annotator) drawVertical(dst draw.Image, s string, x, y int) error {
	w, h := a.textWidth(s)+2, a.textHeight()+2
	scratch := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(scratch, scratch.Bounds(), image.Transparent, image.Point{}, draw.Src)

	a.context.SetDst(scratch)
	a.context.SetClip(scratch.Bounds())
	defer func() {
		a.context.SetDst(dst)
		a.context.SetClip(dst.Bounds())
	}()

	baseline := h - 1 - a.fontFace.Metrics().Descent.Round()
	if _, err := a.context.DrawString(s, fixed.P(1, baseline)); err != nil {
		return err
	}

	left, top := x-h/2, y+w/2
	for sx := 0; sx < w; sx++ {
		for sy := 0; sy < h; sy++ {
			c := scratch.RGBAAt(sx, sy)
			if c.A == 0 {
				continue
			}
			dst.Set(left+sy, top-sx, blend(dst.At(left+sy, top-sx), c))
		}
	}
	return nil
}

func hLine(dst draw.Image, x0, x1, y int) {
	for x := x0; x <= x1; x++ {
		dst.Set(x, y, color.Black)
	}
}

func vLine(dst draw.Image, x, y0, y1 int) {
	for y := y0; y <= y1; y++ {
		dst.Set(x, y, color.Black)
	}
}

// frame draws a one pixel outline just outside area.
func frame(dst draw.Image, area image.Rectangle) {
	hLine(dst, area.Min.X-1, area.Max.X, area.Min.Y-1)
	hLine(dst, area.Min.X-1, area.Max.X, area.Max.Y)
	vLine(dst, area.Min.X-1, area.Min.Y-1, area.Max.Y)
	vLine(dst, area.Max.X, area.Min.Y-1, area.Max.Y)
}

// blend draws the premultiplied color src over dst.
func blend(dst color.Color, src color.RGBA) color.Color {
	r, g, b, _ := dst.RGBA()
	inv := uint32(0xff - src.A)
	return color.RGBA{
		R: uint8((r>>8)*inv/0xff) + src.R,
		G: uint8((g>>8)*inv/0xff) + src.G,
		B: uint8((b>>8)*inv/0xff) + src.B,
		A: 0xff,
	}
}
