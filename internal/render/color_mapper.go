package render

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorTheme is a named color scheme for histogram cell values.
type ColorTheme string

const (
	PlasmaTheme    ColorTheme = "plasma"    // Dark blue to purple to yellow
	ViridisTheme   ColorTheme = "viridis"   // Dark purple to teal to yellow
	InfernoTheme   ColorTheme = "inferno"   // Black to red to pale yellow
	GrayscaleTheme ColorTheme = "grayscale" // Black to white
	ClassicTheme   ColorTheme = "classic"   // Blue to red

	DefaultColorMapSize = 256 // Default number of colors in the map
)

// NoDataColor is used for cells without a value.
var NoDataColor color.Color = color.White

var themeStops = map[ColorTheme][]string{
	PlasmaTheme:    {"#0d0887", "#7e03a8", "#cc4778", "#f89540", "#f0f921"},
	ViridisTheme:   {"#440154", "#3b528b", "#21918c", "#5ec962", "#fde725"},
	InfernoTheme:   {"#000004", "#57106e", "#bc3754", "#f98e09", "#fcffa4"},
	GrayscaleTheme: {"#000000", "#ffffff"},
}

// ParseColorTheme validates a theme name. An empty name selects plasma.
func ParseColorTheme(name string) (ColorTheme, error) {
	theme := ColorTheme(strings.ToLower(strings.TrimSpace(name)))
	if theme == "" {
		return PlasmaTheme, nil
	}
	if _, ok := themeStops[theme]; ok || theme == ClassicTheme {
		return theme, nil
	}
	return "", fmt.Errorf("invalid color theme: %s", name)
}

// Bounds is the value range mapped onto a color theme.
type Bounds struct {
	Min float64
	Max float64
}

// ColorMapper maps cell values to colors using a pre-computed color map.
type ColorMapper struct {
	colorMap    []color.Color
	theme       func(float64) color.Color
	bounds      Bounds
	size        int
	boundsRange float64 // Cached bounds.Max - bounds.Min
}

// NewColorMapper creates a color mapper with the default map size.
func NewColorMapper(theme ColorTheme, bounds Bounds) *ColorMapper {
	return NewColorMapperWithSize(theme, bounds, DefaultColorMapSize)
}

// NewColorMapperWithSize creates a color mapper with size pre-computed colors.
func NewColorMapperWithSize(theme ColorTheme, bounds Bounds, size int) *ColorMapper {
	if size < 2 {
		size = DefaultColorMapSize
	}

	cm := &ColorMapper{
		colorMap: make([]color.Color, size),
		theme:    colorTheme(theme),
		size:     size,
	}
	cm.UpdateBounds(bounds)
	return cm
}

// UpdateBounds updates the value range and rebuilds the color map.
func (cm *ColorMapper) UpdateBounds(bounds Bounds) {
	cm.bounds = bounds
	cm.boundsRange = bounds.Max - bounds.Min

	for i := 0; i < cm.size; i++ {
		cm.colorMap[i] = cm.theme(float64(i) / float64(cm.size-1))
	}
}

// Bounds returns the current value range.
func (cm *ColorMapper) Bounds() Bounds {
	return cm.bounds
}

// GetColor returns the color of value. Values outside the bounds are clamped.
func (cm *ColorMapper) GetColor(value *float64) color.Color {
	if value == nil {
		return NoDataColor
	}
	if cm.boundsRange <= 0 {
		return cm.colorMap[cm.size-1]
	}

	v := math.Max(cm.bounds.Min, math.Min(*value, cm.bounds.Max))
	return cm.colorMap[int((v-cm.bounds.Min)/cm.boundsRange*float64(cm.size-1))]
}

// At returns the color at position t in [0, 1] along the theme.
func (cm *ColorMapper) At(t float64) color.Color {
	index := int(math.Round(math.Max(0, math.Min(1, t)) * float64(cm.size-1)))
	return cm.colorMap[index]
}

// Colors returns the pre-computed colors from low to high, so a ColorMapper
// can serve as a plot palette.
func (cm *ColorMapper) Colors() []color.Color {
	return cm.colorMap
}

func colorTheme(theme ColorTheme) func(float64) color.Color {
	if theme == ClassicTheme {
		return func(t float64) color.Color {
			return colorful.Hsv(240-(t*240), 1, 0.90).Clamped()
		}
	}

	hexes, ok := themeStops[theme]
	if !ok {
		hexes = themeStops[PlasmaTheme]
	}
	stops := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		stops[i], _ = colorful.Hex(h)
	}

	return func(t float64) color.Color {
		pos := t * float64(len(stops)-1)
		i := int(pos)
		if i >= len(stops)-1 {
			return stops[len(stops)-1]
		}
		return stops[i].BlendLab(stops[i+1], pos-float64(i)).Clamped()
	}
}
