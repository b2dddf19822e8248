package paramhist

import (
	"fmt"
	"strings"

	"github.com/roman-kulish/superdarn-freqscan/internal/darn"
	"github.com/roman-kulish/superdarn-freqscan/internal/freqscan"
)

// Label is the display name and unit of a record field.
type Label struct {
	Name string
	Unit string
}

var labels = map[string]Label{
	"v":         {"Line of Sight Velocity", "m/s"},
	"p_l":       {"Power", "dB"},
	"w_l":       {"Spectral Width", "m/s"},
	"elv":       {"Elevation Angle", "deg"},
	"pwr0":      {"Lag Zero Power", "dB"},
	"phi0":      {"Phase Offset", "rad"},
	"noise.sky": {"Sky Noise", ""},
	"tfreq":     {"Transmitted Frequency", "kHz"},
	"lagfr":     {"Lag to First Range", "μs"},
	"smsep":     {"Sample Separation", "μs"},
	"nave":      {"Number of Pulse Sequences Transmitted", ""},
}

// FieldLabel returns the label of param. Unknown fields are labeled with
// their key.
func FieldLabel(param string) Label {
	if l, ok := labels[param]; ok {
		return l
	}
	return Label{Name: param}
}

// AxisText is the axis caption of the field, with its unit when known.
func (l Label) AxisText() string {
	if l.Unit == "" {
		return l.Name
	}
	return fmt.Sprintf("%s [%s]", l.Name, l.Unit)
}

// Scatter names the points a histogram holds when ground scatter is split.
type Scatter string

const (
	AllScatter         Scatter = ""
	IonosphericScatter Scatter = "Ionospheric Scatter"
	GroundScatter      Scatter = "Ground Scatter"
)

// Title returns the chart title of a field histogram: station and day span
// on the first line, then the field with the beam and gate selection.
func Title(records []darn.Record, param string, beam, gate *int, scatter Scatter) string {
	var sb strings.Builder
	sb.WriteString(freqscan.Title(records, darn.GranularityDay))
	sb.WriteString("\n")
	sb.WriteString(FieldLabel(param).Name)

	switch {
	case beam != nil && gate != nil:
		fmt.Fprintf(&sb, ": Beam %d, Gate %d", *beam, *gate)
	case beam != nil:
		fmt.Fprintf(&sb, ": Beam %d", *beam)
	case gate != nil:
		fmt.Fprintf(&sb, ": Gate %d", *gate)
	}

	if scatter != AllScatter {
		fmt.Fprintf(&sb, " (%s)", scatter)
	}
	return sb.String()
}
