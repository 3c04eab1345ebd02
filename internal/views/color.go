package views

import (
	"math"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rewired-gh/quakelens/internal/models"
)

// redStops is the sequential single-hue red ramp, light to dark.
var redStops = mustParseStops(
	"#fff5f0", "#fee0d2", "#fcbba1", "#fc9272", "#fb6a4a",
	"#ef3b2c", "#cb181d", "#a50f15", "#67000d",
)

// Highlight colours for a point selection's neighbourhood.
var (
	ColorBefore   = lipgloss.Color("#1f77b4")
	ColorSelected = lipgloss.Color("#ffd700")
	ColorAfter    = lipgloss.Color("#2ca02c")
	ColorDimmed   = lipgloss.Color("#4a4a4a")
)

func mustParseStops(hexes ...string) []colorful.Color {
	stops := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			panic("invalid ramp colour " + h)
		}
		stops[i] = c
	}
	return stops
}

// Reds maps t in [0, 1] onto the red ramp, blending in RGB between
// neighbouring stops.
func Reds(t float64) lipgloss.Color {
	if math.IsNaN(t) {
		t = 0
	}
	t = math.Max(0, math.Min(1, t))
	n := len(redStops) - 1
	pos := t * float64(n)
	i := int(math.Floor(pos))
	if i >= n {
		return lipgloss.Color(redStops[n].Hex())
	}
	return lipgloss.Color(redStops[i].BlendRgb(redStops[i+1], pos-float64(i)).Clamped().Hex())
}

// ColorScale maps a domain onto the red ramp.
type ColorScale struct {
	unit LinearScale
}

// NewColorScale creates a sequential colour scale over [lo, hi].
func NewColorScale(lo, hi float64) ColorScale {
	return ColorScale{unit: NewLinear(lo, hi, 0, 1)}
}

// Color returns the colour for v.
func (s ColorScale) Color(v float64) lipgloss.Color {
	return Reds(s.unit.Scale(v))
}

// Domain returns the scale's domain.
func (s ColorScale) Domain() (float64, float64) {
	return s.unit.D0, s.unit.D1
}

// LegendEntry is one row of the map legend.
type LegendEntry struct {
	Value  float64
	Radius float64
	Color  lipgloss.Color
}

// Legend evaluates both map scales at the given break values.
func Legend(radius LinearScale, color ColorScale, breaks []float64) []LegendEntry {
	entries := make([]LegendEntry, len(breaks))
	for i, v := range breaks {
		entries[i] = LegendEntry{Value: v, Radius: radius.Scale(v), Color: color.Color(v)}
	}
	return entries
}

// classColor returns the colour for an event's highlight class; ok is false
// when the attribute-derived colour applies.
func classColor(c models.Class) (lipgloss.Color, bool) {
	switch c {
	case models.ClassBefore:
		return ColorBefore, true
	case models.ClassSelected:
		return ColorSelected, true
	case models.ClassAfter:
		return ColorAfter, true
	case models.ClassDimmed:
		return ColorDimmed, true
	}
	return "", false
}
