package models

import (
	"errors"
	"fmt"
	"math"
)

// MagnitudeBin is one toggleable magnitude range. Min is always inclusive;
// InclusiveMax decides whether Max belongs to the bin.
type MagnitudeBin struct {
	Min          float64 `mapstructure:"min" json:"min"`
	Max          float64 `mapstructure:"max" json:"max"`
	InclusiveMax bool    `mapstructure:"inclusive_max" json:"inclusive_max"`
	Enabled      bool    `mapstructure:"enabled" json:"enabled"`
}

// Validate checks that the bin bounds are ordered.
func (b MagnitudeBin) Validate() error {
	if math.IsNaN(b.Min) || math.IsNaN(b.Max) {
		return errors.New("bin bounds must be numbers")
	}
	if b.Max < b.Min {
		return fmt.Errorf("bin max %.2f must not be below min %.2f", b.Max, b.Min)
	}
	return nil
}

// Contains reports whether a magnitude falls in the bin.
func (b MagnitudeBin) Contains(mag float64) bool {
	if mag < b.Min {
		return false
	}
	if b.InclusiveMax {
		return mag <= b.Max
	}
	return mag < b.Max
}

// Label renders the bin as an interval, e.g. "[3.5, 4.0)".
func (b MagnitudeBin) Label() string {
	closing := ")"
	if b.InclusiveMax {
		closing = "]"
	}
	return fmt.Sprintf("[%.1f, %.1f%s", b.Min, b.Max, closing)
}

// DefaultMagnitudeBins are the checkbox ranges offered when the config does
// not list any. All start disabled, so the filter passes everything.
func DefaultMagnitudeBins() []MagnitudeBin {
	return []MagnitudeBin{
		{Min: 0, Max: 2.5},
		{Min: 2.5, Max: 3.5},
		{Min: 3.5, Max: 4.5},
		{Min: 4.5, Max: 5.5},
		{Min: 5.5, Max: 10, InclusiveMax: true},
	}
}

// Point is a screen-space position in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a screen-space rectangle. Corners may be given in any order.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// RectFromPoints builds the rectangle spanned by two corners.
func RectFromPoints(a, b Point) Rect {
	return Rect{X0: a.X, Y0: a.Y, X1: b.X, Y1: b.Y}
}

// Contains reports whether p lies inside the rectangle, edges included.
func (r Rect) Contains(p Point) bool {
	minX, maxX := math.Min(r.X0, r.X1), math.Max(r.X0, r.X1)
	minY, maxY := math.Min(r.Y0, r.Y1), math.Max(r.Y0, r.Y1)
	return p.X >= minX && p.X <= maxX && p.Y >= minY && p.Y <= maxY
}

// FilterState is the mutable, non-persisted view state. It survives window
// navigation; brushes are transient and cleared on any context switch.
type FilterState struct {
	Attribute     Attribute      `json:"attribute"`
	MagnitudeBins []MagnitudeBin `json:"magnitude_bins"`
	SpatialBrush  *Rect          `json:"spatial_brush,omitempty"`
	TemporalBrush *TimeRange     `json:"temporal_brush,omitempty"`
}

// EnabledBins returns the bins currently toggled on.
func (f FilterState) EnabledBins() []MagnitudeBin {
	var enabled []MagnitudeBin
	for _, b := range f.MagnitudeBins {
		if b.Enabled {
			enabled = append(enabled, b)
		}
	}
	return enabled
}

// ClearBrushes drops both transient brushes.
func (f *FilterState) ClearBrushes() {
	f.SpatialBrush = nil
	f.TemporalBrush = nil
}

// Clone returns a deep copy so callers cannot alias the coordinator's state.
func (f FilterState) Clone() FilterState {
	out := f
	out.MagnitudeBins = append([]MagnitudeBin(nil), f.MagnitudeBins...)
	if f.SpatialBrush != nil {
		r := *f.SpatialBrush
		out.SpatialBrush = &r
	}
	if f.TemporalBrush != nil {
		r := *f.TemporalBrush
		out.TemporalBrush = &r
	}
	return out
}
