// Package filter implements the filter chain that turns a window's events
// into the visible set of each view.
//
// The magnitude-bin filter is coarse and always applied first; brushes then
// narrow the result. All predicates are pure, idempotent and commute with
// each other. The attribute selection is not a predicate and never changes
// membership.
package filter

import (
	"github.com/rewired-gh/quakelens/internal/models"
)

// Projector maps geographic coordinates to screen pixels. The map view
// implements it; the spatial brush is defined in its screen space.
type Projector interface {
	Project(lat, lon float64) models.Point
}

// Bins keeps events that fall in any enabled bin. With no enabled bins the
// input is returned unchanged: an empty filter set means no restriction.
func Bins(events []models.Event, bins []models.MagnitudeBin) []models.Event {
	var enabled []models.MagnitudeBin
	for _, b := range bins {
		if b.Enabled {
			enabled = append(enabled, b)
		}
	}
	if len(enabled) == 0 {
		return events
	}

	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		for _, b := range enabled {
			if b.Contains(e.Magnitude) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Temporal keeps events with start <= t < end. A nil range passes everything.
func Temporal(events []models.Event, r *models.TimeRange) []models.Event {
	if r == nil {
		return events
	}
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if r.Contains(e.OccurredAt) {
			out = append(out, e)
		}
	}
	return out
}

// Spatial keeps events whose projected position lies inside rect. A nil
// rect or projector passes everything.
func Spatial(events []models.Event, rect *models.Rect, p Projector) []models.Event {
	if rect == nil || p == nil {
		return events
	}
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if rect.Contains(p.Project(e.Latitude, e.Longitude)) {
			out = append(out, e)
		}
	}
	return out
}

// Apply runs the whole chain: bins, then the temporal brush, then the
// spatial brush. A nil window yields an empty set.
func Apply(w *models.TimeWindow, state models.FilterState, p Projector) []models.Event {
	if w == nil {
		return []models.Event{}
	}
	visible := Bins(w.Events, state.MagnitudeBins)
	visible = Temporal(visible, state.TemporalBrush)
	return Spatial(visible, state.SpatialBrush, p)
}

// Routed holds the visible set of each view for one state.
type Routed struct {
	// Timeline is the full census of the window, never filtered.
	Timeline []models.Event
	// Map is bin- and temporal-brush-filtered. The spatial brush is drawn
	// on the map itself, so it highlights there instead of filtering.
	Map []models.Event
	// Histogram applies every predicate.
	Histogram []models.Event
}

// Route applies the view-routing rule to a window.
func Route(w *models.TimeWindow, state models.FilterState, p Projector) Routed {
	if w == nil {
		empty := []models.Event{}
		return Routed{Timeline: empty, Map: empty, Histogram: empty}
	}
	mapSet := Temporal(Bins(w.Events, state.MagnitudeBins), state.TemporalBrush)
	return Routed{
		Timeline:  w.Events,
		Map:       mapSet,
		Histogram: Spatial(mapSet, state.SpatialBrush, p),
	}
}
