package coordinator

import (
	"fmt"

	"github.com/rewired-gh/quakelens/internal/filter"
	"github.com/rewired-gh/quakelens/internal/logger"
	"github.com/rewired-gh/quakelens/internal/models"
)

// Selection returns the current selection.
func (c *Coordinator) Selection() models.Selection {
	return c.selection
}

// Highlight returns the highlight state handed to the views.
func (c *Coordinator) Highlight() models.Highlight {
	return models.Highlight{Selection: c.selection, Classes: c.classes}
}

// TimelineBrush returns the interval currently drawn on the timeline, if any.
func (c *Coordinator) TimelineBrush() *models.TimeRange {
	if c.timelineBrush == nil {
		return nil
	}
	r := *c.timelineBrush
	return &r
}

// PointClick selects a single event, or clears the selection when the same
// event is already selected. The ±24h neighborhood is classified over the
// whole current window, not only the visible subset, and the timeline brush
// cursor moves to the neighborhood clamped to the timeline domain.
func (c *Coordinator) PointClick(id models.EventID) error {
	w := c.Current()
	if w == nil || len(w.Events) == 0 {
		return nil
	}

	if c.selection.IsPoint(id) {
		logger.Debug("Point %d deselected", id)
		c.resetSelection()
		c.dispatch()
		return nil
	}

	selected, ok := w.Find(id)
	if !ok {
		return fmt.Errorf("point click on %d: %w", id, ErrEventNotInWindow)
	}

	cursor := c.timelineBrush
	c.resetSelection()
	c.selection = models.PointSelection(id)
	c.classes = classifyNeighborhood(w.Events, selected)
	logger.Debug("Point %d selected at %s", id, selected.OccurredAt.Format("2006-01-02 15:04:05"))

	neighborhood := models.TimeRange{
		Start: selected.OccurredAt.Add(-models.NeighborhoodSpan),
		End:   selected.OccurredAt.Add(models.NeighborhoodSpan),
	}
	if clamped, ok := neighborhood.Intersect(w.DisplayRange()); ok {
		cursor = &clamped
	}
	// A neighborhood outside the domain leaves the cursor where it was.
	if cursor != nil {
		c.timelineBrush = cursor
		if c.views.Timeline != nil {
			c.views.Timeline.MoveBrush(*cursor)
		}
	}

	c.dispatch()
	return nil
}

func classifyNeighborhood(events []models.Event, selected models.Event) map[models.EventID]models.Class {
	classes := make(map[models.EventID]models.Class, len(events))
	for _, e := range events {
		if e.ID == selected.ID {
			classes[e.ID] = models.ClassSelected
			continue
		}
		if cls := models.ClassifyNeighbor(selected.OccurredAt, e.OccurredAt); cls != models.ClassDefault {
			classes[e.ID] = cls
		}
	}
	return classes
}

// SpatialBrush handles one frame of a map rectangle brush. Membership is
// recomputed on every call by projecting the map's visible set to screen
// space; the result becomes a bin selection. A nil rect clears the brush and
// falls back to the window census.
func (c *Coordinator) SpatialBrush(rect *models.Rect) {
	w := c.Current()
	if w == nil || len(w.Events) == 0 {
		return
	}

	if rect == nil {
		if c.filters.SpatialBrush == nil && !c.isSpatialSelection() {
			return
		}
		c.resetSelection()
		c.dispatch()
		return
	}

	if c.views.Map == nil {
		logger.Warn("Spatial brush ignored: no map view to project events")
		return
	}

	r := *rect
	c.resetSelection()
	c.filters.SpatialBrush = &r

	members := filter.Spatial(c.Routed().Map, &r, c.views.Map)
	c.selection = models.BinSelection(models.IDs(members), models.BinSourceSpatialBrush)
	c.dispatch()
}

func (c *Coordinator) isSpatialSelection() bool {
	return c.selection.Kind == models.SelectionBin && c.selection.Source == models.BinSourceSpatialBrush
}

// TemporalBrush applies a released timeline brush. The window's events are
// restricted to the range for the map and histogram only; the timeline keeps
// its census. A nil range clears the brush and reverts the map and histogram
// to the magnitude-filtered window.
func (c *Coordinator) TemporalBrush(r *models.TimeRange) error {
	w := c.Current()
	if w == nil || len(w.Events) == 0 {
		return nil
	}

	if r == nil {
		c.resetSelection()
		c.dispatch()
		return nil
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("temporal brush: %w", err)
	}

	rc := *r
	c.resetSelection()
	c.filters.TemporalBrush = &rc
	c.timelineBrush = &rc
	if c.views.Timeline != nil {
		c.views.Timeline.MoveBrush(rc)
	}
	logger.Debug("Temporal brush %s to %s", rc.Start.Format("2006-01-02 15:04"), rc.End.Format("2006-01-02 15:04"))

	c.dispatch()
	return nil
}

// BinClick selects the events of a histogram bin. Clicking the identical set
// again, or passing nil, clears the selection. Ids outside the current window
// are ignored; a click that names no window event is a no-op.
func (c *Coordinator) BinClick(ids []models.EventID) {
	w := c.Current()
	if w == nil || len(w.Events) == 0 {
		return
	}

	if ids == nil {
		if c.selection.Kind == models.SelectionBin {
			c.resetSelection()
			c.dispatch()
		}
		return
	}

	known := make(map[models.EventID]struct{}, len(w.Events))
	for _, e := range w.Events {
		known[e.ID] = struct{}{}
	}
	inWindow := make([]models.EventID, 0, len(ids))
	for _, id := range ids {
		if _, ok := known[id]; ok {
			inWindow = append(inWindow, id)
		}
	}
	if len(inWindow) == 0 {
		return
	}

	next := models.BinSelection(inWindow, models.BinSourceHistogram)
	if c.selection.SameMembers(next) {
		logger.Debug("Bin of %d events deselected", len(next.Members))
		c.resetSelection()
		c.dispatch()
		return
	}

	c.resetSelection()
	c.selection = next
	logger.Debug("Bin of %d events selected", len(next.Members))
	c.dispatch()
}

// ClearSelection drops any selection and both brushes, keeping the window
// and the magnitude bins.
func (c *Coordinator) ClearSelection() {
	if c.selection.Kind == models.SelectionNone && c.timelineBrush == nil &&
		c.filters.SpatialBrush == nil && c.filters.TemporalBrush == nil {
		return
	}
	c.resetSelection()
	c.dispatch()
}
