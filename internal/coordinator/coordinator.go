// Package coordinator owns the single source of truth for the dashboard:
// the window sequence, the current window index, the filter state and the
// selection. Every mutation goes through a reducer-style entry point on
// Coordinator, which then re-renders the map, histogram and timeline views.
//
// Invariants:
//   - Point and bin selections are mutually exclusive, and activating any
//     selection mechanism (point click, spatial brush, temporal brush, bin
//     click) silently clears the others.
//   - Navigation, re-partitioning, attribute changes and bin toggles clear the
//     selection and both brushes unconditionally.
//   - The timeline always renders the full census of the current window.
//
// The coordinator is synchronous and not safe for concurrent use; the UI
// event loop is its only caller.
package coordinator

import (
	"errors"
	"fmt"
	"time"

	"github.com/rewired-gh/quakelens/internal/filter"
	"github.com/rewired-gh/quakelens/internal/logger"
	"github.com/rewired-gh/quakelens/internal/models"
	"github.com/rewired-gh/quakelens/internal/store"
	"github.com/rewired-gh/quakelens/internal/windower"
)

var (
	// ErrNoWindow is returned by navigation when the partition is empty.
	ErrNoWindow = errors.New("no current window")
	// ErrEventNotInWindow is returned when a click names an event outside
	// the current window.
	ErrEventNotInWindow = errors.New("event is not in the current window")
)

// View renders a visible set with the current highlight. Render must be
// idempotent and must tolerate an empty visible set.
type View interface {
	Render(visible []models.Event, hl models.Highlight, attr models.Attribute)
}

// TimelineView is the timeline collaborator. Its domain is the display
// range of the current window; the brush cursor is drawn inside it.
type TimelineView interface {
	View
	SetDomain(domain models.TimeRange, ok bool)
	MoveBrush(r models.TimeRange)
	ClearBrush()
}

// MapView is the map collaborator. It also projects events to the screen
// space the spatial brush is expressed in.
type MapView interface {
	View
	filter.Projector
}

// Views wires the three view adapters. Any of them may be nil.
type Views struct {
	Map       MapView
	Histogram View
	Timeline  TimelineView
}

// InteractionMode selects what a map click does.
type InteractionMode int

const (
	InteractPoint InteractionMode = iota
	InteractBrush
)

func (m InteractionMode) String() string {
	if m == InteractBrush {
		return "brush"
	}
	return "point"
}

// Options configures a new Coordinator.
type Options struct {
	Mode      models.Mode
	Range     *models.TimeRange
	Attribute models.Attribute
	Bins      []models.MagnitudeBin
	Loop      bool
	Speed     time.Duration
}

// Coordinator is the Selection Coordinator.
type Coordinator struct {
	store    *store.Store
	windower *windower.Windower
	views    Views

	mode    models.Mode
	rng     *models.TimeRange
	windows []models.TimeWindow
	index   int

	filters       models.FilterState
	selection     models.Selection
	classes       map[models.EventID]models.Class
	timelineBrush *models.TimeRange
	interaction   InteractionMode

	playback Playback
}

// New partitions the store with the initial mode and renders every view once.
func New(s *store.Store, w *windower.Windower, views Views, opts Options) (*Coordinator, error) {
	if opts.Attribute == "" {
		opts.Attribute = models.AttributeMagnitude
	}
	if opts.Mode == "" {
		opts.Mode = models.ModeWeekly
	}

	c := &Coordinator{
		store:    s,
		windower: w,
		views:    views,
		filters: models.FilterState{
			Attribute:     opts.Attribute,
			MagnitudeBins: append([]models.MagnitudeBin(nil), opts.Bins...),
		},
		selection: models.NoSelection(),
		playback: Playback{
			Loop:  opts.Loop,
			Speed: clampSpeed(opts.Speed),
		},
	}

	if err := c.Repartition(opts.Mode, opts.Range); err != nil {
		return nil, fmt.Errorf("failed to build initial windows: %w", err)
	}
	return c, nil
}

// Repartition rebuilds the window sequence wholesale and resets navigation to
// the first window. Playback is paused.
func (c *Coordinator) Repartition(mode models.Mode, r *models.TimeRange) error {
	if r != nil {
		rc := *r
		r = &rc
	}
	windows, err := c.windower.Partition(c.store, mode, r)
	if err != nil {
		return err
	}

	c.Pause()
	c.mode = mode
	c.rng = r
	c.windows = windows
	c.index = 0
	logger.Debug("Repartitioned into %d %s windows", len(windows), mode)

	c.windowChanged()
	return nil
}

// Mode returns the current partition mode.
func (c *Coordinator) Mode() models.Mode {
	return c.mode
}

// Range returns the caller-supplied range of the current partition, if any.
func (c *Coordinator) Range() *models.TimeRange {
	if c.rng == nil {
		return nil
	}
	r := *c.rng
	return &r
}

// Len returns the number of windows in the current partition.
func (c *Coordinator) Len() int {
	return len(c.windows)
}

// Index returns the current window index. It is meaningless when Len is 0.
func (c *Coordinator) Index() int {
	return c.index
}

// Current returns the current window, or nil when there are no windows.
func (c *Coordinator) Current() *models.TimeWindow {
	if len(c.windows) == 0 {
		return nil
	}
	return &c.windows[c.index]
}

// Seek jumps to window i.
func (c *Coordinator) Seek(i int) error {
	if len(c.windows) == 0 {
		return ErrNoWindow
	}
	if i < 0 || i >= len(c.windows) {
		return fmt.Errorf("window index %d out of range [0, %d)", i, len(c.windows))
	}
	if i == c.index {
		return nil
	}
	c.index = i
	c.windowChanged()
	return nil
}

// Next moves to the following window. It reports false at the last window.
func (c *Coordinator) Next() bool {
	if c.index+1 >= len(c.windows) {
		return false
	}
	c.index++
	c.windowChanged()
	return true
}

// Prev moves to the previous window. It reports false at the first window.
func (c *Coordinator) Prev() bool {
	if c.index == 0 || len(c.windows) == 0 {
		return false
	}
	c.index--
	c.windowChanged()
	return true
}

// Filters returns a copy of the current filter state.
func (c *Coordinator) Filters() models.FilterState {
	return c.filters.Clone()
}

// SetAttribute changes the field that drives colour, radius and binning.
func (c *Coordinator) SetAttribute(a models.Attribute) {
	c.filters.Attribute = a
	c.resetSelection()
	c.dispatch()
}

// ToggleBin flips magnitude bin i on or off.
func (c *Coordinator) ToggleBin(i int) error {
	if i < 0 || i >= len(c.filters.MagnitudeBins) {
		return fmt.Errorf("magnitude bin %d out of range [0, %d)", i, len(c.filters.MagnitudeBins))
	}
	c.filters.MagnitudeBins[i].Enabled = !c.filters.MagnitudeBins[i].Enabled
	c.resetSelection()
	c.dispatch()
	return nil
}

// SetBins replaces the magnitude bins.
func (c *Coordinator) SetBins(bins []models.MagnitudeBin) error {
	for i, b := range bins {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("magnitude bin %d: %w", i, err)
		}
	}
	c.filters.MagnitudeBins = append([]models.MagnitudeBin(nil), bins...)
	c.resetSelection()
	c.dispatch()
	return nil
}

// ClearAll turns every magnitude bin off and drops brushes and selection.
func (c *Coordinator) ClearAll() {
	for i := range c.filters.MagnitudeBins {
		c.filters.MagnitudeBins[i].Enabled = false
	}
	c.resetSelection()
	c.dispatch()
}

// Interaction returns the current map interaction mode.
func (c *Coordinator) Interaction() InteractionMode {
	return c.interaction
}

// SetInteractionMode switches between point and brush selection on the map.
// Switching is a context change and clears selection and brushes.
func (c *Coordinator) SetInteractionMode(m InteractionMode) {
	if m == c.interaction {
		return
	}
	c.interaction = m
	c.resetSelection()
	c.dispatch()
}

// windowChanged handles any change of the current window: the timeline
// domain follows the display range and all selection state is dropped.
func (c *Coordinator) windowChanged() {
	if c.views.Timeline != nil {
		if w := c.Current(); w != nil {
			c.views.Timeline.SetDomain(w.DisplayRange(), true)
		} else {
			c.views.Timeline.SetDomain(models.TimeRange{}, false)
		}
	}
	c.resetSelection()
	c.dispatch()
}

// resetSelection clears the selection and both brushes.
func (c *Coordinator) resetSelection() {
	c.selection = models.NoSelection()
	c.classes = nil
	c.filters.ClearBrushes()
	c.clearTimelineBrush()
}

func (c *Coordinator) clearTimelineBrush() {
	if c.timelineBrush == nil {
		return
	}
	c.timelineBrush = nil
	if c.views.Timeline != nil {
		c.views.Timeline.ClearBrush()
	}
}

// Routed returns the visible set of each view for the current state.
func (c *Coordinator) Routed() filter.Routed {
	return filter.Route(c.Current(), c.filters, c.projector())
}

func (c *Coordinator) projector() filter.Projector {
	if c.views.Map == nil {
		return nil
	}
	return c.views.Map
}

// dispatch renders every view from the current state.
func (c *Coordinator) dispatch() {
	routed := c.Routed()
	hl := c.Highlight()
	attr := c.filters.Attribute

	if c.views.Timeline != nil {
		c.views.Timeline.Render(routed.Timeline, hl, attr)
	}
	if c.views.Map != nil {
		c.views.Map.Render(routed.Map, hl, attr)
	}
	if c.views.Histogram != nil {
		c.views.Histogram.Render(routed.Histogram, hl, attr)
	}
}

// Snapshot is a read-only view of the derived state after the last mutation.
type Snapshot struct {
	Mode          models.Mode
	Index         int
	Len           int
	Window        *models.TimeWindow
	Filters       models.FilterState
	Selection     models.Selection
	TimelineBrush *models.TimeRange
	Playback      Playback
	Routed        filter.Routed
}

// Snapshot captures the current state and the visible set of each view.
func (c *Coordinator) Snapshot() Snapshot {
	return Snapshot{
		Mode:          c.mode,
		Index:         c.index,
		Len:           len(c.windows),
		Window:        c.Current(),
		Filters:       c.filters.Clone(),
		Selection:     c.selection,
		TimelineBrush: c.TimelineBrush(),
		Playback:      c.playback,
		Routed:        c.Routed(),
	}
}
