package views

import (
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rewired-gh/quakelens/internal/models"
)

// DayCount is the number of events on one calendar day.
type DayCount struct {
	Day   time.Time
	Count int
}

// Rollup groups events by calendar day in loc, ascending.
func Rollup(events []models.Event, loc *time.Location) []DayCount {
	if loc == nil {
		loc = time.UTC
	}
	counts := make(map[time.Time]int)
	for _, e := range events {
		t := e.OccurredAt.In(loc)
		counts[time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)]++
	}

	days := make([]DayCount, 0, len(counts))
	for day, n := range counts {
		days = append(days, DayCount{Day: day, Count: n})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Day.Before(days[j].Day) })
	return days
}

var blocks = []rune(" ▁▂▃▄▅▆▇█")

// TimelineView draws daily event counts across the window's display range
// with an optional brush overlay.
type TimelineView struct {
	loc        *time.Location
	cols, rows int

	domain    models.TimeRange
	hasDomain bool
	days      []DayCount
	hl        models.Highlight
	selected  *time.Time
	brush     *models.TimeRange

	cursor int
	anchor *int
}

// NewTimelineView creates a timeline of cols columns and rows rows.
func NewTimelineView(loc *time.Location, cols, rows int) *TimelineView {
	if loc == nil {
		loc = time.UTC
	}
	return &TimelineView{loc: loc, cols: max(cols, 10), rows: max(rows, 1)}
}

// SetDomain sets the x axis. ok is false when there is no current window.
func (t *TimelineView) SetDomain(domain models.TimeRange, ok bool) {
	t.domain = domain
	t.hasDomain = ok
	t.cursor = 0
	t.anchor = nil
}

// Domain returns the x axis.
func (t *TimelineView) Domain() (models.TimeRange, bool) {
	return t.domain, t.hasDomain
}

// MoveBrush draws the brush over r.
func (t *TimelineView) MoveBrush(r models.TimeRange) {
	t.brush = &r
}

// ClearBrush removes the brush.
func (t *TimelineView) ClearBrush() {
	t.brush = nil
}

// Brush returns the drawn brush, if any.
func (t *TimelineView) Brush() *models.TimeRange {
	return t.brush
}

// Render rolls the census up by day. The selected point's day is marked.
func (t *TimelineView) Render(visible []models.Event, hl models.Highlight, attr models.Attribute) {
	t.days = Rollup(visible, t.loc)
	t.hl = hl
	t.selected = nil
	if hl.Selection.Kind == models.SelectionPoint {
		for _, e := range visible {
			if e.ID == hl.Selection.Point {
				at := e.OccurredAt
				t.selected = &at
				break
			}
		}
	}
}

// Days returns the daily counts of the last render.
func (t *TimelineView) Days() []DayCount {
	return t.days
}

func (t *TimelineView) columnSpan() time.Duration {
	return t.domain.End.Sub(t.domain.Start) / time.Duration(t.cols)
}

// ColumnRange returns the time covered by columns c0..c1 inclusive.
func (t *TimelineView) ColumnRange(c0, c1 int) models.TimeRange {
	if c1 < c0 {
		c0, c1 = c1, c0
	}
	c0 = max(0, min(t.cols-1, c0))
	c1 = max(0, min(t.cols-1, c1))
	span := t.columnSpan()
	end := t.domain.Start.Add(span * time.Duration(c1+1))
	if c1 == t.cols-1 {
		end = t.domain.End
	}
	return models.TimeRange{Start: t.domain.Start.Add(span * time.Duration(c0)), End: end}
}

// column returns the column holding instant at, or -1 outside the domain.
func (t *TimelineView) column(at time.Time) int {
	if !t.hasDomain || !t.domain.Contains(at) {
		return -1
	}
	span := t.columnSpan()
	if span <= 0 {
		return 0
	}
	return min(t.cols-1, int(at.Sub(t.domain.Start)/span))
}

// Cursor returns the cursor column.
func (t *TimelineView) Cursor() int {
	return t.cursor
}

// MoveCursor moves the cursor by d columns.
func (t *TimelineView) MoveCursor(d int) {
	t.cursor = max(0, min(t.cols-1, t.cursor+d))
}

// StartBrush anchors a brush at the cursor.
func (t *TimelineView) StartBrush() {
	c := t.cursor
	t.anchor = &c
}

// Brushing reports whether a brush is anchored.
func (t *TimelineView) Brushing() bool {
	return t.anchor != nil
}

// EndBrush drops the anchor.
func (t *TimelineView) EndBrush() {
	t.anchor = nil
}

// BrushRange returns the range from the anchor to the cursor, or nil when
// no brush is anchored or there is no domain.
func (t *TimelineView) BrushRange() *models.TimeRange {
	if t.anchor == nil || !t.hasDomain {
		return nil
	}
	r := t.ColumnRange(*t.anchor, t.cursor)
	return &r
}

// Counts returns the event count per column.
func (t *TimelineView) Counts() []int {
	counts := make([]int, t.cols)
	for _, d := range t.days {
		// Days are floored in loc, so a day may start before the domain.
		at := d.Day
		if at.Before(t.domain.Start) {
			at = t.domain.Start
		}
		if c := t.column(at); c >= 0 {
			counts[c] += d.Count
		}
	}
	return counts
}

var (
	timelineBar      = lipgloss.NewStyle().Foreground(lipgloss.Color("#4682b4"))
	timelineSelected = lipgloss.NewStyle().Foreground(ColorSelected)
	timelineBrush    = lipgloss.Color("#303050")
	axisStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#8a8a8a"))
)

// View draws the bar strip with an axis line below it.
func (t *TimelineView) View(focused bool) string {
	if !t.hasDomain {
		return axisStyle.Render("no window")
	}

	counts := t.Counts()
	peak := 0
	for _, c := range counts {
		peak = max(peak, c)
	}
	levels := t.rows * 8
	scale := NewLinear(0, float64(peak), 0, float64(levels))

	selectedCol := -1
	if t.selected != nil {
		selectedCol = t.column(*t.selected)
	}
	brushed := func(col int) bool {
		if t.brush == nil {
			return false
		}
		r := t.ColumnRange(col, col)
		_, ok := r.Intersect(*t.brush)
		return ok
	}
	anchored := t.BrushRange()

	var b strings.Builder
	for row := 0; row < t.rows; row++ {
		floor := (t.rows - 1 - row) * 8
		for col := 0; col < t.cols; col++ {
			height := 0
			if peak > 0 && counts[col] > 0 {
				height = max(1, int(scale.Scale(float64(counts[col]))+0.5))
			}
			fill := max(0, min(8, height-floor))

			style := timelineBar
			if col == selectedCol {
				style = timelineSelected
			}
			inAnchor := false
			if anchored != nil {
				_, inAnchor = t.ColumnRange(col, col).Intersect(*anchored)
			}
			if brushed(col) || inAnchor {
				style = style.Background(timelineBrush)
			}
			if focused && col == t.cursor && row == t.rows-1 {
				style = style.Reverse(true)
			}
			b.WriteString(style.Render(string(blocks[fill])))
		}
		b.WriteByte('\n')
	}

	start := t.domain.Start.In(t.loc).Format("Jan 2")
	end := t.domain.End.In(t.loc).Format("Jan 2, 2006")
	gap := max(1, t.cols-len(start)-len(end))
	b.WriteString(axisStyle.Render(start + strings.Repeat(" ", gap) + end))
	return b.String()
}
