package views

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rewired-gh/quakelens/internal/models"
)

const (
	// TileSize is the slippy-map tile edge in pixels.
	TileSize = 256
	// CellWidth and CellHeight are the pixels covered by one terminal cell.
	CellWidth  = 8
	CellHeight = 16

	MinRadius = 2
	MaxRadius = 10

	MinZoom = 0
	MaxZoom = 12
)

// Viewport is the visible part of the Web-Mercator world.
type Viewport struct {
	CenterLat float64
	CenterLon float64
	Zoom      float64
	Cols      int
	Rows      int
}

// worldPixel projects to global pixel coordinates at zoom.
func worldPixel(lat, lon, zoom float64) models.Point {
	world := TileSize * math.Pow(2, zoom)
	siny := math.Sin(lat * math.Pi / 180)
	siny = math.Max(-0.9999, math.Min(0.9999, siny))
	return models.Point{
		X: (lon + 180) / 360 * world,
		Y: (0.5 - math.Log((1+siny)/(1-siny))/(4*math.Pi)) * world,
	}
}

// MapView renders events on a terminal-cell map. Colour and radius scales
// are recomputed from the displayed subset on every render, so the same
// value can look different in two windows.
type MapView struct {
	vp     Viewport
	origin models.Point

	visible []models.Event
	hl      models.Highlight
	attr    models.Attribute
	radius  LinearScale
	color   ColorScale

	cursorCol, cursorRow int
	anchor               *[2]int
}

// NewMapView creates a map over vp with the cursor at the centre.
func NewMapView(vp Viewport) *MapView {
	if vp.Cols < 1 {
		vp.Cols = 1
	}
	if vp.Rows < 1 {
		vp.Rows = 1
	}
	center := worldPixel(vp.CenterLat, vp.CenterLon, vp.Zoom)
	return &MapView{
		vp: vp,
		origin: models.Point{
			X: center.X - float64(vp.Cols*CellWidth)/2,
			Y: center.Y - float64(vp.Rows*CellHeight)/2,
		},
		attr:      models.AttributeMagnitude,
		radius:    NewLinear(0, 0, MinRadius, MaxRadius),
		color:     NewColorScale(0, 0),
		cursorCol: vp.Cols / 2,
		cursorRow: vp.Rows / 2,
	}
}

// Project maps coordinates to screen pixels relative to the viewport's
// top-left corner.
func (m *MapView) Project(lat, lon float64) models.Point {
	p := worldPixel(lat, lon, m.vp.Zoom)
	return models.Point{X: p.X - m.origin.X, Y: p.Y - m.origin.Y}
}

// ZoomLevel returns the current zoom.
func (m *MapView) ZoomLevel() float64 {
	return m.vp.Zoom
}

// Zoom changes the zoom by d levels around the viewport centre, clamped to
// [MinZoom, MaxZoom]. It reports whether the projection changed.
func (m *MapView) Zoom(d float64) bool {
	zoom := math.Max(MinZoom, math.Min(MaxZoom, m.vp.Zoom+d))
	if zoom == m.vp.Zoom {
		return false
	}
	half := models.Point{X: float64(m.vp.Cols*CellWidth) / 2, Y: float64(m.vp.Rows*CellHeight) / 2}
	k := math.Pow(2, zoom-m.vp.Zoom)
	m.origin = models.Point{
		X: (m.origin.X+half.X)*k - half.X,
		Y: (m.origin.Y+half.Y)*k - half.Y,
	}
	m.vp.Zoom = zoom
	return true
}

// Pan shifts the viewport by a quarter of its size per step.
func (m *MapView) Pan(dc, dr int) {
	m.origin.X += float64(dc*m.vp.Cols*CellWidth) / 4
	m.origin.Y += float64(dr*m.vp.Rows*CellHeight) / 4
}

// Render stores the visible set and recomputes both scales from its extent.
func (m *MapView) Render(visible []models.Event, hl models.Highlight, attr models.Attribute) {
	m.visible = visible
	m.hl = hl
	m.attr = attr

	values := make([]float64, len(visible))
	for i, e := range visible {
		values[i] = attr.Value(e)
	}
	lo, hi, ok := Extent(values)
	if !ok {
		lo, hi = 0, 0
	}
	m.radius = NewLinear(lo, hi, MinRadius, MaxRadius)
	m.color = NewColorScale(lo, hi)
}

// Radius returns the rendered radius of e under the current scales.
func (m *MapView) Radius(e models.Event) float64 {
	return m.radius.Scale(m.attr.Value(e))
}

// Color returns the rendered colour of e, honouring the highlight.
func (m *MapView) Color(e models.Event) lipgloss.Color {
	if c, ok := classColor(m.hl.Class(e.ID)); ok {
		return c
	}
	return m.color.Color(m.attr.Value(e))
}

// Legend returns legend rows at about n nice break values of the current
// domain.
func (m *MapView) Legend(n int) []LegendEntry {
	lo, hi := m.color.Domain()
	if len(m.visible) == 0 {
		return nil
	}
	return Legend(m.radius, m.color, NiceTicks(lo, hi, n))
}

// cell returns the terminal cell holding pixel p.
func (m *MapView) cell(p models.Point) (col, row int, ok bool) {
	col = int(math.Floor(p.X / CellWidth))
	row = int(math.Floor(p.Y / CellHeight))
	return col, row, col >= 0 && col < m.vp.Cols && row >= 0 && row < m.vp.Rows
}

// cellCenter returns the pixel at the centre of a cell.
func cellCenter(col, row int) models.Point {
	return models.Point{
		X: (float64(col) + 0.5) * CellWidth,
		Y: (float64(row) + 0.5) * CellHeight,
	}
}

// Nearest returns the visible event closest to p within maxDist pixels.
func (m *MapView) Nearest(p models.Point, maxDist float64) (models.EventID, bool) {
	best := math.Inf(1)
	var id models.EventID
	for _, e := range m.visible {
		q := m.Project(e.Latitude, e.Longitude)
		d := math.Hypot(q.X-p.X, q.Y-p.Y)
		if d < best {
			best, id = d, e.ID
		}
	}
	return id, best <= maxDist
}

// Cursor returns the cursor cell.
func (m *MapView) Cursor() (col, row int) {
	return m.cursorCol, m.cursorRow
}

// CursorPoint returns the pixel at the centre of the cursor cell.
func (m *MapView) CursorPoint() models.Point {
	return cellCenter(m.cursorCol, m.cursorRow)
}

// MoveCursor moves the cursor by whole cells, staying inside the viewport.
func (m *MapView) MoveCursor(dc, dr int) {
	m.cursorCol = max(0, min(m.vp.Cols-1, m.cursorCol+dc))
	m.cursorRow = max(0, min(m.vp.Rows-1, m.cursorRow+dr))
}

// StartBrush anchors a rectangle brush at the cursor.
func (m *MapView) StartBrush() {
	m.anchor = &[2]int{m.cursorCol, m.cursorRow}
}

// Brushing reports whether a brush is anchored.
func (m *MapView) Brushing() bool {
	return m.anchor != nil
}

// EndBrush drops the brush anchor.
func (m *MapView) EndBrush() {
	m.anchor = nil
}

// BrushRect returns the pixel rectangle spanned by the anchor and the
// cursor, covering both cells entirely. It is nil without an anchor.
func (m *MapView) BrushRect() *models.Rect {
	if m.anchor == nil {
		return nil
	}
	c0, c1 := min(m.anchor[0], m.cursorCol), max(m.anchor[0], m.cursorCol)
	r0, r1 := min(m.anchor[1], m.cursorRow), max(m.anchor[1], m.cursorRow)
	return &models.Rect{
		X0: float64(c0 * CellWidth),
		Y0: float64(r0 * CellHeight),
		X1: float64((c1+1)*CellWidth) - 1e-9,
		Y1: float64((r1+1)*CellHeight) - 1e-9,
	}
}

// classPriority decides which event a shared cell shows.
func classPriority(c models.Class) int {
	switch c {
	case models.ClassSelected:
		return 5
	case models.ClassBefore, models.ClassAfter:
		return 4
	case models.ClassMember:
		return 3
	case models.ClassDefault:
		return 2
	}
	return 1
}

func glyph(radius float64) string {
	switch {
	case radius < 4:
		return "·"
	case radius < 7:
		return "•"
	}
	return "●"
}

var (
	mapFrame        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#5f5f5f"))
	gridStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#303030"))
	brushBackground = lipgloss.Color("#303050")
)

// View draws the map. focused shows the cursor.
func (m *MapView) View(focused bool) string {
	type cellEvent struct {
		e        models.Event
		priority int
		radius   float64
	}
	cells := make(map[[2]int]cellEvent)
	for _, e := range m.visible {
		col, row, ok := m.cell(m.Project(e.Latitude, e.Longitude))
		if !ok {
			continue
		}
		ce := cellEvent{e: e, priority: classPriority(m.hl.Class(e.ID)), radius: m.Radius(e)}
		prev, taken := cells[[2]int{col, row}]
		if !taken || ce.priority > prev.priority || (ce.priority == prev.priority && ce.radius > prev.radius) {
			cells[[2]int{col, row}] = ce
		}
	}

	brush := m.BrushRect()
	var b strings.Builder
	for row := 0; row < m.vp.Rows; row++ {
		for col := 0; col < m.vp.Cols; col++ {
			raw, style := " ", lipgloss.NewStyle()
			if ce, ok := cells[[2]int{col, row}]; ok {
				raw = glyph(ce.radius)
				style = style.Foreground(m.Color(ce.e))
				switch m.hl.Class(ce.e.ID) {
				case models.ClassMember:
					style = style.Bold(true).Underline(true)
				case models.ClassDimmed:
					style = style.Faint(true)
				}
			} else if (col+row)%8 == 0 {
				raw, style = "·", gridStyle
			}
			switch {
			case focused && col == m.cursorCol && row == m.cursorRow:
				style = style.Reverse(true)
			case brush != nil && brush.Contains(cellCenter(col, row)):
				style = style.Background(brushBackground)
			}
			b.WriteString(style.Render(raw))
		}
		if row < m.vp.Rows-1 {
			b.WriteByte('\n')
		}
	}
	return mapFrame.Render(b.String())
}

// LegendView renders the legend as one line.
func (m *MapView) LegendView() string {
	entries := m.Legend(4)
	if len(entries) == 0 {
		return "no events"
	}
	parts := make([]string, len(entries))
	for i, le := range entries {
		parts[i] = lipgloss.NewStyle().Foreground(le.Color).Render(glyph(le.Radius)) +
			fmt.Sprintf(" %g", le.Value)
	}
	return m.attr.Label() + ": " + strings.Join(parts, "  ")
}
