// Package tui is the interactive terminal dashboard. It owns the bubbletea
// event loop and translates key presses into coordinator operations; the
// coordinator re-renders the map, histogram and timeline panes, and View
// composes their output.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rewired-gh/quakelens/internal/coordinator"
	"github.com/rewired-gh/quakelens/internal/logger"
	"github.com/rewired-gh/quakelens/internal/models"
	"github.com/rewired-gh/quakelens/internal/views"
)

// Pane identifies the focused view.
type Pane int

const (
	PaneMap Pane = iota
	PaneHistogram
	PaneTimeline
	paneCount
)

func (p Pane) String() string {
	switch p {
	case PaneHistogram:
		return "histogram"
	case PaneTimeline:
		return "timeline"
	}
	return "map"
}

// Panes are the concrete view adapters shown by the dashboard.
type Panes struct {
	Map       *views.MapView
	Histogram *views.HistogramView
	Timeline  *views.TimelineView
}

// Views returns the panes as coordinator collaborators.
func (p Panes) Views() coordinator.Views {
	return coordinator.Views{Map: p.Map, Histogram: p.Histogram, Timeline: p.Timeline}
}

// Notifier shares a window digest.
type Notifier interface {
	SendDigest(ctx context.Context, s models.WindowSummary) error
}

// Loader builds the coordinator, typically after ingesting the catalog.
type Loader func(ctx context.Context) (*coordinator.Coordinator, error)

// Options configures the dashboard.
type Options struct {
	Title    string
	Location *time.Location
	// Range is used when cycling into the custom and static range modes.
	// Those modes are skipped without it.
	Range    *models.TimeRange
	AutoPlay bool
	TopN     int
	Notifier Notifier
	// PickRadius is how far from the map cursor, in pixels, a point click
	// still hits an event.
	PickRadius   float64
	ShareTimeout time.Duration
}

type loadedMsg struct {
	c   *coordinator.Coordinator
	err error
}

type playbackTickMsg struct {
	generation uint64
}

type shareDoneMsg struct {
	label string
	err   error
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctx   context.Context
	load  Loader
	panes Panes
	opts  Options

	c       *coordinator.Coordinator
	loading bool
	err     error
	status  string
	focus   Pane

	spinner  spinner.Model
	help     help.Model
	showHelp bool
	width    int
}

// New creates the dashboard model. The loader runs when the program starts.
func New(ctx context.Context, panes Panes, load Loader, opts Options) Model {
	if opts.Title == "" {
		opts.Title = "quakelens"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	if opts.PickRadius <= 0 {
		opts.PickRadius = views.CellWidth * 1.5
	}
	if opts.ShareTimeout <= 0 {
		opts.ShareTimeout = 30 * time.Second
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#fb6a4a"))

	return Model{
		ctx:     ctx,
		load:    load,
		panes:   panes,
		opts:    opts,
		loading: true,
		spinner: s,
		help:    help.New(),
	}
}

// Coordinator returns the loaded coordinator, or nil while loading.
func (m Model) Coordinator() *coordinator.Coordinator {
	return m.c
}

// Status returns the last status line.
func (m Model) Status() string {
	return m.status
}

// Focus returns the focused pane.
func (m Model) Focus() Pane {
	return m.focus
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		c, err := m.load(m.ctx)
		return loadedMsg{c: c, err: err}
	}
}

func playbackTick(generation uint64, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return playbackTickMsg{generation: generation}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			logger.Error("Failed to load dashboard: %v", msg.err)
			return m, nil
		}
		m.c = msg.c
		m.status = fmt.Sprintf("Loaded %d %s windows", m.c.Len(), m.c.Mode())
		if m.opts.AutoPlay {
			return m, m.togglePlay()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case playbackTickMsg:
		if m.c == nil || !m.c.Tick(msg.generation) {
			return m, nil
		}
		m.endBrushes()
		return m, playbackTick(msg.generation, m.c.Playback().Speed)

	case shareDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Failed to share %s: %v", msg.label, msg.err)
			logger.Warn("Failed to share digest: %v", msg.err)
		} else {
			m.status = "Shared digest for " + msg.label
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}
		if m.c == nil {
			return m, nil
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.c
	m.status = ""

	switch {
	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, keys.NextWindow):
		m.endBrushes()
		if !c.Next() {
			m.status = "Already at the last window"
		}

	case key.Matches(msg, keys.PrevWindow):
		m.endBrushes()
		if !c.Prev() {
			m.status = "Already at the first window"
		}

	case key.Matches(msg, keys.Play):
		return m, m.togglePlay()

	case key.Matches(msg, keys.Loop):
		c.SetLoop(!c.Playback().Loop)

	case key.Matches(msg, keys.Faster):
		c.SetSpeed(c.Playback().Speed / 2)

	case key.Matches(msg, keys.Slower):
		c.SetSpeed(c.Playback().Speed * 2)

	case key.Matches(msg, keys.Mode):
		m.endBrushes()
		m.cycleMode()

	case key.Matches(msg, keys.Attribute):
		m.endBrushes()
		c.SetAttribute(c.Filters().Attribute.Next())

	case key.Matches(msg, keys.ToggleBin):
		m.endBrushes()
		i := int(msg.Runes[0] - '1')
		if err := c.ToggleBin(i); err != nil {
			m.status = fmt.Sprintf("No magnitude bin %d", i+1)
		}

	case key.Matches(msg, keys.ClearBins):
		m.endBrushes()
		c.ClearAll()

	case key.Matches(msg, keys.Focus):
		m.endBrushes()
		m.focus = (m.focus + 1) % paneCount

	case key.Matches(msg, keys.Interaction):
		m.endBrushes()
		next := coordinator.InteractBrush
		if c.Interaction() == coordinator.InteractBrush {
			next = coordinator.InteractPoint
		}
		c.SetInteractionMode(next)

	case key.Matches(msg, keys.ZoomIn):
		m.zoomMap(1)
	case key.Matches(msg, keys.ZoomOut):
		m.zoomMap(-1)
	case key.Matches(msg, keys.PanUp):
		m.panMap(0, -1)
	case key.Matches(msg, keys.PanDown):
		m.panMap(0, 1)
	case key.Matches(msg, keys.PanLeft):
		m.panMap(-1, 0)
	case key.Matches(msg, keys.PanRight):
		m.panMap(1, 0)

	case key.Matches(msg, keys.Up):
		m.moveCursor(0, -1)
	case key.Matches(msg, keys.Down):
		m.moveCursor(0, 1)
	case key.Matches(msg, keys.Left):
		m.moveCursor(-1, 0)
	case key.Matches(msg, keys.Right):
		m.moveCursor(1, 0)

	case key.Matches(msg, keys.Select):
		m.selectAtCursor()

	case key.Matches(msg, keys.Clear):
		m.endBrushes()
		c.ClearSelection()

	case key.Matches(msg, keys.Share):
		return m, m.share()
	}
	return m, nil
}

func (m *Model) togglePlay() tea.Cmd {
	if m.c.Playback().Playing {
		m.c.Pause()
		return nil
	}
	gen, ok := m.c.Play()
	if !ok {
		m.status = "Nothing to play in this mode"
		return nil
	}
	return playbackTick(gen, m.c.Playback().Speed)
}

// cycleMode switches to the next partition mode, skipping range modes
// when no range is configured.
func (m *Model) cycleMode() {
	current := m.c.Mode()
	start := 0
	for i, mode := range models.Modes {
		if mode == current {
			start = i
		}
	}
	for step := 1; step < len(models.Modes); step++ {
		mode := models.Modes[(start+step)%len(models.Modes)]
		var r *models.TimeRange
		if mode.NeedsRange() {
			if m.opts.Range == nil {
				continue
			}
			r = m.opts.Range
		}
		if err := m.c.Repartition(mode, r); err != nil {
			m.status = fmt.Sprintf("Failed to switch to %s: %v", mode, err)
			return
		}
		m.status = fmt.Sprintf("%s: %d windows", mode, m.c.Len())
		return
	}
}

func (m *Model) endBrushes() {
	if m.panes.Map != nil {
		m.panes.Map.EndBrush()
	}
	if m.panes.Timeline != nil {
		m.panes.Timeline.EndBrush()
	}
}

func (m *Model) moveCursor(dx, dy int) {
	switch m.focus {
	case PaneMap:
		if m.panes.Map == nil {
			return
		}
		m.panes.Map.MoveCursor(dx, dy)
		if m.panes.Map.Brushing() {
			m.c.SpatialBrush(m.panes.Map.BrushRect())
		}
	case PaneHistogram:
		if m.panes.Histogram == nil {
			return
		}
		m.panes.Histogram.MoveCursor(dx + dy)
	case PaneTimeline:
		if m.panes.Timeline == nil {
			return
		}
		// A held timeline brush is drawn from the anchor; it filters on release.
		m.panes.Timeline.MoveCursor(dx)
	}
}

func (m *Model) zoomMap(d float64) {
	if m.panes.Map == nil {
		return
	}
	if !m.panes.Map.Zoom(d) {
		m.status = fmt.Sprintf("Zoom limit %.0f", m.panes.Map.ZoomLevel())
		return
	}
	m.reproject()
}

func (m *Model) panMap(dc, dr int) {
	if m.panes.Map == nil {
		return
	}
	m.panes.Map.Pan(dc, dr)
	m.reproject()
}

// reproject re-runs the spatial brush after the map projection changed.
// The rectangle stays put on screen; its members follow the new positions.
func (m *Model) reproject() {
	mv := m.panes.Map
	if mv.Brushing() {
		m.c.SpatialBrush(mv.BrushRect())
		return
	}
	if r := m.c.Filters().SpatialBrush; r != nil {
		rect := *r
		m.c.SpatialBrush(&rect)
	}
}

// selectAtCursor is the keyboard equivalent of a click in the focused pane.
// On the map in brush mode and on the timeline, the first press anchors a
// brush and the second releases it. The map brush selects live; the timeline
// brush is applied once, on release.
func (m *Model) selectAtCursor() {
	switch m.focus {
	case PaneMap:
		mv := m.panes.Map
		if mv == nil {
			return
		}
		if m.c.Interaction() == coordinator.InteractBrush {
			if mv.Brushing() {
				mv.EndBrush()
				return
			}
			mv.StartBrush()
			m.c.SpatialBrush(mv.BrushRect())
			return
		}
		id, ok := mv.Nearest(mv.CursorPoint(), m.opts.PickRadius)
		if !ok {
			m.status = "No earthquake under the cursor"
			return
		}
		if err := m.c.PointClick(id); err != nil {
			m.status = err.Error()
		}

	case PaneHistogram:
		if m.panes.Histogram == nil {
			return
		}
		m.c.BinClick(m.panes.Histogram.BinMembers(m.panes.Histogram.Cursor()))

	case PaneTimeline:
		tl := m.panes.Timeline
		if tl == nil {
			return
		}
		if !tl.Brushing() {
			tl.StartBrush()
			return
		}
		r := tl.BrushRange()
		tl.EndBrush()
		if r == nil {
			return
		}
		if err := m.c.TemporalBrush(r); err != nil {
			m.status = err.Error()
		}
	}
}

func (m *Model) share() tea.Cmd {
	if m.opts.Notifier == nil {
		m.status = "Sharing is not configured"
		return nil
	}
	s, ok := m.c.Summary(m.opts.TopN)
	if !ok {
		m.status = "No window to share"
		return nil
	}
	m.status = "Sharing digest..."

	n, parent, timeout := m.opts.Notifier, m.ctx, m.opts.ShareTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		return shareDoneMsg{label: s.Label, err: n.SendDigest(ctx, s)}
	}
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#fb6a4a"))
	captionStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8a8a8a"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef3b2c")).Bold(true)
	binOnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#fb6a4a")).Bold(true)
	binOffStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5f5f5f")).Strikethrough(true)
	paneStyle     = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("#3a3a3a")).Padding(0, 1)
	paneFocused   = paneStyle.BorderForeground(lipgloss.Color("#ffd700"))
	paneTitleText = lipgloss.NewStyle().Foreground(lipgloss.Color("#8a8a8a")).Italic(true)
)

func (m Model) pane(p Pane, title, body string) string {
	style := paneStyle
	if m.focus == p {
		style = paneFocused
	}
	return style.Render(paneTitleText.Render(title) + "\n" + body)
}

func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render("Failed to load earthquakes: "+m.err.Error()) + "\n" + mutedStyle.Render("press q to quit") + "\n"
	}
	if m.loading || m.c == nil {
		return m.spinner.View() + " Loading earthquake catalog...\n"
	}

	c := m.c
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.opts.Title) + "  " + mutedStyle.Render(m.stateLine()) + "\n")
	b.WriteString(captionStyle.Render(views.Caption(c.Mode(), c.Current(), m.opts.Location)) + "\n")
	b.WriteString(m.binsLine() + "\n")

	if m.panes.Map != nil {
		b.WriteString(m.pane(PaneMap, "map ("+c.Interaction().String()+")", m.panes.Map.View(m.focus == PaneMap)))
		b.WriteString("\n" + m.panes.Map.LegendView() + "\n")
	}

	var row []string
	if m.panes.Histogram != nil {
		row = append(row, m.pane(PaneHistogram, "histogram", m.panes.Histogram.View(m.focus == PaneHistogram)))
	}
	if m.panes.Timeline != nil {
		row = append(row, m.pane(PaneTimeline, "timeline", m.panes.Timeline.View(m.focus == PaneTimeline)))
	}
	if len(row) > 0 {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, row...) + "\n")
	}

	if line := m.selectionLine(); line != "" {
		b.WriteString(line + "\n")
	}
	if m.status != "" {
		b.WriteString(mutedStyle.Render(m.status) + "\n")
	}

	if m.showHelp {
		b.WriteString(m.help.FullHelpView(keys.FullHelp()))
	} else {
		b.WriteString(m.help.ShortHelpView(keys.ShortHelp()))
	}
	return b.String()
}

func (m Model) stateLine() string {
	c := m.c
	pb := c.Playback()
	play := "paused"
	if pb.Playing {
		play = "playing"
	}
	if pb.Loop {
		play += ", loop"
	}
	return fmt.Sprintf("%s | %s | %s | %s every %v",
		c.Mode(), views.Position(c.Index(), c.Len()), c.Filters().Attribute.Label(), play, pb.Speed)
}

func (m Model) binsLine() string {
	bins := m.c.Filters().MagnitudeBins
	parts := make([]string, len(bins))
	for i, bin := range bins {
		style := binOffStyle
		if bin.Enabled {
			style = binOnStyle
		}
		parts[i] = fmt.Sprintf("%d:", i+1) + style.Render(bin.Label())
	}
	return "Magnitude " + strings.Join(parts, " ")
}

func (m Model) selectionLine() string {
	sel := m.c.Selection()
	switch sel.Kind {
	case models.SelectionPoint:
		w := m.c.Current()
		if w == nil {
			return ""
		}
		e, ok := w.Find(sel.Point)
		if !ok {
			return ""
		}
		place := e.Place
		if place == "" {
			place = fmt.Sprintf("%.2f, %.2f", e.Latitude, e.Longitude)
		}
		return fmt.Sprintf("Selected M%.1f at %s, %s (depth %.1f km)",
			e.Magnitude, e.OccurredAt.In(m.opts.Location).Format("2006-01-02 15:04"), place, e.Depth)
	case models.SelectionBin:
		return fmt.Sprintf("%d earthquakes selected", len(sel.Members))
	}
	if r := m.c.TimelineBrush(); r != nil {
		return fmt.Sprintf("Brushed %s to %s",
			r.Start.In(m.opts.Location).Format("Jan 2 15:04"), r.End.In(m.opts.Location).Format("Jan 2 15:04"))
	}
	return ""
}
