package views

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rewired-gh/quakelens/internal/models"
)

const (
	// MagnitudeBinCount is the approximate number of histogram bins for magnitude.
	MagnitudeBinCount = 10
	// DepthBinCount is the approximate number of histogram bins for depth.
	DepthBinCount = 30
	// DepthQuantile caps the depth axis so a few very deep events do not
	// squash the rest.
	DepthQuantile = 0.99
)

// HistogramBin is one bar. Bins are [X0, X1) except the last, which
// includes X1.
type HistogramBin struct {
	X0, X1  float64
	Members []models.EventID
}

// Len returns the bar height.
func (b HistogramBin) Len() int {
	return len(b.Members)
}

// Thresholds returns the histogram domain and the inner bin boundaries for
// attr over values.
func Thresholds(values []float64, attr models.Attribute) (lo, hi float64, inner []float64, ok bool) {
	lo, hi, ok = Extent(values)
	if !ok {
		return 0, 0, nil, false
	}

	count := MagnitudeBinCount
	if attr == models.AttributeDepth {
		cutoff, _ := Quantile(values, DepthQuantile)
		lo, hi = 0, cutoff
		count = DepthBinCount
	}
	lo, hi = Nice(lo, hi, MagnitudeBinCount)

	for _, t := range NiceTicks(lo, hi, count) {
		if t > lo && t < hi {
			inner = append(inner, t)
		}
	}
	return lo, hi, inner, true
}

// Bin groups events into histogram bins over attr. Events outside the
// domain (depths above the cap) fall in no bin.
func Bin(events []models.Event, attr models.Attribute) []HistogramBin {
	values := make([]float64, len(events))
	for i, e := range events {
		values[i] = attr.Value(e)
	}
	lo, hi, inner, ok := Thresholds(values, attr)
	if !ok {
		return []HistogramBin{}
	}

	edges := append(append([]float64{lo}, inner...), hi)
	bins := make([]HistogramBin, len(edges)-1)
	for i := range bins {
		bins[i] = HistogramBin{X0: edges[i], X1: edges[i+1], Members: []models.EventID{}}
	}

	for i, v := range values {
		if v < lo || v > hi || math.IsNaN(v) {
			continue
		}
		// The last edge is inclusive.
		j := len(bins) - 1
		for k, b := range bins {
			if v < b.X1 {
				j = k
				break
			}
		}
		bins[j].Members = append(bins[j].Members, events[i].ID)
	}
	return bins
}

// HistogramView renders the distribution of the selected attribute.
type HistogramView struct {
	bins   []HistogramBin
	hl     models.Highlight
	attr   models.Attribute
	width  int
	cursor int
}

// NewHistogramView creates a histogram whose bars are at most width cells.
func NewHistogramView(width int) *HistogramView {
	if width < 10 {
		width = 10
	}
	return &HistogramView{width: width, attr: models.AttributeMagnitude}
}

// Render recomputes the bins from the visible set.
func (h *HistogramView) Render(visible []models.Event, hl models.Highlight, attr models.Attribute) {
	h.bins = Bin(visible, attr)
	h.hl = hl
	h.attr = attr
	if h.cursor >= len(h.bins) {
		h.cursor = max(0, len(h.bins)-1)
	}
}

// Bins returns the current bins.
func (h *HistogramView) Bins() []HistogramBin {
	return h.bins
}

// BinMembers returns the event ids of bin i, or nil when i is out of range.
func (h *HistogramView) BinMembers(i int) []models.EventID {
	if i < 0 || i >= len(h.bins) {
		return nil
	}
	return append([]models.EventID(nil), h.bins[i].Members...)
}

// Cursor returns the focused bin.
func (h *HistogramView) Cursor() int {
	return h.cursor
}

// MoveCursor moves the focused bin by d.
func (h *HistogramView) MoveCursor(d int) {
	if len(h.bins) == 0 {
		h.cursor = 0
		return
	}
	h.cursor = max(0, min(len(h.bins)-1, h.cursor+d))
}

// binActive reports whether bin b is the current bin selection or holds the
// selected point.
func (h *HistogramView) binActive(b HistogramBin) bool {
	switch h.hl.Selection.Kind {
	case models.SelectionBin:
		return models.BinSelection(b.Members, models.BinSourceHistogram).SameMembers(h.hl.Selection)
	case models.SelectionPoint:
		for _, id := range b.Members {
			if id == h.hl.Selection.Point {
				return true
			}
		}
	}
	return false
}

var (
	barStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#fb6a4a"))
	barActiveStyle = lipgloss.NewStyle().Foreground(ColorSelected).Bold(true)
	barDimStyle    = lipgloss.NewStyle().Foreground(ColorDimmed)
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8a8a8a"))
)

func formatEdge(v float64) string {
	return fmt.Sprintf("%6.4g", v)
}

// View draws one horizontal bar per bin. focused marks the cursor bin.
func (h *HistogramView) View(focused bool) string {
	if len(h.bins) == 0 {
		return labelStyle.Render(h.attr.Label() + ": no events")
	}

	peak := 0
	for _, b := range h.bins {
		peak = max(peak, b.Len())
	}
	scale := NewLinear(0, float64(peak), 0, float64(h.width))

	var b strings.Builder
	b.WriteString(labelStyle.Render(h.attr.Label()))
	for i, bin := range h.bins {
		closing := ")"
		if i == len(h.bins)-1 {
			closing = "]"
		}
		label := fmt.Sprintf("[%s,%s%s", formatEdge(bin.X0), formatEdge(bin.X1), closing)

		style := barStyle
		switch {
		case h.binActive(bin):
			style = barActiveStyle
		case h.hl.Selection.Kind == models.SelectionBin:
			style = barDimStyle
		}
		bar := ""
		if peak > 0 {
			bar = strings.Repeat("█", int(math.Round(scale.Scale(float64(bin.Len())))))
		}

		marker := " "
		if focused && i == h.cursor {
			marker = "▶"
		}
		fmt.Fprintf(&b, "\n%s%s %s %d", marker, labelStyle.Render(label), style.Render(bar), bin.Len())
	}
	return b.String()
}
