package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRange is returned when a range does not satisfy start < end.
var ErrInvalidRange = errors.New("invalid time range: start must be before end")

// Mode is the partitioning mode used by the time windower.
type Mode string

const (
	ModeWeekly      Mode = "weekly"
	ModeMonthly     Mode = "monthly"
	ModeYearly      Mode = "yearly"
	ModeCustomRange Mode = "custom-range"
	ModeStaticRange Mode = "static-range"
)

// Modes lists every partitioning mode in UI order.
var Modes = []Mode{ModeWeekly, ModeMonthly, ModeYearly, ModeCustomRange, ModeStaticRange}

// ParseMode converts a config or UI string into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, mode := range Modes {
		if m == mode {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown partition mode %q", s)
}

// NeedsRange reports whether the mode partitions a caller-supplied range.
func (m Mode) NeedsRange() bool {
	return m == ModeCustomRange || m == ModeStaticRange
}

// StepLabel names one navigation step of the mode ("Week", "Month", ...).
func (m Mode) StepLabel() string {
	switch m {
	case ModeMonthly:
		return "Month"
	case ModeYearly:
		return "Year"
	case ModeStaticRange:
		return "Range"
	}
	return "Week"
}

// TimeRange is a pair of instants. Whether End is inclusive depends on the
// caller; Contains treats it as half-open.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate checks start < end.
func (r TimeRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: both ends must be set", ErrInvalidRange)
	}
	if !r.Start.Before(r.End) {
		return ErrInvalidRange
	}
	return nil
}

// Contains reports whether t lies in [Start, End).
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// ContainsInclusive reports whether t lies in [Start, End].
func (r TimeRange) ContainsInclusive(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Intersect clamps r to other. ok is false when they do not overlap or
// only touch at one instant.
func (r TimeRange) Intersect(other TimeRange) (TimeRange, bool) {
	start := r.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := r.End
	if other.End.Before(end) {
		end = other.End
	}
	if !end.After(start) {
		return TimeRange{}, false
	}
	return TimeRange{Start: start, End: end}, true
}

// ParseTimeRange parses a pair of dates (YYYY-MM-DD or RFC3339) in loc.
// It rejects unparseable input and start >= end, so the windower never sees
// an invalid range.
func ParseTimeRange(start, end string, loc *time.Location) (TimeRange, error) {
	s, err := parseDate(start, loc)
	if err != nil {
		return TimeRange{}, fmt.Errorf("invalid start date: %w", err)
	}
	e, err := parseDate(end, loc)
	if err != nil {
		return TimeRange{}, fmt.Errorf("invalid end date: %w", err)
	}
	r := TimeRange{Start: s, End: e}
	if err := r.Validate(); err != nil {
		return TimeRange{}, err
	}
	return r, nil
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// TimeWindow is one navigable slice of the dataset.
type TimeWindow struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	// Inclusive marks a window whose End instant belongs to it (static range).
	Inclusive bool    `json:"inclusive"`
	Events    []Event `json:"events"`
}

// Range returns the data range of the window.
func (w *TimeWindow) Range() TimeRange {
	return TimeRange{Start: w.Start, End: w.End}
}

// Contains reports whether t belongs to the window's data range.
func (w *TimeWindow) Contains(t time.Time) bool {
	if w.Inclusive {
		return w.Range().ContainsInclusive(t)
	}
	return w.Range().Contains(t)
}

// DisplayRange extends End by one day for axis purposes only, so the timeline
// does not clip the last day. Membership always uses Range.
func (w *TimeWindow) DisplayRange() TimeRange {
	return TimeRange{Start: w.Start, End: w.End.AddDate(0, 0, 1)}
}

// Has reports whether the window contains the event with the given id.
func (w *TimeWindow) Has(id EventID) bool {
	_, ok := w.Find(id)
	return ok
}

// Find returns the window's event with the given id.
func (w *TimeWindow) Find(id EventID) (Event, bool) {
	for _, e := range w.Events {
		if e.ID == id {
			return e, true
		}
	}
	return Event{}, false
}

// WindowSummary is a compact digest of the current window, used for the
// status line, headless logging and shared notifications.
type WindowSummary struct {
	ID           string    `json:"id"`
	Mode         Mode      `json:"mode"`
	Label        string    `json:"label"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Index        int       `json:"index"`
	Count        int       `json:"count"`
	Total        int       `json:"total"`
	Visible      int       `json:"visible"`
	MaxMagnitude float64   `json:"max_magnitude"`
	Strongest    []Event   `json:"strongest"`
}
