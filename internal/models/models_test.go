package models

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestEventValidate(t *testing.T) {
	now := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{
			name:    "valid event",
			event:   Event{ID: 1, Latitude: 35.7, Longitude: -117.5, Magnitude: 4.2, Depth: 8.1, OccurredAt: now, Place: "Ridgecrest"},
			wantErr: false,
		},
		{
			name:    "latitude out of range",
			event:   Event{Latitude: 91, Longitude: 0, OccurredAt: now},
			wantErr: true,
		},
		{
			name:    "longitude out of range",
			event:   Event{Latitude: 0, Longitude: -181, OccurredAt: now},
			wantErr: true,
		},
		{
			name:    "negative depth",
			event:   Event{Depth: -1, OccurredAt: now},
			wantErr: true,
		},
		{
			name:    "NaN magnitude",
			event:   Event{Magnitude: math.NaN(), OccurredAt: now},
			wantErr: true,
		},
		{
			name:    "missing timestamp",
			event:   Event{Magnitude: 3},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Event.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEventNormalize(t *testing.T) {
	e := Event{Depth: -0.4, OccurredAt: time.Date(2020, 1, 1, 0, 0, 0, 123456789, time.UTC)}
	e.Normalize()
	if e.Depth != 0 {
		t.Errorf("Expected depth clamped to 0, got %f", e.Depth)
	}
	if e.OccurredAt.Nanosecond() != 123000000 {
		t.Errorf("Expected millisecond precision, got %d ns", e.OccurredAt.Nanosecond())
	}
}

func TestMagnitudeBinContains(t *testing.T) {
	half := MagnitudeBin{Min: 3.5, Max: 4.0, InclusiveMax: false}
	closed := MagnitudeBin{Min: 3.5, Max: 4.0, InclusiveMax: true}

	tests := []struct {
		name string
		bin  MagnitudeBin
		mag  float64
		want bool
	}{
		{"lower bound included", half, 3.5, true},
		{"inside", half, 3.7, true},
		{"exclusive upper bound", half, 4.0, false},
		{"inclusive upper bound", closed, 4.0, true},
		{"below", half, 3.49, false},
		{"above", closed, 4.01, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bin.Contains(tt.mag); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.mag, got, tt.want)
			}
		})
	}
}

func TestRectContains(t *testing.T) {
	// Corners given bottom-right first.
	r := RectFromPoints(Point{X: 10, Y: 10}, Point{X: 0, Y: 0})
	if !r.Contains(Point{X: 5, Y: 5}) {
		t.Error("Expected center to be inside")
	}
	if !r.Contains(Point{X: 10, Y: 0}) {
		t.Error("Expected edge to be inside")
	}
	if r.Contains(Point{X: 10.1, Y: 5}) {
		t.Error("Expected point past the edge to be outside")
	}
}

func TestParseTimeRange(t *testing.T) {
	if _, err := ParseTimeRange("2020-01-01", "2020-02-01", time.UTC); err != nil {
		t.Fatalf("ParseTimeRange failed: %v", err)
	}
	if _, err := ParseTimeRange("2020-02-01", "2020-01-01", time.UTC); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Expected ErrInvalidRange for reversed range, got %v", err)
	}
	if _, err := ParseTimeRange("2020-01-01", "2020-01-01", time.UTC); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Expected ErrInvalidRange for empty range, got %v", err)
	}
	if _, err := ParseTimeRange("not-a-date", "2020-01-01", time.UTC); err == nil {
		t.Error("Expected error for unparseable start")
	}
}

func TestTimeRangeIntersect(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC) }
	domain := TimeRange{Start: day(5), End: day(10)}

	got, ok := TimeRange{Start: day(3), End: day(6)}.Intersect(domain)
	if !ok || !got.Start.Equal(day(5)) || !got.End.Equal(day(6)) {
		t.Errorf("Expected [5,6], got %v ok=%v", got, ok)
	}
	if _, ok := (TimeRange{Start: day(1), End: day(3)}).Intersect(domain); ok {
		t.Error("Expected no overlap for a range entirely before the domain")
	}
	if _, ok := (TimeRange{Start: day(10), End: day(12)}).Intersect(domain); ok {
		t.Error("Expected no overlap for a range touching only the domain end")
	}
}

func TestTimeWindowDisplayRange(t *testing.T) {
	w := TimeWindow{
		Start: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	display := w.DisplayRange()
	if !display.End.Equal(time.Date(2020, 2, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected display end one day past the data end, got %v", display.End)
	}
	if w.Contains(display.End.Add(-time.Hour)) {
		t.Error("Display extension must not admit events into the data window")
	}
}

func TestClassifyNeighbor(t *testing.T) {
	t0 := time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		offset time.Duration
		want   Class
	}{
		{"23h after", 23 * time.Hour, ClassAfter},
		{"exactly 24h after", 24 * time.Hour, ClassAfter},
		{"24h and 1ms after", 24*time.Hour + time.Millisecond, ClassDefault},
		{"exactly 24h before", -24 * time.Hour, ClassBefore},
		{"25h before", -25 * time.Hour, ClassDefault},
		{"same instant", 0, ClassAfter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyNeighbor(t0, t0.Add(tt.offset)); got != tt.want {
				t.Errorf("ClassifyNeighbor(%v) = %v, want %v", tt.offset, got, tt.want)
			}
		})
	}
}

func TestBinSelectionIdentity(t *testing.T) {
	a := BinSelection([]EventID{3, 1, 2, 3}, BinSourceHistogram)
	b := BinSelection([]EventID{1, 2, 3}, BinSourceHistogram)
	if !a.SameMembers(b) {
		t.Errorf("Expected equal member sets, got %v and %v", a.Members, b.Members)
	}
	if !a.Has(2) || a.Has(4) {
		t.Error("Membership lookup failed")
	}
	if a.SameMembers(BinSelection([]EventID{1, 2, 3}, BinSourceSpatialBrush)) {
		t.Error("Expected selections from different gestures to differ")
	}

	h := Highlight{Selection: a}
	if h.Class(1) != ClassMember || h.Class(9) != ClassDimmed {
		t.Errorf("Unexpected bin classes: %v, %v", h.Class(1), h.Class(9))
	}
}

func TestParseModeAndAttribute(t *testing.T) {
	if m, err := ParseMode("Custom-Range"); err != nil || m != ModeCustomRange {
		t.Errorf("ParseMode = %v, %v", m, err)
	}
	if _, err := ParseMode("daily"); err == nil {
		t.Error("Expected error for unknown mode")
	}
	if a, err := ParseAttribute("magnitude"); err != nil || a != AttributeMagnitude {
		t.Errorf("ParseAttribute = %v, %v", a, err)
	}
	if AttributeMagnitude.Next() != AttributeDepth || AttributeDepth.Next() != AttributeMagnitude {
		t.Error("Attribute cycling is broken")
	}
}
