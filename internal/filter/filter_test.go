package filter

import (
	"testing"
	"time"

	"github.com/rewired-gh/quakelens/internal/models"
)

// identityProjector uses longitude as x and latitude as y.
type identityProjector struct{}

func (identityProjector) Project(lat, lon float64) models.Point {
	return models.Point{X: lon, Y: lat}
}

func sampleWindow() *models.TimeWindow {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.TimeWindow{
		Start: base,
		End:   base.AddDate(0, 0, 7),
		Events: []models.Event{
			{ID: 0, Magnitude: 3.5, Latitude: 1, Longitude: 1, OccurredAt: base},
			{ID: 1, Magnitude: 4.0, Latitude: 2, Longitude: 2, OccurredAt: base.Add(24 * time.Hour)},
			{ID: 2, Magnitude: 2.1, Latitude: 8, Longitude: 8, OccurredAt: base.Add(48 * time.Hour)},
			{ID: 3, Magnitude: 5.6, Latitude: 9, Longitude: 9, OccurredAt: base.Add(72 * time.Hour)},
		},
	}
}

func ids(events []models.Event) []models.EventID {
	return models.IDs(events)
}

func equalIDs(a, b []models.EventID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBins_EmptySetIsIdentity(t *testing.T) {
	w := sampleWindow()

	got := Bins(w.Events, nil)
	if !equalIDs(ids(got), ids(w.Events)) {
		t.Errorf("Expected unchanged input, got %v", ids(got))
	}

	// Bins that exist but are all toggled off are also no restriction.
	disabled := []models.MagnitudeBin{{Min: 0, Max: 1, Enabled: false}}
	got = Bins(w.Events, disabled)
	if !equalIDs(ids(got), ids(w.Events)) {
		t.Errorf("Expected unchanged input with disabled bins, got %v", ids(got))
	}
}

func TestBins_ExclusiveUpperBound(t *testing.T) {
	w := sampleWindow()
	bins := []models.MagnitudeBin{{Min: 3.5, Max: 4.0, InclusiveMax: false, Enabled: true}}

	got := ids(Bins(w.Events, bins))
	if !equalIDs(got, []models.EventID{0}) {
		t.Errorf("Expected only the 3.5 event, got %v", got)
	}
}

func TestBins_Union(t *testing.T) {
	w := sampleWindow()
	bins := []models.MagnitudeBin{
		{Min: 2.0, Max: 2.5, Enabled: true},
		{Min: 5.5, Max: 10, InclusiveMax: true, Enabled: true},
		{Min: 3.0, Max: 4.5, Enabled: false},
	}

	got := ids(Bins(w.Events, bins))
	if !equalIDs(got, []models.EventID{2, 3}) {
		t.Errorf("Expected union of enabled bins [2 3], got %v", got)
	}
}

func TestTemporal(t *testing.T) {
	w := sampleWindow()
	r := &models.TimeRange{Start: w.Start.Add(24 * time.Hour), End: w.Start.Add(72 * time.Hour)}

	got := ids(Temporal(w.Events, r))
	if !equalIDs(got, []models.EventID{1, 2}) {
		t.Errorf("Expected half-open [1 2], got %v", got)
	}
	if len(Temporal(w.Events, nil)) != len(w.Events) {
		t.Error("Expected nil range to pass everything")
	}
}

func TestSpatial(t *testing.T) {
	w := sampleWindow()
	rect := &models.Rect{X0: 0, Y0: 0, X1: 5, Y1: 5}

	got := ids(Spatial(w.Events, rect, identityProjector{}))
	if !equalIDs(got, []models.EventID{0, 1}) {
		t.Errorf("Expected [0 1], got %v", got)
	}
}

func TestApply_OrderIndependent(t *testing.T) {
	w := sampleWindow()
	state := models.FilterState{
		MagnitudeBins: []models.MagnitudeBin{{Min: 3.0, Max: 6.0, Enabled: true}},
		TemporalBrush: &models.TimeRange{Start: w.Start, End: w.Start.Add(60 * time.Hour)},
		SpatialBrush:  &models.Rect{X0: 0, Y0: 0, X1: 10, Y1: 10},
	}
	p := identityProjector{}

	chain := ids(Apply(w, state, p))
	reversed := ids(Bins(Temporal(Spatial(w.Events, state.SpatialBrush, p), state.TemporalBrush), state.MagnitudeBins))
	if !equalIDs(chain, reversed) {
		t.Errorf("Filter order changed the result: %v vs %v", chain, reversed)
	}
	if !equalIDs(chain, []models.EventID{0, 1}) {
		t.Errorf("Expected [0 1], got %v", chain)
	}

	again := ids(Apply(&models.TimeWindow{Events: Apply(w, state, p)}, state, p))
	if !equalIDs(chain, again) {
		t.Errorf("Apply is not idempotent: %v vs %v", chain, again)
	}
}

func TestRoute(t *testing.T) {
	w := sampleWindow()
	state := models.FilterState{
		MagnitudeBins: []models.MagnitudeBin{{Min: 3.0, Max: 6.0, Enabled: true}},
		SpatialBrush:  &models.Rect{X0: 0, Y0: 0, X1: 1.5, Y1: 1.5},
	}

	r := Route(w, state, identityProjector{})
	if len(r.Timeline) != 4 {
		t.Errorf("Timeline must show the full census, got %d", len(r.Timeline))
	}
	if !equalIDs(ids(r.Map), []models.EventID{0, 1, 3}) {
		t.Errorf("Map should be bin-filtered only, got %v", ids(r.Map))
	}
	if !equalIDs(ids(r.Histogram), []models.EventID{0}) {
		t.Errorf("Histogram should also apply the spatial brush, got %v", ids(r.Histogram))
	}

	empty := Route(nil, state, nil)
	if empty.Map == nil || len(empty.Timeline) != 0 {
		t.Error("Expected empty non-nil sets without a window")
	}
}
