package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rewired-gh/quakelens/internal/models"
)

type fakeSource struct {
	years  []int
	data   map[int][]models.Event
	failOn int
}

func (f *fakeSource) Years() []int { return f.years }

func (f *fakeSource) LoadYear(ctx context.Context, year int) ([]models.Event, error) {
	if year == f.failOn {
		return nil, errors.New("disk on fire")
	}
	events, ok := f.data[year]
	if !ok {
		return nil, ErrNoSourceForYear
	}
	return append([]models.Event(nil), events...), nil
}

func ev(year int, month time.Month, day int, mag float64) models.Event {
	return models.Event{Magnitude: mag, OccurredAt: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func TestLoad_AssignsIDsAfterJoin(t *testing.T) {
	src := &fakeSource{
		years: []int{2020, 2021},
		data: map[int][]models.Event{
			2021: {ev(2021, 3, 1, 1), ev(2021, 1, 1, 2)},
			2020: {ev(2020, 6, 1, 3), ev(2020, 6, 1, 4), ev(2020, 2, 1, 5)},
		},
	}

	events, err := Load(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("Expected 5 events, got %d", len(events))
	}

	wantMags := []float64{5, 3, 4, 2, 1}
	for i, e := range events {
		if e.ID != models.EventID(i) {
			t.Errorf("event %d has id %d", i, e.ID)
		}
		if e.Magnitude != wantMags[i] {
			t.Errorf("event %d: magnitude %v, want %v", i, e.Magnitude, wantMags[i])
		}
	}
}

func TestLoad_AllOrNone(t *testing.T) {
	src := &fakeSource{
		years:  []int{2020, 2021, 2022},
		data:   map[int][]models.Event{2020: {ev(2020, 1, 1, 1)}, 2022: {ev(2022, 1, 1, 1)}},
		failOn: 2021,
	}

	events, err := Load(context.Background(), src, nil)
	if err == nil {
		t.Fatal("Expected the load to fail")
	}
	if events != nil {
		t.Errorf("Expected no partial dataset, got %d events", len(events))
	}
	if !strings.Contains(err.Error(), "2021") {
		t.Errorf("Expected the failing year in the error, got %v", err)
	}
}

func TestLoad_UnknownYear(t *testing.T) {
	src := &fakeSource{data: map[int][]models.Event{}}

	_, err := Load(context.Background(), src, []int{1999})
	if !errors.Is(err, ErrNoSourceForYear) {
		t.Errorf("Expected ErrNoSourceForYear, got %v", err)
	}
}

func TestLoad_NormalizesAndValidates(t *testing.T) {
	neg := ev(2020, 1, 1, 3)
	neg.Depth = -2.5
	neg.OccurredAt = neg.OccurredAt.Add(1500 * time.Microsecond)

	events, err := Load(context.Background(), &fakeSource{data: map[int][]models.Event{2020: {neg}}}, []int{2020})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if events[0].Depth != 0 {
		t.Errorf("Expected depth clamped to 0, got %v", events[0].Depth)
	}
	if events[0].OccurredAt.Nanosecond() != int(time.Millisecond) {
		t.Errorf("Expected millisecond precision, got %v", events[0].OccurredAt)
	}

	bad := ev(2020, 1, 1, 3)
	bad.Latitude = 123
	if _, err := Load(context.Background(), &fakeSource{data: map[int][]models.Event{2020: {bad}}}, []int{2020}); err == nil {
		t.Error("Expected an out-of-range latitude to fail the load")
	}
}

func TestLoad_CSVDirectory(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("20-21.csv", "time,latitude,longitude,depth,mag,place\n"+
		"2020-05-01T00:00:00.000Z,35.1,139.2,10,4.5,Tokyo\n")
	write("custom.csv", "mag,time,latitude,longitude,depth\n"+
		"2.0,2021-01-01T00:00:00Z,1,2,3\n")

	src, err := NewCSVSource(dir, []int{2020, 2021}, map[string]string{"2021": "custom.csv"})
	if err != nil {
		t.Fatalf("NewCSVSource failed: %v", err)
	}
	events, err := Load(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(events) != 2 || events[0].Place != "Tokyo" || events[1].Magnitude != 2.0 {
		t.Errorf("Unexpected events %+v", events)
	}

	missing, _ := NewCSVSource(dir, []int{2019}, nil)
	if _, err := Load(context.Background(), missing, nil); !errors.Is(err, ErrNoSourceForYear) {
		t.Errorf("Expected ErrNoSourceForYear for a missing file, got %v", err)
	}
}
