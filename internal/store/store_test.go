package store

import (
	"testing"
	"time"

	"github.com/rewired-gh/quakelens/internal/models"
)

func at(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func TestStore_YearsAndOrdering(t *testing.T) {
	events := []models.Event{
		{ID: 0, Magnitude: 3.1, OccurredAt: at(2021, 3, 1, 0)},
		{ID: 1, Magnitude: 2.0, OccurredAt: at(2020, 1, 10, 0)},
		{ID: 2, Magnitude: 4.5, OccurredAt: at(2020, 1, 1, 5)},
	}

	s, err := New(events, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	years := s.Years()
	if len(years) != 2 || years[0] != 2020 || years[1] != 2021 {
		t.Errorf("Expected years [2020 2021], got %v", years)
	}

	y2020 := s.Year(2020)
	if len(y2020) != 2 {
		t.Fatalf("Expected 2 events in 2020, got %d", len(y2020))
	}
	if y2020[0].ID != 2 || y2020[1].ID != 1 {
		t.Errorf("Expected 2020 events ordered by time, got IDs %d, %d", y2020[0].ID, y2020[1].ID)
	}

	if e, ok := s.Event(0); !ok || e.Magnitude != 3.1 {
		t.Errorf("Event(0) = %+v, %v", e, ok)
	}
	if _, ok := s.Event(42); ok {
		t.Error("Expected unknown ID lookup to fail")
	}
}

func TestStore_AccessorsDoNotAlias(t *testing.T) {
	s, err := New([]models.Event{{ID: 0, Magnitude: 1, OccurredAt: at(2020, 1, 1, 0)}}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got := s.Events()
	got[0].Magnitude = 9
	if e, _ := s.Event(0); e.Magnitude != 1 {
		t.Errorf("Store was mutated through Events(): magnitude %f", e.Magnitude)
	}
}

func TestStore_BetweenInclusive(t *testing.T) {
	events := []models.Event{
		{ID: 0, OccurredAt: at(2020, 1, 1, 0)},
		{ID: 1, OccurredAt: at(2020, 1, 2, 0)},
		{ID: 2, OccurredAt: at(2020, 1, 3, 0)},
	}
	s, err := New(events, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got := s.Between(models.TimeRange{Start: at(2020, 1, 1, 0), End: at(2020, 1, 2, 0)})
	if len(got) != 2 {
		t.Errorf("Expected both endpoints included, got %d events", len(got))
	}

	if got := s.Between(models.TimeRange{Start: at(2019, 1, 1, 0), End: at(2019, 2, 1, 0)}); len(got) != 0 {
		t.Errorf("Expected no events, got %d", len(got))
	}
}

func TestStore_RejectsDuplicateIDs(t *testing.T) {
	events := []models.Event{
		{ID: 7, OccurredAt: at(2020, 1, 1, 0)},
		{ID: 7, OccurredAt: at(2020, 1, 2, 0)},
	}
	if _, err := New(events, nil); err == nil {
		t.Error("Expected error for duplicate IDs")
	}
}

func TestStore_YearUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 2020-12-31 20:00 UTC is already 2021 in JST.
	s, err := New([]models.Event{{ID: 0, OccurredAt: at(2020, 12, 31, 20)}}, tokyo)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if years := s.Years(); len(years) != 1 || years[0] != 2021 {
		t.Errorf("Expected year 2021 in JST, got %v", years)
	}
}
