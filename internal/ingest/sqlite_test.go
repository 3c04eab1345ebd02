package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rewired-gh/quakelens/internal/models"
)

func openTestCatalog(t *testing.T) *SQLiteCatalog {
	t.Helper()
	c, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "catalog", "quakes.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSQLiteCatalog_ImportAndLoad(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)

	if len(c.Years()) != 0 {
		t.Fatalf("Expected an empty catalog, got %v", c.Years())
	}

	at := time.Date(2020, 3, 4, 5, 6, 7, 8_000_000, time.UTC)
	events := []models.Event{
		{Latitude: 35, Longitude: 139, Magnitude: 5.1, Depth: 30, OccurredAt: at, Place: "Honshu"},
		{Latitude: -33, Longitude: -70, Magnitude: 4.2, Depth: 0, OccurredAt: at, Place: ""},
	}
	if err := c.Import(ctx, 2020, "20-21.csv", events); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if got := c.Years(); len(got) != 1 || got[0] != 2020 {
		t.Errorf("Expected years [2020], got %v", got)
	}

	loaded, err := c.LoadYear(ctx, 2020)
	if err != nil {
		t.Fatalf("LoadYear failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(loaded))
	}
	// Identical timestamps keep import order.
	if loaded[0].Place != "Honshu" || loaded[1].Magnitude != 4.2 {
		t.Errorf("Unexpected order %+v", loaded)
	}
	if !loaded[0].OccurredAt.Equal(at) {
		t.Errorf("Expected %v, got %v", at, loaded[0].OccurredAt)
	}

	// Re-import replaces the year.
	if err := c.Import(ctx, 2020, "20-21.csv", events[:1]); err != nil {
		t.Fatalf("re-Import failed: %v", err)
	}
	loaded, _ = c.LoadYear(ctx, 2020)
	if len(loaded) != 1 {
		t.Errorf("Expected re-import to replace the year, got %d events", len(loaded))
	}
}

func TestSQLiteCatalog_EmptyAndUnknownYears(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)

	if err := c.Import(ctx, 2010, "10-11.csv", nil); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	events, err := c.LoadYear(ctx, 2010)
	if err != nil || len(events) != 0 {
		t.Errorf("Expected an imported empty year to load empty, got %v, %v", events, err)
	}

	if _, err := c.LoadYear(ctx, 2011); !errors.Is(err, ErrNoSourceForYear) {
		t.Errorf("Expected ErrNoSourceForYear, got %v", err)
	}
}

func TestSQLiteCatalog_AsSource(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)
	for _, year := range []int{2021, 2020} {
		e := ev(year, 1, 1, float64(year-2015))
		if err := c.Import(ctx, year, DefaultFileName(year), []models.Event{e}); err != nil {
			t.Fatalf("Import failed: %v", err)
		}
	}

	events, err := Load(ctx, c, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(events) != 2 || events[0].Magnitude != 5 || events[1].ID != 1 {
		t.Errorf("Unexpected events %+v", events)
	}
}
