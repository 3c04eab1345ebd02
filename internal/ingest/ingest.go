// Package ingest loads the earthquake catalog from its per-year sources.
//
// A Source yields the raw events of one calendar year. Load fetches every
// requested year concurrently and fails as a whole if any year fails, so
// the dashboard never starts on a partial dataset. Event ids are assigned
// only after all years have been joined, which keeps them stable for a
// given set of inputs regardless of fetch order.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rewired-gh/quakelens/internal/logger"
	"github.com/rewired-gh/quakelens/internal/models"
	"golang.org/x/sync/errgroup"
)

// ErrNoSourceForYear is returned when a year has no backing file or rows.
var ErrNoSourceForYear = errors.New("no source for year")

// maxConcurrentYears bounds parallel year fetches.
const maxConcurrentYears = 8

// Source yields the events of one calendar year. Implementations need not
// assign ids or sort; Load does both.
type Source interface {
	Years() []int
	LoadYear(ctx context.Context, year int) ([]models.Event, error)
}

// Load fetches the given years from src and returns the joined, normalised
// catalog with ids 0..n-1. With no years, every year src knows is loaded.
func Load(ctx context.Context, src Source, years []int) ([]models.Event, error) {
	if len(years) == 0 {
		years = src.Years()
	}

	results := make([][]models.Event, len(years))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentYears)

	for i, year := range years {
		i, year := i, year
		g.Go(func() error {
			events, err := src.LoadYear(ctx, year)
			if err != nil {
				return fmt.Errorf("failed to load year %d: %w", year, err)
			}
			if err := normalize(events); err != nil {
				return fmt.Errorf("invalid data for year %d: %w", year, err)
			}
			logger.Debug("Loaded %d events for %d", len(events), year)
			results[i] = events
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return join(results), nil
}

// normalize clamps and validates events in place.
func normalize(events []models.Event) error {
	for i := range events {
		events[i].Normalize()
		if err := events[i].Validate(); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return nil
}

// join concatenates per-year results in request order, orders each year by
// time (keeping source order for ties) and assigns ids.
func join(results [][]models.Event) []models.Event {
	total := 0
	for _, events := range results {
		total += len(events)
	}

	all := make([]models.Event, 0, total)
	for _, events := range results {
		sort.SliceStable(events, func(a, b int) bool {
			return events[a].OccurredAt.Before(events[b].OccurredAt)
		})
		all = append(all, events...)
	}
	for i := range all {
		all[i].ID = models.EventID(i)
	}

	logger.Info("Loaded %d events from %d years", len(all), len(results))
	return all
}
