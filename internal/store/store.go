// Package store holds the immutable event sequence for the whole dataset.
//
// A Store is built once after ingestion and never mutated. Every accessor
// returns a fresh slice, so callers may sort or filter results freely.
package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/rewired-gh/quakelens/internal/models"
)

// Store is the Event Store: the normalized dataset, ordered by occurrence.
type Store struct {
	events []models.Event
	byID   map[models.EventID]int
	byYear map[int][]int
	years  []int
	loc    *time.Location
}

// New builds a Store from ingested events. Events must carry unique IDs.
// Calendar years are computed in loc (UTC when nil).
func New(events []models.Event, loc *time.Location) (*Store, error) {
	if loc == nil {
		loc = time.UTC
	}

	sorted := make([]models.Event, len(events))
	copy(sorted, events)
	// Stable so same-instant events keep their ingestion order.
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.Before(sorted[j].OccurredAt)
	})

	s := &Store{
		events: sorted,
		byID:   make(map[models.EventID]int, len(sorted)),
		byYear: make(map[int][]int),
		loc:    loc,
	}
	for i, e := range sorted {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("invalid event %d: %w", e.ID, err)
		}
		if _, dup := s.byID[e.ID]; dup {
			return nil, fmt.Errorf("duplicate event ID %d", e.ID)
		}
		s.byID[e.ID] = i
		year := e.OccurredAt.In(loc).Year()
		if _, seen := s.byYear[year]; !seen {
			s.years = append(s.years, year)
		}
		s.byYear[year] = append(s.byYear[year], i)
	}
	sort.Ints(s.years)

	return s, nil
}

// Len returns the number of events in the dataset.
func (s *Store) Len() int {
	return len(s.events)
}

// Location returns the location used for calendar computations.
func (s *Store) Location() *time.Location {
	return s.loc
}

// Events returns the whole dataset ordered by occurrence.
func (s *Store) Events() []models.Event {
	out := make([]models.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Event looks up an event by identity.
func (s *Store) Event(id models.EventID) (models.Event, bool) {
	i, ok := s.byID[id]
	if !ok {
		return models.Event{}, false
	}
	return s.events[i], true
}

// Years returns the calendar years that have at least one event, ascending.
func (s *Store) Years() []int {
	return append([]int(nil), s.years...)
}

// Year returns the events of one calendar year ordered by occurrence.
func (s *Store) Year(year int) []models.Event {
	idx := s.byYear[year]
	out := make([]models.Event, len(idx))
	for i, j := range idx {
		out[i] = s.events[j]
	}
	return out
}

// Between returns events with start <= t <= end.
func (s *Store) Between(r models.TimeRange) []models.Event {
	lo := sort.Search(len(s.events), func(i int) bool {
		return !s.events[i].OccurredAt.Before(r.Start)
	})
	hi := sort.Search(len(s.events), func(i int) bool {
		return s.events[i].OccurredAt.After(r.End)
	})
	if hi <= lo {
		return []models.Event{}
	}
	out := make([]models.Event, hi-lo)
	copy(out, s.events[lo:hi])
	return out
}

// Extent returns the first and last occurrence instants. ok is false for an
// empty store.
func (s *Store) Extent() (models.TimeRange, bool) {
	if len(s.events) == 0 {
		return models.TimeRange{}, false
	}
	return models.TimeRange{Start: s.events[0].OccurredAt, End: s.events[len(s.events)-1].OccurredAt}, true
}
