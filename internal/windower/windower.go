// Package windower partitions the event store into navigable time windows.
//
// Weekly, monthly and yearly partitions are computed independently per
// calendar year: each year is walked in fixed calendar steps starting at the
// floor of that year's first event, so weekly boundaries restart every year
// instead of following a global ISO-week grid. Custom ranges are walked in
// 7-day steps from the floor of the range start; a static range is one
// window. Windows without events are dropped.
package windower

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rewired-gh/quakelens/internal/logger"
	"github.com/rewired-gh/quakelens/internal/models"
	"github.com/rewired-gh/quakelens/internal/store"
)

// ErrRangeRequired is returned when a range mode is partitioned without a range.
var ErrRangeRequired = errors.New("partition mode requires a date range")

// Windower computes window sequences in a fixed location.
type Windower struct {
	loc *time.Location
}

// New creates a Windower. Calendar steps are computed in loc (UTC when nil).
func New(loc *time.Location) *Windower {
	if loc == nil {
		loc = time.UTC
	}
	return &Windower{loc: loc}
}

// Partition returns the ordered window sequence for mode. r is required for
// custom-range and static-range and ignored otherwise. A result with zero
// windows is valid and returned as an empty, non-nil slice.
func (w *Windower) Partition(s *store.Store, mode models.Mode, r *models.TimeRange) ([]models.TimeWindow, error) {
	var (
		windows []models.TimeWindow
		err     error
	)

	switch mode {
	case models.ModeWeekly, models.ModeMonthly, models.ModeYearly:
		windows = w.perYear(s, mode)
	case models.ModeCustomRange, models.ModeStaticRange:
		if r == nil {
			return nil, fmt.Errorf("%s: %w", mode, ErrRangeRequired)
		}
		if err = r.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", mode, err)
		}
		if mode == models.ModeCustomRange {
			windows = w.custom(s, *r)
		} else {
			windows = w.static(s, *r)
		}
	default:
		return nil, fmt.Errorf("unknown partition mode %q", mode)
	}

	logger.Debug("Partitioned %d events into %d %s windows", s.Len(), len(windows), mode)
	return windows, nil
}

func (w *Windower) perYear(s *store.Store, mode models.Mode) []models.TimeWindow {
	windows := []models.TimeWindow{}

	for _, year := range s.Years() {
		events := s.Year(year)
		if len(events) == 0 {
			continue
		}
		minTime := events[0].OccurredAt
		maxTime := events[len(events)-1].OccurredAt
		yearEnd := time.Date(year+1, time.January, 1, 0, 0, 0, 0, w.loc)
		label := strconv.Itoa(year)

		i := 0
		for cursor := w.floor(mode, minTime); !cursor.After(maxTime); {
			end := w.step(mode, cursor)

			j := i
			for j < len(events) && events[j].OccurredAt.Before(end) {
				j++
			}
			if j > i {
				// The year slice already excludes next year's events, so
				// clipping the end only keeps adjacent years from overlapping.
				clipped := end
				if clipped.After(yearEnd) {
					clipped = yearEnd
				}
				windows = append(windows, models.TimeWindow{
					Label:  label,
					Start:  cursor,
					End:    clipped,
					Events: events[i:j:j],
				})
			}
			i = j
			cursor = end
		}
	}

	return windows
}

func (w *Windower) custom(s *store.Store, r models.TimeRange) []models.TimeWindow {
	windows := []models.TimeWindow{}
	events := s.Between(r)
	if len(events) == 0 {
		return windows
	}

	i := 0
	for cursor := w.floor(models.ModeWeekly, r.Start); !cursor.After(r.End); {
		end := cursor.AddDate(0, 0, 7)

		// Between already dropped events before r.Start, which may be after
		// the floored cursor.
		j := i
		for j < len(events) && events[j].OccurredAt.Before(end) {
			j++
		}
		if j > i {
			windows = append(windows, models.TimeWindow{
				Label:  strconv.Itoa(cursor.Year()),
				Start:  cursor,
				End:    end,
				Events: events[i:j:j],
			})
		}
		i = j
		cursor = end
	}

	return windows
}

func (w *Windower) static(s *store.Store, r models.TimeRange) []models.TimeWindow {
	events := s.Between(r)
	if len(events) == 0 {
		return []models.TimeWindow{}
	}
	start, end := r.Start.In(w.loc), r.End.In(w.loc)
	return []models.TimeWindow{{
		Label:     fmt.Sprintf("%d-%d", start.Year(), end.Year()),
		Start:     r.Start,
		End:       r.End,
		Inclusive: true,
		Events:    events,
	}}
}

// floor truncates t to the start of its calendar step.
func (w *Windower) floor(mode models.Mode, t time.Time) time.Time {
	t = t.In(w.loc)
	switch mode {
	case models.ModeMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, w.loc)
	case models.ModeYearly:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, w.loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, w.loc)
}

// step returns the start of the step following cursor.
func (w *Windower) step(mode models.Mode, cursor time.Time) time.Time {
	switch mode {
	case models.ModeMonthly:
		return cursor.AddDate(0, 1, 0)
	case models.ModeYearly:
		return cursor.AddDate(1, 0, 0)
	}
	return cursor.AddDate(0, 0, 7)
}
