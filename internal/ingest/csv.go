package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rewired-gh/quakelens/internal/models"
)

// Column names of the USGS catalog export.
const (
	colTime      = "time"
	colLatitude  = "latitude"
	colLongitude = "longitude"
	colDepth     = "depth"
	colMagnitude = "mag"
	colPlace     = "place"
)

var requiredColumns = []string{colTime, colLatitude, colLongitude, colDepth, colMagnitude}

// CSVSource reads one USGS CSV export per year from a directory.
type CSVSource struct {
	dir       string
	overrides map[int]string
	years     []int
}

// NewCSVSource creates a CSV source over dir for the given years. overrides
// maps a four-digit year to a file name; other years use DefaultFileName.
func NewCSVSource(dir string, years []int, overrides map[string]string) (*CSVSource, error) {
	parsed := make(map[int]string, len(overrides))
	for k, name := range overrides {
		year, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("invalid year %q in file overrides: %w", k, err)
		}
		parsed[year] = name
	}
	return &CSVSource{
		dir:       dir,
		overrides: parsed,
		years:     append([]int(nil), years...),
	}, nil
}

// DefaultFileName is the dataset's naming scheme: 2004 -> "04-05.csv".
func DefaultFileName(year int) string {
	return fmt.Sprintf("%02d-%02d.csv", year%100, (year+1)%100)
}

// Years returns the configured years.
func (s *CSVSource) Years() []int {
	return append([]int(nil), s.years...)
}

// Path returns the file backing a year.
func (s *CSVSource) Path(year int) string {
	name, ok := s.overrides[year]
	if !ok {
		name = DefaultFileName(year)
	}
	return filepath.Join(s.dir, name)
}

// LoadYear reads and parses the file for year.
func (s *CSVSource) LoadYear(ctx context.Context, year int) ([]models.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.Path(year)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %d (%s)", ErrNoSourceForYear, year, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	events, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return events, nil
}

// ReadCSV parses a USGS catalog export. Columns are located by header name
// and may appear in any order. An empty numeric cell reads as 0; a cell
// that is present but not a number is an error.
func ReadCSV(r io.Reader) ([]models.Event, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return []models.Event{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}
	placeIdx, hasPlace := index[colPlace]

	events := []models.Event{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		cell := func(col string) string {
			i := index[col]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		var e models.Event
		if e.OccurredAt, err = parseTime(cell(colTime)); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		for _, f := range []struct {
			col string
			dst *float64
		}{
			{colLatitude, &e.Latitude},
			{colLongitude, &e.Longitude},
			{colDepth, &e.Depth},
			{colMagnitude, &e.Magnitude},
		} {
			if *f.dst, err = parseNumber(cell(f.col)); err != nil {
				return nil, fmt.Errorf("line %d: column %s: %w", line, f.col, err)
			}
		}
		if hasPlace && placeIdx < len(record) {
			e.Place = record[placeIdx]
		}
		events = append(events, e)
	}

	return events, nil
}

func parseNumber(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05",
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty time")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}
