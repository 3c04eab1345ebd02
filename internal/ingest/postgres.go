package ingest

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rewired-gh/quakelens/internal/models"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PostgresSource reads a catalog table with the USGS columns
// (time, latitude, longitude, depth, mag, place).
type PostgresSource struct {
	pool  *pgxpool.Pool
	table string
	years []int
}

// NewPostgresSource wraps an open pool. table must be a plain or
// schema-qualified identifier.
func NewPostgresSource(pool *pgxpool.Pool, table string, years []int) (*PostgresSource, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("postgres: invalid table name %q", table)
	}
	return &PostgresSource{pool: pool, table: table, years: append([]int(nil), years...)}, nil
}

// ConnectPostgres opens a pool for dsn and checks connectivity.
func ConnectPostgres(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: health check failed: %w", err)
	}
	return pool, nil
}

// Years returns the configured years.
func (s *PostgresSource) Years() []int {
	return append([]int(nil), s.years...)
}

func (s *PostgresSource) yearQuery() string {
	return fmt.Sprintf(`
		SELECT time, latitude, longitude, depth, mag, place
		FROM %s
		WHERE time >= $1 AND time < $2
		ORDER BY time`, s.table)
}

// LoadYear queries the events whose time falls in the calendar year (UTC).
// NULL numeric columns read as 0, matching the CSV source.
func (s *PostgresSource) LoadYear(ctx context.Context, year int) ([]models.Event, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	rows, err := s.pool.Query(ctx, s.yearQuery(), from, to)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query year %d: %w", year, err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var r pgRow
		if err := rows.Scan(&r.Time, &r.Latitude, &r.Longitude, &r.Depth, &r.Mag, &r.Place); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan event row: %w", err)
		}
		events = append(events, r.event())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read year %d: %w", year, err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: %d (no rows in %s)", ErrNoSourceForYear, year, s.table)
	}
	return events, nil
}

// pgRow is one scanned catalog row with nullable columns.
type pgRow struct {
	Time      time.Time
	Latitude  *float64
	Longitude *float64
	Depth     *float64
	Mag       *float64
	Place     *string
}

func (r pgRow) event() models.Event {
	deref := func(p *float64) float64 {
		if p == nil {
			return 0
		}
		return *p
	}
	e := models.Event{
		OccurredAt: r.Time.UTC(),
		Latitude:   deref(r.Latitude),
		Longitude:  deref(r.Longitude),
		Depth:      deref(r.Depth),
		Magnitude:  deref(r.Mag),
	}
	if r.Place != nil {
		e.Place = *r.Place
	}
	return e
}
