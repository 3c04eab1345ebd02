package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rewired-gh/quakelens/internal/logger"
	"github.com/rewired-gh/quakelens/internal/models"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS catalog_years (
	year        INTEGER PRIMARY KEY,
	source      TEXT NOT NULL,
	event_count INTEGER NOT NULL,
	imported_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	year           INTEGER NOT NULL,
	seq            INTEGER NOT NULL,
	latitude       REAL NOT NULL,
	longitude      REAL NOT NULL,
	magnitude      REAL NOT NULL,
	depth          REAL NOT NULL,
	occurred_at_ms INTEGER NOT NULL,
	place          TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (year, seq)
);
CREATE INDEX IF NOT EXISTS events_year_time ON events (year, occurred_at_ms);
`

// SQLiteCatalog is an embedded event catalog. Each imported year is stored
// whole; re-importing a year replaces it.
type SQLiteCatalog struct {
	db   *sql.DB
	path string

	mu    sync.RWMutex
	years []int
}

// OpenSQLite opens or creates the catalog at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteCatalog, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	// One writer at a time; readers share the connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create catalog schema: %w", err)
	}

	c := &SQLiteCatalog{db: db, path: path}
	if err := c.refreshYears(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close releases the database.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

func (c *SQLiteCatalog) refreshYears(ctx context.Context) error {
	rows, err := c.db.QueryContext(ctx, `SELECT year FROM catalog_years ORDER BY year`)
	if err != nil {
		return fmt.Errorf("failed to list catalog years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return fmt.Errorf("failed to scan catalog year: %w", err)
		}
		years = append(years, y)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to list catalog years: %w", err)
	}

	c.mu.Lock()
	c.years = years
	c.mu.Unlock()
	return nil
}

// Years returns the imported years in ascending order.
func (c *SQLiteCatalog) Years() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]int(nil), c.years...)
}

func (c *SQLiteCatalog) hasYear(year int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := sort.SearchInts(c.years, year)
	return i < len(c.years) && c.years[i] == year
}

// Import replaces the stored events of year inside one transaction. The
// events' order is kept as the tie-break for identical timestamps.
func (c *SQLiteCatalog) Import(ctx context.Context, year int, source string, events []models.Event) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import of %d: %w", year, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE year = ?`, year); err != nil {
		return fmt.Errorf("failed to clear year %d: %w", year, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (year, seq, latitude, longitude, magnitude, depth, occurred_at_ms, place)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range events {
		if _, err := stmt.ExecContext(ctx, year, i,
			e.Latitude, e.Longitude, e.Magnitude, e.Depth, e.OccurredAt.UnixMilli(), e.Place,
		); err != nil {
			return fmt.Errorf("failed to insert event %d of %d: %w", i, year, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO catalog_years (year, source, event_count, imported_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(year) DO UPDATE SET source = excluded.source,
			event_count = excluded.event_count, imported_at = excluded.imported_at`,
		year, source, len(events), time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("failed to record year %d: %w", year, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import of %d: %w", year, err)
	}
	logger.Info("Imported %d events for %d into %s", len(events), year, c.path)
	return c.refreshYears(ctx)
}

// LoadYear reads the stored events of year.
func (c *SQLiteCatalog) LoadYear(ctx context.Context, year int) ([]models.Event, error) {
	if !c.hasYear(year) {
		return nil, fmt.Errorf("%w: %d (not in %s)", ErrNoSourceForYear, year, c.path)
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT latitude, longitude, magnitude, depth, occurred_at_ms, place
		FROM events WHERE year = ? ORDER BY seq`, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query year %d: %w", year, err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var (
			e  models.Event
			ms int64
		)
		if err := rows.Scan(&e.Latitude, &e.Longitude, &e.Magnitude, &e.Depth, &ms, &e.Place); err != nil {
			return nil, fmt.Errorf("failed to scan event of %d: %w", year, err)
		}
		e.OccurredAt = time.UnixMilli(ms).UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read year %d: %w", year, err)
	}
	return events, nil
}
