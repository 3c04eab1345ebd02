package ingest

import (
	"context"
	"fmt"

	"github.com/rewired-gh/quakelens/internal/config"
	"github.com/rewired-gh/quakelens/internal/logger"
	"github.com/rewired-gh/quakelens/internal/models"
)

// Open builds the source selected by cfg. The returned release function
// closes any database handle and is never nil.
func Open(ctx context.Context, cfg config.IngestConfig, years []int) (Source, func(), error) {
	noop := func() {}

	switch cfg.Source {
	case config.SourceCSV, "":
		src, err := NewCSVSource(cfg.CSV.DataDir, years, cfg.CSV.Files)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Reading catalog CSVs from %s", cfg.CSV.DataDir)
		return src, noop, nil

	case config.SourceSQLite:
		catalog, err := OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Reading catalog from SQLite %s (%d years imported)", cfg.SQLite.Path, len(catalog.Years()))
		return catalog, func() {
			if err := catalog.Close(); err != nil {
				logger.Error("Failed to close catalog: %v", err)
			}
		}, nil

	case config.SourcePostgres:
		pool, err := ConnectPostgres(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if err != nil {
			return nil, noop, err
		}
		src, err := NewPostgresSource(pool, cfg.Postgres.Table, years)
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		logger.Info("Reading catalog from Postgres table %s", cfg.Postgres.Table)
		return src, pool.Close, nil

	case config.SourceHTTP:
		src := NewHTTPSource(cfg.HTTP.BaseURL, years, cfg.Timeout, HTTPClientConfig{
			MaxRetries:     cfg.HTTP.MaxRetries,
			RetryDelayBase: cfg.HTTP.RetryDelayBase,
			MaxIdleConns:   cfg.HTTP.MaxIdleConns,
		})
		logger.Info("Fetching catalog CSVs from %s", cfg.HTTP.BaseURL)
		return src, noop, nil
	}

	return nil, noop, fmt.Errorf("unknown ingest source %q", cfg.Source)
}

// LoadCatalog opens the configured source and loads cfg's years within
// cfg.Timeout.
func LoadCatalog(ctx context.Context, cfg config.IngestConfig, years []int) ([]models.Event, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	src, release, err := Open(ctx, cfg, years)
	defer release()
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return Load(ctx, src, years)
}
