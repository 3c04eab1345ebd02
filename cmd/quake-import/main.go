// Command quake-import copies the per-year CSV exports into the embedded
// SQLite catalog so later runs can read from ingest.source "sqlite".
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rewired-gh/quakelens/internal/config"
	"github.com/rewired-gh/quakelens/internal/ingest"
	"github.com/rewired-gh/quakelens/internal/logger"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	year       = flag.Int("year", 0, "Import a single year instead of the configured range")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format, nil)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	years := cfg.Years()
	if *year != 0 {
		years = []int{*year}
	}

	src, err := ingest.NewCSVSource(cfg.Ingest.CSV.DataDir, years, cfg.Ingest.CSV.Files)
	if err != nil {
		logger.Fatal("Invalid CSV configuration: %v", err)
	}
	catalog, err := ingest.OpenSQLite(ctx, cfg.Ingest.SQLite.Path)
	if err != nil {
		logger.Fatal("Failed to open catalog: %v", err)
	}
	defer func() {
		if err := catalog.Close(); err != nil {
			logger.Error("Failed to close catalog: %v", err)
		}
	}()

	imported, skipped := 0, 0
	for _, y := range years {
		events, err := src.LoadYear(ctx, y)
		if errors.Is(err, ingest.ErrNoSourceForYear) {
			logger.Warn("Skipping %d: %v", y, err)
			skipped++
			continue
		}
		if err != nil {
			logger.Fatal("Failed to read %d: %v", y, err)
		}
		if err := catalog.Import(ctx, y, src.Path(y), events); err != nil {
			logger.Fatal("Failed to import %d: %v", y, err)
		}
		logger.Info("Imported %d events for %d", len(events), y)
		imported++
	}

	logger.Info("Import finished: %d years imported, %d skipped, catalog at %s", imported, skipped, cfg.Ingest.SQLite.Path)
}
