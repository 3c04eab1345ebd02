// Command quake-census prints the window sequence of a partition mode: one
// line per window with its bounds, event count and strongest magnitude.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rewired-gh/quakelens/internal/config"
	"github.com/rewired-gh/quakelens/internal/ingest"
	"github.com/rewired-gh/quakelens/internal/logger"
	"github.com/rewired-gh/quakelens/internal/models"
	"github.com/rewired-gh/quakelens/internal/store"
	"github.com/rewired-gh/quakelens/internal/windower"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	modeFlag   = flag.String("mode", "", "Partition mode (defaults to windowing.mode)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *modeFlag != "" {
		cfg.Windowing.Mode = *modeFlag
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format, nil)

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("Invalid location: %v", err)
	}
	mode, err := models.ParseMode(cfg.Windowing.Mode)
	if err != nil {
		logger.Fatal("Invalid mode: %v", err)
	}
	rng, err := cfg.InitialRange()
	if err != nil {
		logger.Fatal("Invalid range: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	events, err := ingest.LoadCatalog(ctx, cfg.Ingest, cfg.Years())
	if err != nil {
		logger.Fatal("Failed to load catalog: %v", err)
	}
	s, err := store.New(events, loc)
	if err != nil {
		logger.Fatal("Failed to build store: %v", err)
	}
	windows, err := windower.New(loc).Partition(s, mode, rng)
	if err != nil {
		logger.Fatal("Failed to partition: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tLABEL\tSTART\tEND\tEVENTS\tMAX MAG")
	for i, win := range windows {
		maxMag := 0.0
		for j, e := range win.Events {
			if j == 0 || e.Magnitude > maxMag {
				maxMag = e.Magnitude
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%.1f\n", i+1, win.Label,
			win.Start.In(loc).Format("2006-01-02"), win.End.In(loc).Format("2006-01-02"), len(win.Events), maxMag)
	}
	if err := w.Flush(); err != nil {
		logger.Fatal("Failed to write census: %v", err)
	}
	logger.Info("%d events in %d %s windows", s.Len(), len(windows), mode)
}
