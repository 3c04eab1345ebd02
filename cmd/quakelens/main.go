package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rewired-gh/quakelens/internal/config"
	"github.com/rewired-gh/quakelens/internal/coordinator"
	"github.com/rewired-gh/quakelens/internal/ingest"
	"github.com/rewired-gh/quakelens/internal/logger"
	"github.com/rewired-gh/quakelens/internal/models"
	"github.com/rewired-gh/quakelens/internal/store"
	"github.com/rewired-gh/quakelens/internal/telegram"
	"github.com/rewired-gh/quakelens/internal/tui"
	"github.com/rewired-gh/quakelens/internal/views"
	"github.com/rewired-gh/quakelens/internal/windower"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	headless   = flag.Bool("headless", false, "Play through the windows without a terminal UI, logging each digest")
)

func main() {
	flag.Parse()

	// Secrets such as QUAKELENS_TELEGRAM_BOT_TOKEN may live in .env.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to read .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logOut, closeLog := openLog(cfg.Logging.File, *headless)
	defer closeLog()
	logger.Init(cfg.Logging.Level, cfg.Logging.Format, logOut)
	logger.Info("Configuration loaded from %s", *configPath)

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("Invalid location: %v", err)
	}
	mode, err := models.ParseMode(cfg.Windowing.Mode)
	if err != nil {
		logger.Fatal("Invalid mode: %v", err)
	}
	attr, err := models.ParseAttribute(cfg.Filters.Attribute)
	if err != nil {
		logger.Fatal("Invalid attribute: %v", err)
	}
	rng, err := cfg.InitialRange()
	if err != nil {
		logger.Fatal("Invalid range: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var notifier *telegram.Client
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, 3, time.Second, loc)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram digests enabled")
	} else {
		logger.Debug("Telegram digests disabled")
	}

	panes := tui.Panes{
		Map: views.NewMapView(views.Viewport{
			CenterLat: cfg.Map.CenterLat,
			CenterLon: cfg.Map.CenterLon,
			Zoom:      cfg.Map.Zoom,
			Cols:      cfg.Map.Width,
			Rows:      cfg.Map.Height,
		}),
		Histogram: views.NewHistogramView(cfg.Map.Width / 3),
		Timeline:  views.NewTimelineView(loc, cfg.Map.Width/2, 4),
	}

	load := func(ctx context.Context) (*coordinator.Coordinator, error) {
		events, err := ingest.LoadCatalog(ctx, cfg.Ingest, cfg.Years())
		if err != nil {
			return nil, err
		}
		s, err := store.New(events, loc)
		if err != nil {
			return nil, err
		}
		return coordinator.New(s, windower.New(loc), panes.Views(), coordinator.Options{
			Mode:      mode,
			Range:     rng,
			Attribute: attr,
			Bins:      cfg.Filters.MagnitudeBins,
			Loop:      cfg.Playback.Loop,
			Speed:     cfg.Playback.Speed,
		})
	}

	if *headless {
		c, err := load(ctx)
		if err != nil {
			logger.Fatal("Failed to load catalog: %v", err)
		}
		runHeadless(ctx, c, cfg, loc, notifier)
		return
	}

	opts := tui.Options{
		Location: loc,
		Range:    rng,
		AutoPlay: cfg.Playback.AutoPlay,
		TopN:     cfg.Telegram.TopN,
	}
	if notifier != nil {
		opts.Notifier = notifier
	}

	p := tea.NewProgram(tui.New(ctx, panes, load, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		logger.Fatal("Dashboard exited: %v", err)
	}
	logger.Info("Shutdown complete")
}

// openLog picks the log destination. The dashboard owns the terminal, so
// without a log file it logs nowhere.
func openLog(path string, headless bool) (io.Writer, func()) {
	if path == "" {
		if headless {
			return os.Stderr, func() {}
		}
		return io.Discard, func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	return f, func() { f.Close() }
}

// runHeadless plays through the windows at the configured speed, logging a
// digest per window and sharing it when it reaches the alert magnitude.
func runHeadless(ctx context.Context, c *coordinator.Coordinator, cfg *config.Config, loc *time.Location, notifier *telegram.Client) {
	report := func() {
		s, ok := c.Summary(cfg.Telegram.TopN)
		if !ok {
			return
		}
		logger.Info("%s | %s | strongest M%.1f", views.Caption(c.Mode(), c.Current(), loc), views.Position(s.Index, s.Count), s.MaxMagnitude)
		if notifier == nil || s.Total == 0 || s.MaxMagnitude < cfg.Telegram.MinMagnitude {
			return
		}
		if err := notifier.SendDigest(ctx, s); err != nil {
			logger.Error("Failed to send digest: %v", err)
			return
		}
		logger.Info("Shared digest %s for %s", s.ID, s.Label)
	}

	report()
	gen, ok := c.Play()
	if !ok {
		logger.Info("Nothing to play in %s mode", c.Mode())
		return
	}

	ticker := time.NewTicker(c.Playback().Speed)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, stopping playback")
			return
		case <-ticker.C:
			if !c.Tick(gen) {
				logger.Info("Playback finished after %d windows", c.Len())
				return
			}
			report()
		}
	}
}
