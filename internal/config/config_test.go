package config

import (
	"os"
	"testing"
	"time"

	"github.com/rewired-gh/quakelens/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, `
ingest:
  source: csv
  first_year: 2019
  last_year: 2021
  csv:
    data_dir: "./testdata"
    files:
      "2020": "twenty.csv"

windowing:
  mode: custom-range
  start: "2020-01-01"
  end: "2020-03-01"

filters:
  attribute: depth
  magnitude_bins:
    - { min: 0, max: 4 }
    - { min: 4, max: 10, inclusive_max: true, enabled: true }

playback:
  speed: 500ms
  loop: true

telegram:
  bot_token: "test_token"
  chat_id: "test_chat_id"
  enabled: true

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Ingest.CSV.DataDir != "./testdata" {
		t.Errorf("Unexpected data dir: %s", cfg.Ingest.CSV.DataDir)
	}
	if cfg.Ingest.CSV.Files["2020"] != "twenty.csv" {
		t.Errorf("Unexpected file override: %v", cfg.Ingest.CSV.Files)
	}
	if got := cfg.Years(); len(got) != 3 || got[0] != 2019 || got[2] != 2021 {
		t.Errorf("Unexpected years: %v", got)
	}
	if cfg.Playback.Speed != 500*time.Millisecond || !cfg.Playback.Loop {
		t.Errorf("Unexpected playback: %+v", cfg.Playback)
	}
	if len(cfg.Filters.MagnitudeBins) != 2 || !cfg.Filters.MagnitudeBins[1].Enabled || !cfg.Filters.MagnitudeBins[1].InclusiveMax {
		t.Errorf("Unexpected bins: %+v", cfg.Filters.MagnitudeBins)
	}
	// Defaults fill what the file leaves out.
	if cfg.Map.Zoom != 2 || cfg.Map.Width != 128 {
		t.Errorf("Expected map defaults, got %+v", cfg.Map)
	}
	if cfg.Telegram.TopN != 5 {
		t.Errorf("Expected default top_n 5, got %d", cfg.Telegram.TopN)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	r, err := cfg.InitialRange()
	if err != nil {
		t.Fatalf("InitialRange failed: %v", err)
	}
	if r == nil || !r.Start.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected initial range: %v", r)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "logging:\n  level: info\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Windowing.Mode != string(models.ModeWeekly) {
		t.Errorf("Expected weekly default, got %q", cfg.Windowing.Mode)
	}
	if len(cfg.Filters.MagnitudeBins) != len(models.DefaultMagnitudeBins()) {
		t.Errorf("Expected default bins, got %d", len(cfg.Filters.MagnitudeBins))
	}
	if len(cfg.Years()) != 21 {
		t.Errorf("Expected 2004-2024, got %d years", len(cfg.Years()))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
	if r, err := cfg.InitialRange(); err != nil || r != nil {
		t.Errorf("Expected no range for weekly, got %v, %v", r, err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("QUAKELENS_TELEGRAM_BOT_TOKEN", "from-env")

	cfg, err := Load(writeConfig(t, "telegram:\n  bot_token: from-file\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Telegram.BotToken != "from-env" {
		t.Errorf("Expected env override, got %q", cfg.Telegram.BotToken)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func validConfig() *Config {
	return &Config{
		Ingest: IngestConfig{
			Source:    SourceCSV,
			FirstYear: 2004,
			LastYear:  2024,
			Timeout:   time.Minute,
			CSV:       CSVConfig{DataDir: "./data"},
		},
		Windowing: WindowingConfig{Mode: "weekly", Location: "UTC"},
		Filters: FiltersConfig{
			Attribute:     "mag",
			MagnitudeBins: models.DefaultMagnitudeBins(),
		},
		Playback: PlaybackConfig{Speed: time.Second},
		Map:      MapConfig{CenterLat: 30, Zoom: 2, Width: 128, Height: 32},
		Telegram: TelegramConfig{TopN: 5},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "unknown source",
			mutate:  func(c *Config) { c.Ingest.Source = "kafka" },
			wantErr: true,
		},
		{
			name: "postgres without dsn",
			mutate: func(c *Config) {
				c.Ingest.Source = SourcePostgres
				c.Ingest.Postgres.Table = "earthquakes"
			},
			wantErr: true,
		},
		{
			name: "http without base url",
			mutate: func(c *Config) {
				c.Ingest.Source = SourceHTTP
				c.Ingest.HTTP.MaxRetries = 3
			},
			wantErr: true,
		},
		{
			name: "http source",
			mutate: func(c *Config) {
				c.Ingest.Source = SourceHTTP
				c.Ingest.HTTP = HTTPConfig{BaseURL: "https://example.org/quakes", MaxRetries: 3}
			},
			wantErr: false,
		},
		{
			name:    "inverted years",
			mutate:  func(c *Config) { c.Ingest.FirstYear, c.Ingest.LastYear = 2024, 2004 },
			wantErr: true,
		},
		{
			name:    "unknown mode",
			mutate:  func(c *Config) { c.Windowing.Mode = "daily" },
			wantErr: true,
		},
		{
			name:    "range mode without range",
			mutate:  func(c *Config) { c.Windowing.Mode = "static-range" },
			wantErr: true,
		},
		{
			name:    "unknown location",
			mutate:  func(c *Config) { c.Windowing.Location = "Mars/Olympus" },
			wantErr: true,
		},
		{
			name:    "inverted bin",
			mutate:  func(c *Config) { c.Filters.MagnitudeBins[0].Max = -1 },
			wantErr: true,
		},
		{
			name:    "speed too fast",
			mutate:  func(c *Config) { c.Playback.Speed = 10 * time.Millisecond },
			wantErr: true,
		},
		{
			name:    "map too small",
			mutate:  func(c *Config) { c.Map.Width = 2 },
			wantErr: true,
		},
		{
			name:    "missing telegram token when enabled",
			mutate:  func(c *Config) { c.Telegram.Enabled = true; c.Telegram.ChatID = "1" },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
