package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rewired-gh/quakelens/internal/models"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Windowing WindowingConfig `mapstructure:"windowing"`
	Filters   FiltersConfig   `mapstructure:"filters"`
	Playback  PlaybackConfig  `mapstructure:"playback"`
	Map       MapConfig       `mapstructure:"map"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// Ingestion sources.
const (
	SourceCSV      = "csv"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
	SourceHTTP     = "http"
)

// IngestConfig selects where the event catalog comes from
type IngestConfig struct {
	Source    string         `mapstructure:"source"`
	FirstYear int            `mapstructure:"first_year"`
	LastYear  int            `mapstructure:"last_year"`
	Timeout   time.Duration  `mapstructure:"timeout"`
	CSV       CSVConfig      `mapstructure:"csv"`
	SQLite    SQLiteConfig   `mapstructure:"sqlite"`
	Postgres  PostgresConfig `mapstructure:"postgres"`
	HTTP      HTTPConfig     `mapstructure:"http"`
}

// CSVConfig holds the per-year CSV layout. Files overrides the default
// "YY-YY.csv" name for a year, keyed by the four-digit year.
type CSVConfig struct {
	DataDir string            `mapstructure:"data_dir"`
	Files   map[string]string `mapstructure:"files"`
}

// SQLiteConfig holds the embedded catalog location
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig holds the remote catalog connection
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// HTTPConfig holds the remote per-year CSV location. Files are named like
// the csv source and fetched from BaseURL.
type HTTPConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	MaxIdleConns   int           `mapstructure:"max_idle_conns"`
}

// WindowingConfig holds the initial partition. Start and End are only used
// by the range modes and accept YYYY-MM-DD or RFC 3339.
type WindowingConfig struct {
	Mode     string `mapstructure:"mode"`
	Location string `mapstructure:"location"`
	Start    string `mapstructure:"start"`
	End      string `mapstructure:"end"`
}

// FiltersConfig holds the initial filter state
type FiltersConfig struct {
	Attribute     string                `mapstructure:"attribute"`
	MagnitudeBins []models.MagnitudeBin `mapstructure:"magnitude_bins"`
}

// PlaybackConfig holds auto-advance behaviour
type PlaybackConfig struct {
	Speed    time.Duration `mapstructure:"speed"`
	Loop     bool          `mapstructure:"loop"`
	AutoPlay bool          `mapstructure:"autoplay"`
}

// MapConfig holds the map viewport. Width and Height are terminal cells.
type MapConfig struct {
	CenterLat float64 `mapstructure:"center_lat"`
	CenterLon float64 `mapstructure:"center_lon"`
	Zoom      float64 `mapstructure:"zoom"`
	Width     int     `mapstructure:"width"`
	Height    int     `mapstructure:"height"`
}

// TelegramConfig holds Telegram digest configuration
type TelegramConfig struct {
	BotToken     string  `mapstructure:"bot_token"`
	ChatID       string  `mapstructure:"chat_id"`
	Enabled      bool    `mapstructure:"enabled"`
	MinMagnitude float64 `mapstructure:"min_magnitude"`
	TopN         int     `mapstructure:"top_n"`
}

// LoggingConfig holds logging configuration. An empty File logs to stderr.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	setDefaults(v)

	// QUAKELENS_TELEGRAM_BOT_TOKEN overrides telegram.bot_token, and so on.
	v.SetEnvPrefix("QUAKELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if len(cfg.Filters.MagnitudeBins) == 0 {
		cfg.Filters.MagnitudeBins = models.DefaultMagnitudeBins()
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Ingest defaults
	v.SetDefault("ingest.source", SourceCSV)
	v.SetDefault("ingest.first_year", 2004)
	v.SetDefault("ingest.last_year", 2024)
	v.SetDefault("ingest.timeout", "2m")
	v.SetDefault("ingest.csv.data_dir", "./data")
	v.SetDefault("ingest.sqlite.path", "./data/quakes.db")
	v.SetDefault("ingest.postgres.table", "earthquakes")
	v.SetDefault("ingest.postgres.max_conns", 4)
	v.SetDefault("ingest.http.max_retries", 3)
	v.SetDefault("ingest.http.retry_delay_base", "1s")
	v.SetDefault("ingest.http.max_idle_conns", 8)

	// Windowing defaults
	v.SetDefault("windowing.mode", string(models.ModeWeekly))
	v.SetDefault("windowing.location", "UTC")

	// Filter defaults
	v.SetDefault("filters.attribute", string(models.AttributeMagnitude))

	// Playback defaults
	v.SetDefault("playback.speed", "1s")
	v.SetDefault("playback.loop", false)

	// Map defaults
	v.SetDefault("map.center_lat", 30.0)
	v.SetDefault("map.center_lon", 0.0)
	v.SetDefault("map.zoom", 2.0)
	v.SetDefault("map.width", 128)
	v.SetDefault("map.height", 32)

	// Telegram defaults
	v.SetDefault("telegram.min_magnitude", 6.0)
	v.SetDefault("telegram.top_n", 5)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Ingest config
	switch c.Ingest.Source {
	case SourceCSV:
		if c.Ingest.CSV.DataDir == "" {
			return fmt.Errorf("ingest.csv.data_dir is required for the csv source")
		}
	case SourceSQLite:
		if c.Ingest.SQLite.Path == "" {
			return fmt.Errorf("ingest.sqlite.path is required for the sqlite source")
		}
	case SourcePostgres:
		if c.Ingest.Postgres.DSN == "" {
			return fmt.Errorf("ingest.postgres.dsn is required for the postgres source")
		}
		if c.Ingest.Postgres.Table == "" {
			return fmt.Errorf("ingest.postgres.table is required for the postgres source")
		}
	case SourceHTTP:
		if c.Ingest.HTTP.BaseURL == "" {
			return fmt.Errorf("ingest.http.base_url is required for the http source")
		}
		if c.Ingest.HTTP.MaxRetries < 1 {
			return fmt.Errorf("ingest.http.max_retries must be at least 1")
		}
	default:
		return fmt.Errorf("ingest.source must be one of: csv, sqlite, postgres, http")
	}
	if c.Ingest.FirstYear < 1900 || c.Ingest.LastYear < c.Ingest.FirstYear {
		return fmt.Errorf("ingest.first_year must be at least 1900 and not after ingest.last_year")
	}
	if c.Ingest.Timeout <= 0 {
		return fmt.Errorf("ingest.timeout must be positive")
	}

	// Validate Windowing config
	mode, err := models.ParseMode(c.Windowing.Mode)
	if err != nil {
		return fmt.Errorf("windowing.mode: %w", err)
	}
	loc, err := c.Location()
	if err != nil {
		return err
	}
	if mode.NeedsRange() {
		if _, err := models.ParseTimeRange(c.Windowing.Start, c.Windowing.End, loc); err != nil {
			return fmt.Errorf("windowing.start/end are required for %s: %w", mode, err)
		}
	}

	// Validate Filters config
	if _, err := models.ParseAttribute(c.Filters.Attribute); err != nil {
		return fmt.Errorf("filters.attribute: %w", err)
	}
	if len(c.Filters.MagnitudeBins) > 9 {
		return fmt.Errorf("filters.magnitude_bins supports at most 9 bins")
	}
	for i, b := range c.Filters.MagnitudeBins {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("filters.magnitude_bins[%d]: %w", i, err)
		}
	}

	// Validate Playback config
	if c.Playback.Speed < 100*time.Millisecond || c.Playback.Speed > 10*time.Second {
		return fmt.Errorf("playback.speed must be between 100ms and 10s")
	}

	// Validate Map config
	if c.Map.CenterLat < -85 || c.Map.CenterLat > 85 {
		return fmt.Errorf("map.center_lat must be between -85 and 85")
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > 18 {
		return fmt.Errorf("map.zoom must be between 0 and 18")
	}
	if c.Map.Width < 10 || c.Map.Height < 5 {
		return fmt.Errorf("map.width must be at least 10 and map.height at least 5")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Telegram.TopN < 1 {
		return fmt.Errorf("telegram.top_n must be at least 1")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}

// Location returns the time zone calendar years are computed in.
func (c *Config) Location() (*time.Location, error) {
	name := c.Windowing.Location
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("windowing.location: %w", err)
	}
	return loc, nil
}

// Years returns the inclusive list of catalog years to load.
func (c *Config) Years() []int {
	years := make([]int, 0, c.Ingest.LastYear-c.Ingest.FirstYear+1)
	for y := c.Ingest.FirstYear; y <= c.Ingest.LastYear; y++ {
		years = append(years, y)
	}
	return years
}

// InitialRange parses the configured range. It is nil for the per-year modes.
func (c *Config) InitialRange() (*models.TimeRange, error) {
	mode, err := models.ParseMode(c.Windowing.Mode)
	if err != nil {
		return nil, err
	}
	if !mode.NeedsRange() {
		return nil, nil
	}
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	r, err := models.ParseTimeRange(c.Windowing.Start, c.Windowing.End, loc)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
