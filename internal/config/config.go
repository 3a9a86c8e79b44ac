// Package config loads and validates archiver configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all archiver configuration knobs loaded via Viper.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Download DownloadConfig `mapstructure:"download"`
	Images   ImagesConfig   `mapstructure:"images"`
	Store    StoreConfig    `mapstructure:"store"`
	Resync   ResyncConfig   `mapstructure:"resync"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// APIConfig points at the viz-of-the-day discovery endpoint.
type APIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	PageSize       int    `mapstructure:"page_size"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// DownloadConfig governs the image download pool and its retry policy.
type DownloadConfig struct {
	TimeoutSeconds     int `mapstructure:"timeout_seconds"`
	MaxRetries         int `mapstructure:"max_retries"`
	BackoffStepSeconds int `mapstructure:"backoff_step_seconds"`
	Concurrency        int `mapstructure:"concurrency"`
}

// ImagesConfig sets the two managed image roots and the canvas size.
type ImagesConfig struct {
	LocalDir  string `mapstructure:"local_dir"`
	ShapesDir string `mapstructure:"shapes_dir"`
	Width     int    `mapstructure:"width"`
	Height    int    `mapstructure:"height"`
}

// StoreConfig selects and configures the record store backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	CSVPath string `mapstructure:"csv_path"`
	DSN     string `mapstructure:"dsn"`
	Table   string `mapstructure:"table"`
}

// ResyncConfig bounds the bulk resync fetch.
type ResyncConfig struct {
	Limit int `mapstructure:"limit"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VOTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://public.tableau.com/public/apis/bff/discover/v1/vizzes/viz-of-the-day")
	v.SetDefault("api.page_size", 12)
	v.SetDefault("api.timeout_seconds", 10)
	v.SetDefault("api.user_agent", "votd-archive/0.1")
	v.SetDefault("download.timeout_seconds", 30)
	v.SetDefault("download.max_retries", 3)
	v.SetDefault("download.backoff_step_seconds", 5)
	v.SetDefault("download.concurrency", 5)
	v.SetDefault("images.local_dir", "votd_images")
	v.SetDefault("images.shapes_dir", "shapes/votd_images")
	v.SetDefault("images.width", 1600)
	v.SetDefault("images.height", 900)
	v.SetDefault("store.backend", "csv")
	v.SetDefault("store.csv_path", "votd_data.csv")
	v.SetDefault("store.table", "votd_records")
	v.SetDefault("resync.limit", 50)
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	if c.API.PageSize <= 0 {
		return fmt.Errorf("api.page_size must be > 0")
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api.timeout_seconds must be > 0")
	}
	if c.Download.TimeoutSeconds <= 0 {
		return fmt.Errorf("download.timeout_seconds must be > 0")
	}
	if c.Download.MaxRetries <= 0 {
		return fmt.Errorf("download.max_retries must be > 0")
	}
	if c.Download.Concurrency <= 0 {
		return fmt.Errorf("download.concurrency must be > 0")
	}
	if c.Images.LocalDir == "" || c.Images.ShapesDir == "" {
		return fmt.Errorf("images.local_dir and images.shapes_dir must be set")
	}
	if c.Images.Width <= 0 || c.Images.Height <= 0 {
		return fmt.Errorf("images.width and images.height must be > 0")
	}
	switch c.Store.Backend {
	case "csv":
		if c.Store.CSVPath == "" {
			return fmt.Errorf("store.csv_path must be set for the csv backend")
		}
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store backend: %s", c.Store.Backend)
	}
	if c.Resync.Limit <= 0 {
		return fmt.Errorf("resync.limit must be > 0")
	}
	return nil
}

// APITimeout converts the catalog request timeout into a duration.
func (c Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// DownloadTimeout converts the per-attempt image timeout into a duration.
func (c Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Download.TimeoutSeconds) * time.Second
}

// BackoffStep converts the retry backoff step into a duration.
func (c Config) BackoffStep() time.Duration {
	return time.Duration(c.Download.BackoffStepSeconds) * time.Second
}
