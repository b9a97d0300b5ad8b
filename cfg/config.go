package cfg

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
)

// HTTPConfiguration controls the HTTP listener and upload limits
type HTTPConfiguration struct {
	BindAddress string `toml:"bind_address"`
	Port        int    `toml:"port"`
	MaxUploadMB int    `toml:"max_upload_mb"`
}

// DatabaseConfiguration controls the SQLite database
type DatabaseConfiguration struct {
	Path          string `toml:"path"`
	BusyTimeoutMS int    `toml:"busy_timeout_ms"`
}

// LoggingConfiguration controls logging behavior
type LoggingConfiguration struct {
	Verbose bool   `toml:"verbose"`
	Format  string `toml:"format"` // "console" or "json"
}

// PrometheusConfiguration for metrics
type PrometheusConfiguration struct {
	Enabled bool `toml:"enabled"`
}

// CacheConfiguration controls the chart response cache
type CacheConfiguration struct {
	ChartEntries int `toml:"chart_entries"`
}

// Configuration is the main configuration structure
type Configuration struct {
	HTTP       HTTPConfiguration       `toml:"http"`
	Database   DatabaseConfiguration   `toml:"database"`
	Logging    LoggingConfiguration    `toml:"logging"`
	Prometheus PrometheusConfiguration `toml:"prometheus"`
	Cache      CacheConfiguration      `toml:"cache"`
}

// Command line flags
var (
	ConfigPathFlag = flag.String("config", "config.toml", "Path to configuration file")
	DBPathFlag     = flag.String("db-path", "", "SQLite database path (overrides config)")
	HTTPPortFlag   = flag.Int("http-port", 0, "HTTP port (overrides config)")
)

// Default configuration
var Config = &Configuration{
	HTTP: HTTPConfiguration{
		BindAddress: "0.0.0.0",
		Port:        8080,
		MaxUploadMB: 64,
	},

	Database: DatabaseConfiguration{
		Path:          "./reelstats.db",
		BusyTimeoutMS: 5000,
	},

	Logging: LoggingConfiguration{
		Verbose: false,
		Format:  "console",
	},

	Prometheus: PrometheusConfiguration{
		Enabled: true,
	},

	Cache: CacheConfiguration{
		ChartEntries: 128,
	},
}

// Load loads configuration from file and applies CLI overrides
func Load(configPath string) error {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			log.Info().Str("path", configPath).Msg("Loading configuration")
			if _, err := toml.DecodeFile(configPath, Config); err != nil {
				return fmt.Errorf("failed to decode config: %w", err)
			}
		} else {
			log.Warn().Str("path", configPath).Msg("Config file not found, using defaults")
		}
	}

	// Apply CLI overrides
	if *DBPathFlag != "" {
		Config.Database.Path = *DBPathFlag
	}
	if *HTTPPortFlag != 0 {
		Config.HTTP.Port = *HTTPPortFlag
	}

	// Ensure the database directory exists
	if dir := filepath.Dir(Config.Database.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	return nil
}

// Validate checks configuration for errors
func Validate() error {
	if Config.HTTP.Port < 1 || Config.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", Config.HTTP.Port)
	}

	if Config.HTTP.MaxUploadMB < 1 {
		return fmt.Errorf("max_upload_mb must be positive, got %d", Config.HTTP.MaxUploadMB)
	}

	if Config.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if Config.Database.BusyTimeoutMS < 0 {
		return fmt.Errorf("busy_timeout_ms cannot be negative")
	}

	if Config.Logging.Format != "console" && Config.Logging.Format != "json" {
		return fmt.Errorf("invalid logging format: %s (must be \"console\" or \"json\")", Config.Logging.Format)
	}

	if Config.Cache.ChartEntries < 1 {
		return fmt.Errorf("cache chart_entries must be positive, got %d", Config.Cache.ChartEntries)
	}

	return nil
}
