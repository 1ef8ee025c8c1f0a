package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gosdt/internal"
	"gosdt/internal/errors"
	"gosdt/internal/plot"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Analysis AnalysisConfig
	Export   ExportConfig
	LogLevel internal.LogLevel
}

// DatabaseConfig holds database connection settings. An empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL            string
	ConnectTimeout time.Duration
}

// Enabled reports whether a PostgreSQL database is configured
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	UIPort          string
	GinMode         string
	ShutdownTimeout time.Duration
}

// AnalysisConfig holds settings for summaries and plots
type AnalysisConfig struct {
	Workers       int
	DensityPoints int
	DensitySpan   float64
}

// ExportConfig holds spreadsheet export settings
type ExportConfig struct {
	Dir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	levelStr := getEnvOrDefault("LOG_LEVEL", "INFO")
	level, ok := internal.ParseLogLevel(levelStr)
	if !ok {
		return nil, errors.ConfigInvalid(fmt.Sprintf("LOG_LEVEL %q is not one of ERROR, WARN, INFO, DEBUG, TRACE", levelStr))
	}

	config := &Config{
		Database: DatabaseConfig{
			URL:            os.Getenv("DATABASE_URL"),
			ConnectTimeout: getEnvDurationOrDefault("DB_CONNECT_TIMEOUT", 10*time.Second),
		},
		Server: ServerConfig{
			Port:            getEnvOrDefault("PORT", "8080"),
			UIPort:          getEnvOrDefault("UI_PORT", "8081"),
			GinMode:         getEnvOrDefault("GIN_MODE", "release"),
			ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Analysis: AnalysisConfig{
			Workers:       getEnvIntOrDefault("WORKERS", 4),
			DensityPoints: getEnvIntOrDefault("DENSITY_POINTS", 201),
			DensitySpan:   getEnvFloatOrDefault("DENSITY_SPAN", 4.0),
		},
		Export: ExportConfig{
			Dir: getEnvOrDefault("EXPORT_DIR", "./exports"),
		},
		LogLevel: level,
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Server.Port == config.Server.UIPort {
		return errors.ConfigInvalid("PORT and UI_PORT must differ")
	}
	switch config.Server.GinMode {
	case "debug", "release", "test":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("GIN_MODE %q must be debug, release or test", config.Server.GinMode))
	}
	if config.Analysis.Workers < 1 {
		return errors.ConfigInvalid("WORKERS must be at least 1")
	}
	if config.Analysis.DensityPoints < 2 || config.Analysis.DensityPoints > plot.MaxDensityPoints {
		return errors.ConfigInvalid(fmt.Sprintf("DENSITY_POINTS must be between 2 and %d", plot.MaxDensityPoints))
	}
	if !(config.Analysis.DensitySpan > 0) {
		return errors.ConfigInvalid("DENSITY_SPAN must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
