package config

import (
	"os"
	"strconv"
	"strings"

	"linhypo/internal/errors"
)

// Gamma ratio evaluation modes accepted in GAMMA_MODE
const (
	GammaModeLog    = "log"
	GammaModeDirect = "direct"
)

// Config represents the complete application configuration
type Config struct {
	Regression RegressionConfig
	Database   DatabaseConfig
	Server     ServerConfig
	LogLevel   string
}

// RegressionConfig holds the numerical settings of the regression engine
type RegressionConfig struct {
	SeriesTerms int
	GammaMode   string
	Parallel    bool
	MaxWorkers  int
}

// DatabaseConfig holds database connection settings.
// An empty URL selects the in-memory run store.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Regression: loadRegressionConfig(),
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Default returns the configuration used when nothing is set in the environment
func Default() *Config {
	return &Config{
		Regression: RegressionConfig{
			SeriesTerms: 200,
			GammaMode:   GammaModeLog,
			MaxWorkers:  4,
		},
		Server:   ServerConfig{Port: "8080"},
		LogLevel: "INFO",
	}
}

func loadRegressionConfig() RegressionConfig {
	return RegressionConfig{
		SeriesTerms: getEnvIntOrDefault("SERIES_TERMS", 200),
		GammaMode:   strings.ToLower(getEnvOrDefault("GAMMA_MODE", GammaModeLog)),
		Parallel:    getEnvBoolOrDefault("PARALLEL_TESTS", false),
		MaxWorkers:  getEnvIntOrDefault("MAX_WORKERS", 4),
	}
}

// Validate checks the numerical settings
func (c *Config) Validate() error {
	if c.Regression.SeriesTerms < 1 {
		return errors.ConfigInvalid("SERIES_TERMS must be at least 1")
	}
	switch c.Regression.GammaMode {
	case GammaModeLog, GammaModeDirect:
	default:
		return errors.ConfigInvalid("GAMMA_MODE must be \"log\" or \"direct\", got " + strconv.Quote(c.Regression.GammaMode))
	}
	if c.Regression.MaxWorkers < 1 {
		return errors.ConfigInvalid("MAX_WORKERS must be at least 1")
	}
	if c.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
