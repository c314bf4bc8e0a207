package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"jugglerbayes/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `validate:"required"`
	Catalog CatalogConfig `validate:"required"`
	Sweep   SweepConfig   `validate:"required"`
	Limits  LimitsConfig  `validate:"required"`
	Logging LoggingConfig `validate:"required"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	UIPort  string `validate:"required,numeric"`
	APIPort string `validate:"required,numeric"`
	GinMode string `validate:"oneof=debug release test"`
}

// CatalogConfig says where the setting tables come from.
// An empty File selects the built-in table named by Builtin.
type CatalogConfig struct {
	File    string
	Builtin string `validate:"required"`
}

// SweepConfig bounds the sweep operation
type SweepConfig struct {
	MaxPoints int `validate:"gt=0"`
	Workers   int `validate:"gt=0"`
}

// LimitsConfig caps the size of a single session
type LimitsConfig struct {
	MaxTrials int `validate:"gt=0"`
}

// LoggingConfig holds logrus settings
type LoggingConfig struct {
	Level string `validate:"oneof=trace debug info warn warning error fatal panic"`
}

// LoadDotEnv reads a .env file into the process environment when one exists
func LoadDotEnv(paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		log.Debug("No .env file found, using system environment variables")
	}
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:  *loadServerConfig(),
		Catalog: *loadCatalogConfig(),
		Sweep:   *loadSweepConfig(),
		Limits:  *loadLimitsConfig(),
		Logging: *loadLoggingConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		UIPort:  getEnvOrDefault("UI_PORT", "8080"),
		APIPort: getEnvOrDefault("API_PORT", "8081"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadCatalogConfig() *CatalogConfig {
	return &CatalogConfig{
		File:    getEnvOrDefault("CATALOG_FILE", ""),
		Builtin: getEnvOrDefault("CATALOG_BUILTIN", "myjuggler5"),
	}
}

func loadSweepConfig() *SweepConfig {
	return &SweepConfig{
		MaxPoints: getEnvIntOrDefault("SWEEP_MAX_POINTS", 2000),
		Workers:   getEnvIntOrDefault("SWEEP_WORKERS", 8),
	}
}

func loadLimitsConfig() *LimitsConfig {
	return &LimitsConfig{
		MaxTrials: getEnvIntOrDefault("MAX_TRIALS", 100000),
	}
}

func loadLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Level: strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
	}
}

func validateConfig(config *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(config); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.ConfigInvalid(fe.Namespace() + " failed " + fe.Tag() + " check")
		}
		return errors.ConfigInvalid(err.Error())
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
