// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/David-Botos/exo-habitability/pkg/physics"
)

// CachePolicy decides when a cached snapshot may be reused
type CachePolicy string

const (
	// CachePresence reuses any snapshot that exists. Fingerprint mismatches
	// are only logged.
	CachePresence CachePolicy = "presence"
	// CacheFingerprint recomputes when the snapshot was built with a
	// different schema or different derivation settings.
	CacheFingerprint CachePolicy = "fingerprint"
)

// Config represents the application configuration
type Config struct {
	// Paths
	InputPath       string
	CachePath       string
	OutputDir       string
	CorrectionsFile string
	MetricsPath     string

	// SQLite master-data store; nil disables it
	Database *DatabaseConfig

	CachePolicy CachePolicy

	// Derivation settings
	Derivation physics.Settings

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from the environment. A .env file in the
// working directory is read first if present; real environment variables win.
// The result is not validated, so callers can apply overrides and then call
// Validate once.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return readEnv()
}

// FromEnv builds and validates a Config from environment variables only
func FromEnv() (*Config, error) {
	cfg, err := readEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readEnv() (*Config, error) {
	defaults := physics.DefaultSettings()

	cfg := &Config{
		InputPath:       getEnv("EXO_INPUT_PATH", "./data/exoplanets.csv"),
		CachePath:       getEnv("EXO_CACHE_PATH", "./data/clean_exoplanets.csv"),
		OutputDir:       getEnv("EXO_OUTPUT_DIR", "./output"),
		CorrectionsFile: getEnv("EXO_CORRECTIONS_FILE", ""),
		MetricsPath:     getEnv("EXO_METRICS_PATH", ""),
		CachePolicy:     CachePolicy(strings.ToLower(getEnv("EXO_CACHE_POLICY", string(CachePresence)))),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
	}

	var err error
	floats := []struct {
		key    string
		target *float64
		def    float64
	}{
		{"EXO_HZ_MIN_K", &cfg.Derivation.Zone.MinK, defaults.Zone.MinK},
		{"EXO_HZ_MAX_K", &cfg.Derivation.Zone.MaxK, defaults.Zone.MaxK},
		{"EXO_MAX_GRAVITY_G", &cfg.Derivation.MaxGravityG, defaults.MaxGravityG},
		{"EXO_GAS_MAX_DENSITY", &cfg.Derivation.Thresholds.GasGiantMaxDensity, defaults.Thresholds.GasGiantMaxDensity},
		{"EXO_IRON_MIN_DENSITY", &cfg.Derivation.Thresholds.IronMinDensity, defaults.Thresholds.IronMinDensity},
		{"EXO_BOND_ALBEDO", &cfg.Derivation.BondAlbedo, defaults.BondAlbedo},
	}
	for _, f := range floats {
		if *f.target, err = getEnvAsFloat(f.key, f.def); err != nil {
			return nil, err
		}
	}

	cfg.Database = LoadDatabaseConfig()
	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("input path is required")
	}

	if c.CachePath == "" {
		return errors.New("cache path is required")
	}

	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}

	switch c.CachePolicy {
	case CachePresence, CacheFingerprint:
	default:
		return fmt.Errorf("unknown cache policy %q (want %q or %q)", c.CachePolicy, CachePresence, CacheFingerprint)
	}

	d := c.Derivation
	settings := map[string]float64{
		"habitable zone minimum":    d.Zone.MinK,
		"habitable zone maximum":    d.Zone.MaxK,
		"gas giant density limit":   d.Thresholds.GasGiantMaxDensity,
		"iron planet density limit": d.Thresholds.IronMinDensity,
		"max gravity":               d.MaxGravityG,
		"bond albedo":               d.BondAlbedo,
	}
	for name, v := range settings {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s %g is not a finite number", name, v)
		}
	}

	if d.Zone.MinK <= 0 || d.Zone.MaxK <= d.Zone.MinK {
		return fmt.Errorf("habitable zone [%g, %g] K is empty or non-physical", d.Zone.MinK, d.Zone.MaxK)
	}

	if d.Thresholds.GasGiantMaxDensity <= 0 || d.Thresholds.IronMinDensity < d.Thresholds.GasGiantMaxDensity {
		return fmt.Errorf("density thresholds gas < %g, iron > %g overlap", d.Thresholds.GasGiantMaxDensity, d.Thresholds.IronMinDensity)
	}

	if d.MaxGravityG <= 0 {
		return errors.New("max gravity must be positive")
	}

	if d.BondAlbedo < 0 || d.BondAlbedo >= 1 {
		return fmt.Errorf("bond albedo %g must be in [0, 1)", d.BondAlbedo)
	}

	if c.Database != nil {
		if err := c.Database.Validate(); err != nil {
			return fmt.Errorf("invalid database configuration: %w", err)
		}
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat, unlike getEnvAsInt, rejects malformed and non-finite values
func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(valueStr), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, valueStr, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("invalid %s=%q: not a finite number", key, valueStr)
	}
	return value, nil
}
