package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/exo-habitability/pkg/physics"
)

var envKeys = []string{
	"EXO_INPUT_PATH", "EXO_CACHE_PATH", "EXO_OUTPUT_DIR", "EXO_DATABASE_PATH",
	"EXO_CACHE_POLICY", "EXO_CORRECTIONS_FILE", "EXO_METRICS_PATH",
	"EXO_HZ_MIN_K", "EXO_HZ_MAX_K", "EXO_MAX_GRAVITY_G",
	"EXO_GAS_MAX_DENSITY", "EXO_IRON_MIN_DENSITY", "EXO_BOND_ALBEDO",
	"LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv unsets every variable FromEnv reads for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "./data/exoplanets.csv", cfg.InputPath)
	assert.Equal(t, "./data/clean_exoplanets.csv", cfg.CachePath)
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, CachePresence, cfg.CachePolicy)
	assert.Equal(t, physics.DefaultSettings(), cfg.Derivation)
	require.NotNil(t, cfg.Database)
	assert.Equal(t, "./data/exoplanets.db", cfg.Database.Path)
	assert.Equal(t, 1, cfg.Database.MaxOpenConns)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXO_INPUT_PATH", "in.xlsx")
	t.Setenv("EXO_CACHE_POLICY", "Fingerprint")
	t.Setenv("EXO_HZ_MIN_K", "180")
	t.Setenv("EXO_MAX_GRAVITY_G", "2.5")
	t.Setenv("EXO_BOND_ALBEDO", "0")
	t.Setenv("EXO_DATABASE_PATH", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "in.xlsx", cfg.InputPath)
	assert.Equal(t, CacheFingerprint, cfg.CachePolicy)
	assert.Equal(t, 180.0, cfg.Derivation.Zone.MinK)
	assert.Equal(t, 2.5, cfg.Derivation.MaxGravityG)
	assert.Equal(t, 0.0, cfg.Derivation.BondAlbedo)
	assert.Nil(t, cfg.Database, "an empty database path disables the store")
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"malformed float":   {"EXO_MAX_GRAVITY_G", "four"},
		"unknown policy":    {"EXO_CACHE_POLICY", "always"},
		"inverted zone":     {"EXO_HZ_MAX_K", "100"},
		"albedo of one":     {"EXO_BOND_ALBEDO", "1"},
		"overlapping bands": {"EXO_IRON_MIN_DENSITY", "1000"},
		"nan gravity":       {"EXO_MAX_GRAVITY_G", "NaN"},
		"infinite zone":     {"EXO_HZ_MAX_K", "+Inf"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestValidateRejectsNonFiniteSettings(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	require.NoError(t, err)

	cfg.Derivation.MaxGravityG = math.NaN()
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max gravity")

	cfg.Derivation.MaxGravityG = 4
	cfg.Derivation.Thresholds.GasGiantMaxDensity = math.NaN()
	assert.Error(t, cfg.Validate())
}

func TestLoadConfigDefersValidation(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	t.Setenv("EXO_CACHE_POLICY", "always")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())

	cfg.CachePolicy = CacheFingerprint
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("EXO_OUTPUT_DIR=charts\n"), 0o644))

	chdir(t, dir)
	t.Cleanup(func() { _ = os.Unsetenv("EXO_OUTPUT_DIR") })

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "charts", cfg.OutputDir)
}

func TestDatabaseConnectionString(t *testing.T) {
	cfg := &DatabaseConfig{Path: "/tmp/x.db", BusyTimeout: 2500 * time.Millisecond}
	assert.Equal(t, "file:/tmp/x.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(2500)", cfg.ConnectionString())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", "console")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger("loud", "json")
	assert.Error(t, err)

	_, err = NewLogger("info", "xml")
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (stand-in for testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
