package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Provider.BaseURL)
	assert.Equal(t, 60, cfg.Provider.TimeoutSecs)
	assert.InDelta(t, 20.0, cfg.Provider.RateLimit, 0.001)
	assert.Equal(t, 3, cfg.Provider.MaxAttempts)
	assert.Equal(t, 5, cfg.Provider.BreakerFailures)
	assert.InDelta(t, 1.6, cfg.Scan.EyeHeightM, 0.001)
	assert.InDelta(t, 10.0, cfg.Scan.BuildingThresholdM, 0.001)
	assert.Equal(t, 120, cfg.Scan.SampleMin)
	assert.Equal(t, 500, cfg.Scan.SampleMax)
	assert.InDelta(t, 20.0, cfg.Scan.MetersPerSample, 0.001)
	assert.Equal(t, 8, cfg.Scan.Concurrency)
	assert.InDelta(t, 30.0, cfg.Scan.FanDeltaThetaDeg, 0.001)
	assert.Equal(t, 13, cfg.Scan.FanRayCount)
	assert.Equal(t, 36, cfg.Scan.SweepRayCount)
	assert.InDelta(t, 5000.0, cfg.Scan.SweepRangeM, 0.001)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "sqlite", cfg.Cache.Driver)
	assert.Equal(t, 720, cfg.Cache.TTLHours)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
provider:
  base_url: https://dsm.example.com
scan:
  sweep_ray_count: 72
  building_threshold_m: 6.5
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://dsm.example.com", cfg.Provider.BaseURL)
	assert.Equal(t, 72, cfg.Scan.SweepRayCount)
	assert.InDelta(t, 6.5, cfg.Scan.BuildingThresholdM, 0.001)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, 13, cfg.Scan.FanRayCount)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
cache:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("SIGHTLINE_CACHE_DRIVER", "postgres")
	t.Setenv("SIGHTLINE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Cache.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("SIGHTLINE_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Provider.BaseURL = "http://localhost:8000"
	cfg.Scan.SampleMin = 120
	cfg.Scan.SampleMax = 500
	cfg.Scan.MetersPerSample = 20
	cfg.Scan.Concurrency = 8
	cfg.Scan.FanRayCount = 13
	cfg.Scan.SweepRayCount = 36
	cfg.Scan.SweepRangeM = 5000
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateScan_AllPresent(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("scan"))
}

func TestValidateScan_MissingProvider(t *testing.T) {
	cfg := validDefaults()
	cfg.Provider.BaseURL = ""

	err := cfg.Validate("scan")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "provider.base_url is required")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")

	// Scan mode never binds a port.
	assert.NoError(t, cfg.Validate("scan"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Scan.Concurrency = 0
	err := cfg.Validate("scan")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency must be between 1 and 64")

	cfg.Scan.Concurrency = 65
	err = cfg.Validate("scan")
	assert.Error(t, err)

	cfg.Scan.Concurrency = 64
	assert.NoError(t, cfg.Validate("scan"))
}

func TestValidateSamplingBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Scan.SampleMax = 50
	err := cfg.Validate("scan")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sample_max must be >= scan.sample_min")

	cfg.Scan.SampleMax = 500
	cfg.Scan.MetersPerSample = 0
	err = cfg.Validate("scan")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "meters_per_sample")
}

func TestValidateCacheDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Cache.Enabled = true
	cfg.Cache.Driver = "redis"

	err := cfg.Validate("scan")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cache.driver must be sqlite or postgres")

	// Disabled cache skips the driver check.
	cfg.Cache.Enabled = false
	assert.NoError(t, cfg.Validate("scan"))
}
