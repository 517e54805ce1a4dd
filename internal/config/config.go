package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Provider ProviderConfig `yaml:"provider" mapstructure:"provider"`
	Scan     ScanConfig     `yaml:"scan" mapstructure:"scan"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ProviderConfig configures the DSM profile service client.
type ProviderConfig struct {
	BaseURL          string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit        float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BreakerFailures  int     `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	BreakerResetSecs int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// ScanConfig configures scan geometry and sampling.
type ScanConfig struct {
	EyeHeightM         float64 `yaml:"eye_height_m" mapstructure:"eye_height_m"`
	BuildingThresholdM float64 `yaml:"building_threshold_m" mapstructure:"building_threshold_m"`
	SampleMin          int     `yaml:"sample_min" mapstructure:"sample_min"`
	SampleMax          int     `yaml:"sample_max" mapstructure:"sample_max"`
	MetersPerSample    float64 `yaml:"meters_per_sample" mapstructure:"meters_per_sample"`
	Concurrency        int     `yaml:"concurrency" mapstructure:"concurrency"`
	FanDeltaThetaDeg   float64 `yaml:"fan_delta_theta_deg" mapstructure:"fan_delta_theta_deg"`
	FanRayCount        int     `yaml:"fan_ray_count" mapstructure:"fan_ray_count"`
	SweepRayCount      int     `yaml:"sweep_ray_count" mapstructure:"sweep_ray_count"`
	SweepRangeM        float64 `yaml:"sweep_range_m" mapstructure:"sweep_range_m"`
	ProbeRangeM        float64 `yaml:"probe_range_m" mapstructure:"probe_range_m"`
}

// CacheConfig configures the profile cache backend.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Driver   string `yaml:"driver" mapstructure:"driver"`
	DSN      string `yaml:"dsn" mapstructure:"dsn"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SIGHTLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("provider.base_url", "http://localhost:8000")
	v.SetDefault("provider.timeout_secs", 60)
	v.SetDefault("provider.rate_limit", 20.0)
	v.SetDefault("provider.max_attempts", 3)
	v.SetDefault("provider.breaker_failures", 5)
	v.SetDefault("provider.breaker_reset_secs", 30)
	v.SetDefault("scan.eye_height_m", 1.6)
	v.SetDefault("scan.building_threshold_m", 10.0)
	v.SetDefault("scan.sample_min", 120)
	v.SetDefault("scan.sample_max", 500)
	v.SetDefault("scan.meters_per_sample", 20.0)
	v.SetDefault("scan.concurrency", 8)
	v.SetDefault("scan.fan_delta_theta_deg", 30.0)
	v.SetDefault("scan.fan_ray_count", 13)
	v.SetDefault("scan.sweep_ray_count", 36)
	v.SetDefault("scan.sweep_range_m", 5000.0)
	v.SetDefault("scan.probe_range_m", 10.0)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.dsn", "sightline-cache.db")
	v.SetDefault("cache.ttl_hours", 720)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration is usable for the given mode
// ("scan" or "serve"). Collected problems are reported together.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "scan", "serve":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Provider.BaseURL == "" {
		problems = append(problems, "provider.base_url is required")
	}
	if c.Scan.Concurrency < 1 || c.Scan.Concurrency > 64 {
		problems = append(problems, "scan.concurrency must be between 1 and 64")
	}
	if c.Scan.SampleMin < 2 {
		problems = append(problems, "scan.sample_min must be >= 2")
	}
	if c.Scan.SampleMax < c.Scan.SampleMin {
		problems = append(problems, "scan.sample_max must be >= scan.sample_min")
	}
	if c.Scan.MetersPerSample <= 0 {
		problems = append(problems, "scan.meters_per_sample must be > 0")
	}
	if c.Scan.FanRayCount < 2 {
		problems = append(problems, "scan.fan_ray_count must be >= 2")
	}
	if c.Scan.SweepRayCount < 1 {
		problems = append(problems, "scan.sweep_ray_count must be >= 1")
	}
	if c.Scan.SweepRangeM <= 0 {
		problems = append(problems, "scan.sweep_range_m must be > 0")
	}
	if c.Cache.Enabled && c.Cache.Driver != "sqlite" && c.Cache.Driver != "postgres" {
		problems = append(problems, "cache.driver must be sqlite or postgres")
	}

	if mode == "serve" && c.Server.Port <= 0 {
		problems = append(problems, "server.port must be > 0")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
