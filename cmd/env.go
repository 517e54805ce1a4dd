package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kaishiraishi/sightline/internal/dsm"
	"github.com/kaishiraishi/sightline/internal/resilience"
	"github.com/kaishiraishi/sightline/internal/scan"
	"github.com/kaishiraishi/sightline/internal/store"
)

// scanEnv bundles the provider chain and scanner shared by the scan and
// serve commands.
type scanEnv struct {
	Scanner *scan.Scanner
	Client  *dsm.Client // nil when running against a scenario file
	Cache   store.Store // nil when caching is disabled
}

func (e *scanEnv) Close() {
	if e.Cache != nil {
		if err := e.Cache.Close(); err != nil {
			zap.L().Warn("cache close failed", zap.Error(err))
		}
	}
}

// initScanEnv assembles provider, cache, and scanner from config. When
// scenarioPath is set the live service and cache are bypassed entirely.
func initScanEnv(ctx context.Context, scenarioPath string) (*scanEnv, error) {
	env := &scanEnv{}

	var provider scan.Provider
	if scenarioPath != "" {
		scenario, err := dsm.LoadScenario(scenarioPath)
		if err != nil {
			return nil, err
		}
		zap.L().Info("using scenario file", zap.String("path", scenarioPath), zap.String("name", scenario.Name))
		provider = dsm.NewFixtureProvider(scenario)
	} else {
		retry := resilience.DefaultRetryConfig()
		retry.MaxAttempts = cfg.Provider.MaxAttempts
		retry.OnRetry = resilience.RetryLogger("dsm", "profile")

		breaker := resilience.NewCircuitBreaker(resilience.CircuitConfig{
			FailureThreshold: cfg.Provider.BreakerFailures,
			ResetTimeout:     time.Duration(cfg.Provider.BreakerResetSecs) * time.Second,
		})

		client := dsm.NewClient(cfg.Provider.BaseURL,
			dsm.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Provider.TimeoutSecs) * time.Second}),
			dsm.WithRateLimit(cfg.Provider.RateLimit),
			dsm.WithRetry(retry),
			dsm.WithCircuitBreaker(breaker),
		)
		env.Client = client
		provider = client

		if err := client.Health(ctx); err != nil {
			zap.L().Warn("profile service health check failed", zap.Error(err))
		}

		if cfg.Cache.Enabled {
			st, err := store.Open(ctx, cfg.Cache.Driver, cfg.Cache.DSN)
			if err != nil {
				return nil, err
			}
			env.Cache = st
			provider = dsm.NewCachedProvider(provider, st, time.Duration(cfg.Cache.TTLHours)*time.Hour)
		}
	}

	env.Scanner = scan.NewScanner(provider, scan.Options{
		EyeHeightM:         cfg.Scan.EyeHeightM,
		BuildingThresholdM: cfg.Scan.BuildingThresholdM,
		SampleMin:          cfg.Scan.SampleMin,
		SampleMax:          cfg.Scan.SampleMax,
		MetersPerSample:    cfg.Scan.MetersPerSample,
		Concurrency:        cfg.Scan.Concurrency,
		ProbeRangeM:        cfg.Scan.ProbeRangeM,
	})
	return env, nil
}
