package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/violation-portal/internal/config"
	"github.com/sells-group/violation-portal/internal/docstore"
	"github.com/sells-group/violation-portal/internal/loader"
	"github.com/sells-group/violation-portal/internal/monitoring"
	"github.com/sells-group/violation-portal/internal/resilience"
	"github.com/sells-group/violation-portal/pkg/geocode"
)

// portalEnv holds the store, geocoder and loader shared by serve and load.
// Checker wraps Loader and is what commands run.
type portalEnv struct {
	Store    docstore.Store
	Geocoder *geocode.Client
	Loader   *loader.Loader
	Checker  *monitoring.Checker
}

// Close releases resources held by the environment.
func (pe *portalEnv) Close() {
	if pe.Store != nil {
		if err := pe.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

// initPortal validates cfg for mode, opens the store and builds the loader.
// Callers should defer env.Close().
func initPortal(ctx context.Context, mode string) (*portalEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := docstore.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	concurrency := cfg.EnrichmentConcurrency()
	if concurrency < cfg.Loader.Concurrency {
		zap.L().Warn("loader concurrency capped by geocode rate limit",
			zap.Int("configured", cfg.Loader.Concurrency),
			zap.Int("effective", concurrency),
			zap.Float64("rate_limit", cfg.Geocode.RateLimit),
			zap.Int("task_timeout_secs", cfg.Loader.TaskTimeoutSecs),
		)
	}

	gc := newGeocoder(cfg.Geocode)
	ld := loader.New(st, gc,
		loader.WithCollection(cfg.Loader.Collection),
		loader.WithConcurrency(concurrency),
		loader.WithTaskTimeout(cfg.Loader.TaskTimeout()),
		loader.WithFetchTimeout(cfg.Loader.FetchTimeout()),
		loader.WithFields(loader.FieldsFromConfig(cfg.Loader.Fields)),
	)

	zap.L().Info("portal initialized",
		zap.String("store", cfg.Store.Driver),
		zap.String("collection", ld.Collection()),
		zap.Stringer("geocoder", gc),
	)

	checker := monitoring.NewChecker(ld, monitoring.NewAlerter(cfg.Monitoring), ld.Collection())

	return &portalEnv{Store: st, Geocoder: gc, Loader: ld, Checker: checker}, nil
}

// newGeocoder builds the reverse geocoding client from configuration.
func newGeocoder(c config.GeocodeConfig) *geocode.Client {
	retry := resilience.RetryFromConfig(c.Retry)
	retry.OnRetry = resilience.RetryLogger("nominatim", "reverse")

	breaker := resilience.CircuitFromConfig(c.Circuit)
	breaker.OnStateChange = func(from, to resilience.CircuitState) {
		zap.L().Warn("geocode circuit state change",
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
	}

	opts := []geocode.Option{
		geocode.WithBaseURL(c.BaseURL),
		geocode.WithUserAgent(c.UserAgent),
		geocode.WithEmail(c.Email),
		geocode.WithLanguage(c.Language),
		geocode.WithRateLimit(c.RateLimit),
		geocode.WithRetry(retry),
		geocode.WithCircuitBreaker(breaker),
		geocode.WithCache(c.CacheSize, time.Duration(c.CacheTTLMins)*time.Minute),
	}
	if c.TimeoutSecs > 0 {
		opts = append(opts, geocode.WithHTTPClient(&http.Client{Timeout: time.Duration(c.TimeoutSecs) * time.Second}))
	}
	return geocode.NewClient(opts...)
}
