package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"gamelens/internal/aggregate"
	"gamelens/internal/apicache"
	"gamelens/internal/catalog"
	"gamelens/internal/compat"
	"gamelens/internal/config"
	"gamelens/internal/logging"
	"gamelens/internal/metrics"
	"gamelens/internal/requestscope"
	"gamelens/internal/search"
	"gamelens/internal/sources"
	"gamelens/internal/sources/igdb"
	"gamelens/internal/sources/opencritic"
	"gamelens/internal/sources/rawg"
)

// runtime holds everything a command needs to talk to the sources.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	cache    *apicache.Store
	metrics  *metrics.Recorder
	registry *sources.Registry
	search   *search.Orchestrator
	catalog  *catalog.Service
}

// withRuntime builds a runtime for one command, runs fn inside a fresh
// request scope, then closes the cache and flushes metrics.
func withRuntime(ctx context.Context, cc *commandContext, fn func(context.Context, *runtime) error) error {
	cfg, err := cc.ensureConfig()
	if err != nil {
		return err
	}
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	runErr := fn(requestscope.With(ctx), rt)
	return errors.Join(runErr, rt.close())
}

func newRuntime(cfg *config.Config) (*runtime, error) {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	cache, err := apicache.Open(cfg.CacheDBPath())
	if err != nil {
		return nil, fmt.Errorf("open response cache: %w", err)
	}
	recorder := metrics.New()

	registry, err := buildRegistry(cfg, cache, recorder, logger)
	if err != nil {
		_ = cache.Close()
		return nil, err
	}

	engine := aggregate.New(
		aggregate.CoverPriority{Preferred: cfg.Search.CoverPriority, Deprioritized: cfg.Search.CoverDeprioritized},
		aggregate.WithChecker(compat.NewChecker(cfg.Search.DateToleranceDays)),
		aggregate.WithLogger(logger),
	)
	enabled := registry.Enabled()
	searchers := make([]search.Adapter, len(enabled))
	for i, a := range enabled {
		searchers[i] = a
	}
	orchestrator := search.New(searchers, engine,
		search.Options{MinRelevance: cfg.Search.MinRelevance, MaxResults: cfg.Search.MaxResults},
		search.WithLogger(logger),
		search.WithObserver(recorder),
	)

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		cache:    cache,
		metrics:  recorder,
		registry: registry,
		search:   orchestrator,
		catalog:  catalog.New(registry, logger),
	}, nil
}

func (rt *runtime) close() error {
	var errs []error
	if rt.metrics != nil && rt.cfg.Metrics.TextfilePath != "" {
		if err := rt.metrics.WriteTextfile(rt.cfg.Metrics.TextfilePath); err != nil {
			logging.WarnWithContext(rt.logger, "metrics textfile write failed", "metrics_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "metrics for this run were not exported"),
			)
		}
	}
	if rt.cache != nil {
		if err := rt.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close response cache: %w", err))
		}
	}
	return errors.Join(errs...)
}

// buildRegistry constructs a guarded adapter for every enabled source.
func buildRegistry(cfg *config.Config, cache *apicache.Store, recorder *metrics.Recorder, logger *slog.Logger) (*sources.Registry, error) {
	httpClient := &http.Client{Timeout: cfg.RequestTimeout()}
	guardOpts := sources.GuardOptions{
		Timeout:          cfg.RequestTimeout(),
		RatePerSecond:    cfg.Sources.RateLimitPerSecond,
		Burst:            cfg.Sources.RateLimitBurst,
		FailureThreshold: uint32(max(cfg.Sources.BreakerFailureThreshold, 0)),
		OpenTimeout:      cfg.BreakerTimeout(),
	}
	guard := func(a sources.Adapter) sources.Adapter {
		return sources.NewGuard(a, guardOpts, logger, recorder)
	}

	var entries []sources.Entry

	if cfg.IGDB.Enabled {
		tokens, err := igdb.NewTokenSource(igdb.TokenConfig{
			TokenURL:     cfg.IGDB.TokenURL,
			ClientID:     cfg.IGDB.ClientID,
			ClientSecret: cfg.IGDB.ClientSecret,
			StatePath:    cfg.TokenStatePath(),
			HTTPClient:   httpClient,
			Logger:       logger,
		})
		if err != nil {
			return nil, fmt.Errorf("igdb: %w", err)
		}
		adapter, err := igdb.New(igdb.Options{
			BaseURL:        cfg.IGDB.BaseURL,
			Tokens:         tokens,
			HTTPClient:     httpClient,
			Cache:          cache,
			TTL:            cfg.CacheTTL(),
			Observer:       recorder,
			Logger:         logger,
			SearchLimit:    cfg.Sources.SearchLimit,
			NameMatchLimit: cfg.Sources.NameMatchLimit,
			ToleranceDays:  cfg.Search.DateToleranceDays,
		})
		if err != nil {
			return nil, fmt.Errorf("igdb: %w", err)
		}
		entries = append(entries, sources.Entry{Adapter: guard(adapter), Priority: cfg.IGDB.Priority, Enabled: true})
	}

	if cfg.RAWG.Enabled {
		adapter, err := rawg.New(rawg.Options{
			APIKey:         cfg.RAWG.APIKey,
			BaseURL:        cfg.RAWG.BaseURL,
			HTTPClient:     httpClient,
			Cache:          cache,
			TTL:            cfg.CacheTTL(),
			Observer:       recorder,
			Logger:         logger,
			SearchLimit:    cfg.Sources.SearchLimit,
			NameMatchLimit: cfg.Sources.NameMatchLimit,
			ToleranceDays:  cfg.Search.DateToleranceDays,
		})
		if err != nil {
			return nil, fmt.Errorf("rawg: %w", err)
		}
		entries = append(entries, sources.Entry{Adapter: guard(adapter), Priority: cfg.RAWG.Priority, Enabled: true})
	}

	if cfg.OpenCritic.Enabled {
		adapter, err := opencritic.New(opencritic.Options{
			RapidAPIKey: cfg.OpenCritic.RapidAPIKey,
			BaseURL:     cfg.OpenCritic.BaseURL,
			EnrichLimit: cfg.OpenCritic.EnrichLimit,
			HTTPClient:  httpClient,
			Cache:       cache,
			TTL:         cfg.CacheTTL(),
			Observer:    recorder,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("opencritic: %w", err)
		}
		entries = append(entries, sources.Entry{Adapter: guard(adapter), Priority: cfg.OpenCritic.Priority, Enabled: true})
	}

	return sources.NewRegistry(entries...), nil
}
