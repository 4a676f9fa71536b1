package commands

import (
	"context"
	"fmt"

	"github.com/wonny/moat/internal/contracts"
	"github.com/wonny/moat/internal/external/yahoo"
	"github.com/wonny/moat/internal/freshness"
	"github.com/wonny/moat/internal/screening"
	"github.com/wonny/moat/internal/strategyconfig"
	"github.com/wonny/moat/pkg/config"
	"github.com/wonny/moat/pkg/logger"
	"github.com/wonny/moat/pkg/redis"
)

// app bundles the dependencies every command shares
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	cache   *freshness.Cache
	redis   *redis.Client
	fetcher contracts.Fetcher
}

// loadConfig loads the environment and applies the global flag overrides.
// The snapshot is nil when no --profile is given.
func loadConfig() (*config.Config, *strategyconfig.ProfileSnapshot, []strategyconfig.Warning, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	if profile == "" {
		return cfg, nil, nil, nil
	}

	p, data, err := strategyconfig.Load(profile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load profile: %w", err)
	}
	p.ApplyTo(cfg)
	if err := cfg.Screening.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("profile %s: %w", profile, err)
	}

	snap, err := strategyconfig.NewProfileSnapshot(p, data)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("hash profile: %w", err)
	}
	return cfg, snap, strategyconfig.Warn(p), nil
}

// newApp opens the freshness cache and, when withFetcher is set, the provider client
func newApp(ctx context.Context, withFetcher bool) (*app, error) {
	cfg, snap, warnings, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}

	if snap != nil {
		log.WithFields(map[string]interface{}{
			"strategy_id": snap.StrategyID,
			"version":     snap.Version,
			"hash":        snap.ConfigHash[:12],
		}).Info("Screening profile loaded")
		for _, w := range warnings {
			log.WithField("code", w.Code).Warn(w.Message)
		}
	}

	// 1. Freshness cache
	cache, err := freshness.OpenFromConfig(ctx, cfg.Store, log)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("open freshness cache: %w", err)
	}
	a.cache = cache

	log.WithFields(map[string]interface{}{
		"driver": cfg.Store.Driver,
		"env":    cfg.Env,
	}).Debug("Freshness cache opened")

	if !withFetcher {
		return a, nil
	}

	// 2. Redis (optional, REDIS_ENABLED)
	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rc

	// 3. Provider client
	httpClient := yahoo.NewHTTPClient(cfg.Yahoo, log)
	if rc.Enabled() {
		httpClient = httpClient.WithRateLimiter(redis.NewRateLimiter(rc, "moat:ratelimit"), redis.YahooRateLimit)
	}

	var fetcher contracts.Fetcher = yahoo.NewClient(httpClient, cfg.Yahoo, log)
	if rc.Enabled() {
		fetcher = yahoo.NewCachedFetcher(fetcher, redis.NewCache(rc, "moat"), cfg.Redis.SnapshotTTL, log)
		log.Info("Redis snapshot cache enabled")
	}
	a.fetcher = fetcher

	return a, nil
}

// screener builds the orchestrator over the shared fetcher and cache
func (a *app) screener() *screening.Screener {
	return screening.NewScreener(a.fetcher, a.cache, a.log)
}

// Close releases everything newApp opened
func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.WithError(err).Error("Failed to close freshness cache")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
	a.log.Close()
}
