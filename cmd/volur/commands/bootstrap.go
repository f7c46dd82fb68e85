package commands

import (
	"context"
	"fmt"

	"github.com/wonny/volur/internal/cache"
	"github.com/wonny/volur/internal/cache/pgstore"
	"github.com/wonny/volur/internal/cache/redisstore"
	"github.com/wonny/volur/internal/contracts"
	"github.com/wonny/volur/internal/engine"
	"github.com/wonny/volur/internal/external/providers"
	"github.com/wonny/volur/internal/profile"
	"github.com/wonny/volur/internal/source"
	"github.com/wonny/volur/internal/valuation"
	"github.com/wonny/volur/pkg/config"
	"github.com/wonny/volur/pkg/database"
	"github.com/wonny/volur/pkg/logger"
	"github.com/wonny/volur/pkg/redis"
)

// app holds everything a command needs
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	rdb    *redis.Client
	db     *database.DB
	pg     *pgstore.Store   // set when CACHE_BACKEND=postgres
	prof   *profile.Profile // set when a profile is configured
	engine *engine.Engine
}

// bootstrap loads config, connects the configured backends and registers
// the providers in the default registry
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	if profilePath != "" {
		cfg.Valuation.ProfilePath = profilePath
	}

	a := &app{cfg: cfg, log: logger.New(cfg)}

	if err := a.loadProfile(); err != nil {
		return nil, err
	}

	if a.rdb, err = redis.New(cfg); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	backend, err := a.cacheBackend(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	reg := source.Default()
	if _, err := providers.RegisterAll(reg, cfg, a.log, a.rdb); err != nil {
		a.Close()
		return nil, fmt.Errorf("register providers: %w", err)
	}

	c := cache.New(backend, cfg.Cache.TTL, a.log)
	a.engine = engine.New(reg, c, a.log, cfg.Valuation.Workers)
	if a.prof != nil {
		a.engine.WithScorer(valuation.NewScorer(a.log).WithBands(a.prof.ScoringBands()))
	}

	a.log.WithFields(map[string]interface{}{
		"cache_backend": cfg.Cache.Backend,
		"cache_ttl":     cfg.Cache.TTL.String(),
		"sources":       reg.Names(),
	}).Debug("Engine ready")

	return a, nil
}

func (a *app) cacheBackend(ctx context.Context) (cache.Backend, error) {
	switch a.cfg.Cache.Backend {
	case config.CacheBackendRedis:
		return redisstore.New(a.rdb, a.cfg.Cache.Prefix, a.cfg.Cache.TTL), nil

	case config.CacheBackendPostgres:
		db, err := database.New(ctx, a.cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		a.pg = pgstore.New(db.Pool)
		if err := a.pg.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate cache table: %w", err)
		}
		return a.pg, nil

	default:
		return cache.NewMemoryBackend(), nil
	}
}

// loadProfile reads the configured profile; its source becomes the default
func (a *app) loadProfile() error {
	path := a.cfg.Valuation.ProfilePath
	if path == "" {
		return nil
	}

	p, _, err := profile.Load(path)
	if err != nil {
		return err
	}
	hash, err := profile.Hash(p)
	if err != nil {
		return err
	}

	for _, w := range profile.Warn(p) {
		a.log.WithFields(map[string]interface{}{
			"profile": p.Meta.ProfileID,
			"code":    w.Code,
		}).Warn(w.Message)
	}
	a.log.WithFields(map[string]interface{}{
		"profile": p.Meta.ProfileID,
		"version": p.Meta.Version,
		"hash":    hash,
	}).Info("Valuation profile loaded")

	if p.Meta.Source != "" {
		a.cfg.Valuation.DefaultSource = p.Meta.Source
	}
	a.prof = p
	return nil
}

// defaultParams are the DCF parameters from the profile, else from config
func (a *app) defaultParams() contracts.DCFParams {
	if a.prof != nil {
		return a.prof.DCFParams()
	}
	v := a.cfg.Valuation
	return contracts.DCFParams{
		DiscountRate:   v.DiscountRate,
		GrowthRate:     v.GrowthRate,
		TerminalGrowth: v.TerminalGrowth,
		Years:          v.Years,
	}
}

// weights are the score weights from the profile, else from config
func (a *app) weights() contracts.ScoringWeights {
	if a.prof != nil {
		return a.prof.ScoringWeights()
	}
	w := a.cfg.Weights
	return contracts.ScoringWeights{PE: w.PE, PB: w.PB, FCFYield: w.FCFYield, ROE: w.ROE}
}

// Close releases backend connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
}
