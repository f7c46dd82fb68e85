// Package providers builds every data provider and registers it.
package providers

import (
	"fmt"

	"golang.org/x/time/rate"

	"github.com/wonny/volur/internal/contracts"
	"github.com/wonny/volur/internal/external/finnhub"
	"github.com/wonny/volur/internal/external/fmp"
	"github.com/wonny/volur/internal/external/sec"
	"github.com/wonny/volur/internal/external/yahoo"
	"github.com/wonny/volur/internal/source"
	"github.com/wonny/volur/pkg/config"
	"github.com/wonny/volur/pkg/httputil"
	"github.com/wonny/volur/pkg/logger"
	"github.com/wonny/volur/pkg/redis"
)

// RegisterAll constructs the providers and adds them to reg.
// ⭐ SSOT: 프로바이더 생성과 등록은 여기서만
// Providers that need an API key are skipped with a warning when none is set.
// rdb may be nil; when it is enabled, rate limits are shared across processes.
func RegisterAll(reg *source.Registry, cfg *config.Config, log *logger.Logger, rdb *redis.Client) ([]string, error) {
	if log == nil {
		log = logger.Nop()
	}
	b := &builder{cfg: cfg, log: log, rdb: rdb}

	var sources []contracts.DataSource

	yf := yahoo.NewClient(b.httpClient(yahoo.Name, cfg.Yahoo.RateLimit), cfg.Yahoo, log)
	sources = append(sources, yf)

	// EDGAR has no prices; sec quotes come from yfinance
	sources = append(sources, sec.NewClient(b.httpClient(sec.Name, cfg.SEC.RateLimit), cfg.SEC, log).WithQuotes(yf))

	if cfg.FMP.APIKey != "" {
		sources = append(sources, fmp.NewClient(b.httpClient(fmp.Name, cfg.FMP.RateLimit), cfg.FMP, log))
	} else {
		log.WithField("source", fmp.Name).Warn("FMP_API_KEY not set, provider skipped")
	}

	if cfg.Finnhub.APIKey != "" {
		sources = append(sources, finnhub.NewClient(b.httpClient(finnhub.Name, cfg.Finnhub.RateLimit), cfg.Finnhub, log))
	} else {
		log.WithField("source", finnhub.Name).Warn("FINNHUB_API_KEY not set, provider skipped")
	}

	var registered []string
	for _, src := range sources {
		if err := reg.Register(src); err != nil {
			return registered, fmt.Errorf("register %s: %w", src.Name(), err)
		}
		registered = append(registered, src.Name())
	}

	log.WithField("sources", registered).Info("Data providers registered")
	return registered, nil
}

type builder struct {
	cfg *config.Config
	log *logger.Logger
	rdb *redis.Client
}

// httpClient returns a provider client throttled to rps
func (b *builder) httpClient(name string, rps float64) *httputil.Client {
	client := httputil.New(b.log.WithField("source", name))
	return client.WithLimiter(b.limiter(name, rps))
}

func (b *builder) limiter(name string, rps float64) httputil.Limiter {
	if b.rdb != nil && b.rdb.Enabled() {
		return redis.NewRateLimiter(b.rdb, b.cfg.Cache.Prefix).Bind(redis.PerSecond(name, rps))
	}
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
