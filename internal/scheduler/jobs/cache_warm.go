// Package jobs holds the scheduled jobs.
package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/volur/internal/engine"
	"github.com/wonny/volur/pkg/logger"
)

// Warmer is the engine surface the warm-up job needs
type Warmer interface {
	Warm(ctx context.Context, source string, tickers []string) (engine.WarmReport, error)
}

// CacheWarmJob refreshes quote and fundamentals for a watchlist
// ⭐ SSOT: 캐시 워밍 스케줄은 이 Job에서만
type CacheWarmJob struct {
	warmer   Warmer
	source   string
	tickers  []string
	schedule string
	logger   *logger.Logger
}

// NewCacheWarmJob creates a new cache warm-up job
func NewCacheWarmJob(w Warmer, source string, tickers []string, schedule string, log *logger.Logger) *CacheWarmJob {
	return &CacheWarmJob{
		warmer:   w,
		source:   source,
		tickers:  tickers,
		schedule: schedule,
		logger:   log.WithField("job", "cache_warm"),
	}
}

// Name returns the job name
func (j *CacheWarmJob) Name() string {
	return "cache_warm"
}

// Schedule returns the cron schedule
func (j *CacheWarmJob) Schedule() string {
	return j.schedule
}

// Run warms the cache. Individual ticker failures are logged; the run only
// fails when no ticker could be loaded.
func (j *CacheWarmJob) Run(ctx context.Context) error {
	if len(j.tickers) == 0 {
		j.logger.Debug("Watchlist empty, nothing to warm")
		return nil
	}

	report, err := j.warmer.Warm(ctx, j.source, j.tickers)
	if err != nil {
		return fmt.Errorf("warm %s: %w", j.source, err)
	}

	for ticker, reason := range report.Failed {
		j.logger.WithTicker(j.source, ticker).WithField("reason", reason).Warn("Ticker not warmed")
	}

	j.logger.WithFields(map[string]interface{}{
		"source": j.source,
		"warmed": report.Warmed,
		"failed": len(report.Failed),
	}).Info("Cache warm-up completed")

	if report.Warmed == 0 {
		return fmt.Errorf("warm %s: all %d tickers failed", j.source, len(j.tickers))
	}
	return nil
}
