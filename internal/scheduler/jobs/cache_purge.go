package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/volur/pkg/logger"
)

// Purger deletes cache rows stored before cutoff
type Purger interface {
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// CachePurgeJob removes expired rows from a persistent cache backend.
// Expired entries are never served; this only reclaims space.
type CachePurgeJob struct {
	purger Purger
	ttl    time.Duration
	now    func() time.Time
	logger *logger.Logger
}

// NewCachePurgeJob creates a new cache purge job
func NewCachePurgeJob(p Purger, ttl time.Duration, log *logger.Logger) *CachePurgeJob {
	return &CachePurgeJob{
		purger: p,
		ttl:    ttl,
		now:    time.Now,
		logger: log.WithField("job", "cache_purge"),
	}
}

// Name returns the job name
func (j *CachePurgeJob) Name() string {
	return "cache_purge"
}

// Schedule returns the cron schedule (hourly, at minute 30)
func (j *CachePurgeJob) Schedule() string {
	return "0 30 * * * *"
}

// Run deletes entries older than the TTL
func (j *CachePurgeJob) Run(ctx context.Context) error {
	removed, err := j.purger.Purge(ctx, j.now().Add(-j.ttl))
	if err != nil {
		return fmt.Errorf("purge cache: %w", err)
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Cache purge completed")
	}
	return nil
}
