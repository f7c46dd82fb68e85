package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/volur/internal/scheduler"
	"github.com/wonny/volur/internal/scheduler/jobs"
)

// warmCmd represents the warm command
var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Run the cache warm-up scheduler",
	Long: `Keeps quote and fundamentals for a watchlist in the cache.

The watchlist comes from WARMUP_TICKERS (comma separated) and the schedule
from WARMUP_SCHEDULE (cron with seconds). With a postgres cache backend an
hourly purge of expired rows is scheduled as well.

Example:
  WARMUP_TICKERS=AAPL,MSFT go run ./cmd/volur warm
  go run ./cmd/volur warm --once --ticker AAPL --ticker MSFT`,
	RunE: runWarm,
}

var (
	warmOnce    bool
	warmTickers []string
	warmSource  string
)

func init() {
	rootCmd.AddCommand(warmCmd)

	warmCmd.Flags().BoolVar(&warmOnce, "once", false, "warm once and exit")
	warmCmd.Flags().StringSliceVarP(&warmTickers, "ticker", "t", nil, "watchlist (overrides WARMUP_TICKERS)")
	warmCmd.Flags().StringVar(&warmSource, "source", "", "data source (overrides WARMUP_SOURCE)")
}

// newScheduler registers the warm-up job, plus the purge job for postgres
func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	src := a.cfg.Warmup.Source
	if src == "" {
		src = a.cfg.Valuation.DefaultSource
	}
	if _, err := a.engine.GetSource(src); err != nil {
		return nil, err
	}

	sched := scheduler.New(a.log)
	warm := jobs.NewCacheWarmJob(a.engine, src, a.cfg.Warmup.Tickers, a.cfg.Warmup.Schedule, a.log)
	if err := sched.AddJob(warm); err != nil {
		return nil, err
	}

	if a.pg != nil {
		if err := sched.AddJob(jobs.NewCachePurgeJob(a.pg, a.cfg.Cache.TTL, a.log)); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

func runWarm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(warmTickers) > 0 {
		a.cfg.Warmup.Tickers = warmTickers
	}
	if warmSource != "" {
		a.cfg.Warmup.Source = warmSource
	}
	if len(a.cfg.Warmup.Tickers) == 0 {
		return fmt.Errorf("watchlist is empty: set WARMUP_TICKERS or --ticker")
	}

	sched, err := a.newScheduler()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if warmOnce {
		result, err := sched.RunNow(ctx, "cache_warm")
		if err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("cache warm-up failed: %s", result.Error)
		}
		PrintSuccess(out, fmt.Sprintf("Warmed %d ticker(s) in %s", len(a.cfg.Warmup.Tickers), result.Duration.Round(time.Millisecond)))
		return nil
	}

	sched.Start()
	fmt.Fprintf(out, "✅ Scheduler started: %v (Ctrl+C to stop)\n", sched.Jobs())

	<-ctx.Done()
	sched.Stop()
	return nil
}
