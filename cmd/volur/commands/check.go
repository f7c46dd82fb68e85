package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/volur/pkg/config"
	"github.com/wonny/volur/pkg/database"
	"github.com/wonny/volur/pkg/redis"
)

// checkCmd verifies configuration and backend connectivity
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check configuration and cache backend connectivity",
	Long: `Loads the configuration and tests the optional backends.

This command:
- loads and validates the environment
- pings Redis when REDIS_ENABLED=true
- runs a PostgreSQL health check when DATABASE_URL is set
- prints the connection pool statistics

Example:
  go run ./cmd/volur check`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	PrintSuccess(out, fmt.Sprintf("Config loaded (ENV: %s, cache: %s, ttl: %s)", cfg.Env, cfg.Cache.Backend, cfg.Cache.TTL))

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	if cfg.Redis.Enabled {
		rdb, err := redis.New(cfg)
		if err != nil {
			return err
		}
		defer rdb.Close()
		PrintSuccess(out, fmt.Sprintf("Redis reachable at %s:%s", cfg.Redis.Host, cfg.Redis.Port))
	} else {
		PrintWarning(out, "Redis disabled")
	}

	if cfg.Database.URL == "" {
		PrintWarning(out, "DATABASE_URL not set, postgres cache unavailable")
		return nil
	}

	fmt.Fprintf(out, "   Database URL: %s\n", maskPassword(cfg.Database.URL))

	db, err := database.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	status := db.HealthCheck(ctx)
	if !status.Healthy {
		return fmt.Errorf("database health check failed: %s", status.Error)
	}

	PrintSuccess(out, fmt.Sprintf("Database healthy (%s)", status.ResponseTime))
	fmt.Fprintln(out, "📊 Connection Pool Statistics:")
	fmt.Fprintf(out, "   Max Connections: %d\n", status.MaxConns)
	fmt.Fprintf(out, "   Total Connections: %d\n", status.TotalConns)
	fmt.Fprintf(out, "   Acquired Connections: %d\n", status.AcquiredConns)
	fmt.Fprintf(out, "   Idle Connections: %d\n", status.IdleConns)
	return nil
}

// maskPassword hides the password in a connection URL
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
