package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/volur/internal/api"
	"github.com/wonny/volur/internal/api/handlers"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the REST API server.

Endpoints:
  GET    /health                     - Health check
  GET    /api/sources                - Registered data sources
  GET    /api/valuation/{ticker}     - Value one ticker (?source=&discount=&growth=&terminal=&years=)
  POST   /api/valuation              - Batch valuation {source, tickers, params, weights}
  GET    /api/cache/stats            - Cache counters
  DELETE /api/cache                  - Drop cached provider data

Example:
  go run ./cmd/volur serve
  go run ./cmd/volur serve --port 8080 --warm`,
	RunE: runServe,
}

var (
	servePort string
	serveWarm bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (default from PORT)")
	serveCmd.Flags().BoolVar(&serveWarm, "warm", false, "also run the cache warm-up scheduler")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if servePort != "" {
		a.cfg.Port = servePort
	}

	h := handlers.NewValuationHandler(a.engine, handlers.Defaults{
		Source:  a.cfg.Valuation.DefaultSource,
		Params:  a.defaultParams(),
		Weights: a.weights(),
	}, a.log)
	server := api.New(a.cfg, a.log, api.NewRouter(h, a.log))

	if serveWarm {
		sched, err := a.newScheduler()
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Server running on http://localhost:%s (Ctrl+C to stop)\n", a.cfg.Port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
