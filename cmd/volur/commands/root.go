package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose     bool
	profilePath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "volur",
	Short: "volur - pluggable equity valuation",
	Long: `volur values stocks from interchangeable data providers.

Each ticker gets financial ratios, a discounted cash flow intrinsic value,
a margin of safety and a 0-100 composite value score.

Usage:
  go run ./cmd/volur [command]

Examples:
  go run ./cmd/volur analyze --source yfinance --ticker AAPL MSFT
  go run ./cmd/volur analyze --source fmp --ticker AAPL --growth 0.05 --discount 0.12
  go run ./cmd/volur sources
  go run ./cmd/volur serve --port 8089`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Ctrl+C cancels the command context; long-running commands shut down on it.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "valuation profile YAML (default from VALUATION_PROFILE)")
}
