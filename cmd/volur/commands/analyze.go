package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/volur/internal/contracts"
	"github.com/wonny/volur/internal/engine"
)

// errTickersFailed makes the process exit with status 1
var errTickersFailed = errors.New("one or more tickers failed")

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [TICKER...]",
	Short: "Value one or more tickers",
	Long: `Fetches quote and fundamentals from a data source and prints ratios,
DCF intrinsic value, margin of safety and the composite value score.

The command exits with status 1 when any ticker could not be analyzed.

Examples:
  go run ./cmd/volur analyze --source yfinance --ticker AAPL MSFT
  go run ./cmd/volur analyze --source fmp --ticker AAPL --growth 0.05 --discount 0.12
  go run ./cmd/volur analyze --source sec --ticker AAPL --years 15 --terminal 0.03`,
	RunE: runAnalyze,
}

var (
	analyzeSource  string
	analyzeTickers []string
	analyzeFormat  string
	analyzeFlags   paramFlags
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	f := analyzeCmd.Flags()
	f.StringVar(&analyzeSource, "source", "", "data source (default from VALUATION_SOURCE)")
	f.StringSliceVarP(&analyzeTickers, "ticker", "t", nil, "ticker symbol(s) to analyze")
	f.StringVar(&analyzeFormat, "format", "table", "output format (table|json)")
	f.Float64Var(&analyzeFlags.growth, "growth", 0, "growth rate for the projection years")
	f.Float64Var(&analyzeFlags.discount, "discount", 0, "discount rate")
	f.Float64Var(&analyzeFlags.terminal, "terminal", 0, "terminal growth rate (defaults to growth)")
	f.IntVar(&analyzeFlags.years, "years", 0, "projection horizon in years")
}

// paramFlags are the DCF flags; unset flags fall back to config
type paramFlags struct {
	growth, discount, terminal float64
	years                      int

	growthSet, discountSet, terminalSet, yearsSet bool
}

// resolve overlays the set flags on def and checks the input bounds.
// Without --terminal, terminal growth follows --growth when that is given.
func (f paramFlags) resolve(def contracts.DCFParams) (contracts.DCFParams, error) {
	p := def
	if f.growthSet {
		p.GrowthRate = f.growth
		p.TerminalGrowth = f.growth
	}
	if f.discountSet {
		p.DiscountRate = f.discount
	}
	if f.terminalSet {
		p.TerminalGrowth = f.terminal
	}
	if f.yearsSet {
		p.Years = f.years
	}
	if err := p.CheckRanges(); err != nil {
		return p, err
	}
	return p, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	tickers := append(append([]string(nil), analyzeTickers...), args...)
	if len(tickers) == 0 {
		return errors.New("at least one ticker is required (--ticker AAPL)")
	}
	if analyzeFormat != "table" && analyzeFormat != "json" {
		return fmt.Errorf("unknown format %q", analyzeFormat)
	}

	flags := analyzeFlags
	flags.growthSet = cmd.Flags().Changed("growth")
	flags.discountSet = cmd.Flags().Changed("discount")
	flags.terminalSet = cmd.Flags().Changed("terminal")
	flags.yearsSet = cmd.Flags().Changed("years")

	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	params, err := flags.resolve(a.defaultParams())
	if err != nil {
		return err
	}

	src := analyzeSource
	if src == "" {
		src = a.cfg.Valuation.DefaultSource
	}
	if _, err := a.engine.GetSource(src); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if analyzeFormat == "table" {
		fmt.Fprintf(out, "Analyzing %d ticker(s) using %s data source...\n", len(tickers), src)
	}

	results := a.engine.AnalyzeMany(ctx, src, tickers, params, a.weights())

	if analyzeFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]interface{}{
			"source":  src,
			"params":  params,
			"results": results,
			"summary": engine.Summarize(results),
		}); err != nil {
			return err
		}
	} else {
		PrintResultsTable(out, src, results)
		PrintSummary(out, results)
	}

	if s := engine.Summarize(results); s.Failure > 0 {
		return fmt.Errorf("%w: %d of %d (%s)", errTickersFailed, s.Failure, s.Total, failedTickers(results))
	}
	return nil
}

func failedTickers(results []contracts.ValuationResult) string {
	var failed []string
	for _, r := range results {
		if r.Failed() {
			failed = append(failed, r.Ticker)
		}
	}
	return strings.Join(failed, ", ")
}
