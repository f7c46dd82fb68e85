package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wonny/volur/internal/contracts"
	"github.com/wonny/volur/internal/engine"
)

// ═══════════════════════════════════════════════════════════
// Output formatting shared by every command
// ═══════════════════════════════════════════════════════════

const (
	doubleRule = "════════════════════════════════════════════════════════════════════════════════════"
	singleRule = "────────────────────────────────────────────────────────────────────────────────────"
)

var resultColumns = []string{"Ticker", "Price", "IV/Share", "MoS", "Score", "P/E", "P/B", "ROE", "FCF Yield", "Status"}
var resultWidths = []int{8, 10, 12, 8, 6, 8, 8, 8, 9, 15}

// formatCurrency renders $1,234.56 or N/A
func formatCurrency(m contracts.Metric) string {
	v, ok := m.Get()
	if !ok {
		return "N/A"
	}
	return "$" + groupThousands(decimal.NewFromFloat(v).StringFixed(2))
}

func formatPrice(p decimal.NullDecimal) string {
	if !p.Valid {
		return "N/A"
	}
	return "$" + groupThousands(p.Decimal.StringFixed(2))
}

// groupThousands inserts commas into the integer part of a fixed-point string
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + b.String() + frac
}

// formatPercent renders 0.1234 as 12.34%
func formatPercent(m contracts.Metric) string {
	v, ok := m.Get()
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

func formatNumber(m contracts.Metric) string {
	v, ok := m.Get()
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", v)
}

// PrintResultsTable prints one row per ticker, then failure reasons
func PrintResultsTable(w io.Writer, source string, results []contracts.ValuationResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleRule)
	fmt.Fprintf(w, "  VALUATION RESULTS - Data Source: %s\n", strings.ToUpper(source))
	fmt.Fprintln(w, doubleRule)

	printRow(w, resultColumns)
	fmt.Fprintln(w, singleRule)

	for _, r := range results {
		printRow(w, []string{
			r.Ticker,
			formatPrice(r.Price),
			formatCurrency(r.IntrinsicValue),
			formatPercent(r.MarginOfSafety),
			formatNumber(r.Score),
			formatNumber(r.Ratios.PE),
			formatNumber(r.Ratios.PB),
			formatPercent(r.Ratios.ROE),
			formatPercent(r.Ratios.FCFYield),
			string(r.Status),
		})
	}
	fmt.Fprintln(w, doubleRule)

	for _, r := range results {
		if len(r.Reasons) == 0 && len(r.Warnings) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-8s %s\n", r.Ticker, strings.Join(append(append([]string(nil), r.Reasons...), r.Warnings...), "; "))
	}
}

// PrintSummary prints the status counts
func PrintSummary(w io.Writer, results []contracts.ValuationResult) {
	s := engine.Summarize(results)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "SUMMARY:")
	fmt.Fprintf(w, "  Successfully analyzed: %d ticker(s)\n", s.Success)
	if s.PartialFailure > 0 {
		fmt.Fprintf(w, "  Partially analyzed:    %d ticker(s)\n", s.PartialFailure)
	}
	if s.Failure > 0 {
		var failed []string
		for _, r := range results {
			if r.Failed() {
				failed = append(failed, r.Ticker)
			}
		}
		fmt.Fprintf(w, "  Failed to analyze:     %d ticker(s): %s\n", s.Failure, strings.Join(failed, ", "))
	}
}

func printRow(w io.Writer, values []string) {
	for i, v := range values {
		if i < len(values)-1 {
			fmt.Fprintf(w, "%-*s ", resultWidths[i], v)
			continue
		}
		fmt.Fprint(w, v)
	}
	fmt.Fprintln(w)
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  %s\n", message)
}
