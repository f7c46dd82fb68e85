// Package valuation holds the pure calculators: ratios, DCF and the value score.
package valuation

import (
	"github.com/wonny/volur/internal/contracts"
)

// PriceToEarnings returns the provider's trailing P/E
func PriceToEarnings(f contracts.Fundamentals) contracts.Metric {
	return f.TrailingPE
}

// PriceToBook returns the provider's P/B, deriving it from market cap and
// shareholders' equity when the provider omits it
func PriceToBook(q contracts.Quote, f contracts.Fundamentals) contracts.Metric {
	if f.PriceToBook.Present() {
		return f.PriceToBook
	}

	equity, ok := f.ShareholdersEquity.Get()
	if !ok || equity <= 0 {
		return contracts.None()
	}
	mcap := MarketCap(q, f)
	if !mcap.Present() {
		return contracts.None()
	}
	v, _ := mcap.Get()
	return contracts.Some(v / equity)
}

// ReturnOnEquity returns ROE as a fraction
func ReturnOnEquity(f contracts.Fundamentals) contracts.Metric {
	return f.ROE
}

// ReturnOnAssets returns ROA as a fraction
func ReturnOnAssets(f contracts.Fundamentals) contracts.Metric {
	return f.ROA
}

// DebtToEquity returns D/E as a ratio
func DebtToEquity(f contracts.Fundamentals) contracts.Metric {
	return f.DebtToEquity
}

// ShareCount prefers the fundamentals' share count and falls back to the quote's
func ShareCount(q contracts.Quote, f contracts.Fundamentals) contracts.Metric {
	if f.SharesOutstanding.Positive() {
		return f.SharesOutstanding
	}
	if q.SharesOutstanding.Positive() {
		return q.SharesOutstanding
	}
	return contracts.None()
}

// MarketCap is price × shares; unavailable without a positive share count
func MarketCap(q contracts.Quote, f contracts.Fundamentals) contracts.Metric {
	shares := ShareCount(q, f)
	if !shares.Present() || !q.Price.IsPositive() {
		return contracts.None()
	}
	n, _ := shares.Get()
	return contracts.Some(q.PriceFloat() * n)
}

// FCFYield = free cash flow / market cap.
// Unavailable when FCF, price or shares are missing, or market cap <= 0.
func FCFYield(q contracts.Quote, f contracts.Fundamentals) contracts.Metric {
	fcf, ok := f.FreeCashFlow.Get()
	if !ok {
		return contracts.None()
	}
	mcap, ok := MarketCap(q, f).Get()
	if !ok || mcap <= 0 {
		return contracts.None()
	}
	return contracts.Some(fcf / mcap)
}

// Snapshot computes every ratio for one ticker
func Snapshot(q contracts.Quote, f contracts.Fundamentals) contracts.RatioSnapshot {
	return contracts.RatioSnapshot{
		PE:           PriceToEarnings(f),
		PB:           PriceToBook(q, f),
		ROE:          ReturnOnEquity(f),
		ROA:          ReturnOnAssets(f),
		DebtToEquity: DebtToEquity(f),
		FCFYield:     FCFYield(q, f),
	}
}
