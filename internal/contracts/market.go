package contracts

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a market price snapshot produced by a DataSource
// ⭐ SSOT: DataSource → Engine 시세 데이터 전달
// Quotes are values: construct with NewQuote and pass by value.
type Quote struct {
	Ticker   string          `json:"ticker"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	AsOf     time.Time       `json:"as_of"`

	// Shares outstanding when the provider reports it with the quote
	SharesOutstanding Metric `json:"shares_outstanding"`
}

// NewQuote validates and normalizes a quote
func NewQuote(ticker string, price decimal.Decimal, currency string, asOf time.Time) (Quote, error) {
	t := NormalizeTicker(ticker)
	if t == "" {
		return Quote{}, fmt.Errorf("quote: empty ticker")
	}
	if !price.IsPositive() {
		return Quote{}, fmt.Errorf("quote %s: price must be positive, got %s", t, price.String())
	}
	if currency == "" {
		currency = "USD"
	}

	return Quote{
		Ticker:   t,
		Price:    price,
		Currency: strings.ToUpper(currency),
		AsOf:     asOf.UTC(),
	}, nil
}

// WithShares returns a copy carrying the share count
func (q Quote) WithShares(shares Metric) Quote {
	q.SharesOutstanding = shares
	return q
}

// PriceFloat returns the price for floating point math
func (q Quote) PriceFloat() float64 {
	return q.Price.InexactFloat64()
}

// Fundamentals describes a company's financial state
// ⭐ SSOT: DataSource → Engine 재무 데이터 전달
// Every figure is optional; absent values must never be read as zero.
type Fundamentals struct {
	Ticker string `json:"ticker"`

	TrailingPE   Metric `json:"trailing_pe"`
	PriceToBook  Metric `json:"price_to_book"`
	ROE          Metric `json:"roe"`            // fraction, 0.15 = 15%
	ROA          Metric `json:"roa"`            // fraction
	DebtToEquity Metric `json:"debt_to_equity"` // ratio, 0.5 = 50%
	FreeCashFlow Metric `json:"free_cash_flow"` // signed, reporting currency

	SharesOutstanding  Metric `json:"shares_outstanding"`
	ShareholdersEquity Metric `json:"shareholders_equity"`

	Revenue         Metric `json:"revenue"`
	OperatingMargin Metric `json:"operating_margin"`
	Name            string `json:"name,omitempty"`
	Sector          string `json:"sector,omitempty"`
}

// NormalizeTicker trims and upper-cases a ticker symbol
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
