// Package fmp implements contracts.DataSource on Financial Modeling Prep.
package fmp

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wonny/volur/internal/contracts"
	"github.com/wonny/volur/internal/external"
	"github.com/wonny/volur/pkg/config"
	"github.com/wonny/volur/pkg/httputil"
	"github.com/wonny/volur/pkg/logger"
)

// Name is the registry name of this provider
const Name = "fmp"

// Client handles communication with Financial Modeling Prep
// ⭐ SSOT: FMP API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// NewClient creates a new FMP client
func NewClient(httpClient *httputil.Client, cfg config.FMPConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("source", Name),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
	}
}

var _ contracts.DataSource = (*Client)(nil)

// Name returns the provider name
func (c *Client) Name() string { return Name }

type quoteDTO struct {
	Symbol            string   `json:"symbol"`
	Price             *float64 `json:"price"`
	SharesOutstanding *float64 `json:"sharesOutstanding"`
	Timestamp         int64    `json:"timestamp"`
}

type ratiosDTO struct {
	PriceEarningsRatio *float64 `json:"priceEarningsRatio"`
	PriceToBookRatio   *float64 `json:"priceToBookRatio"`
	ReturnOnEquity     *float64 `json:"returnOnEquity"`
	ReturnOnAssets     *float64 `json:"returnOnAssets"`
	DebtEquityRatio    *float64 `json:"debtEquityRatio"`
	OperatingMargin    *float64 `json:"operatingProfitMargin"`
}

type keyMetricsDTO struct {
	FreeCashFlow         *float64 `json:"freeCashFlow"`
	FreeCashFlowPerShare *float64 `json:"freeCashFlowPerShare"`
	Revenue              *float64 `json:"revenue"`
	ROE                  *float64 `json:"roe"`
	PERatio              *float64 `json:"peRatio"`
	PBRatio              *float64 `json:"pbRatio"`
	DebtToEquity         *float64 `json:"debtToEquity"`
}

type profileDTO struct {
	CompanyName string `json:"companyName"`
	Sector      string `json:"sector"`
	Currency    string `json:"currency"`
}

// GetQuote fetches /quote/{ticker}
func (c *Client) GetQuote(ctx context.Context, ticker string) (contracts.Quote, error) {
	var rows []quoteDTO
	if err := c.httpClient.GetJSON(ctx, c.endpoint("quote/"+url.PathEscape(ticker), nil), &rows); err != nil {
		return contracts.Quote{}, external.Classify(Name, "quote", ticker, err)
	}
	if len(rows) == 0 || rows[0].Price == nil {
		return contracts.Quote{}, external.NotFound(Name, "quote", ticker, "no quote returned")
	}

	row := rows[0]
	asOf := time.Now()
	if row.Timestamp > 0 {
		asOf = time.Unix(row.Timestamp, 0)
	}

	q, err := contracts.NewQuote(ticker, decimal.NewFromFloat(*row.Price), "USD", asOf)
	if err != nil {
		return contracts.Quote{}, external.ParseFailure(Name, "quote", ticker, err.Error())
	}
	return q.WithShares(contracts.FromPtr(row.SharesOutstanding)), nil
}

// GetFundamentals combines /key-metrics, /ratios and /profile.
// Key metrics are required; ratios and profile enrich the result when available.
func (c *Client) GetFundamentals(ctx context.Context, ticker string) (contracts.Fundamentals, error) {
	latest := url.Values{"limit": []string{"1"}}
	path := url.PathEscape(ticker)

	var metrics []keyMetricsDTO
	if err := c.httpClient.GetJSON(ctx, c.endpoint("key-metrics/"+path, latest), &metrics); err != nil {
		return contracts.Fundamentals{}, external.Classify(Name, "fundamentals", ticker, err)
	}
	if len(metrics) == 0 {
		return contracts.Fundamentals{}, external.NotFound(Name, "fundamentals", ticker, "no key metrics returned")
	}
	km := metrics[0]

	var ratios []ratiosDTO
	if err := c.httpClient.GetJSON(ctx, c.endpoint("ratios/"+path, latest), &ratios); err != nil {
		c.logger.WithError(err).WithField("ticker", ticker).Warn("FMP ratios unavailable")
	}
	var r ratiosDTO
	if len(ratios) > 0 {
		r = ratios[0]
	}

	var profiles []profileDTO
	if err := c.httpClient.GetJSON(ctx, c.endpoint("profile/"+path, nil), &profiles); err != nil {
		c.logger.WithError(err).WithField("ticker", ticker).Warn("FMP profile unavailable")
	}
	var p profileDTO
	if len(profiles) > 0 {
		p = profiles[0]
	}

	return contracts.Fundamentals{
		Ticker:          contracts.NormalizeTicker(ticker),
		TrailingPE:      firstOf(r.PriceEarningsRatio, km.PERatio),
		PriceToBook:     firstOf(r.PriceToBookRatio, km.PBRatio),
		ROE:             firstOf(r.ReturnOnEquity, km.ROE),
		ROA:             contracts.FromPtr(r.ReturnOnAssets),
		DebtToEquity:    firstOf(r.DebtEquityRatio, km.DebtToEquity),
		FreeCashFlow:    contracts.FromPtr(km.FreeCashFlow),
		Revenue:         contracts.FromPtr(km.Revenue),
		OperatingMargin: contracts.FromPtr(r.OperatingMargin),
		Name:            p.CompanyName,
		Sector:          p.Sector,
	}, nil
}

func (c *Client) endpoint(path string, params url.Values) string {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("apikey", c.apiKey)
	return fmt.Sprintf("%s/%s?%s", c.baseURL, path, q.Encode())
}

func firstOf(vs ...*float64) contracts.Metric {
	for _, v := range vs {
		if m := contracts.FromPtr(v); m.Present() {
			return m
		}
	}
	return contracts.None()
}
