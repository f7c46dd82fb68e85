// Package yahoo implements contracts.DataSource on Yahoo Finance, registered
// as "yfinance".
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
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
const Name = "yfinance"

// summaryModules are the quoteSummary modules Fundamentals is built from
var summaryModules = []string{"defaultKeyStatistics", "financialData", "summaryDetail", "assetProfile", "price"}

// Client handles communication with Yahoo Finance
// ⭐ SSOT: Yahoo Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	htmlURL    string
}

// NewClient creates a new Yahoo Finance client
func NewClient(httpClient *httputil.Client, cfg config.YahooConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("source", Name),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		htmlURL:    strings.TrimRight(cfg.HTMLURL, "/"),
	}
}

var _ contracts.DataSource = (*Client)(nil)

// Name returns the provider name
func (c *Client) Name() string { return Name }

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string   `json:"symbol"`
				Currency           string   `json:"currency"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64    `json:"regularMarketTime"`
			} `json:"meta"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// GetQuote reads the chart endpoint's meta block
func (c *Client) GetQuote(ctx context.Context, ticker string) (contracts.Quote, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(contracts.NormalizeTicker(ticker)),
		url.Values{"range": []string{"1d"}, "interval": []string{"1d"}}.Encode())

	var resp chartResponse
	if err := c.httpClient.GetJSON(ctx, endpoint, &resp); err != nil {
		return contracts.Quote{}, external.Classify(Name, "quote", ticker, err)
	}
	if e := resp.Chart.Error; e != nil {
		return contracts.Quote{}, external.NotFound(Name, "quote", ticker, e.Code+": "+e.Description)
	}
	if len(resp.Chart.Result) == 0 || resp.Chart.Result[0].Meta.RegularMarketPrice == nil {
		return contracts.Quote{}, external.NotFound(Name, "quote", ticker, "no market price")
	}

	meta := resp.Chart.Result[0].Meta
	asOf := time.Now()
	if meta.RegularMarketTime > 0 {
		asOf = time.Unix(meta.RegularMarketTime, 0)
	}

	q, err := contracts.NewQuote(ticker, decimal.NewFromFloat(*meta.RegularMarketPrice), meta.Currency, asOf)
	if err != nil {
		return contracts.Quote{}, external.ParseFailure(Name, "quote", ticker, err.Error())
	}
	return q, nil
}

// rawValue is Yahoo's {"raw": 1.23, "fmt": "1.23"} wrapper
type rawValue struct {
	Raw *float64 `json:"raw"`
}

func (v rawValue) metric() contracts.Metric {
	return contracts.FromPtr(v.Raw)
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			DefaultKeyStatistics struct {
				SharesOutstanding rawValue `json:"sharesOutstanding"`
				PriceToBook       rawValue `json:"priceToBook"`
				TrailingPE        rawValue `json:"trailingPE"`
			} `json:"defaultKeyStatistics"`
			FinancialData struct {
				FreeCashflow     rawValue `json:"freeCashflow"`
				ReturnOnEquity   rawValue `json:"returnOnEquity"`
				ReturnOnAssets   rawValue `json:"returnOnAssets"`
				DebtToEquity     rawValue `json:"debtToEquity"` // percent
				TotalRevenue     rawValue `json:"totalRevenue"`
				OperatingMargins rawValue `json:"operatingMargins"`
			} `json:"financialData"`
			SummaryDetail struct {
				TrailingPE rawValue `json:"trailingPE"`
			} `json:"summaryDetail"`
			AssetProfile struct {
				Sector string `json:"sector"`
			} `json:"assetProfile"`
			Price struct {
				LongName  string `json:"longName"`
				ShortName string `json:"shortName"`
			} `json:"price"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

// GetFundamentals reads quoteSummary. When Yahoo refuses the API call
// (401/403 without a session crumb) the key-statistics page is scraped instead.
func (c *Client) GetFundamentals(ctx context.Context, ticker string) (contracts.Fundamentals, error) {
	t := contracts.NormalizeTicker(ticker)
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", c.baseURL, url.PathEscape(t),
		url.Values{"modules": []string{strings.Join(summaryModules, ",")}}.Encode())

	var resp summaryResponse
	err := c.httpClient.GetJSON(ctx, endpoint, &resp)

	var se *httputil.StatusError
	if errors.As(err, &se) && (se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden) {
		c.logger.WithField("ticker", t).Debug("quoteSummary refused, scraping key statistics")
		return c.scrapeKeyStatistics(ctx, t)
	}
	if err != nil {
		return contracts.Fundamentals{}, external.Classify(Name, "fundamentals", ticker, err)
	}
	if e := resp.QuoteSummary.Error; e != nil {
		return contracts.Fundamentals{}, external.NotFound(Name, "fundamentals", ticker, e.Code+": "+e.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return contracts.Fundamentals{}, external.NotFound(Name, "fundamentals", ticker, "empty quoteSummary")
	}

	r := resp.QuoteSummary.Result[0]

	pe := r.SummaryDetail.TrailingPE.metric()
	if !pe.Present() {
		pe = r.DefaultKeyStatistics.TrailingPE.metric()
	}
	name := r.Price.LongName
	if name == "" {
		name = r.Price.ShortName
	}

	return contracts.Fundamentals{
		Ticker:            t,
		TrailingPE:        pe,
		PriceToBook:       r.DefaultKeyStatistics.PriceToBook.metric(),
		ROE:               r.FinancialData.ReturnOnEquity.metric(),
		ROA:               r.FinancialData.ReturnOnAssets.metric(),
		DebtToEquity:      r.FinancialData.DebtToEquity.metric().Scale(0.01),
		FreeCashFlow:      r.FinancialData.FreeCashflow.metric(),
		SharesOutstanding: r.DefaultKeyStatistics.SharesOutstanding.metric(),
		Revenue:           r.FinancialData.TotalRevenue.metric(),
		OperatingMargin:   r.FinancialData.OperatingMargins.metric(),
		Name:              name,
		Sector:            r.AssetProfile.Sector,
	}, nil
}
