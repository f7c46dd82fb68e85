// Package sec implements contracts.DataSource on SEC EDGAR XBRL company facts.
//
// EDGAR publishes filings, not prices: quotes are delegated to a
// price-capable provider set with WithQuotes, and fundamentals carry no
// price multiples.
package sec

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/wonny/volur/internal/contracts"
	"github.com/wonny/volur/internal/external"
	"github.com/wonny/volur/pkg/config"
	"github.com/wonny/volur/pkg/httputil"
	"github.com/wonny/volur/pkg/logger"
)

// Name is the registry name of this provider
const Name = "sec"

// Client handles communication with SEC EDGAR
// ⭐ SSOT: SEC EDGAR 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	tickersURL string

	quotes QuoteSource // nil: quotes are not found

	mu   sync.Mutex
	ciks map[string]int // ticker → CIK, loaded on first use
}

// QuoteSource supplies market prices for EDGAR fundamentals
type QuoteSource interface {
	Name() string
	GetQuote(ctx context.Context, ticker string) (contracts.Quote, error)
}

// NewClient creates a new SEC client. EDGAR rejects requests without a
// descriptive User-Agent.
func NewClient(httpClient *httputil.Client, cfg config.SECConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient.WithHeader("User-Agent", cfg.UserAgent),
		logger:     log.WithField("source", Name),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		tickersURL: cfg.TickersURL,
	}
}

var _ contracts.DataSource = (*Client)(nil)

// Name returns the provider name
func (c *Client) Name() string { return Name }

// WithQuotes sets the provider GetQuote delegates to
func (c *Client) WithQuotes(q QuoteSource) *Client {
	c.quotes = q
	return c
}

// GetQuote delegates to the quote source; without one it fails with not found
func (c *Client) GetQuote(ctx context.Context, ticker string) (contracts.Quote, error) {
	if c.quotes == nil {
		return contracts.Quote{}, external.NotFound(Name, "quote", ticker, "SEC EDGAR does not publish market quotes")
	}
	return c.quotes.GetQuote(ctx, ticker)
}

// GetFundamentals derives fundamentals from the latest annual (10-K) facts
func (c *Client) GetFundamentals(ctx context.Context, ticker string) (contracts.Fundamentals, error) {
	cik, err := c.lookupCIK(ctx, ticker)
	if err != nil {
		return contracts.Fundamentals{}, err
	}

	var facts companyFacts
	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%010d.json", c.baseURL, cik)
	if err := c.httpClient.GetJSON(ctx, url, &facts); err != nil {
		return contracts.Fundamentals{}, external.Classify(Name, "fundamentals", ticker, err)
	}

	f := facts.fundamentals()
	f.Ticker = contracts.NormalizeTicker(ticker)

	c.logger.WithFields(map[string]interface{}{
		"ticker": f.Ticker,
		"cik":    cik,
		"fcf":    f.FreeCashFlow.String(),
		"roe":    f.ROE.String(),
	}).Debug("SEC fundamentals extracted")

	return f, nil
}

type tickerEntry struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// lookupCIK resolves ticker → CIK, loading the SEC ticker map once
func (c *Client) lookupCIK(ctx context.Context, ticker string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ciks == nil {
		var entries map[string]tickerEntry
		if err := c.httpClient.GetJSON(ctx, c.tickersURL, &entries); err != nil {
			return 0, external.Classify(Name, "fundamentals", ticker, fmt.Errorf("load ticker map: %w", err))
		}

		ciks := make(map[string]int, len(entries))
		for _, e := range entries {
			ciks[strings.ToUpper(e.Ticker)] = e.CIK
		}
		c.ciks = ciks
		c.logger.WithField("tickers", len(ciks)).Info("SEC ticker map loaded")
	}

	cik, ok := c.ciks[contracts.NormalizeTicker(ticker)]
	if !ok {
		return 0, external.NotFound(Name, "fundamentals", ticker, "ticker not in SEC company list")
	}
	return cik, nil
}
