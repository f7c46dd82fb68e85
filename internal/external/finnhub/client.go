// Package finnhub implements contracts.DataSource on the Finnhub API.
package finnhub

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
const Name = "finnhub"

// Client handles communication with Finnhub
// ⭐ SSOT: Finnhub API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Finnhub client. The API key travels in the
// X-Finnhub-Token header.
func NewClient(httpClient *httputil.Client, cfg config.FinnhubConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient.WithHeader("X-Finnhub-Token", cfg.APIKey),
		logger:     log.WithField("source", Name),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

var _ contracts.DataSource = (*Client)(nil)

// Name returns the provider name
func (c *Client) Name() string { return Name }

type quoteDTO struct {
	Current   *float64 `json:"c"`
	Timestamp int64    `json:"t"`
}

type profileDTO struct {
	Name             string   `json:"name"`
	Currency         string   `json:"currency"`
	Industry         string   `json:"finnhubIndustry"`
	ShareOutstanding *float64 `json:"shareOutstanding"` // millions
}

type metricsDTO struct {
	Metric map[string]interface{} `json:"metric"`
}

// GetQuote fetches /quote and enriches it with /stock/profile2
func (c *Client) GetQuote(ctx context.Context, ticker string) (contracts.Quote, error) {
	var dto quoteDTO
	if err := c.httpClient.GetJSON(ctx, c.endpoint("quote", ticker, nil), &dto); err != nil {
		return contracts.Quote{}, external.Classify(Name, "quote", ticker, err)
	}
	// Finnhub answers unknown symbols with c = 0
	if dto.Current == nil || *dto.Current <= 0 {
		return contracts.Quote{}, external.NotFound(Name, "quote", ticker, "no price for symbol")
	}

	profile := c.profile(ctx, ticker)

	asOf := time.Now()
	if dto.Timestamp > 0 {
		asOf = time.Unix(dto.Timestamp, 0)
	}

	q, err := contracts.NewQuote(ticker, decimal.NewFromFloat(*dto.Current), profile.Currency, asOf)
	if err != nil {
		return contracts.Quote{}, external.ParseFailure(Name, "quote", ticker, err.Error())
	}
	return q.WithShares(contracts.FromPtr(profile.ShareOutstanding).Scale(1e6)), nil
}

// GetFundamentals fetches /stock/metric?metric=all plus /stock/profile2.
// Finnhub reports ROE, ROA and margins in percent; they are converted to fractions.
func (c *Client) GetFundamentals(ctx context.Context, ticker string) (contracts.Fundamentals, error) {
	var dto metricsDTO
	if err := c.httpClient.GetJSON(ctx, c.endpoint("stock/metric", ticker, url.Values{"metric": []string{"all"}}), &dto); err != nil {
		return contracts.Fundamentals{}, external.Classify(Name, "fundamentals", ticker, err)
	}
	if len(dto.Metric) == 0 {
		return contracts.Fundamentals{}, external.NotFound(Name, "fundamentals", ticker, "no metrics for symbol")
	}

	profile := c.profile(ctx, ticker)
	shares := contracts.FromPtr(profile.ShareOutstanding).Scale(1e6)
	m := dto.Metric

	fcf := contracts.None()
	if perShare, ok := metric(m, "freeCashFlowPerShareTTM").Get(); ok {
		if n, ok := shares.Get(); ok {
			fcf = contracts.Some(perShare * n)
		}
	}

	return contracts.Fundamentals{
		Ticker:            contracts.NormalizeTicker(ticker),
		TrailingPE:        metric(m, "peBasicExclExtraTTM"),
		PriceToBook:       metric(m, "pbAnnual"),
		ROE:               metric(m, "roeRfy").Scale(0.01),
		ROA:               metric(m, "roaRfy").Scale(0.01),
		DebtToEquity:      metric(m, "totalDebt/totalEquityAnnual"),
		FreeCashFlow:      fcf,
		SharesOutstanding: shares,
		OperatingMargin:   metric(m, "operatingMarginTTM").Scale(0.01),
		Name:              profile.Name,
		Sector:            profile.Industry,
	}, nil
}

// profile is best effort; a failure only loses enrichment
func (c *Client) profile(ctx context.Context, ticker string) profileDTO {
	var p profileDTO
	if err := c.httpClient.GetJSON(ctx, c.endpoint("stock/profile2", ticker, nil), &p); err != nil {
		c.logger.WithError(err).WithField("ticker", ticker).Warn("Finnhub profile unavailable")
	}
	return p
}

func (c *Client) endpoint(path, ticker string, params url.Values) string {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("symbol", contracts.NormalizeTicker(ticker))
	return fmt.Sprintf("%s/%s?%s", c.baseURL, path, q.Encode())
}

// metric reads a numeric field; Finnhub sends null or omits unknown values
func metric(m map[string]interface{}, key string) contracts.Metric {
	v, ok := m[key].(float64)
	if !ok {
		return contracts.None()
	}
	return contracts.Some(v)
}
