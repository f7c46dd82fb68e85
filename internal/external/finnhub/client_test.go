package finnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/volur/internal/contracts"
	"github.com/wonny/volur/pkg/config"
	"github.com/wonny/volur/pkg/httputil"
	"github.com/wonny/volur/pkg/logger"
)

func newTestClient(t *testing.T, routes map[string]string) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Finnhub-Token"))
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	httpClient := httputil.New(logger.Nop()).DisableRetry()
	return NewClient(httpClient, config.FinnhubConfig{APIKey: "secret", BaseURL: server.URL}, logger.Nop())
}

func TestGetQuote(t *testing.T) {
	c := newTestClient(t, map[string]string{
		"/quote":          `{"c":187.44,"t":1767384000}`,
		"/stock/profile2": `{"name":"Apple Inc","currency":"USD","shareOutstanding":15441.88}`,
	})

	q, err := c.GetQuote(context.Background(), "aapl")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", q.Ticker)
	assert.Equal(t, "USD", q.Currency)
	shares, ok := q.SharesOutstanding.Get()
	require.True(t, ok)
	assert.InDelta(t, 15441.88e6, shares, 1)
}

func TestGetQuote_UnknownSymbol(t *testing.T) {
	c := newTestClient(t, map[string]string{
		"/quote": `{"c":0,"t":0}`,
	})

	_, err := c.GetQuote(context.Background(), "ZZZZ")
	assert.Equal(t, contracts.ProviderNotFound, contracts.ProviderErrorKindOf(err))
}

func TestGetFundamentals(t *testing.T) {
	c := newTestClient(t, map[string]string{
		"/stock/metric": `{"metric":{
			"peBasicExclExtraTTM": 29.5,
			"pbAnnual": 45.2,
			"roeRfy": 156.1,
			"roaRfy": 27.5,
			"totalDebt/totalEquityAnnual": 1.87,
			"freeCashFlowPerShareTTM": 6.5,
			"operatingMarginTTM": 30.1,
			"epsGrowth5Y": null
		}}`,
		"/stock/profile2": `{"name":"Apple Inc","finnhubIndustry":"Technology","shareOutstanding":15000}`,
	})

	f, err := c.GetFundamentals(context.Background(), "AAPL")
	require.NoError(t, err)

	roe, _ := f.ROE.Get()
	assert.InDelta(t, 1.561, roe, 1e-9)
	roa, _ := f.ROA.Get()
	assert.InDelta(t, 0.275, roa, 1e-9)
	de, _ := f.DebtToEquity.Get()
	assert.Equal(t, 1.87, de)

	fcf, ok := f.FreeCashFlow.Get()
	require.True(t, ok)
	assert.InDelta(t, 6.5*15000e6, fcf, 1)
	assert.Equal(t, "Technology", f.Sector)
}

func TestGetFundamentals_ProfileMissing(t *testing.T) {
	c := newTestClient(t, map[string]string{
		"/stock/metric": `{"metric":{"peBasicExclExtraTTM":12.0,"freeCashFlowPerShareTTM":2.0}}`,
	})

	f, err := c.GetFundamentals(context.Background(), "KO")
	require.NoError(t, err)

	assert.True(t, f.TrailingPE.Present())
	assert.False(t, f.SharesOutstanding.Present())
	assert.False(t, f.FreeCashFlow.Present(), "no share count, no absolute FCF")
}

func TestGetFundamentals_Empty(t *testing.T) {
	c := newTestClient(t, map[string]string{
		"/stock/metric": `{"metric":{}}`,
	})

	_, err := c.GetFundamentals(context.Background(), "NONE")
	assert.Equal(t, contracts.ProviderNotFound, contracts.ProviderErrorKindOf(err))
}
