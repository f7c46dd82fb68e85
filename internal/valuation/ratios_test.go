package valuation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/volur/internal/contracts"
)

func quote(t *testing.T, price string) contracts.Quote {
	t.Helper()
	q, err := contracts.NewQuote("TEST", decimal.RequireFromString(price), "USD", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return q
}

func TestFCFYield(t *testing.T) {
	tests := []struct {
		name        string
		quote       contracts.Quote
		fund        contracts.Fundamentals
		wantPresent bool
		want        float64
	}{
		{
			name:        "shares from fundamentals",
			quote:       quote(t, "50"),
			fund:        contracts.Fundamentals{FreeCashFlow: contracts.Some(1e6), SharesOutstanding: contracts.Some(1e5)},
			wantPresent: true,
			want:        0.2, // 1e6 / (50 × 1e5)
		},
		{
			name:        "shares from quote",
			quote:       quote(t, "100").WithShares(contracts.Some(1e6)),
			fund:        contracts.Fundamentals{FreeCashFlow: contracts.Some(-5e6)},
			wantPresent: true,
			want:        -0.05,
		},
		{
			name:  "fcf absent",
			quote: quote(t, "50"),
			fund:  contracts.Fundamentals{SharesOutstanding: contracts.Some(1e5)},
		},
		{
			name:  "shares absent",
			quote: quote(t, "50"),
			fund:  contracts.Fundamentals{FreeCashFlow: contracts.Some(1e6)},
		},
		{
			name:  "zero shares",
			quote: quote(t, "50"),
			fund:  contracts.Fundamentals{FreeCashFlow: contracts.Some(1e6), SharesOutstanding: contracts.Some(0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FCFYield(tt.quote, tt.fund)
			require.Equal(t, tt.wantPresent, got.Present())
			if tt.wantPresent {
				v, _ := got.Get()
				assert.InDelta(t, tt.want, v, 1e-12)
			}
		})
	}
}

func TestPriceToBook_DerivedFromEquity(t *testing.T) {
	q := quote(t, "20")
	f := contracts.Fundamentals{SharesOutstanding: contracts.Some(1000), ShareholdersEquity: contracts.Some(10000)}

	v, ok := PriceToBook(q, f).Get()
	require.True(t, ok)
	assert.InDelta(t, 2.0, v, 1e-12)

	// provider value wins
	f.PriceToBook = contracts.Some(3.1)
	v, _ = PriceToBook(q, f).Get()
	assert.Equal(t, 3.1, v)

	// negative equity gives no P/B
	f = contracts.Fundamentals{SharesOutstanding: contracts.Some(1000), ShareholdersEquity: contracts.Some(-1)}
	assert.False(t, PriceToBook(q, f).Present())
}

func TestSnapshot_PassThroughKeepsAbsence(t *testing.T) {
	f := contracts.Fundamentals{
		TrailingPE:   contracts.Some(25),
		ROE:          contracts.Some(0),
		DebtToEquity: contracts.Some(1.2),
	}

	s := Snapshot(quote(t, "10"), f)

	assert.True(t, s.ROE.Present(), "a reported zero is a value")
	assert.False(t, s.ROA.Present())
	assert.False(t, s.PB.Present())
	assert.False(t, s.FCFYield.Present())
	assert.Equal(t, []string{"pb", "roa", "fcf_yield"}, s.Missing())
}
