package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestMetric_Presence(t *testing.T) {
	tests := []struct {
		name        string
		metric      Metric
		wantPresent bool
		wantString  string
	}{
		{"zero value is absent", Metric{}, false, "N/A"},
		{"none", None(), false, "N/A"},
		{"explicit zero is present", Some(0), true, "0"},
		{"negative", Some(-1.5), true, "-1.5"},
		{"NaN is absent", Some(math.NaN()), false, "N/A"},
		{"Inf is absent", Some(math.Inf(1)), false, "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.metric.Present(); got != tt.wantPresent {
				t.Errorf("Present() = %v, want %v", got, tt.wantPresent)
			}
			if got := tt.metric.String(); got != tt.wantString {
				t.Errorf("String() = %q, want %q", got, tt.wantString)
			}
		})
	}
}

func TestMetric_JSON(t *testing.T) {
	type payload struct {
		A Metric `json:"a"`
		B Metric `json:"b"`
	}

	data, err := json.Marshal(payload{A: Some(0), B: None()})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"a":0,"b":null}` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var decoded payload
	if err := json.Unmarshal([]byte(`{"a":1.25}`), &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if v, ok := decoded.A.Get(); !ok || v != 1.25 {
		t.Errorf("A = %v/%v, want 1.25/true", v, ok)
	}
	if decoded.B.Present() {
		t.Error("missing key must decode as absent")
	}
}

func TestMetric_Scale(t *testing.T) {
	if v, _ := Some(2).Scale(1e6).Get(); v != 2e6 {
		t.Errorf("Scale = %v, want 2e6", v)
	}
	if None().Scale(10).Present() {
		t.Error("scaling an absent metric must stay absent")
	}
}

func TestNewQuote(t *testing.T) {
	asOf := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)

	q, err := NewQuote(" aapl ", decimal.RequireFromString("187.25"), "usd", asOf)
	if err != nil {
		t.Fatalf("NewQuote failed: %v", err)
	}
	if q.Ticker != "AAPL" || q.Currency != "USD" {
		t.Errorf("unexpected normalization: %+v", q)
	}
	if q.PriceFloat() != 187.25 {
		t.Errorf("PriceFloat = %v", q.PriceFloat())
	}

	for _, price := range []string{"0", "-1"} {
		if _, err := NewQuote("AAPL", decimal.RequireFromString(price), "USD", asOf); err == nil {
			t.Errorf("expected error for price %s", price)
		}
	}
	if _, err := NewQuote("  ", decimal.NewFromInt(1), "USD", asOf); err == nil {
		t.Error("expected error for empty ticker")
	}
}

func TestQuote_JSONRoundTrip(t *testing.T) {
	q, _ := NewQuote("MSFT", decimal.RequireFromString("401.10"), "USD", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	q = q.WithShares(Some(7.4e9))

	data, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var back Quote
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !back.Price.Equal(q.Price) || back.Ticker != q.Ticker || !back.AsOf.Equal(q.AsOf) {
		t.Errorf("round trip mismatch: %+v vs %+v", back, q)
	}
	if v, ok := back.SharesOutstanding.Get(); !ok || v != 7.4e9 {
		t.Errorf("shares lost in round trip: %v", back.SharesOutstanding)
	}
}

func TestDCFParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  DCFParams
		wantErr bool
	}{
		{"typical", DCFParams{DiscountRate: 0.10, GrowthRate: 0.02, TerminalGrowth: 0.02, Years: 10}, false},
		{"terminal equals discount", DCFParams{DiscountRate: 0.1, GrowthRate: 0.05, TerminalGrowth: 0.1, Years: 10}, true},
		{"terminal above discount", DCFParams{DiscountRate: 0.1, GrowthRate: 0.05, TerminalGrowth: 0.12, Years: 10}, true},
		{"negative terminal", DCFParams{DiscountRate: 0.1, GrowthRate: 0.05, TerminalGrowth: -0.01, Years: 10}, true},
		{"growth at discount", DCFParams{DiscountRate: 0.1, GrowthRate: 0.1, TerminalGrowth: 0.02, Years: 10}, true},
		{"zero discount", DCFParams{DiscountRate: 0, TerminalGrowth: 0, Years: 10}, true},
		{"zero years", DCFParams{DiscountRate: 0.1, GrowthRate: 0.05, TerminalGrowth: 0.02, Years: 0}, true},
		{"NaN", DCFParams{DiscountRate: math.NaN(), Years: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidDCFParameters) {
				t.Errorf("error must wrap ErrInvalidDCFParameters, got %v", err)
			}
		})
	}
}

func TestDCFParams_CheckRanges(t *testing.T) {
	tests := []struct {
		name    string
		params  DCFParams
		wantErr bool
	}{
		{"typical", DCFParams{DiscountRate: 0.10, GrowthRate: 0.02, TerminalGrowth: 0.02, Years: 10}, false},
		{"discount of one", DCFParams{DiscountRate: 1, GrowthRate: 0.05, TerminalGrowth: 0.02, Years: 5}, false},
		// rejected later by Validate, not by the input bounds
		{"growth above discount", DCFParams{DiscountRate: 0.1, GrowthRate: 0.5, TerminalGrowth: 0.02, Years: 5}, false},
		{"growth above one", DCFParams{DiscountRate: 0.1, GrowthRate: 1.5, TerminalGrowth: 0.02, Years: 5}, true},
		{"negative growth", DCFParams{DiscountRate: 0.1, GrowthRate: -0.1, TerminalGrowth: 0.02, Years: 5}, true},
		{"discount above one", DCFParams{DiscountRate: 1.2, GrowthRate: 0.05, TerminalGrowth: 0.02, Years: 5}, true},
		{"zero years", DCFParams{DiscountRate: 0.1, GrowthRate: 0.05, TerminalGrowth: 0.02}, true},
		{"terminal equals discount", DCFParams{DiscountRate: 0.1, GrowthRate: 0.05, TerminalGrowth: 0.1, Years: 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.params.CheckRanges(); (err != nil) != tt.wantErr {
				t.Errorf("CheckRanges() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestScoringWeights_Validate(t *testing.T) {
	if err := (ScoringWeights{PE: 0.3, PB: 0.2, FCFYield: 0.3, ROE: 0.2}).Validate(); err != nil {
		t.Errorf("weights must be valid: %v", err)
	}
	if err := (ScoringWeights{PE: -0.1}).Validate(); err == nil {
		t.Error("negative weight must be rejected")
	}
}

func TestRatioSnapshot_Missing(t *testing.T) {
	s := RatioSnapshot{PE: Some(12), PB: Some(1.5), ROE: Some(0.2), DebtToEquity: Some(0.4)}

	missing := s.Missing()
	if len(missing) != 2 || missing[0] != "roa" || missing[1] != "fcf_yield" {
		t.Errorf("Missing() = %v, want [roa fcf_yield]", missing)
	}
}

func TestProviderError(t *testing.T) {
	cause := errors.New("HTTP 429")
	err := fmt.Errorf("fetch: %w", NewProviderError("fmp", "quote", "AAPL", ProviderRateLimited, cause))

	if !errors.Is(err, ErrProviderFailure) {
		t.Error("provider errors must match ErrProviderFailure")
	}
	if !errors.Is(err, cause) {
		t.Error("provider errors must unwrap to their cause")
	}
	if ProviderErrorKindOf(err) != ProviderRateLimited {
		t.Errorf("kind = %q", ProviderErrorKindOf(err))
	}

	var pe *ProviderError
	if !errors.As(err, &pe) || !pe.Retryable() {
		t.Error("rate limited errors are retryable")
	}
	if ProviderErrorKindOf(errors.New("plain")) != "" {
		t.Error("plain errors have no provider kind")
	}
}

func TestValuationResult_Reason(t *testing.T) {
	r := ValuationResult{Status: StatusPartialFailure, Reasons: []string{"dcf: data unavailable", "ratios unavailable: roa"}}

	if r.Reason() != "dcf: data unavailable; ratios unavailable: roa" {
		t.Errorf("Reason() = %q", r.Reason())
	}
	if r.Failed() {
		t.Error("partial failure is not a failure")
	}
}
