package contracts

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DCFParams holds discounted cash flow inputs
// ⭐ SSOT: DCF 파라미터는 여기서만 정의
type DCFParams struct {
	DiscountRate   float64 `json:"discount_rate"`   // r ∈ (0, 1)
	GrowthRate     float64 `json:"growth_rate"`     // g ∈ [0, r)
	TerminalGrowth float64 `json:"terminal_growth"` // g_t ∈ [0, r)
	Years          int     `json:"years"`           // N >= 1
}

// Validate checks the DCF invariants; errors wrap ErrInvalidDCFParameters
func (p DCFParams) Validate() error {
	r, g, gt := p.DiscountRate, p.GrowthRate, p.TerminalGrowth
	switch {
	case !finite(r, g, gt):
		return fmt.Errorf("%w: non-finite rate", ErrInvalidDCFParameters)
	case r <= 0 || r >= 1:
		return fmt.Errorf("%w: discount rate %.4f outside (0, 1)", ErrInvalidDCFParameters, r)
	case gt >= r:
		return fmt.Errorf("%w: terminal growth %.4f must be below discount rate %.4f", ErrInvalidDCFParameters, gt, r)
	case gt < 0:
		return fmt.Errorf("%w: terminal growth %.4f is negative", ErrInvalidDCFParameters, gt)
	case g < 0 || g >= r:
		return fmt.Errorf("%w: growth %.4f outside [0, %.4f)", ErrInvalidDCFParameters, g, r)
	case p.Years < 1:
		return fmt.Errorf("%w: horizon must be at least 1 year, got %d", ErrInvalidDCFParameters, p.Years)
	}
	return nil
}

// CheckRanges applies the bounds accepted from user input (CLI flags, API
// queries): growth in [0, 1], discount in (0, 1], terminal in [0, discount),
// years > 0. Combinations such as growth >= discount pass here and are
// reported by Validate during the valuation.
func (p DCFParams) CheckRanges() error {
	switch {
	case !finite(p.DiscountRate, p.GrowthRate, p.TerminalGrowth):
		return fmt.Errorf("rates must be finite numbers")
	case p.GrowthRate < 0 || p.GrowthRate > 1:
		return fmt.Errorf("growth rate must be between 0 and 1, got %g", p.GrowthRate)
	case p.DiscountRate <= 0 || p.DiscountRate > 1:
		return fmt.Errorf("discount rate must be in (0, 1], got %g", p.DiscountRate)
	case p.Years <= 0:
		return fmt.Errorf("years must be positive, got %d", p.Years)
	case p.TerminalGrowth < 0 || p.TerminalGrowth >= p.DiscountRate:
		return fmt.Errorf("terminal growth must be in [0, discount rate), got %g", p.TerminalGrowth)
	}
	return nil
}

// ScoringWeights weights the composite value score
// Weights are relative; they are normalized over the available metrics.
type ScoringWeights struct {
	PE       float64 `json:"pe"`
	PB       float64 `json:"pb"`
	FCFYield float64 `json:"fcf_yield"`
	ROE      float64 `json:"roe"`
}

// Validate rejects negative or non-finite weights
func (w ScoringWeights) Validate() error {
	if !finite(w.PE, w.PB, w.FCFYield, w.ROE) {
		return fmt.Errorf("scoring weights must be finite")
	}
	if w.PE < 0 || w.PB < 0 || w.FCFYield < 0 || w.ROE < 0 {
		return fmt.Errorf("scoring weights must be non-negative: %+v", w)
	}
	return nil
}

// Total returns the sum of all weights
func (w ScoringWeights) Total() float64 {
	return w.PE + w.PB + w.FCFYield + w.ROE
}

// RatioSnapshot holds the ratios used for a valuation
type RatioSnapshot struct {
	PE           Metric `json:"pe"`
	PB           Metric `json:"pb"`
	ROE          Metric `json:"roe"`
	ROA          Metric `json:"roa"`
	DebtToEquity Metric `json:"debt_to_equity"`
	FCFYield     Metric `json:"fcf_yield"`
}

// Missing lists the names of unavailable ratios
func (s RatioSnapshot) Missing() []string {
	var missing []string
	for _, r := range []struct {
		name string
		m    Metric
	}{
		{"pe", s.PE}, {"pb", s.PB}, {"roe", s.ROE},
		{"roa", s.ROA}, {"debt_to_equity", s.DebtToEquity}, {"fcf_yield", s.FCFYield},
	} {
		if !r.m.Present() {
			missing = append(missing, r.name)
		}
	}
	return missing
}

// Status is the outcome of one ticker's valuation
type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialFailure Status = "partial_failure"
	StatusFailure        Status = "failure"
)

// ValuationResult is the per-ticker output of the engine; never cached
// ⭐ SSOT: Engine → CLI/API 결과 전달
type ValuationResult struct {
	Ticker string              `json:"ticker"`
	Source string              `json:"source"`
	Price  decimal.NullDecimal `json:"price"`

	IntrinsicValue Metric `json:"intrinsic_value_per_share"`
	EquityValue    Metric `json:"equity_value"`
	MarginOfSafety Metric `json:"margin_of_safety"`
	Score          Metric `json:"value_score"`
	Rating         string `json:"rating,omitempty"`

	Ratios RatioSnapshot `json:"ratios"`

	Status   Status   `json:"status"`
	Reasons  []string `json:"reasons,omitempty"`
	Warnings []string `json:"warnings,omitempty"`

	AnalyzedAt time.Time `json:"analyzed_at"`
}

// Reason joins the failure reasons into one human readable line
func (r ValuationResult) Reason() string {
	return strings.Join(r.Reasons, "; ")
}

// Failed reports whether the ticker could not be analyzed at all
func (r ValuationResult) Failed() bool {
	return r.Status == StatusFailure
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
