package valuation

import (
	"fmt"
	"math"

	"github.com/wonny/volur/internal/contracts"
)

// DCFResult is the outcome of a discounted cash flow projection
type DCFResult struct {
	EquityValue float64          `json:"equity_value"`
	PerShare    contracts.Metric `json:"per_share"`

	ProjectedCashFlows    []float64 `json:"projected_cash_flows"` // FCF_1..FCF_N
	PresentValueCashFlows float64   `json:"present_value_cash_flows"`
	TerminalValue         float64   `json:"terminal_value"`
	PresentTerminalValue  float64   `json:"present_terminal_value"`

	// NegativeBase is set when FCF_0 <= 0; the projection is still computed
	NegativeBase bool `json:"negative_base"`
}

// DCF projects free cash flow for p.Years years at p.GrowthRate, adds a
// Gordon growth terminal value and discounts everything at p.DiscountRate.
// ⭐ SSOT: DCF 계산은 여기서만
//
//	FCF_i = FCF_0 (1+g)^i            PV_i  = FCF_i / (1+r)^i
//	TV    = FCF_N (1+g_t) / (r-g_t)  PV_TV = TV / (1+r)^N
//
// Errors:
//   - ErrInvalidDCFParameters: p fails Validate
//   - ErrDataUnavailable: fcf absent
//   - ErrMissingShareCount: shares absent or <= 0; the result still carries EquityValue
func DCF(fcf, shares contracts.Metric, p contracts.DCFParams) (DCFResult, error) {
	if err := p.Validate(); err != nil {
		return DCFResult{}, err
	}

	base, ok := fcf.Get()
	if !ok {
		return DCFResult{}, fmt.Errorf("dcf: free cash flow: %w", contracts.ErrDataUnavailable)
	}

	r, g, gt, n := p.DiscountRate, p.GrowthRate, p.TerminalGrowth, p.Years

	res := DCFResult{
		ProjectedCashFlows: make([]float64, n),
		NegativeBase:       base <= 0,
	}

	cf := base
	discount := 1.0
	for i := 0; i < n; i++ {
		cf *= 1 + g
		discount *= 1 + r
		res.ProjectedCashFlows[i] = cf
		res.PresentValueCashFlows += cf / discount
	}

	res.TerminalValue = cf * (1 + gt) / (r - gt)
	res.PresentTerminalValue = res.TerminalValue / discount
	res.EquityValue = res.PresentValueCashFlows + res.PresentTerminalValue

	if math.IsNaN(res.EquityValue) || math.IsInf(res.EquityValue, 0) {
		return DCFResult{}, fmt.Errorf("%w: projection overflowed", contracts.ErrInvalidDCFParameters)
	}

	if !shares.Positive() {
		return res, fmt.Errorf("dcf: %w", contracts.ErrMissingShareCount)
	}
	count, _ := shares.Get()
	res.PerShare = contracts.Some(res.EquityValue / count)
	return res, nil
}

// MarginOfSafety = (IV - price) / IV; unavailable when IV is absent or <= 0
func MarginOfSafety(price float64, intrinsic contracts.Metric) contracts.Metric {
	iv, ok := intrinsic.Get()
	if !ok || iv <= 0 {
		return contracts.None()
	}
	return contracts.Some((iv - price) / iv)
}
