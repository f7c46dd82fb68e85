package profile

import (
	"fmt"
	"math"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(p *Profile) error {
	// === Meta ===
	if p.Meta.ProfileID == "" {
		return ValidationError{"meta.profile_id", "required"}
	}

	// === DCF ===
	if err := p.DCFParams().Validate(); err != nil {
		return ValidationError{"dcf", err.Error()}
	}

	// === Weights ===
	w := p.ScoringWeights()
	if err := w.Validate(); err != nil {
		return ValidationError{"weights", err.Error()}
	}
	if w.Total() <= 0 {
		return ValidationError{"weights", "at least one weight must be positive"}
	}

	// === Bands ===
	for field, b := range map[string]*Band{
		"bands.pe":        p.Bands.PE,
		"bands.pb":        p.Bands.PB,
		"bands.fcf_yield": p.Bands.FCFYield,
		"bands.roe":       p.Bands.ROE,
	} {
		if b == nil {
			continue
		}
		if math.IsNaN(b.Best) || math.IsNaN(b.Worst) || b.Best == b.Worst {
			return ValidationError{field, "best and worst must be distinct numbers"}
		}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(p *Profile) []Warning {
	var warnings []Warning

	if total := p.ScoringWeights().Total(); math.Abs(total-1) > 1e-6 {
		warnings = append(warnings, Warning{
			Code:    "WEIGHTS_NOT_NORMALIZED",
			Message: fmt.Sprintf("weights sum to %.4f; they are normalized over the available ratios", total),
		})
	}

	if p.DCF.Years > 30 {
		warnings = append(warnings, Warning{
			Code:    "LONG_HORIZON",
			Message: fmt.Sprintf("%d projection years: terminal value assumptions dominate less, growth assumptions more", p.DCF.Years),
		})
	}

	d := p.DCFParams()
	if d.DiscountRate-d.TerminalGrowth < 0.02 {
		warnings = append(warnings, Warning{
			Code:    "THIN_SPREAD",
			Message: "discount rate within 2 points of terminal growth: terminal value is very sensitive",
		})
	}

	return warnings
}
