// Package profile loads valuation profiles: a YAML file fixing the DCF
// defaults, score weights and score bands used for a run.
package profile

import (
	"github.com/wonny/volur/internal/contracts"
	"github.com/wonny/volur/internal/valuation"
)

// Profile is one named set of valuation assumptions
type Profile struct {
	Meta    Meta    `yaml:"meta" json:"meta"`
	DCF     DCF     `yaml:"dcf" json:"dcf"`
	Weights Weights `yaml:"weights" json:"weights"`
	Bands   Bands   `yaml:"bands" json:"bands"`
}

// Meta 메타 정보
type Meta struct {
	ProfileID   string `yaml:"profile_id" json:"profile_id"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description" json:"description"`
	Source      string `yaml:"source" json:"source"` // optional default data source
}

// DCF holds the projection assumptions
type DCF struct {
	DiscountRate   float64  `yaml:"discount_rate" json:"discount_rate"`
	GrowthRate     float64  `yaml:"growth_rate" json:"growth_rate"`
	TerminalGrowth *float64 `yaml:"terminal_growth" json:"terminal_growth"` // nil: same as growth_rate
	Years          int      `yaml:"years" json:"years"`
}

// Weights are the composite score weights
type Weights struct {
	PE       float64 `yaml:"pe" json:"pe"`
	PB       float64 `yaml:"pb" json:"pb"`
	FCFYield float64 `yaml:"fcf_yield" json:"fcf_yield"`
	ROE      float64 `yaml:"roe" json:"roe"`
}

// Band is the ratio value scoring 100 (best) and 0 (worst)
type Band struct {
	Best  float64 `yaml:"best" json:"best"`
	Worst float64 `yaml:"worst" json:"worst"`
}

// Bands are optional; an omitted band keeps the default
type Bands struct {
	PE       *Band `yaml:"pe" json:"pe,omitempty"`
	PB       *Band `yaml:"pb" json:"pb,omitempty"`
	FCFYield *Band `yaml:"fcf_yield" json:"fcf_yield,omitempty"`
	ROE      *Band `yaml:"roe" json:"roe,omitempty"`
}

// DCFParams converts the profile into engine parameters
func (p *Profile) DCFParams() contracts.DCFParams {
	terminal := p.DCF.GrowthRate
	if p.DCF.TerminalGrowth != nil {
		terminal = *p.DCF.TerminalGrowth
	}
	return contracts.DCFParams{
		DiscountRate:   p.DCF.DiscountRate,
		GrowthRate:     p.DCF.GrowthRate,
		TerminalGrowth: terminal,
		Years:          p.DCF.Years,
	}
}

// ScoringWeights converts the profile weights
func (p *Profile) ScoringWeights() contracts.ScoringWeights {
	return contracts.ScoringWeights{
		PE:       p.Weights.PE,
		PB:       p.Weights.PB,
		FCFYield: p.Weights.FCFYield,
		ROE:      p.Weights.ROE,
	}
}

// ScoringBands overlays the profile bands on valuation.DefaultBands
func (p *Profile) ScoringBands() valuation.Bands {
	b := valuation.DefaultBands()
	overlay := func(dst *valuation.Band, src *Band) {
		if src != nil {
			*dst = valuation.Band{Best: src.Best, Worst: src.Worst}
		}
	}
	overlay(&b.PE, p.Bands.PE)
	overlay(&b.PB, p.Bands.PB)
	overlay(&b.FCFYield, p.Bands.FCFYield)
	overlay(&b.ROE, p.Bands.ROE)
	return b
}
