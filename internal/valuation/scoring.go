package valuation

import (
	"fmt"

	"github.com/wonny/volur/internal/contracts"
	"github.com/wonny/volur/pkg/logger"
)

// Band maps a ratio linearly onto [0, 100]: Best scores 100, Worst scores 0.
// Best < Worst makes the mapping inverse (lower is better).
type Band struct {
	Best  float64
	Worst float64
}

// Score maps v into [0, 100]
func (b Band) Score(v float64) float64 {
	if b.Best == b.Worst {
		return 0
	}
	return clamp(100*(v-b.Worst)/(b.Best-b.Worst), 0, 100)
}

// Bands are the reference bands for each sub-score
type Bands struct {
	PE       Band
	PB       Band
	FCFYield Band
	ROE      Band
}

// DefaultBands: P/E 0..50 and P/B 0..5 inverse, FCF yield 0..10% and ROE 0..100% direct
func DefaultBands() Bands {
	return Bands{
		PE:       Band{Best: 0, Worst: 50},
		PB:       Band{Best: 0, Worst: 5},
		FCFYield: Band{Best: 0.10, Worst: 0},
		ROE:      Band{Best: 1.0, Worst: 0},
	}
}

// ScoreResult is the composite and its inputs
type ScoreResult struct {
	Score     float64            `json:"score"`
	SubScores map[string]float64 `json:"sub_scores"`
	Weights   map[string]float64 `json:"weights"` // normalized over SubScores
}

// Scorer computes the composite value score
// ⭐ SSOT: 가치 점수 계산은 여기서만
type Scorer struct {
	bands  Bands
	logger *logger.Logger
}

// NewScorer creates a scorer with the default bands
func NewScorer(log *logger.Logger) *Scorer {
	if log == nil {
		log = logger.Nop()
	}
	return &Scorer{
		bands:  DefaultBands(),
		logger: log,
	}
}

// WithBands replaces the reference bands
func (s *Scorer) WithBands(b Bands) *Scorer {
	s.bands = b
	return s
}

// Score combines the available ratios. Missing ratios are excluded and the
// remaining weights re-normalized; P/E and P/B <= 0 count as missing.
// Returns ErrUnscoreable when nothing with a positive weight is available.
func (s *Scorer) Score(r contracts.RatioSnapshot, w contracts.ScoringWeights) (ScoreResult, error) {
	if err := w.Validate(); err != nil {
		return ScoreResult{}, fmt.Errorf("%w: %v", contracts.ErrUnscoreable, err)
	}

	type component struct {
		name   string
		metric contracts.Metric
		weight float64
		band   Band
		// multiples at or below zero carry no valuation signal
		positiveOnly bool
	}
	components := []component{
		{"pe", r.PE, w.PE, s.bands.PE, true},
		{"pb", r.PB, w.PB, s.bands.PB, true},
		{"fcf_yield", r.FCFYield, w.FCFYield, s.bands.FCFYield, false},
		{"roe", r.ROE, w.ROE, s.bands.ROE, false},
	}

	res := ScoreResult{
		SubScores: make(map[string]float64, len(components)),
		Weights:   make(map[string]float64, len(components)),
	}

	var weighted, total float64
	for _, c := range components {
		v, ok := c.metric.Get()
		if !ok || (c.positiveOnly && v <= 0) || c.weight == 0 {
			continue
		}
		sub := c.band.Score(v)
		res.SubScores[c.name] = sub
		res.Weights[c.name] = c.weight
		weighted += c.weight * sub
		total += c.weight
	}

	if total == 0 {
		return ScoreResult{}, fmt.Errorf("%w: no weighted ratio available", contracts.ErrUnscoreable)
	}

	for name, weight := range res.Weights {
		res.Weights[name] = weight / total
	}
	res.Score = clamp(weighted/total, 0, 100)

	s.logger.WithFields(map[string]interface{}{
		"score":      res.Score,
		"sub_scores": res.SubScores,
	}).Debug("Calculated value score")

	return res, nil
}

// Interpret labels a composite score
func Interpret(score float64) string {
	switch {
	case score >= 80:
		return "Excellent Value"
	case score >= 60:
		return "Good Value"
	case score >= 40:
		return "Fair Value"
	case score >= 20:
		return "Poor Value"
	default:
		return "Very Poor Value"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
