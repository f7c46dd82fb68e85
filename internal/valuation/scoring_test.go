package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/volur/internal/contracts"
)

var testWeights = contracts.ScoringWeights{PE: 0.3, PB: 0.2, FCFYield: 0.3, ROE: 0.2}

func TestBand_Score(t *testing.T) {
	pe := DefaultBands().PE
	assert.Equal(t, 100.0, pe.Score(0))
	assert.InDelta(t, 70.0, pe.Score(15), 1e-9)
	assert.Equal(t, 0.0, pe.Score(80))

	fcf := DefaultBands().FCFYield
	assert.InDelta(t, 50.0, fcf.Score(0.05), 1e-9)
	assert.Equal(t, 100.0, fcf.Score(0.4))
	assert.Equal(t, 0.0, fcf.Score(-0.1))

	assert.Equal(t, 0.0, Band{Best: 1, Worst: 1}.Score(1))
}

func TestScorer_AllRatios(t *testing.T) {
	s := NewScorer(nil)
	r := contracts.RatioSnapshot{
		PE:       contracts.Some(15),   // 70
		PB:       contracts.Some(2),    // 60
		FCFYield: contracts.Some(0.05), // 50
		ROE:      contracts.Some(0.20), // 20
	}

	res, err := s.Score(r, testWeights)
	require.NoError(t, err)

	// 0.3×70 + 0.2×60 + 0.3×50 + 0.2×20
	assert.InDelta(t, 52.0, res.Score, 1e-9)
	assert.Len(t, res.SubScores, 4)
}

func TestScorer_RenormalizesOverAvailable(t *testing.T) {
	s := NewScorer(nil)
	r := contracts.RatioSnapshot{
		PE: contracts.Some(15), // 70
		PB: contracts.Some(2),  // 60
	}

	res, err := s.Score(r, testWeights)
	require.NoError(t, err)

	// (0.3×70 + 0.2×60) / 0.5
	assert.InDelta(t, 66.0, res.Score, 1e-9)
	assert.InDelta(t, 0.6, res.Weights["pe"], 1e-12)
	assert.InDelta(t, 0.4, res.Weights["pb"], 1e-12)
}

func TestScorer_NonPositiveMultiplesIgnored(t *testing.T) {
	s := NewScorer(nil)
	r := contracts.RatioSnapshot{
		PE:  contracts.Some(-8),
		ROE: contracts.Some(0.5),
	}

	res, err := s.Score(r, testWeights)
	require.NoError(t, err)
	assert.NotContains(t, res.SubScores, "pe")
	assert.InDelta(t, 50.0, res.Score, 1e-9)
}

func TestScorer_Unscoreable(t *testing.T) {
	s := NewScorer(nil)

	_, err := s.Score(contracts.RatioSnapshot{ROA: contracts.Some(0.1)}, testWeights)
	assert.ErrorIs(t, err, contracts.ErrUnscoreable)

	_, err = s.Score(contracts.RatioSnapshot{PE: contracts.Some(10)}, contracts.ScoringWeights{PB: 1})
	assert.ErrorIs(t, err, contracts.ErrUnscoreable, "available ratio with zero weight")

	_, err = s.Score(contracts.RatioSnapshot{PE: contracts.Some(10)}, contracts.ScoringWeights{PE: -1})
	assert.ErrorIs(t, err, contracts.ErrUnscoreable)
}

func TestScorer_Bounded(t *testing.T) {
	s := NewScorer(nil)
	values := []contracts.Metric{
		contracts.None(), contracts.Some(-1e9), contracts.Some(-1),
		contracts.Some(0), contracts.Some(0.03), contracts.Some(12), contracts.Some(1e9),
	}

	for _, pe := range values {
		for _, pb := range values {
			for _, fcf := range values {
				for _, roe := range values {
					r := contracts.RatioSnapshot{PE: pe, PB: pb, FCFYield: fcf, ROE: roe}
					res, err := s.Score(r, testWeights)
					if err != nil {
						assert.ErrorIs(t, err, contracts.ErrUnscoreable)
						continue
					}
					assert.GreaterOrEqual(t, res.Score, 0.0)
					assert.LessOrEqual(t, res.Score, 100.0)
				}
			}
		}
	}
}

func TestScorer_WeightScalingInvariance(t *testing.T) {
	s := NewScorer(nil)
	r := contracts.RatioSnapshot{
		PE:       contracts.Some(22),
		PB:       contracts.Some(3.4),
		FCFYield: contracts.Some(0.031),
	}
	w := contracts.ScoringWeights{PE: 0.3, PB: 0.2, FCFYield: 0.3, ROE: 0.2}

	base, err := s.Score(r, w)
	require.NoError(t, err)

	for _, k := range []float64{0.001, 0.5, 3, 1000} {
		scaled := contracts.ScoringWeights{PE: w.PE * k, PB: w.PB * k, FCFYield: w.FCFYield * k, ROE: w.ROE * k}
		got, err := s.Score(r, scaled)
		require.NoError(t, err)
		assert.InDelta(t, base.Score, got.Score, 1e-9, "k=%v", k)
	}
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{95, "Excellent Value"},
		{80, "Excellent Value"},
		{79.9, "Good Value"},
		{60, "Good Value"},
		{45, "Fair Value"},
		{20, "Poor Value"},
		{0, "Very Poor Value"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Interpret(tt.score), "score %v", tt.score)
	}
}
