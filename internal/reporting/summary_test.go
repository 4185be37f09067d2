package reporting

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegdyn/pegsim/internal/types"
)

func TestSummarize_RejectsShortSeries(t *testing.T) {
	_, err := Summarize(nil)
	require.ErrorIs(t, err, ErrInsufficientData)

	_, err = Summarize(samplePoints()[:1])
	require.ErrorIs(t, err, ErrInsufficientData)
}

func TestSummarize_PerfectPeg(t *testing.T) {
	points := []types.SeriesPoint{
		{Step: 0, MarketPriceUSD: 3.14, RedemptionPrice: 3.14},
		{Step: 1, MarketPriceUSD: 3.14, RedemptionPrice: 3.14},
		{Step: 2, MarketPriceUSD: 3.14, RedemptionPrice: 3.14},
	}

	s, err := Summarize(points)
	require.NoError(t, err)

	assert.Equal(t, 3, s.Steps)
	assert.Equal(t, 0.0, s.MeanPegDeviationPct)
	assert.Equal(t, 0.0, s.MaxPegDeviationPct)
	assert.Equal(t, 100.0, s.StepsWithinBandPct)
	assert.Equal(t, 0.0, s.AnnualizedVolatility)
	assert.Equal(t, 3.14, s.FinalMarketPriceUSD)
}

func TestSummarize_PegDeviation(t *testing.T) {
	points := []types.SeriesPoint{
		{Step: 0, MarketPriceUSD: 3.14, RedemptionPrice: 3.14},  // 0%
		{Step: 1, MarketPriceUSD: 3.2971, RedemptionPrice: 3.14}, // 5%
	}

	s, err := Summarize(points)
	require.NoError(t, err)

	assert.InDelta(t, 2.5, s.MeanPegDeviationPct, 1e-9)
	assert.InDelta(t, 5.0, s.MaxPegDeviationPct, 1e-9)
	assert.InDelta(t, 50.0, s.StepsWithinBandPct, 1e-9)
}

func TestSummarize_Volatility(t *testing.T) {
	// Alternating +10%/-10% moves: every log return is ±log(1.1)-ish with a
	// fixed magnitude, so the population stddev is computable by hand.
	points := []types.SeriesPoint{
		{MarketPriceUSD: 1.0, RedemptionPrice: 1},
		{MarketPriceUSD: 1.1, RedemptionPrice: 1},
		{MarketPriceUSD: 1.0, RedemptionPrice: 1},
		{MarketPriceUSD: 1.1, RedemptionPrice: 1},
		{MarketPriceUSD: 1.0, RedemptionPrice: 1},
	}

	s, err := Summarize(points)
	require.NoError(t, err)

	r := math.Log(1.1)
	// Returns: +r, -r, +r, -r. Mean 0, stddev r.
	assert.InDelta(t, r*math.Sqrt(8760), s.AnnualizedVolatility, 1e-9)
}
