package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegdyn/pegsim/internal/pool"
	"github.com/pegdyn/pegsim/internal/types"
)

func newTestShorter(t *testing.T, wallet, threshold, stopLoss, collateralization float64) *Shorter {
	t.Helper()
	return NewShorter("short-000", types.ShorterParameters{
		RefHoldings:         fixed(wallet),
		DifferenceThreshold: fixed(threshold),
		StopLoss:            fixed(stopLoss),
		Collateralization:   fixed(collateralization),
	}, testRNG())
}

func TestShorter_OpensWhenMarketTradesRich(t *testing.T) {
	// Market at ~$3.141 vs a $2.80 redemption price: an 8% threshold trips.
	w := newTestWorld(t, 2.80, 1500)
	s := newTestShorter(t, 20, 8, 15, 200)

	_, ref0 := w.Pool.Reserves()
	require.NoError(t, s.DecideAndAct(w))

	require.True(t, s.HasPosition())
	assert.Equal(t, 1, w.Safes.Count())
	assert.Equal(t, 20.0, w.Safes.TotalCollateral())

	// Selling the mint left the agent holding only swap proceeds.
	_, ref1 := w.Pool.Reserves()
	assert.Less(t, ref1, ref0)
	assert.Greater(t, s.WalletRef(), 0.0)

	// Selling pressure pushed the spot price down.
	assert.Less(t, w.Pool.SpotPrice(), 20_940.0/10_000_000)
}

func TestShorter_StaysOutBelowThreshold(t *testing.T) {
	// Market ~$3.141 vs $3.10 redemption: gap ~1.3%, under a 5% threshold.
	w := newTestWorld(t, 3.10, 1500)
	s := newTestShorter(t, 20, 5, 15, 200)

	require.NoError(t, s.DecideAndAct(w))
	assert.False(t, s.HasPosition())
	assert.Equal(t, 0, w.Safes.Count())
}

func TestShorter_TakesProfitOnReconvergence(t *testing.T) {
	w := newTestWorld(t, 2.80, 1500)
	s := newTestShorter(t, 20, 5, 50, 200)
	require.NoError(t, s.DecideAndAct(w))
	require.True(t, s.HasPosition())

	// The reference asset sells off, dragging the market price under the
	// target. Rates were never negative, so the agent buys back.
	w.RefPriceUSD = 1200
	w.RateHistory = []float64{0, 0, 0.0001}
	require.NoError(t, s.DecideAndAct(w))

	assert.False(t, s.HasPosition())
	assert.Equal(t, 0, w.Safes.Count())
	assert.Greater(t, s.WalletRef(), 0.0)
}

func TestShorter_HoldsThroughNegativeRates(t *testing.T) {
	w := newTestWorld(t, 2.80, 1500)
	s := newTestShorter(t, 20, 5, 50, 200)
	require.NoError(t, s.DecideAndAct(w))
	require.True(t, s.HasPosition())

	// Same reconvergence, but the peg is still being pushed down: wait.
	w.RefPriceUSD = 1200
	w.RateHistory = []float64{0, -0.0001, 0}
	require.NoError(t, s.DecideAndAct(w))

	assert.True(t, s.HasPosition())
}

func TestShorter_StopLossOnAdverseMove(t *testing.T) {
	w := newTestWorld(t, 2.80, 1500)
	s := newTestShorter(t, 20, 5, 10, 200)
	require.NoError(t, s.DecideAndAct(w))
	require.True(t, s.HasPosition())
	require.Equal(t, 1, w.Safes.Count())

	// Heavy stablecoin buying moves the pool against the short: buying the
	// debt back now costs far more ref than the mint raised.
	_, err := w.Pool.Swap(pool.Ref, 8000)
	require.NoError(t, err)
	require.NoError(t, s.DecideAndAct(w))

	assert.False(t, s.HasPosition())
	assert.Equal(t, 0, w.Safes.Count())
}

func TestRatesNonNegative(t *testing.T) {
	assert.True(t, ratesNonNegative(nil, 96))
	assert.True(t, ratesNonNegative([]float64{0, 0.001, 0}, 96))
	assert.False(t, ratesNonNegative([]float64{0, -0.001, 0}, 96))

	// Only the lookback window counts.
	old := append([]float64{-1}, make([]float64, 96)...)
	assert.True(t, ratesNonNegative(old, 96))
	assert.False(t, ratesNonNegative(old, 97))
}
