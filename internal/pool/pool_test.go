package pool

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegdyn/pegsim/internal/types"
)

func newTestPool(t *testing.T) *Pool {
	t.Helper()
	p, err := New(10_000_000, 20_940)
	require.NoError(t, err)
	return p
}

func TestNew_RejectsNonPositiveReserves(t *testing.T) {
	_, err := New(0, 100)
	require.ErrorIs(t, err, types.ErrInvalidAmount)

	_, err = New(100, -1)
	require.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestNew_SeedsSharesAsGeometricMean(t *testing.T) {
	p := newTestPool(t)

	want := math.Sqrt(10_000_000 * 20_940)
	assert.InDelta(t, want, p.ShareSupply(), 1e-6)
	assert.InDelta(t, want, p.SeedShares(), 1e-6)
}

func TestSpotPrice_InitialScenario(t *testing.T) {
	p := newTestPool(t)

	assert.InDelta(t, 20_940.0/10_000_000.0, p.SpotPrice(), 1e-15)
	assert.InDelta(t, p.SpotPrice(), p.InitialSpotPrice(), 1e-15)
}

func TestSwap_PreservesProduct(t *testing.T) {
	p := newTestPool(t)
	stable0, ref0 := p.Reserves()
	k0 := stable0 * ref0

	out, err := p.Swap(Ref, 50)
	require.NoError(t, err)
	require.Greater(t, out, 0.0)

	stable1, ref1 := p.Reserves()
	assert.InDelta(t, k0, stable1*ref1, k0*1e-12)

	// Buying stablecoin raises its price.
	assert.Greater(t, p.SpotPrice(), 20_940.0/10_000_000.0)

	out, err = p.Swap(Stable, out)
	require.NoError(t, err)
	stable2, ref2 := p.Reserves()
	assert.InDelta(t, k0, stable2*ref2, k0*1e-12)
}

func TestSwap_RejectsInvalidAmounts(t *testing.T) {
	p := newTestPool(t)

	for _, amount := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		_, err := p.Swap(Stable, amount)
		assert.ErrorIs(t, err, types.ErrInvalidAmount, "amount %v", amount)
	}
}

func TestQuote_DoesNotMutate(t *testing.T) {
	p := newTestPool(t)
	stable0, ref0 := p.Reserves()

	_, err := p.Quote(Ref, 100)
	require.NoError(t, err)

	stable1, ref1 := p.Reserves()
	assert.Equal(t, stable0, stable1)
	assert.Equal(t, ref0, ref1)
}

func TestAddRemoveLiquidity_PriceUnchanged(t *testing.T) {
	p := newTestPool(t)
	price0 := p.SpotPrice()

	// Deposit at the current ratio.
	amountStable := 250_000.0
	amountRef := amountStable * price0
	shares, err := p.AddLiquidity(amountStable, amountRef)
	require.NoError(t, err)
	require.Greater(t, shares, 0.0)
	assert.InDelta(t, price0, p.SpotPrice(), price0*1e-12)

	gotStable, gotRef, err := p.RemoveLiquidity(shares)
	require.NoError(t, err)
	assert.InDelta(t, amountStable, gotStable, 1e-6)
	assert.InDelta(t, amountRef, gotRef, 1e-9)
	assert.InDelta(t, price0, p.SpotPrice(), price0*1e-12)
}

func TestAddLiquidity_ShareAccounting(t *testing.T) {
	p := newTestPool(t)
	supply0 := p.ShareSupply()
	stable0, _ := p.Reserves()

	// A deposit equal to 10% of reserves mints 10% of the prior supply.
	shares, err := p.AddLiquidity(stable0*0.10, stable0*0.10*p.SpotPrice())
	require.NoError(t, err)
	assert.InDelta(t, supply0*0.10, shares, supply0*1e-12)
	assert.InDelta(t, supply0*1.10, p.ShareSupply(), supply0*1e-12)

	quoted, err := p.QuoteAddLiquidity(1000)
	require.NoError(t, err)
	assert.InDelta(t, (1000.0/(stable0*1.10))*p.ShareSupply(), quoted, 1e-9)
}

func TestRemoveLiquidity_SeedSharesImmutable(t *testing.T) {
	p := newTestPool(t)

	// No circulating shares beyond the seed: any burn must fail.
	_, _, err := p.RemoveLiquidity(1)
	require.ErrorIs(t, err, types.ErrInsufficientShares)

	shares, err := p.AddLiquidity(1000, 1000*p.SpotPrice())
	require.NoError(t, err)

	_, _, err = p.RemoveLiquidity(shares + p.SeedShares()/2)
	require.ErrorIs(t, err, types.ErrInsufficientShares)

	_, _, err = p.RemoveLiquidity(shares)
	require.NoError(t, err)
}

func TestRefInForStableOut_Inverse(t *testing.T) {
	p := newTestPool(t)

	stableOut := 12_345.0
	refIn, err := p.RefInForStableOut(stableOut)
	require.NoError(t, err)

	// Feeding the quoted input through a plain swap yields the requested output.
	got, err := p.Quote(Ref, refIn)
	require.NoError(t, err)
	assert.InDelta(t, stableOut, got, 1e-6)

	_, err = p.RefInForStableOut(p.reserveStable)
	assert.ErrorIs(t, err, types.ErrPoolDepleted)
}

func TestSwapRefForExactStable_Mutates(t *testing.T) {
	p := newTestPool(t)
	stable0, ref0 := p.Reserves()
	k0 := stable0 * ref0

	refIn, err := p.SwapRefForExactStable(5000)
	require.NoError(t, err)
	require.Greater(t, refIn, 0.0)

	stable1, ref1 := p.Reserves()
	assert.InDelta(t, stable0-5000, stable1, 1e-9)
	assert.InDelta(t, ref0+refIn, ref1, 1e-9)
	assert.InDelta(t, k0, stable1*ref1, k0*1e-12)
}

func TestEntrySwapSize_ExhaustsWallet(t *testing.T) {
	wallets := []float64{0.5, 3, 25, 50, 400}

	for _, wallet := range wallets {
		p := newTestPool(t)
		_, refReserve := p.Reserves()

		size := EntrySwapSize(wallet, refReserve)
		require.Greater(t, size, 0.0)
		require.Less(t, size, wallet)

		stableOut, err := p.Swap(Ref, size)
		require.NoError(t, err)

		remaining := wallet - size
		// The swap proceeds plus the remaining wallet match the post-swap
		// pool ratio exactly, so the whole wallet goes in.
		stable1, ref1 := p.Reserves()
		assert.InDelta(t, stableOut/stable1, remaining/ref1, 1e-12, "wallet %v", wallet)

		_, err = p.AddLiquidity(stableOut, remaining)
		require.NoError(t, err)
	}
}

func TestQuoteEntryShares_MatchesExecutedEntry(t *testing.T) {
	wallet := 30.0

	quotePool := newTestPool(t)
	_, refReserve := quotePool.Reserves()
	size := EntrySwapSize(wallet, refReserve)

	quoted, err := quotePool.QuoteEntryShares(size)
	require.NoError(t, err)

	execPool := newTestPool(t)
	stableOut, err := execPool.Swap(Ref, size)
	require.NoError(t, err)
	shares, err := execPool.AddLiquidity(stableOut, wallet-size)
	require.NoError(t, err)

	assert.InDelta(t, quoted, shares, quoted*1e-9)
}

func TestPoolShare(t *testing.T) {
	p := newTestPool(t)

	shares, err := p.AddLiquidity(1_000_000, 1_000_000*p.SpotPrice())
	require.NoError(t, err)

	want := shares / p.ShareSupply()
	assert.InDelta(t, want, p.PoolShare(shares), 1e-15)
}

func TestCheckLive_DepletedPool(t *testing.T) {
	p := newTestPool(t)
	p.reserveStable = 0

	_, err := p.Quote(Ref, 1)
	require.True(t, errors.Is(err, types.ErrPoolDepleted))
}
