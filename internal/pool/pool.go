/*

Zero-fee constant-product AMM holding stablecoin / reference-asset reserves.
All amounts are real-valued; the product of reserves is preserved across swaps
and scales proportionally on liquidity add/remove.

*/

package pool

import (
	"fmt"
	"math"

	"github.com/pegdyn/pegsim/internal/logger"
	"github.com/pegdyn/pegsim/internal/types"
)

var poolLogger = logger.GetForComponent("liquidity_pool")

// Asset selects one side of the pool for a swap.
type Asset int

const (
	Stable Asset = iota
	Ref
)

// Pool is the constant-product liquidity pool. Mutated only through its
// swap/add/remove methods; a single goroutine owns it for the run's lifetime.
type Pool struct {
	reserveStable float64
	reserveRef    float64
	shareSupply   float64

	// Captured at construction, used by the TWAP seed and as the share
	// minted to the immutable pool creator.
	initialSpotPrice float64
	seedShares       float64
}

// New creates a pool from the configured initial reserves. The initial share
// supply is sqrt(stable*ref), matching Uniswap v2 seeding; those shares belong
// to the pool creator and are never burned during a run.
func New(initialStable, initialRef float64) (*Pool, error) {
	if initialStable <= 0 || initialRef <= 0 {
		return nil, fmt.Errorf("%w: pool seeded with reserves (%f, %f)",
			types.ErrInvalidAmount, initialStable, initialRef)
	}
	seed := math.Sqrt(initialStable * initialRef)
	p := &Pool{
		reserveStable:    initialStable,
		reserveRef:       initialRef,
		shareSupply:      seed,
		seedShares:       seed,
		initialSpotPrice: initialRef / initialStable,
	}
	poolLogger.Debug().
		Float64("reserveStable", initialStable).
		Float64("reserveRef", initialRef).
		Float64("seedShares", seed).
		Msg("Pool created")
	return p, nil
}

// Reserves returns the current (stablecoin, reference-asset) reserves.
func (p *Pool) Reserves() (stable, ref float64) {
	return p.reserveStable, p.reserveRef
}

// ShareSupply returns the total liquidity-share supply.
func (p *Pool) ShareSupply() float64 {
	return p.shareSupply
}

// SeedShares returns the immutable share balance minted at pool creation.
func (p *Pool) SeedShares() float64 {
	return p.seedShares
}

// InitialSpotPrice returns the spot price at pool creation.
func (p *Pool) InitialSpotPrice() float64 {
	return p.initialSpotPrice
}

// SpotPrice returns the price of one stablecoin in reference-asset units,
// reserveRef / reserveStable. Buying the stablecoin raises it.
func (p *Pool) SpotPrice() float64 {
	return p.reserveRef / p.reserveStable
}

// PoolShare returns the fraction of the pool a share balance represents.
func (p *Pool) PoolShare(shares float64) float64 {
	return shares / p.shareSupply
}

// TotalValueLockedRef returns the pool's total value denominated in the
// reference asset at the current spot price.
func (p *Pool) TotalValueLockedRef() float64 {
	return p.reserveStable*p.SpotPrice() + p.reserveRef
}

// Swap trades amountIn of assetIn for the other asset under the
// constant-product invariant with zero fee, mutating reserves.
func (p *Pool) Swap(assetIn Asset, amountIn float64) (amountOut float64, err error) {
	amountOut, err = p.quote(assetIn, amountIn)
	if err != nil {
		return 0, err
	}
	switch assetIn {
	case Stable:
		p.reserveStable += amountIn
		p.reserveRef -= amountOut
	case Ref:
		p.reserveRef += amountIn
		p.reserveStable -= amountOut
	}
	return amountOut, nil
}

// Quote returns the swap output without mutating the pool.
func (p *Pool) Quote(assetIn Asset, amountIn float64) (float64, error) {
	return p.quote(assetIn, amountIn)
}

func (p *Pool) quote(assetIn Asset, amountIn float64) (float64, error) {
	if err := p.checkLive(); err != nil {
		return 0, err
	}
	if amountIn <= 0 || math.IsNaN(amountIn) || math.IsInf(amountIn, 0) {
		return 0, fmt.Errorf("%w: swap amount %f", types.ErrInvalidAmount, amountIn)
	}
	k := p.reserveStable * p.reserveRef
	var out float64
	switch assetIn {
	case Stable:
		out = p.reserveRef - k/(p.reserveStable+amountIn)
	case Ref:
		out = p.reserveStable - k/(p.reserveRef+amountIn)
	default:
		return 0, fmt.Errorf("%w: unknown asset %d", types.ErrInvalidAmount, assetIn)
	}
	// The closed form leaves the output reserve strictly positive for any
	// finite input, but guard against float rounding at extreme sizes.
	if outReserve := p.outputReserve(assetIn) - out; outReserve <= 0 {
		return 0, fmt.Errorf("%w: swap of %f would leave output reserve at %g",
			types.ErrPoolDepleted, amountIn, outReserve)
	}
	return out, nil
}

func (p *Pool) outputReserve(assetIn Asset) float64 {
	if assetIn == Stable {
		return p.reserveRef
	}
	return p.reserveStable
}

// RefInForStableOut returns the reference-asset input required to withdraw
// exactly amountStableOut from the pool. Used to size debt-closing buys.
func (p *Pool) RefInForStableOut(amountStableOut float64) (float64, error) {
	if err := p.checkLive(); err != nil {
		return 0, err
	}
	if amountStableOut <= 0 {
		return 0, fmt.Errorf("%w: requested stable out %f", types.ErrInvalidAmount, amountStableOut)
	}
	if amountStableOut >= p.reserveStable {
		return 0, fmt.Errorf("%w: requested %f stable against reserve %f",
			types.ErrPoolDepleted, amountStableOut, p.reserveStable)
	}
	return p.reserveRef * (p.reserveStable/(p.reserveStable-amountStableOut) - 1), nil
}

// SwapRefForExactStable swaps enough reference asset in to withdraw exactly
// amountStableOut, returning the reference-asset amount consumed.
func (p *Pool) SwapRefForExactStable(amountStableOut float64) (refIn float64, err error) {
	refIn, err = p.RefInForStableOut(amountStableOut)
	if err != nil {
		return 0, err
	}
	p.reserveRef += refIn
	p.reserveStable -= amountStableOut
	return refIn, nil
}

// AddLiquidity deposits both sides at the current pool ratio and mints shares
// proportional to the deposit's fraction of existing reserves. The caller is
// responsible for supplying amounts matching the current ratio; only the
// stablecoin side drives share accounting, as in Uniswap v2.
func (p *Pool) AddLiquidity(amountStable, amountRef float64) (shares float64, err error) {
	if err := p.checkLive(); err != nil {
		return 0, err
	}
	if amountStable <= 0 || amountRef <= 0 {
		return 0, fmt.Errorf("%w: deposit (%f, %f)", types.ErrInvalidAmount, amountStable, amountRef)
	}
	shares = (amountStable / p.reserveStable) * p.shareSupply
	p.reserveStable += amountStable
	p.reserveRef += amountRef
	p.shareSupply += shares
	return shares, nil
}

// QuoteAddLiquidity returns the shares a deposit would mint without mutating
// the pool.
func (p *Pool) QuoteAddLiquidity(amountStable float64) (float64, error) {
	if err := p.checkLive(); err != nil {
		return 0, err
	}
	if amountStable <= 0 {
		return 0, fmt.Errorf("%w: deposit %f", types.ErrInvalidAmount, amountStable)
	}
	return (amountStable / p.reserveStable) * p.shareSupply, nil
}

// QuoteEntryShares returns the shares an agent would hold after swapping
// amountRef for stablecoin and depositing the proceeds plus the ratio-matched
// reference amount, without mutating the pool. Mirrors the buy-then-provide
// entry the liquidity agents perform.
func (p *Pool) QuoteEntryShares(amountRef float64) (float64, error) {
	if err := p.checkLive(); err != nil {
		return 0, err
	}
	stableOut, err := p.quote(Ref, amountRef)
	if err != nil {
		return 0, err
	}
	// Stable reserve after the hypothetical swap; the share math only
	// depends on this side of the pool.
	newStable := p.reserveStable - stableOut
	if newStable <= 0 {
		return 0, fmt.Errorf("%w: entry quote for %f ref", types.ErrPoolDepleted, amountRef)
	}
	return (stableOut / newStable) * p.shareSupply, nil
}

// RemoveLiquidity burns shares and returns the corresponding fraction of both
// reserves. Burning the entire supply is rejected: the seed share is immutable.
func (p *Pool) RemoveLiquidity(shares float64) (amountStable, amountRef float64, err error) {
	if err := p.checkLive(); err != nil {
		return 0, 0, err
	}
	if shares <= 0 {
		return 0, 0, fmt.Errorf("%w: share burn %f", types.ErrInvalidAmount, shares)
	}
	if shares > p.shareSupply-p.seedShares+1e-9 {
		return 0, 0, fmt.Errorf("%w: burn of %f against %f circulating",
			types.ErrInsufficientShares, shares, p.shareSupply-p.seedShares)
	}
	fraction := shares / p.shareSupply
	amountStable = fraction * p.reserveStable
	amountRef = fraction * p.reserveRef
	p.reserveStable -= amountStable
	p.reserveRef -= amountRef
	p.shareSupply -= shares
	return amountStable, amountRef, nil
}

func (p *Pool) checkLive() error {
	if p.reserveStable <= 0 || p.reserveRef <= 0 {
		return fmt.Errorf("%w: reserves (%f, %f)", types.ErrPoolDepleted, p.reserveStable, p.reserveRef)
	}
	return nil
}

// EntrySwapSize returns the reference-asset amount to swap first so that
// swapping it and depositing the proceeds together with the remaining wallet
// exhausts the wallet exactly:
//
//	size = R_ref * (sqrt(1 + w/R_ref) - 1)
//
// The closed form is independent of the stablecoin reserve.
func EntrySwapSize(wallet, refReserve float64) float64 {
	return refReserve * (math.Sqrt(1+wallet/refReserve) - 1)
}
