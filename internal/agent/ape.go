/*

Buy-and-sell liquidity provider. Buys the stablecoin on the market and
provides two-sided liquidity with its entire net worth while the expected
annualized return clears its private threshold; withdraws everything and sells
back into the reference asset once it does not.

*/

package agent

import (
	"fmt"
	"math/rand"

	"github.com/pegdyn/pegsim/internal/pool"
	"github.com/pegdyn/pegsim/internal/types"
)

// LiquidityApe holds the buy-and-sell liquidity provider's private state.
type LiquidityApe struct {
	id string

	walletRef float64
	lpShares  float64

	returnThreshold   float64
	tokenValuationUSD float64

	lastExpectedReturn float64
	lastPoolShare      float64
}

// NewLiquidityApe draws an agent from the configured distributions.
func NewLiquidityApe(id string, p types.LiquidityApeParameters, rng *rand.Rand) *LiquidityApe {
	return &LiquidityApe{
		id:                id,
		walletRef:         drawUniform(rng, p.RefHoldings),
		returnThreshold:   drawUniform(rng, p.ReturnThreshold),
		tokenValuationUSD: drawUniform(rng, p.TokenValuation),
	}
}

func (a *LiquidityApe) ID() string            { return a.id }
func (a *LiquidityApe) Kind() types.AgentKind { return types.AgentLiquidityApe }

// Diagnostic reports the return and pool share computed at the agent's last
// decision.
func (a *LiquidityApe) Diagnostic() (float64, float64) {
	return a.lastExpectedReturn, a.lastPoolShare
}

// WalletRef returns the agent's current reference-asset wallet balance.
func (a *LiquidityApe) WalletRef() float64 { return a.walletRef }

// Shares returns the agent's liquidity-share balance.
func (a *LiquidityApe) Shares() float64 { return a.lpShares }

// DecideAndAct evaluates the expected return and enters or exits the pool.
// An agent with nothing to deploy and no position sits out the step.
func (a *LiquidityApe) DecideAndAct(w *World) error {
	if a.walletRef <= 0 && a.lpShares == 0 {
		a.lastExpectedReturn = 0
		a.lastPoolShare = 0
		return nil
	}
	ret, share, err := a.expectedReturn(w)
	if err != nil {
		return err
	}
	a.lastExpectedReturn = ret
	a.lastPoolShare = share

	switch {
	case ret >= a.returnThreshold && a.lpShares == 0:
		return a.enter(w)
	case ret < a.returnThreshold && a.lpShares > 0:
		return a.exit(w)
	}
	return nil
}

// expectedReturn computes the annualized return of the agent's current pool
// share, or of the share it would obtain by entering with its whole wallet.
func (a *LiquidityApe) expectedReturn(w *World) (ret, share float64, err error) {
	if a.lpShares > 0 {
		share = w.Pool.PoolShare(a.lpShares)
	} else {
		_, refReserve := w.Pool.Reserves()
		size := pool.EntrySwapSize(a.walletRef, refReserve)
		obtained, qerr := w.Pool.QuoteEntryShares(size)
		if qerr != nil {
			return 0, 0, fmt.Errorf("quoting pool entry: %w", qerr)
		}
		share = obtained / (w.Pool.ShareSupply() + obtained)
	}

	ret = ExpectedLPReturn(LPReturnInputs{
		PoolShare:         share,
		TVLRef:            w.Pool.TotalValueLockedRef(),
		RefPriceUSD:       w.RefPriceUSD,
		SpotPrice:         w.Pool.SpotPrice(),
		TokenValuationUSD: a.tokenValuationUSD,
		RewardPerDay:      w.RewardTokensPerDay,
		RewardSupply:      w.RewardTokenSupply,
		RedemptionPrice:   w.Controller.RedemptionPrice(),
		RedemptionRate:    w.Controller.Rate(),
	})
	return ret, share, nil
}

// enter swaps exactly the amount needed so that the swap proceeds and the
// remaining wallet deposit together exhaust the wallet, then provides both
// sides.
func (a *LiquidityApe) enter(w *World) error {
	_, refReserve := w.Pool.Reserves()
	size := pool.EntrySwapSize(a.walletRef, refReserve)

	stableOut, err := w.Pool.Swap(pool.Ref, size)
	if err != nil {
		return fmt.Errorf("entry swap: %w", err)
	}
	a.walletRef -= size

	shares, err := w.Pool.AddLiquidity(stableOut, a.walletRef)
	if err != nil {
		return fmt.Errorf("entry deposit: %w", err)
	}
	a.lpShares += shares
	a.walletRef = 0
	return nil
}

// exit withdraws all shares and immediately sells the withdrawn stablecoin
// back into the reference asset.
func (a *LiquidityApe) exit(w *World) error {
	stable, ref, err := w.Pool.RemoveLiquidity(a.lpShares)
	if err != nil {
		return fmt.Errorf("exit withdraw: %w", err)
	}
	a.lpShares = 0

	refOut, err := w.Pool.Swap(pool.Stable, stable)
	if err != nil {
		return fmt.Errorf("exit swap: %w", err)
	}
	a.walletRef += ref + refOut
	return nil
}
