/*

Trend-following leveraged long. Watches weekly closes of the reference-asset
price; after its configured run of up-weeks it mints stablecoin against its
whole wallet near the minimum collateralization, sells the mint, and folds the
proceeds back in as collateral — a leveraged long on the reference asset.
Closes after its run of down-weeks, on stop-loss, or when collateralization
drops under the liquidation-protection floor.

*/

package agent

import (
	"fmt"
	"math/rand"

	"github.com/pegdyn/pegsim/internal/cdp"
	"github.com/pegdyn/pegsim/internal/pool"
	"github.com/pegdyn/pegsim/internal/types"
)

// StepsPerWeek is the number of hourly steps per simulated week.
const StepsPerWeek = 168

// liquidationFloorPct is the collateralization below which the agent bails
// out ahead of liquidation.
const liquidationFloorPct = 150.0

// TrendLong holds the trend follower's private state.
type TrendLong struct {
	id string

	walletRef    float64
	walletStable float64

	uptrendWeeks   int
	downtrendWeeks int
	stopLoss       float64

	safeID  int
	hasSafe bool

	netWorthBefore float64
}

// NewTrendLong draws an agent from the configured distributions. Week counts
// are drawn from their ranges and truncated to integers.
func NewTrendLong(id string, p types.TrendLongParameters, rng *rand.Rand) *TrendLong {
	return &TrendLong{
		id:             id,
		walletRef:      drawUniform(rng, p.RefHoldings),
		uptrendWeeks:   int(drawUniform(rng, p.UptrendWeeks)),
		downtrendWeeks: int(drawUniform(rng, p.DowntrendWeeks)),
		stopLoss:       drawUniform(rng, p.StopLoss),
	}
}

func (t *TrendLong) ID() string            { return t.id }
func (t *TrendLong) Kind() types.AgentKind { return types.AgentTrendLong }

// HasPosition reports whether the agent currently holds an open long.
func (t *TrendLong) HasPosition() bool { return t.hasSafe }

// DecideAndAct opens or manages the agent's single leveraged long.
func (t *TrendLong) DecideAndAct(w *World) error {
	if !t.hasSafe {
		// Enough history to judge both the entry and the exit run lengths.
		weeksNeeded := t.uptrendWeeks
		if t.downtrendWeeks > weeksNeeded {
			weeksNeeded = t.downtrendWeeks
		}
		if len(w.PriceHistory) <= StepsPerWeek*(weeksNeeded+1) {
			return nil
		}
		if consecutiveWeeklyTrend(w.PriceHistory, t.uptrendWeeks, true) && t.walletRef > 0 {
			return t.open(w)
		}
		return nil
	}

	safe, err := w.Safes.Get(t.safeID)
	if err != nil {
		return fmt.Errorf("reading long safe: %w", err)
	}

	refNeeded, err := w.Pool.RefInForStableOut(safe.Debt)
	if err != nil {
		return fmt.Errorf("pricing long close: %w", err)
	}
	netWorth := t.walletRef + safe.Collateral - refNeeded

	switch {
	case UnrealizedLossPercent(netWorth, t.netWorthBefore) > t.stopLoss:
		return t.close(w)
	case safe.Collateralization(w.RefPriceUSD, w.Controller.RedemptionPrice()) < liquidationFloorPct:
		return t.close(w)
	case consecutiveWeeklyTrend(w.PriceHistory, t.downtrendWeeks, false):
		return t.close(w)
	}
	return nil
}

// open mints just above the minimum collateralization with the whole wallet,
// sells the mint, and adds the proceeds back as collateral.
func (t *TrendLong) open(w *World) error {
	collateral := t.walletRef
	t.netWorthBefore = collateral

	id, debt, err := w.Safes.Open(collateral, cdp.MinCollateralization+0.01,
		w.RefPriceUSD, w.Controller.RedemptionPrice())
	if err != nil {
		return fmt.Errorf("opening long safe: %w", err)
	}
	t.safeID = id
	t.hasSafe = true
	t.walletRef = 0
	t.walletStable = debt

	refOut, err := w.Pool.Swap(pool.Stable, t.walletStable)
	if err != nil {
		return fmt.Errorf("selling minted stable: %w", err)
	}
	t.walletStable = 0

	if err := w.Safes.Modify(t.safeID, refOut, 0, w.RefPriceUSD, w.Controller.RedemptionPrice()); err != nil {
		return fmt.Errorf("topping up collateral: %w", err)
	}
	return nil
}

// close buys back the debt, repays, and reclaims all collateral. A wallet
// shortfall on the buy is topped up externally, same as the shorter.
func (t *TrendLong) close(w *World) error {
	safe, err := w.Safes.Get(t.safeID)
	if err != nil {
		return fmt.Errorf("reading long safe: %w", err)
	}

	refIn, err := w.Pool.SwapRefForExactStable(safe.Debt)
	if err != nil {
		return fmt.Errorf("buying back debt: %w", err)
	}
	if refIn > t.walletRef {
		t.walletRef = refIn
	}
	t.walletRef -= refIn

	collateral, err := w.Safes.Close(t.safeID)
	if err != nil {
		return fmt.Errorf("closing long safe: %w", err)
	}
	t.walletRef += collateral
	t.walletStable = 0
	t.hasSafe = false
	return nil
}

// consecutiveWeeklyTrend reports whether the last n weekly closes moved in
// one direction: up when rising is true, down otherwise. History is indexed
// from its end in whole weeks.
func consecutiveWeeklyTrend(history []float64, weeks int, rising bool) bool {
	if weeks <= 0 {
		return false
	}
	n := len(history)
	if n < StepsPerWeek*(weeks+1) {
		return false
	}
	for i := weeks; i >= 1; i-- {
		prev := history[n-StepsPerWeek*(i+1)]
		curr := history[n-StepsPerWeek*i]
		if rising && !(prev < curr) {
			return false
		}
		if !rising && !(prev > curr) {
			return false
		}
	}
	return true
}
