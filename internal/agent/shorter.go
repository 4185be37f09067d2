/*

Shorter. Opens a stablecoin short once the market trades far enough above the
redemption price: collateralizes its whole reference-asset wallet, sells the
minted stablecoin into the pool, and records the redemption price at open as
its take-profit target. Closes on stop-loss, on reconvergence below the
target, or forcibly when collateralization goes non-positive.

Closing policy: stop-loss is evaluated before take-profit; take-profit
additionally requires the redemption rate to have been non-negative over the
recent lookback, so the agent does not buy back into a falling peg.

*/

package agent

import (
	"fmt"
	"math/rand"

	"github.com/pegdyn/pegsim/internal/pool"
	"github.com/pegdyn/pegsim/internal/types"
)

// Shorter holds the short-strategy agent's private state.
type Shorter struct {
	id string

	walletRef    float64
	walletStable float64

	differenceThreshold float64
	stopLoss            float64
	collateralization   float64

	safeID  int
	hasSafe bool

	netWorthBefore float64
	priceTargetUSD float64
}

// NewShorter draws an agent from the configured distributions.
func NewShorter(id string, p types.ShorterParameters, rng *rand.Rand) *Shorter {
	return &Shorter{
		id:                  id,
		walletRef:           drawUniform(rng, p.RefHoldings),
		differenceThreshold: drawUniform(rng, p.DifferenceThreshold),
		stopLoss:            drawUniform(rng, p.StopLoss),
		collateralization:   drawUniform(rng, p.Collateralization),
	}
}

func (s *Shorter) ID() string            { return s.id }
func (s *Shorter) Kind() types.AgentKind { return types.AgentShorter }

// HasPosition reports whether the agent currently holds an open short.
func (s *Shorter) HasPosition() bool { return s.hasSafe }

// WalletRef returns the agent's current reference-asset wallet balance.
func (s *Shorter) WalletRef() float64 { return s.walletRef }

// DecideAndAct opens or manages the agent's single short position.
func (s *Shorter) DecideAndAct(w *World) error {
	if !s.hasSafe {
		gap := PriceGapPercent(w.MarketPriceUSD(), w.Controller.RedemptionPrice())
		if gap > s.differenceThreshold && s.walletRef > 0 {
			return s.open(w)
		}
		return nil
	}

	safe, err := w.Safes.Get(s.safeID)
	if err != nil {
		return fmt.Errorf("reading short safe: %w", err)
	}
	if safe.Collateralization(w.RefPriceUSD, w.Controller.RedemptionPrice()) <= 0 {
		return s.close(w)
	}

	refNeeded, err := w.Pool.RefInForStableOut(safe.Debt)
	if err != nil {
		return fmt.Errorf("pricing short close: %w", err)
	}
	netWorth := s.walletRef + safe.Collateral - refNeeded
	if UnrealizedLossPercent(netWorth, s.netWorthBefore) > s.stopLoss {
		return s.close(w)
	}
	if w.MarketPriceUSD() < s.priceTargetUSD && ratesNonNegative(w.RateHistory, RateLookbackSteps) {
		return s.close(w)
	}
	return nil
}

// open mints against the whole wallet at the desired collateralization and
// sells the minted stablecoin into the pool.
func (s *Shorter) open(w *World) error {
	collateral := s.walletRef
	s.netWorthBefore = collateral

	id, debt, err := w.Safes.Open(collateral, s.collateralization, w.RefPriceUSD, w.Controller.RedemptionPrice())
	if err != nil {
		return fmt.Errorf("opening short safe: %w", err)
	}
	s.safeID = id
	s.hasSafe = true
	s.walletRef = 0
	s.walletStable = debt
	s.priceTargetUSD = w.Controller.RedemptionPrice()

	refOut, err := w.Pool.Swap(pool.Stable, s.walletStable)
	if err != nil {
		return fmt.Errorf("selling minted stable: %w", err)
	}
	s.walletStable = 0
	s.walletRef += refOut
	return nil
}

// close buys back exactly the debt on the market, repays it, and reclaims the
// collateral. A wallet shortfall on the buy is topped up externally; the
// top-up never changes net worth since it is consumed by the repayment.
func (s *Shorter) close(w *World) error {
	safe, err := w.Safes.Get(s.safeID)
	if err != nil {
		return fmt.Errorf("reading short safe: %w", err)
	}

	refIn, err := w.Pool.SwapRefForExactStable(safe.Debt)
	if err != nil {
		return fmt.Errorf("buying back debt: %w", err)
	}
	if refIn > s.walletRef {
		s.walletRef = refIn
	}
	s.walletRef -= refIn

	collateral, err := w.Safes.Close(s.safeID)
	if err != nil {
		return fmt.Errorf("closing short safe: %w", err)
	}
	s.walletRef += collateral
	s.walletStable = 0
	s.hasSafe = false
	return nil
}

// ratesNonNegative reports whether every rate in the last lookback entries is
// non-negative. An empty history counts as non-negative.
func ratesNonNegative(rates []float64, lookback int) bool {
	start := len(rates) - lookback
	if start < 0 {
		start = 0
	}
	for _, r := range rates[start:] {
		if r < 0 {
			return false
		}
	}
	return true
}
