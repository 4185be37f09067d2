/*

CDP ledger backing the leveraged agents: safes hold reference-asset collateral
against stablecoin debt issued at the redemption price.

*/

package cdp

import (
	"fmt"

	"github.com/pegdyn/pegsim/internal/types"
)

// MinCollateralization is the minimum collateralization ratio in percent.
const MinCollateralization = 145.0

// Safe is one open position: collateral in reference-asset units, debt in
// stablecoin units.
type Safe struct {
	ID         int
	Collateral float64
	Debt       float64
}

// Collateralization returns the safe's collateralization ratio in percent at
// the given prices.
func (s Safe) Collateralization(refPriceUSD, redemptionPrice float64) float64 {
	debtUSD := s.Debt * redemptionPrice
	if debtUSD == 0 {
		return 0
	}
	return 100 * s.Collateral * refPriceUSD / debtUSD
}

// Engine owns all safes of a run. Mutated sequentially by agent actions.
type Engine struct {
	safes           map[int]*Safe
	nextID          int
	totalCollateral float64
	totalDebt       float64
}

// NewEngine creates an empty safe ledger.
func NewEngine() *Engine {
	return &Engine{safes: make(map[int]*Safe)}
}

// Open creates a safe with the given collateral at the desired
// collateralization ratio (percent), minting debt against the redemption
// price. Returns the safe ID and the stablecoin debt issued.
func (e *Engine) Open(collateral, collateralizationPct, refPriceUSD, redemptionPrice float64) (int, float64, error) {
	if collateral <= 0 {
		return 0, 0, fmt.Errorf("%w: collateral %f", types.ErrInvalidAmount, collateral)
	}
	if collateralizationPct <= MinCollateralization {
		return 0, 0, fmt.Errorf("%w: requested %f%%, minimum %f%%",
			types.ErrUndercollateralized, collateralizationPct, MinCollateralization)
	}
	debt := (collateral * refPriceUSD / (collateralizationPct / 100)) / redemptionPrice
	id := e.nextID
	e.nextID++
	e.safes[id] = &Safe{ID: id, Collateral: collateral, Debt: debt}
	e.totalCollateral += collateral
	e.totalDebt += debt
	return id, debt, nil
}

// Close repays the safe's full debt and releases its collateral.
func (e *Engine) Close(id int) (collateral float64, err error) {
	s, ok := e.safes[id]
	if !ok {
		return 0, fmt.Errorf("%w: id %d", types.ErrSafeNotFound, id)
	}
	e.totalCollateral -= s.Collateral
	e.totalDebt -= s.Debt
	delete(e.safes, id)
	return s.Collateral, nil
}

// Modify applies net collateral and debt deltas to a safe, rejecting any
// change that would leave it below the minimum collateralization.
func (e *Engine) Modify(id int, dCollateral, dDebt, refPriceUSD, redemptionPrice float64) error {
	s, ok := e.safes[id]
	if !ok {
		return fmt.Errorf("%w: id %d", types.ErrSafeNotFound, id)
	}
	newCollateral := s.Collateral + dCollateral
	newDebt := s.Debt + dDebt
	if newCollateral < 0 || newDebt < 0 {
		return fmt.Errorf("%w: modify to collateral %f, debt %f", types.ErrInvalidAmount, newCollateral, newDebt)
	}
	ratio := 100 * newCollateral * refPriceUSD / (newDebt * redemptionPrice)
	if ratio <= MinCollateralization {
		return fmt.Errorf("%w: ratio %f%% after modify", types.ErrUndercollateralized, ratio)
	}
	s.Collateral = newCollateral
	s.Debt = newDebt
	e.totalCollateral += dCollateral
	e.totalDebt += dDebt
	return nil
}

// Get returns a copy of the safe with the given ID.
func (e *Engine) Get(id int) (Safe, error) {
	s, ok := e.safes[id]
	if !ok {
		return Safe{}, fmt.Errorf("%w: id %d", types.ErrSafeNotFound, id)
	}
	return *s, nil
}

// TotalCollateral returns the reference-asset collateral held across all safes.
func (e *Engine) TotalCollateral() float64 {
	return e.totalCollateral
}

// TotalDebt returns the stablecoin debt issued across all safes.
func (e *Engine) TotalDebt() float64 {
	return e.totalDebt
}

// Count returns the number of open safes.
func (e *Engine) Count() int {
	return len(e.safes)
}
