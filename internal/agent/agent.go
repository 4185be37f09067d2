/*

Shared decision/action contract for the simulation's economic agents. Each
variant holds private wallet and position state; DecideAndAct is the sole
mutation entry point, invoked once per agent per step by the scheduler.

*/

package agent

import (
	"math/rand"

	"github.com/pegdyn/pegsim/internal/cdp"
	"github.com/pegdyn/pegsim/internal/controller"
	"github.com/pegdyn/pegsim/internal/pool"
	"github.com/pegdyn/pegsim/internal/types"
)

// ProjectionSteps is the horizon used to project the redemption price for
// return estimation: one simulated year of hourly steps.
const ProjectionSteps = 8760

// RateLookbackSteps is how far back the shorter's take-profit guard inspects
// the redemption-rate history.
const RateLookbackSteps = 96

// World is the state an agent may read (and, through pool/safes, mutate)
// during its decision step. Built fresh by the scheduler each invocation;
// mutations from agents earlier in the same step are already visible.
type World struct {
	Step        int
	RefPriceUSD float64

	Pool       *pool.Pool
	Controller *controller.Controller
	Safes      *cdp.Engine

	// PriceHistory is the reference-asset USD path up to and including the
	// current step. Read-only.
	PriceHistory []float64

	// RateHistory is the recorded per-step redemption rate up to the
	// previous step. Read-only.
	RateHistory []float64

	RewardTokensPerDay float64
	RewardTokenSupply  float64
}

// MarketPriceUSD returns the stablecoin's current market price in USD.
func (w *World) MarketPriceUSD() float64 {
	return w.Pool.SpotPrice() * w.RefPriceUSD
}

// Agent is the polymorphic contract shared by all strategy variants.
type Agent interface {
	ID() string
	Kind() types.AgentKind

	// DecideAndAct reads the world and performs this step's actions, if
	// any. An action sequence is atomic: feasibility is checked before the
	// first mutation, and an error from a mutation is a terminal condition
	// of the run.
	DecideAndAct(w *World) error
}

// DiagnosticReporter is implemented by variants that publish per-step
// diagnostics (expected return, pool share).
type DiagnosticReporter interface {
	Diagnostic() (expectedReturn, poolShare float64)
}

func drawUniform(rng *rand.Rand, r types.UniformRange) float64 {
	return r.Lower + rng.Float64()*(r.Upper-r.Lower)
}
