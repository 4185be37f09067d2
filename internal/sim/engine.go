/*

Discrete-event scheduler: one simulated hour per tick. Each step the agent
order is reshuffled from the run's own RNG and agents act sequentially, each
seeing the mutations of those before it. Identical seed and configuration
reproduce an identical run.

*/

package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pegdyn/pegsim/internal/agent"
	"github.com/pegdyn/pegsim/internal/cdp"
	"github.com/pegdyn/pegsim/internal/controller"
	"github.com/pegdyn/pegsim/internal/logger"
	"github.com/pegdyn/pegsim/internal/oracle"
	"github.com/pegdyn/pegsim/internal/pool"
	"github.com/pegdyn/pegsim/internal/twap"
	"github.com/pegdyn/pegsim/internal/types"
)

// Engine owns all state of a single run. Runs are fully independent: each
// engine has its own RNG and its own copies of pool, controller, and agents,
// so batch sweeps may execute engines on separate goroutines.
type Engine struct {
	params types.SimulationParameters
	rng    *rand.Rand

	pool    *pool.Pool
	tracker *twap.Tracker
	ctrl    *controller.Controller
	safes   *cdp.Engine
	oracle  *oracle.PriceOracle
	agents  []agent.Agent

	rateHistory []float64
	log         zerolog.Logger

	collectDiagnostics bool
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithDiagnostics enables the per-agent diagnostic series.
func WithDiagnostics() Option {
	return func(e *Engine) { e.collectDiagnostics = true }
}

// New validates the configuration and assembles a run: oracle path, seeded
// pool, controller, safe ledger, and the agent population drawn from the
// configured distributions. All randomness flows from the single seeded RNG.
func New(params types.SimulationParameters, opts ...Option) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		params: params,
		rng:    rand.New(rand.NewSource(params.Seed)),
		log:    logger.GetForComponent("scheduler"),
	}
	for _, opt := range opts {
		opt(e)
	}

	var err error
	e.oracle, err = oracle.GeneratePath(params, params.Steps(), e.rng)
	if err != nil {
		return nil, fmt.Errorf("building price path: %w", err)
	}

	e.pool, err = pool.New(params.InitialPoolStable, params.InitialPoolRef)
	if err != nil {
		return nil, fmt.Errorf("seeding pool: %w", err)
	}

	ctrlParams := params.Controller
	if ctrlParams.InitialRedemptionPrice == 0 {
		// Peg starts at the pool's own market price.
		ctrlParams.InitialRedemptionPrice = e.pool.InitialSpotPrice() * params.InitialRefPriceUSD
	}
	e.ctrl, err = controller.New(ctrlParams)
	if err != nil {
		return nil, fmt.Errorf("building controller: %w", err)
	}

	e.tracker, err = twap.New(params.TwapHorizonSteps, e.pool.InitialSpotPrice())
	if err != nil {
		return nil, fmt.Errorf("building twap tracker: %w", err)
	}

	e.safes = cdp.NewEngine()
	e.agents = drawAgents(params, e.rng)
	return e, nil
}

// drawAgents assigns each agent a kind from the configured proportions and
// draws its strategy parameters, all from the run's RNG.
func drawAgents(params types.SimulationParameters, rng *rand.Rand) []agent.Agent {
	apeCut := params.Proportions.LiquidityApePercent / 100
	shortCut := apeCut + params.Proportions.ShorterPercent/100

	agents := make([]agent.Agent, 0, params.NumAgents)
	for i := 0; i < params.NumAgents; i++ {
		roll := rng.Float64()
		switch {
		case roll < apeCut:
			id := fmt.Sprintf("ape-%03d", i)
			agents = append(agents, agent.NewLiquidityApe(id, params.LiquidityApe, rng))
		case roll < shortCut:
			id := fmt.Sprintf("short-%03d", i)
			agents = append(agents, agent.NewShorter(id, params.Shorter, rng))
		default:
			id := fmt.Sprintf("long-%03d", i)
			agents = append(agents, agent.NewTrendLong(id, params.TrendLong, rng))
		}
	}
	return agents
}

// Agents exposes the population for inspection in tests and diagnostics.
func (e *Engine) Agents() []agent.Agent {
	return e.agents
}

// Pool exposes the run's liquidity pool.
func (e *Engine) Pool() *pool.Pool {
	return e.pool
}

// Run executes the configured horizon and returns the collected series.
// Pool depletion and numeric divergence are legitimate terminal conditions:
// the run halts with the history collected so far and the halting step in the
// result. Invalid-amount or insufficient-share errors are programming errors
// in agent logic and abort the run as a hard error.
func (e *Engine) Run(ctx context.Context) (*types.RunResult, error) {
	steps := e.params.Steps()
	result := &types.RunResult{
		RunID:     uuid.New(),
		Seed:      e.params.Seed,
		Status:    types.RunCompleted,
		HaltStep:  -1,
		StartedAt: time.Now(),
		Points:    make([]types.SeriesPoint, 0, steps),
	}

	e.log.Info().
		Str("runID", result.RunID.String()).
		Int64("seed", e.params.Seed).
		Int("steps", steps).
		Int("agents", len(e.agents)).
		Msg("Run starting")

	for step := 0; step < steps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		refUSD := e.oracle.Price(step)
		world := &agent.World{
			Step:               step,
			RefPriceUSD:        refUSD,
			Pool:               e.pool,
			Controller:         e.ctrl,
			Safes:              e.safes,
			PriceHistory:       e.oracle.Path()[:step+1],
			RateHistory:        e.rateHistory,
			RewardTokensPerDay: e.params.RewardTokensPerDay,
			RewardTokenSupply:  e.params.RewardTokenSupply,
		}

		// Sequential, randomized activation. Each agent sees the pool and
		// controller as left by the agents before it this step.
		for _, idx := range e.rng.Perm(len(e.agents)) {
			a := e.agents[idx]
			if err := a.DecideAndAct(world); err != nil {
				if terminal := e.finishTerminal(result, step, err); terminal {
					return result, nil
				}
				return nil, fmt.Errorf("agent %s at step %d: %w", a.ID(), step, err)
			}
		}

		spot := e.pool.SpotPrice()
		e.tracker.Update(step, spot)
		twapUSD := e.tracker.Average() * refUSD

		if err := e.ctrl.Advance(step, twapUSD); err != nil {
			if terminal := e.finishTerminal(result, step, err); terminal {
				return result, nil
			}
			return nil, err
		}

		e.rateHistory = append(e.rateHistory, e.ctrl.Rate())
		result.Points = append(result.Points, types.SeriesPoint{
			Step:            step,
			RefPriceUSD:     refUSD,
			SpotPrice:       spot,
			MarketPriceUSD:  spot * refUSD,
			TwapUSD:         twapUSD,
			RedemptionPrice: e.ctrl.RedemptionPrice(),
			RedemptionRate:  e.ctrl.Rate(),
		})

		if e.collectDiagnostics {
			for _, a := range e.agents {
				if d, ok := a.(agent.DiagnosticReporter); ok {
					ret, share := d.Diagnostic()
					result.Diagnostics = append(result.Diagnostics, types.AgentDiagnostic{
						Step:           step,
						AgentID:        a.ID(),
						Kind:           a.Kind(),
						ExpectedReturn: ret,
						PoolShare:      share,
					})
				}
			}
		}
	}

	result.FinishedAt = time.Now()
	e.log.Info().
		Str("runID", result.RunID.String()).
		Str("status", string(result.Status)).
		Msg("Run finished")
	return result, nil
}

// finishTerminal marks the result when err is a legitimate emergent end state
// (pool depletion or numeric divergence) and reports whether it was one.
func (e *Engine) finishTerminal(result *types.RunResult, step int, err error) bool {
	switch {
	case errors.Is(err, types.ErrPoolDepleted):
		result.Status = types.RunPoolDepleted
	case errors.Is(err, types.ErrNumericDivergence):
		result.Status = types.RunNumericDivergence
	default:
		return false
	}
	result.HaltStep = step
	result.FinishedAt = time.Now()
	e.log.Warn().
		Str("runID", result.RunID.String()).
		Int("step", step).
		Err(err).
		Str("status", string(result.Status)).
		Msg("Run halted on terminal condition")
	return true
}
