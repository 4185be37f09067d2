package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegdyn/pegsim/internal/agent"
	"github.com/pegdyn/pegsim/internal/types"
)

// baseParams is a small but fully populated configuration: the reference
// pool seed, a pure proportional controller, and a mixed population.
func baseParams() types.SimulationParameters {
	return types.SimulationParameters{
		Seed:      1,
		NumAgents: 10,
		Days:      30,

		PricePath:          types.PricePathRandomWalk,
		InitialRefPriceUSD: 1500,
		FinalRefPriceUSD:   2500,
		LowerRefPriceUSD:   800,
		UpperRefPriceUSD:   5000,
		RandomWalkStd:      10,

		RewardTokensPerDay: 334,
		RewardTokenSupply:  1_000_000,

		InitialPoolStable: 10_000_000,
		InitialPoolRef:    20_940,

		TwapHorizonSteps: 16,

		Proportions: types.AgentProportions{
			LiquidityApePercent: 60,
			ShorterPercent:      20,
			TrendLongPercent:    20,
		},
		LiquidityApe: types.LiquidityApeParameters{
			RefHoldings:     types.UniformRange{Lower: 1, Upper: 50},
			ReturnThreshold: types.UniformRange{Lower: 10, Upper: 400},
			TokenValuation:  types.UniformRange{Lower: 1e7, Upper: 1e9},
		},
		Shorter: types.ShorterParameters{
			RefHoldings:         types.UniformRange{Lower: 1, Upper: 50},
			DifferenceThreshold: types.UniformRange{Lower: 2, Upper: 10},
			StopLoss:            types.UniformRange{Lower: 5, Upper: 20},
			Collateralization:   types.UniformRange{Lower: 150, Upper: 250},
		},
		TrendLong: types.TrendLongParameters{
			RefHoldings:    types.UniformRange{Lower: 1, Upper: 50},
			UptrendWeeks:   types.UniformRange{Lower: 1, Upper: 4},
			DowntrendWeeks: types.UniformRange{Lower: 1, Upper: 4},
			StopLoss:       types.UniformRange{Lower: 5, Upper: 20},
		},
		Controller: types.ControllerParameters{
			Kp:                0.00023,
			UpdatePeriodSteps: 4,
		},
	}
}

func TestNew_RejectsInvalidConfiguration(t *testing.T) {
	p := baseParams()
	p.NumAgents = 0
	_, err := New(p)
	require.ErrorIs(t, err, types.ErrInvalidConfiguration)

	p = baseParams()
	p.Proportions.ShorterPercent = 50
	_, err = New(p)
	require.ErrorIs(t, err, types.ErrInvalidConfiguration)

	p = baseParams()
	p.PricePath = "sinusoid"
	_, err = New(p)
	require.ErrorIs(t, err, types.ErrInvalidConfiguration)
}

func TestNew_ReferenceScenarioSpot(t *testing.T) {
	e, err := New(baseParams())
	require.NoError(t, err)

	assert.InDelta(t, 20_940.0/10_000_000, e.Pool().SpotPrice(), 1e-15)
	assert.Len(t, e.Agents(), 10)
}

func TestRun_Deterministic(t *testing.T) {
	params := baseParams()

	first, err := New(params)
	require.NoError(t, err)
	second, err := New(params)
	require.NoError(t, err)

	resultA, err := first.Run(context.Background())
	require.NoError(t, err)
	resultB, err := second.Run(context.Background())
	require.NoError(t, err)

	// Identical seed and configuration reproduce the series bit for bit.
	require.Equal(t, resultA.Status, resultB.Status)
	require.Equal(t, resultA.HaltStep, resultB.HaltStep)
	require.Equal(t, resultA.Points, resultB.Points)
}

func TestRun_SeedChangesSeries(t *testing.T) {
	paramsA := baseParams()
	paramsB := baseParams()
	paramsB.Seed = 2

	a, err := New(paramsA)
	require.NoError(t, err)
	b, err := New(paramsB)
	require.NoError(t, err)

	resultA, err := a.Run(context.Background())
	require.NoError(t, err)
	resultB, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, resultA.Points, resultB.Points)
}

func TestRun_SeriesConsistency(t *testing.T) {
	params := baseParams()
	params.Days = 10

	e, err := New(params)
	require.NoError(t, err)
	result, err := e.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, types.RunCompleted, result.Status)
	require.Equal(t, -1, result.HaltStep)
	require.Len(t, result.Points, params.Steps())

	for i, p := range result.Points {
		require.Equal(t, i, p.Step)
		require.InDelta(t, p.SpotPrice*p.RefPriceUSD, p.MarketPriceUSD, 1e-12)
		require.Greater(t, p.RedemptionPrice, 0.0)
		require.Greater(t, p.TwapUSD, 0.0)
	}
}

func TestRun_LiquidityEntryRaisesPrice(t *testing.T) {
	params := baseParams()
	params.Days = 2
	params.PricePath = types.PricePathConstant
	// A population certain to enter at step 0: generous FDV beliefs against
	// a trivial threshold.
	params.Proportions = types.AgentProportions{LiquidityApePercent: 100}
	params.LiquidityApe = types.LiquidityApeParameters{
		RefHoldings:     types.UniformRange{Lower: 20, Upper: 30},
		ReturnThreshold: types.UniformRange{Lower: 1, Upper: 2},
		TokenValuation:  types.UniformRange{Lower: 1e9, Upper: 1e9},
	}

	e, err := New(params)
	require.NoError(t, err)
	initialSpot := e.Pool().SpotPrice()

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, types.RunCompleted, result.Status)

	// Every agent bought in, so the end-of-step spot sits above the seed
	// price from the first step on.
	assert.Greater(t, result.Points[0].SpotPrice, initialSpot)
}

func TestRun_ShareSupplyConserved(t *testing.T) {
	params := baseParams()
	params.Days = 5
	params.Proportions = types.AgentProportions{LiquidityApePercent: 100}

	e, err := New(params)
	require.NoError(t, err)
	result, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, types.RunCompleted, result.Status)

	// Seed shares plus every agent's balance account for the whole supply.
	total := e.Pool().SeedShares()
	for _, a := range e.Agents() {
		ape, ok := a.(*agent.LiquidityApe)
		require.True(t, ok)
		total += ape.Shares()
	}
	assert.InDelta(t, e.Pool().ShareSupply(), total, e.Pool().ShareSupply()*1e-9)
}

func TestRun_HaltsOnNumericDivergence(t *testing.T) {
	params := baseParams()
	params.PricePath = types.PricePathConstant
	// A wildly over-tuned controller blows the redemption price up to
	// infinity; the run must end gracefully with its history intact.
	params.Controller = types.ControllerParameters{
		Kp:                     1e3,
		UpdatePeriodSteps:      1,
		InitialRedemptionPrice: 10,
	}
	// Trend followers that never see enough history stay inactive, keeping
	// the pool out of the blast radius.
	params.Proportions = types.AgentProportions{TrendLongPercent: 100}
	params.TrendLong.UptrendWeeks = types.UniformRange{Lower: 50, Upper: 50}
	params.TrendLong.DowntrendWeeks = types.UniformRange{Lower: 50, Upper: 50}

	e, err := New(params)
	require.NoError(t, err)
	result, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.RunNumericDivergence, result.Status)
	assert.GreaterOrEqual(t, result.HaltStep, 0)
	assert.Less(t, result.HaltStep, params.Steps())
	// Points collected before the halt survive.
	assert.Len(t, result.Points, result.HaltStep)
}

func TestRun_ContextCancellation(t *testing.T) {
	e, err := New(baseParams())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_CollectsDiagnostics(t *testing.T) {
	params := baseParams()
	params.Days = 2
	params.Proportions = types.AgentProportions{LiquidityApePercent: 100}

	e, err := New(params, WithDiagnostics())
	require.NoError(t, err)
	result, err := e.Run(context.Background())
	require.NoError(t, err)

	// One diagnostic per liquidity provider per step.
	assert.Len(t, result.Diagnostics, params.Steps()*params.NumAgents)
	assert.Equal(t, types.AgentLiquidityApe, result.Diagnostics[0].Kind)
}
