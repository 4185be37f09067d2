/*

This file contains the default simulation parameters.

The defaults reproduce the reference scenario: a pool seeded deep enough that
single agents move price by fractions of a percent, a pure proportional
controller, and a population dominated by liquidity providers.

*/

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pegdyn/pegsim/internal/types"
)

// DefaultSimulationParameters provides the baseline configuration used when
// no parameters file is supplied.
var DefaultSimulationParameters = types.SimulationParameters{
	Seed:      1,
	NumAgents: 10,
	Days:      365,

	// Reference asset starts at $1,500 and walks inside [$800, $5,000].
	PricePath:          types.PricePathRandomWalk,
	InitialRefPriceUSD: 1500,
	FinalRefPriceUSD:   2500,
	LowerRefPriceUSD:   800,
	UpperRefPriceUSD:   5000,
	RandomWalkStd:      10,

	// Reward-token emission to liquidity providers, valued against a fixed
	// total supply by each agent's private FDV belief.
	RewardTokensPerDay: 334,
	RewardTokenSupply:  1_000_000,

	// Seed reserves put the initial stablecoin market price at $3.14.
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
		Ki:                0,
		Kd:                0,
		UpdatePeriodSteps: 4,
		// Zero: derived from the pool seed and the initial reference price.
		InitialRedemptionPrice: 0,
	},
}

// LoadParametersFile reads a JSON parameters file over the defaults, so a
// file only needs the fields it changes. Validation is left to the caller
// (the engine validates before running).
func LoadParametersFile(path string) (types.SimulationParameters, error) {
	params := DefaultSimulationParameters
	if path == "" {
		return params, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return params, fmt.Errorf("reading parameters file: %w", err)
	}
	if err := json.Unmarshal(data, &params); err != nil {
		return params, fmt.Errorf("%w: parsing %s: %v", types.ErrInvalidConfiguration, path, err)
	}
	return params, nil
}
