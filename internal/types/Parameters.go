/*

This file contains the types for simulation parameters: the agent population,
the reference-asset price path, the pool seed, and the controller tuning.

*/

package types

import "fmt"

// PricePathKind selects how the exogenous reference-asset USD price evolves.
type PricePathKind string

const (
	PricePathConstant   PricePathKind = "constant"
	PricePathLinear     PricePathKind = "linear"
	PricePathRandomWalk PricePathKind = "random_walk"
)

// AgentKind identifies one of the concrete agent strategies.
type AgentKind string

const (
	AgentLiquidityApe AgentKind = "liquidity_ape"
	AgentShorter      AgentKind = "shorter"
	AgentTrendLong    AgentKind = "trend_long"
)

// UniformRange is a uniform distribution over [Lower, Upper] from which one
// agent parameter is drawn at initialization.
type UniformRange struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Draw is implemented by the engine's RNG owner; the range only validates itself.
func (r UniformRange) Validate(name string) error {
	if r.Lower > r.Upper {
		return fmt.Errorf("%w: %s bounds inverted (%f > %f)", ErrInvalidConfiguration, name, r.Lower, r.Upper)
	}
	return nil
}

// AgentProportions holds the percentage of the population assigned to each
// agent kind. Must sum to 100.
type AgentProportions struct {
	LiquidityApePercent float64 `json:"liquidity_ape_percent"`
	ShorterPercent      float64 `json:"shorter_percent"`
	TrendLongPercent    float64 `json:"trend_long_percent"`
}

// LiquidityApeParameters are the per-agent distributions for the
// buy-and-sell liquidity provider.
type LiquidityApeParameters struct {
	RefHoldings     UniformRange `json:"ref_holdings"`     // reference-asset wallet, in units
	ReturnThreshold UniformRange `json:"return_threshold"` // annualized %, entry/exit threshold
	TokenValuation  UniformRange `json:"token_valuation"`  // believed reward-token FDV, USD
}

// ShorterParameters are the per-agent distributions for the short strategy.
type ShorterParameters struct {
	RefHoldings         UniformRange `json:"ref_holdings"`
	DifferenceThreshold UniformRange `json:"difference_threshold"` // % market above redemption to open
	StopLoss            UniformRange `json:"stop_loss"`            // % unrealized loss to close
	Collateralization   UniformRange `json:"collateralization"`    // desired collateralization, %
}

// TrendLongParameters are the per-agent distributions for the trend follower.
type TrendLongParameters struct {
	RefHoldings    UniformRange `json:"ref_holdings"`
	UptrendWeeks   UniformRange `json:"uptrend_weeks"`   // consecutive up-weeks to open, drawn then truncated to int
	DowntrendWeeks UniformRange `json:"downtrend_weeks"` // consecutive down-weeks to close
	StopLoss       UniformRange `json:"stop_loss"`
}

// ControllerParameters tune the redemption-rate feedback loop.
type ControllerParameters struct {
	Kp                     float64 `json:"kp"`
	Ki                     float64 `json:"ki"`
	Kd                     float64 `json:"kd"`
	UpdatePeriodSteps      int     `json:"update_period_steps"`
	InitialRedemptionPrice float64 `json:"initial_redemption_price"` // USD; 0 means derive from pool seed
}

// SimulationParameters is the full configuration record consumed by the engine.
type SimulationParameters struct {
	Seed      int64 `json:"seed"`
	NumAgents int   `json:"num_agents"`
	Days      int   `json:"days"`

	// Reference-asset USD price path.
	PricePath          PricePathKind `json:"price_path"`
	InitialRefPriceUSD float64       `json:"initial_ref_price_usd"`
	FinalRefPriceUSD   float64       `json:"final_ref_price_usd"`
	LowerRefPriceUSD   float64       `json:"lower_ref_price_usd"`
	UpperRefPriceUSD   float64       `json:"upper_ref_price_usd"`
	RandomWalkStd      float64       `json:"random_walk_std"`

	// Daily reward-token emission to liquidity providers, and the fixed
	// total supply it is valued against.
	RewardTokensPerDay float64 `json:"reward_tokens_per_day"`
	RewardTokenSupply  float64 `json:"reward_token_supply"`

	// Initial pool reserves.
	InitialPoolStable float64 `json:"initial_pool_stable"`
	InitialPoolRef    float64 `json:"initial_pool_ref"`

	TwapHorizonSteps int `json:"twap_horizon_steps"`

	Proportions  AgentProportions       `json:"proportions"`
	LiquidityApe LiquidityApeParameters `json:"liquidity_ape"`
	Shorter      ShorterParameters      `json:"shorter"`
	TrendLong    TrendLongParameters    `json:"trend_long"`
	Controller   ControllerParameters   `json:"controller"`
}

// Steps returns the simulated horizon in hourly steps.
func (p SimulationParameters) Steps() int {
	return p.Days * 24
}

// Validate checks the configuration before any simulation step executes.
// Every violation wraps ErrInvalidConfiguration.
func (p SimulationParameters) Validate() error {
	if p.NumAgents <= 0 {
		return fmt.Errorf("%w: num_agents must be positive, got %d", ErrInvalidConfiguration, p.NumAgents)
	}
	if p.Days <= 0 {
		return fmt.Errorf("%w: days must be positive, got %d", ErrInvalidConfiguration, p.Days)
	}
	if p.InitialPoolStable <= 0 || p.InitialPoolRef <= 0 {
		return fmt.Errorf("%w: initial pool reserves must be positive, got (%f, %f)",
			ErrInvalidConfiguration, p.InitialPoolStable, p.InitialPoolRef)
	}
	if p.TwapHorizonSteps <= 0 {
		return fmt.Errorf("%w: twap_horizon_steps must be positive, got %d", ErrInvalidConfiguration, p.TwapHorizonSteps)
	}
	if p.RewardTokenSupply <= 0 {
		return fmt.Errorf("%w: reward_token_supply must be positive, got %f", ErrInvalidConfiguration, p.RewardTokenSupply)
	}
	if p.RewardTokensPerDay < 0 {
		return fmt.Errorf("%w: reward_tokens_per_day must be non-negative, got %f", ErrInvalidConfiguration, p.RewardTokensPerDay)
	}

	sum := p.Proportions.LiquidityApePercent + p.Proportions.ShorterPercent + p.Proportions.TrendLongPercent
	const tolerance = 1e-9
	if sum < 100-tolerance || sum > 100+tolerance {
		return fmt.Errorf("%w: agent proportions must sum to 100, got %f", ErrInvalidConfiguration, sum)
	}
	if p.Proportions.LiquidityApePercent < 0 || p.Proportions.ShorterPercent < 0 || p.Proportions.TrendLongPercent < 0 {
		return fmt.Errorf("%w: agent proportions must be non-negative", ErrInvalidConfiguration)
	}

	switch p.PricePath {
	case PricePathConstant:
		if p.InitialRefPriceUSD <= 0 {
			return fmt.Errorf("%w: initial_ref_price_usd must be positive", ErrInvalidConfiguration)
		}
	case PricePathLinear:
		if p.InitialRefPriceUSD <= 0 || p.FinalRefPriceUSD <= 0 {
			return fmt.Errorf("%w: linear path requires positive initial and final prices", ErrInvalidConfiguration)
		}
	case PricePathRandomWalk:
		if p.LowerRefPriceUSD > p.InitialRefPriceUSD || p.InitialRefPriceUSD > p.UpperRefPriceUSD {
			return fmt.Errorf("%w: random walk start %f outside bounds [%f, %f]",
				ErrInvalidConfiguration, p.InitialRefPriceUSD, p.LowerRefPriceUSD, p.UpperRefPriceUSD)
		}
		if p.LowerRefPriceUSD > p.FinalRefPriceUSD || p.FinalRefPriceUSD > p.UpperRefPriceUSD {
			return fmt.Errorf("%w: random walk end %f outside bounds [%f, %f]",
				ErrInvalidConfiguration, p.FinalRefPriceUSD, p.LowerRefPriceUSD, p.UpperRefPriceUSD)
		}
		if p.RandomWalkStd <= 0 {
			return fmt.Errorf("%w: random_walk_std must be positive", ErrInvalidConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown price path %q", ErrInvalidConfiguration, p.PricePath)
	}

	if p.Controller.UpdatePeriodSteps <= 0 {
		return fmt.Errorf("%w: controller update period must be positive, got %d",
			ErrInvalidConfiguration, p.Controller.UpdatePeriodSteps)
	}
	if p.Controller.InitialRedemptionPrice < 0 {
		return fmt.Errorf("%w: initial redemption price must be non-negative", ErrInvalidConfiguration)
	}

	ranges := []struct {
		name string
		r    UniformRange
	}{
		{"liquidity_ape.ref_holdings", p.LiquidityApe.RefHoldings},
		{"liquidity_ape.return_threshold", p.LiquidityApe.ReturnThreshold},
		{"liquidity_ape.token_valuation", p.LiquidityApe.TokenValuation},
		{"shorter.ref_holdings", p.Shorter.RefHoldings},
		{"shorter.difference_threshold", p.Shorter.DifferenceThreshold},
		{"shorter.stop_loss", p.Shorter.StopLoss},
		{"shorter.collateralization", p.Shorter.Collateralization},
		{"trend_long.ref_holdings", p.TrendLong.RefHoldings},
		{"trend_long.uptrend_weeks", p.TrendLong.UptrendWeeks},
		{"trend_long.downtrend_weeks", p.TrendLong.DowntrendWeeks},
		{"trend_long.stop_loss", p.TrendLong.StopLoss},
	}
	for _, rr := range ranges {
		if err := rr.r.Validate(rr.name); err != nil {
			return err
		}
	}
	return nil
}
