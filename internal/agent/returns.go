package agent

import "math"

// LPReturnInputs is a snapshot of everything the liquidity-provider return
// estimate reads. Free-function form so variants and tests share the math
// without touching live state.
type LPReturnInputs struct {
	PoolShare         float64 // current or would-be fraction of the pool
	TVLRef            float64 // pool total value locked, reference-asset units
	RefPriceUSD       float64
	SpotPrice         float64 // reference units per stablecoin
	TokenValuationUSD float64 // the agent's believed reward-token FDV
	RewardPerDay      float64 // reward tokens distributed per day to all LPs
	RewardSupply      float64 // reward-token total supply
	RedemptionPrice   float64 // USD
	RedemptionRate    float64 // per-step fraction
}

// ExpectedLPReturn estimates the annualized percentage return of holding a
// pool share: the projected liquidity-mining reward yield plus a
// redemption-convergence term. The convergence term is the gap the agent
// expects market price to close toward the year-ahead redemption price,
// credited when the redemption rate is positive and charged when negative.
func ExpectedLPReturn(in LPReturnInputs) float64 {
	rewardPerYearUSD := in.TokenValuationUSD * (in.RewardPerDay / in.RewardSupply) * in.PoolShare * 365
	shareValueUSD := in.TVLRef * in.RefPriceUSD * in.PoolShare

	marketUSD := in.SpotPrice * in.RefPriceUSD
	forward := in.RedemptionPrice * math.Pow(1+in.RedemptionRate, ProjectionSteps)
	convergence := 100 * math.Abs(1-forward/marketUSD)
	if in.RedemptionRate <= 0 {
		convergence = -convergence
	}

	return (rewardPerYearUSD/shareValueUSD-1)*100 + convergence
}

// PriceGapPercent returns how far the market price sits above the redemption
// price, in percent of market price. Positive when the market trades rich,
// the condition favoring a short.
func PriceGapPercent(marketUSD, redemptionUSD float64) float64 {
	return 100 * (1 - redemptionUSD/marketUSD)
}

// UnrealizedLossPercent returns the loss relative to a starting net worth,
// in percent. Negative values are unrealized gains.
func UnrealizedLossPercent(currentNetWorth, startingNetWorth float64) float64 {
	return 100 * (1 - currentNetWorth/startingNetWorth)
}
