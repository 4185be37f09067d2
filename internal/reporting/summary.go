/*

Post-run summary statistics over the recorded series: peg tracking quality and
market-price volatility. Computed after a run completes and attached to its
report.

*/

package reporting

import (
	"errors"
	"math"

	"github.com/pegdyn/pegsim/internal/types"
)

// ErrInsufficientData indicates that the series is too short to summarize.
var ErrInsufficientData = errors.New("insufficient data points to summarize run")

// RunSummary aggregates a run's series into headline numbers.
type RunSummary struct {
	Steps int `json:"steps"`

	// Peg deviation: |market - redemption| / redemption, in percent.
	MeanPegDeviationPct float64 `json:"mean_peg_deviation_pct"`
	MaxPegDeviationPct  float64 `json:"max_peg_deviation_pct"`

	// Fraction of steps with peg deviation under one percent.
	StepsWithinBandPct float64 `json:"steps_within_band_pct"`

	// Annualized volatility of the market price, from hourly log returns.
	AnnualizedVolatility float64 `json:"annualized_volatility"`

	FinalMarketPriceUSD  float64 `json:"final_market_price_usd"`
	FinalRedemptionPrice float64 `json:"final_redemption_price"`
}

// hoursPerYear annualizes hourly log-return volatility.
const hoursPerYear = 8760

// Summarize computes the run summary from a recorded series.
func Summarize(points []types.SeriesPoint) (RunSummary, error) {
	n := len(points)
	if n < 2 {
		return RunSummary{}, ErrInsufficientData
	}

	s := RunSummary{
		Steps:                n,
		FinalMarketPriceUSD:  points[n-1].MarketPriceUSD,
		FinalRedemptionPrice: points[n-1].RedemptionPrice,
	}

	var devSum float64
	withinBand := 0
	for _, p := range points {
		dev := 100 * math.Abs(p.MarketPriceUSD-p.RedemptionPrice) / p.RedemptionPrice
		devSum += dev
		if dev > s.MaxPegDeviationPct {
			s.MaxPegDeviationPct = dev
		}
		if dev < 1 {
			withinBand++
		}
	}
	s.MeanPegDeviationPct = devSum / float64(n)
	s.StepsWithinBandPct = 100 * float64(withinBand) / float64(n)

	vol, err := annualizedVolatility(points)
	if err != nil {
		return RunSummary{}, err
	}
	s.AnnualizedVolatility = vol
	return s, nil
}

// annualizedVolatility computes the standard deviation of hourly log returns
// of the market price, annualized by sqrt of the hourly periods per year.
// Uses population standard deviation.
func annualizedVolatility(points []types.SeriesPoint) (float64, error) {
	logReturns := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		current := points[i].MarketPriceUSD
		previous := points[i-1].MarketPriceUSD
		if previous <= 0 || current <= 0 {
			continue
		}
		logReturns = append(logReturns, math.Log(current/previous))
	}

	numReturns := len(logReturns)
	if numReturns == 0 {
		return 0, ErrInsufficientData
	}

	var sum float64
	for _, r := range logReturns {
		sum += r
	}
	mean := sum / float64(numReturns)

	var sumSqDiff float64
	for _, r := range logReturns {
		sumSqDiff += math.Pow(r-mean, 2)
	}
	variance := sumSqDiff / float64(numReturns)

	return math.Sqrt(variance) * math.Sqrt(hoursPerYear), nil
}
