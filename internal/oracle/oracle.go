/*

Exogenous reference-asset USD price paths: constant, linear, or a bounded
random walk. The whole path is generated up front from the run's RNG so that a
seed reproduces it exactly.

*/

package oracle

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pegdyn/pegsim/internal/types"
)

// PriceOracle supplies the reference-asset USD price for each step of a run.
type PriceOracle struct {
	path []float64
}

// GeneratePath builds the oracle for the configured path kind over steps
// hourly ticks, drawing from rng where the path is stochastic.
func GeneratePath(p types.SimulationParameters, steps int, rng *rand.Rand) (*PriceOracle, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("%w: oracle horizon %d", types.ErrInvalidConfiguration, steps)
	}
	var path []float64
	switch p.PricePath {
	case types.PricePathConstant:
		path = make([]float64, steps)
		for i := range path {
			path[i] = p.InitialRefPriceUSD
		}
	case types.PricePathLinear:
		path = linspace(p.InitialRefPriceUSD, p.FinalRefPriceUSD, steps)
	case types.PricePathRandomWalk:
		path = boundedRandomWalk(steps, p.LowerRefPriceUSD, p.UpperRefPriceUSD,
			p.InitialRefPriceUSD, p.FinalRefPriceUSD, p.RandomWalkStd, rng)
	default:
		return nil, fmt.Errorf("%w: unknown price path %q", types.ErrInvalidConfiguration, p.PricePath)
	}
	return &PriceOracle{path: path}, nil
}

// Price returns the reference-asset USD price at a step.
func (o *PriceOracle) Price(step int) float64 {
	return o.path[step]
}

// Path returns the full hourly price path. Trend-following agents read the
// history; the slice must not be mutated.
func (o *PriceOracle) Path() []float64 {
	return o.path
}

// Len returns the number of steps in the path.
func (o *PriceOracle) Len() int {
	return len(o.path)
}

func linspace(start, end float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (end - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// boundedRandomWalk builds a random walk from start to end that stays inside
// [lower, upper]. A cumulative walk is detrended against its own straight
// line, rescaled to fit inside the margins around the start=>end trend line,
// and any residual excursion past a bound is folded back inside it.
func boundedRandomWalk(length int, lower, upper, start, end, std float64, rng *rand.Rand) []float64 {
	walk := make([]float64, length)
	var cum float64
	for i := range walk {
		cum += std * (rng.Float64() - 0.5)
		walk[i] = cum
	}

	trend := linspace(walk[0], walk[length-1], length)
	deltas := make([]float64, length)
	minDelta, maxDelta := math.Inf(1), math.Inf(-1)
	for i := range deltas {
		deltas[i] = walk[i] - trend[i]
		minDelta = math.Min(minDelta, deltas[i])
		maxDelta = math.Max(maxDelta, deltas[i])
	}
	if scale := (maxDelta - minDelta) / (upper - lower); scale > 1 {
		for i := range deltas {
			deltas[i] /= scale
		}
	}

	line := linspace(start, end, length)
	out := make([]float64, length)
	for i := range out {
		upperMargin := upper - line[i]
		lowerMargin := lower - line[i]
		d := deltas[i]
		if d >= upperMargin {
			d = upperMargin - (d - upperMargin)
		}
		if d <= lowerMargin {
			d = lowerMargin + (lowerMargin - d)
		}
		// Folding can overshoot the other bound for extreme std; clamp.
		d = math.Max(lowerMargin, math.Min(upperMargin, d))
		out[i] = line[i] + d
	}
	return out
}
