/*

Time-weighted average of the pool's spot price over a rolling horizon.

*/

package twap

import (
	"fmt"

	"github.com/pegdyn/pegsim/internal/types"
)

type sample struct {
	step  int
	price float64
}

// Tracker keeps the per-step spot prices recorded over the last horizon steps
// and computes their time-weighted average. Before the window fills it
// averages whatever it holds; before the first sample it reports the price it
// was seeded with, so the controller always has a value.
type Tracker struct {
	horizon int
	seed    float64
	samples []sample
}

// New creates a tracker. horizon is the averaging window in steps; seedPrice
// is reported until the first sample arrives (typically the pool's initial
// spot price).
func New(horizon int, seedPrice float64) (*Tracker, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: twap horizon %d", types.ErrInvalidConfiguration, horizon)
	}
	return &Tracker{
		horizon: horizon,
		seed:    seedPrice,
		samples: make([]sample, 0, horizon),
	}, nil
}

// Update appends the end-of-step price and evicts samples older than the
// horizon.
func (t *Tracker) Update(step int, price float64) {
	t.samples = append(t.samples, sample{step: step, price: price})
	cutoff := step - t.horizon
	i := 0
	for i < len(t.samples) && t.samples[i].step <= cutoff {
		i++
	}
	if i > 0 {
		t.samples = t.samples[i:]
	}
}

// Average returns the time-weighted average over the retained window. Each
// sample is weighted by the time until the next sample; the newest sample
// carries one step of weight.
func (t *Tracker) Average() float64 {
	n := len(t.samples)
	if n == 0 {
		return t.seed
	}
	var weighted, total float64
	for i, s := range t.samples {
		duration := 1.0
		if i < n-1 {
			duration = float64(t.samples[i+1].step - s.step)
		}
		weighted += s.price * duration
		total += duration
	}
	return weighted / total
}

// Len returns the number of retained samples.
func (t *Tracker) Len() int {
	return len(t.samples)
}
