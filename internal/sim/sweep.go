package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/pegdyn/pegsim/internal/logger"
	"github.com/pegdyn/pegsim/internal/types"
)

var sweepLogger = logger.GetForComponent("sweep")

// SweepOutcome summarizes one run of a seed sweep.
type SweepOutcome struct {
	Seed     int64            `json:"seed"`
	Status   types.RunStatus  `json:"status"`
	HaltStep int              `json:"halt_step"`
	Result   *types.RunResult `json:"-"`
	Err      error            `json:"-"`
}

// Sweep executes the same configuration across seeds, each run with its own
// engine, RNG, and state, fanned out over at most workers goroutines.
// Outcomes are returned in seed order.
func Sweep(ctx context.Context, params types.SimulationParameters, seeds []int64, workers int) ([]SweepOutcome, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("%w: sweep requires at least one seed", types.ErrInvalidConfiguration)
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(seeds) {
		workers = len(seeds)
	}

	// Validate once up front so a bad configuration fails before any worker
	// starts.
	check := params
	check.Seed = seeds[0]
	if err := check.Validate(); err != nil {
		return nil, err
	}

	jobs := make(chan int)
	outcomes := make([]SweepOutcome, len(seeds))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = runOne(ctx, params, seeds[i])
			}
		}()
	}

	for i := range seeds {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, o := range outcomes {
		if o.Err != nil && ctx.Err() != nil {
			return outcomes, ctx.Err()
		}
	}
	return outcomes, nil
}

func runOne(ctx context.Context, params types.SimulationParameters, seed int64) SweepOutcome {
	p := params
	p.Seed = seed

	engine, err := New(p)
	if err != nil {
		return SweepOutcome{Seed: seed, Err: err}
	}
	result, err := engine.Run(ctx)
	if err != nil {
		sweepLogger.Error().Int64("seed", seed).Err(err).Msg("Sweep run failed")
		return SweepOutcome{Seed: seed, Err: err}
	}
	return SweepOutcome{
		Seed:     seed,
		Status:   result.Status,
		HaltStep: result.HaltStep,
		Result:   result,
	}
}
