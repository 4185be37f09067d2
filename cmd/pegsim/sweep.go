package main

import (
	"context"
	"fmt"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pegdyn/pegsim/internal/config"
	"github.com/pegdyn/pegsim/internal/reporting"
	"github.com/pegdyn/pegsim/internal/sim"
	"github.com/pegdyn/pegsim/internal/state"
)

var (
	sweepConfigPath string
	sweepSeedStart  int64
	sweepSeedCount  int
	sweepWorkers    int
	sweepOutputDir  string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the same scenario across a range of seeds in parallel",
	RunE:  executeSweep,
}

func init() {
	sweepCmd.Flags().StringVar(&sweepConfigPath, "config", "", "path to a JSON parameters file (defaults applied underneath)")
	sweepCmd.Flags().Int64Var(&sweepSeedStart, "seed-start", 1, "first seed of the range")
	sweepCmd.Flags().IntVar(&sweepSeedCount, "seeds", 10, "number of consecutive seeds to run")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", runtime.NumCPU(), "number of concurrent runs")
	sweepCmd.Flags().StringVar(&sweepOutputDir, "out", "", "output directory for CSV files (default RESULTS_DIR)")
	rootCmd.AddCommand(sweepCmd)
}

func executeSweep(cmd *cobra.Command, args []string) error {
	if sweepSeedCount <= 0 {
		return fmt.Errorf("--seeds must be positive, got %d", sweepSeedCount)
	}

	params, err := config.LoadParametersFile(sweepConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load parameters: %w", err)
	}

	seeds := make([]int64, sweepSeedCount)
	for i := range seeds {
		seeds[i] = sweepSeedStart + int64(i)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	outcomes, err := sim.Sweep(ctx, params, seeds, sweepWorkers)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	outDir := sweepOutputDir
	if outDir == "" {
		outDir = config.ResultsDir
	}

	dbReady := false
	if config.DBEnabled {
		if err := initRunDatabase(); err != nil {
			return err
		}
		defer state.CloseDB()
		dbReady = true
	}

	completed, halted, failed := 0, 0, 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
			log.Error().Err(outcome.Err).Int64("seed", outcome.Seed).Msg("Run failed")
			continue
		}
		if outcome.HaltStep >= 0 {
			halted++
		} else {
			completed++
		}
		if _, err := reporting.WriteRunFiles(outDir, outcome.Result); err != nil {
			return fmt.Errorf("failed to write run files for seed %d: %w", outcome.Seed, err)
		}
		if dbReady {
			runParams := params
			runParams.Seed = outcome.Seed
			if err := state.SaveRun(outcome.Result, runParams); err != nil {
				return fmt.Errorf("failed to persist run for seed %d: %w", outcome.Seed, err)
			}
		}
	}

	log.Info().
		Int("completed", completed).
		Int("halted", halted).
		Int("failed", failed).
		Msg("Sweep finished")

	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(outcomes))
	}
	return nil
}
