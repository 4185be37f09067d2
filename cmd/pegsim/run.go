package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pegdyn/pegsim/internal/config"
	"github.com/pegdyn/pegsim/internal/reporting"
	"github.com/pegdyn/pegsim/internal/sim"
	"github.com/pegdyn/pegsim/internal/state"
)

var (
	runConfigPath  string
	runSeed        int64
	runDays        int
	runAgents      int
	runDiagnostics bool
	runOutputDir   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a single simulation run and write its series to CSV",
	RunE:  executeRun,
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "path to a JSON parameters file (defaults applied underneath)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "override the random seed")
	runCmd.Flags().IntVar(&runDays, "days", 0, "override the simulated horizon in days")
	runCmd.Flags().IntVar(&runAgents, "agents", 0, "override the number of agents")
	runCmd.Flags().BoolVar(&runDiagnostics, "diagnostics", false, "record per-agent diagnostics each step")
	runCmd.Flags().StringVar(&runOutputDir, "out", "", "output directory for CSV files (default RESULTS_DIR)")
	rootCmd.AddCommand(runCmd)
}

func executeRun(cmd *cobra.Command, args []string) error {
	params, err := config.LoadParametersFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load parameters: %w", err)
	}
	if cmd.Flags().Changed("seed") {
		params.Seed = runSeed
	}
	if cmd.Flags().Changed("days") {
		params.Days = runDays
	}
	if cmd.Flags().Changed("agents") {
		params.NumAgents = runAgents
	}

	var opts []sim.Option
	if runDiagnostics {
		opts = append(opts, sim.WithDiagnostics())
	}

	engine, err := sim.New(params, opts...)
	if err != nil {
		return fmt.Errorf("engine setup failed: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	log.Info().
		Str("runId", result.RunID.String()).
		Int64("seed", result.Seed).
		Str("status", string(result.Status)).
		Int("steps", len(result.Points)).
		Msg("Simulation finished")

	if summary, err := reporting.Summarize(result.Points); err == nil {
		log.Info().
			Float64("meanPegDeviationPct", summary.MeanPegDeviationPct).
			Float64("maxPegDeviationPct", summary.MaxPegDeviationPct).
			Float64("stepsWithinBandPct", summary.StepsWithinBandPct).
			Float64("annualizedVolatility", summary.AnnualizedVolatility).
			Float64("finalMarketPriceUSD", summary.FinalMarketPriceUSD).
			Float64("finalRedemptionPrice", summary.FinalRedemptionPrice).
			Msg("Run summary")
	}

	outDir := runOutputDir
	if outDir == "" {
		outDir = config.ResultsDir
	}
	files, err := reporting.WriteRunFiles(outDir, result)
	if err != nil {
		return fmt.Errorf("failed to write run files: %w", err)
	}
	for _, f := range files {
		fmt.Fprintln(os.Stdout, f)
	}

	if config.DBEnabled {
		if err := initRunDatabase(); err != nil {
			return err
		}
		defer state.CloseDB()
		if err := state.SaveRun(result, params); err != nil {
			return fmt.Errorf("failed to persist run: %w", err)
		}
		log.Info().Str("runId", result.RunID.String()).Msg("Run persisted to database")
	}

	return nil
}

// initRunDatabase connects to Postgres using the loaded config and ensures
// the schema exists.
func initRunDatabase() error {
	dbCfg := state.DBConfig{
		Host: config.DBHost, Port: config.DBPort,
		User: config.DBUser, Password: config.DBPassword,
		DBName: config.DBName, SSLMode: config.DBSSLMode,
	}
	if err := state.InitDB(dbCfg); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := state.EnsureSchema(); err != nil {
		state.CloseDB()
		return fmt.Errorf("failed to ensure database schema: %w", err)
	}
	return nil
}
