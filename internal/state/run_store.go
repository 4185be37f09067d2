// ./internal/state/run_store.go
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/pegdyn/pegsim/internal/types"
)

// RunSummary is a lightweight view of a persisted run, without series data.
type RunSummary struct {
	RunID      uuid.UUID       `json:"run_id"`
	Seed       int64           `json:"seed"`
	Status     types.RunStatus `json:"status"`
	HaltStep   int             `json:"halt_step"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Steps      int             `json:"steps"`
}

// SaveRun persists a completed run: its summary row, the full per-step
// series, and any agent diagnostics, in a single transaction.
func SaveRun(result *types.RunResult, params types.SimulationParameters) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal run parameters: %w", err)
	}

	tx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO simulation_runs (run_id, seed, status, halt_step, started_at, finished_at, parameters, steps)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		result.RunID, result.Seed, string(result.Status), result.HaltStep,
		result.StartedAt, result.FinishedAt, paramsJSON, len(result.Points))
	if err != nil {
		return fmt.Errorf("failed to insert run summary: %w", err)
	}

	seriesStmt, err := tx.Prepare(pq.CopyIn("run_series",
		"run_id", "step", "ref_price_usd", "spot_price", "market_price_usd",
		"twap_usd", "redemption_price", "redemption_rate"))
	if err != nil {
		return fmt.Errorf("failed to prepare series copy: %w", err)
	}
	for _, p := range result.Points {
		_, err = seriesStmt.Exec(result.RunID, p.Step, p.RefPriceUSD, p.SpotPrice,
			p.MarketPriceUSD, p.TwapUSD, p.RedemptionPrice, p.RedemptionRate)
		if err != nil {
			seriesStmt.Close()
			return fmt.Errorf("failed to buffer series row (step %d): %w", p.Step, err)
		}
	}
	if _, err = seriesStmt.Exec(); err != nil {
		seriesStmt.Close()
		return fmt.Errorf("failed to flush series copy: %w", err)
	}
	if err = seriesStmt.Close(); err != nil {
		return fmt.Errorf("failed to close series copy: %w", err)
	}

	if len(result.Diagnostics) > 0 {
		diagStmt, err := tx.Prepare(pq.CopyIn("agent_series",
			"run_id", "step", "agent_id", "kind", "expected_return", "pool_share"))
		if err != nil {
			return fmt.Errorf("failed to prepare diagnostics copy: %w", err)
		}
		for _, d := range result.Diagnostics {
			_, err = diagStmt.Exec(result.RunID, d.Step, d.AgentID, string(d.Kind),
				d.ExpectedReturn, d.PoolShare)
			if err != nil {
				diagStmt.Close()
				return fmt.Errorf("failed to buffer diagnostics row (step %d, %s): %w", d.Step, d.AgentID, err)
			}
		}
		if _, err = diagStmt.Exec(); err != nil {
			diagStmt.Close()
			return fmt.Errorf("failed to flush diagnostics copy: %w", err)
		}
		if err = diagStmt.Close(); err != nil {
			return fmt.Errorf("failed to close diagnostics copy: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run transaction: %w", err)
	}
	return nil
}

// ListRuns returns run summaries ordered by start time, newest first.
func ListRuns(limit int) ([]RunSummary, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := DB.Query(`
		SELECT run_id, seed, status, halt_step, started_at, finished_at, steps
		FROM simulation_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var status string
		if err := rows.Scan(&r.RunID, &r.Seed, &status, &r.HaltStep, &r.StartedAt, &r.FinishedAt, &r.Steps); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		r.Status = types.RunStatus(status)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRunSeries loads the full per-step series for a run.
func GetRunSeries(runID uuid.UUID) ([]types.SeriesPoint, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := DB.Query(`
		SELECT step, ref_price_usd, spot_price, market_price_usd, twap_usd, redemption_price, redemption_rate
		FROM run_series
		WHERE run_id = $1
		ORDER BY step ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run series: %w", err)
	}
	defer rows.Close()

	var points []types.SeriesPoint
	for rows.Next() {
		var p types.SeriesPoint
		if err := rows.Scan(&p.Step, &p.RefPriceUSD, &p.SpotPrice, &p.MarketPriceUSD,
			&p.TwapUSD, &p.RedemptionPrice, &p.RedemptionRate); err != nil {
			return nil, fmt.Errorf("failed to scan series row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		// Distinguish "unknown run" from "run with no rows".
		var exists bool
		if err := DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM simulation_runs WHERE run_id = $1)`, runID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check run existence: %w", err)
		}
		if !exists {
			return nil, sql.ErrNoRows
		}
	}
	return points, nil
}
