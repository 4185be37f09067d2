/*

This file contains the record types for a simulation run's output series,
consumed by the reporting, persistence, and web layers.

*/

package types

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the terminal condition of a simulation run.
type RunStatus string

const (
	RunCompleted         RunStatus = "completed"
	RunPoolDepleted      RunStatus = "pool_depleted"
	RunNumericDivergence RunStatus = "numeric_divergence"
)

// SeriesPoint is one step of the run's primary time series.
type SeriesPoint struct {
	Step            int     `json:"step"`
	RefPriceUSD     float64 `json:"ref_price_usd"`
	SpotPrice       float64 `json:"spot_price"`        // reference-asset units per stablecoin
	MarketPriceUSD  float64 `json:"market_price_usd"`  // SpotPrice * RefPriceUSD
	TwapUSD         float64 `json:"twap_usd"`
	RedemptionPrice float64 `json:"redemption_price"` // USD
	RedemptionRate  float64 `json:"redemption_rate"`  // per-step fraction
}

// AgentDiagnostic is one step of an agent's optional diagnostic series.
type AgentDiagnostic struct {
	Step           int       `json:"step"`
	AgentID        string    `json:"agent_id"`
	Kind           AgentKind `json:"kind"`
	ExpectedReturn float64   `json:"expected_return"`
	PoolShare      float64   `json:"pool_share"`
}

// RunResult bundles everything a single run produced.
type RunResult struct {
	RunID       uuid.UUID         `json:"run_id"`
	Seed        int64             `json:"seed"`
	Status      RunStatus         `json:"status"`
	HaltStep    int               `json:"halt_step"` // -1 when the run completed its horizon
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
	Points      []SeriesPoint     `json:"points"`
	Diagnostics []AgentDiagnostic `json:"diagnostics,omitempty"`
}
