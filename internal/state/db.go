// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS simulation_runs (
			run_id UUID PRIMARY KEY,
			seed BIGINT NOT NULL,
			status VARCHAR(32) NOT NULL,
			halt_step INTEGER NOT NULL DEFAULT -1,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			parameters JSONB,
			steps INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_simulation_runs_started ON simulation_runs(started_at DESC);
		CREATE INDEX IF NOT EXISTS idx_simulation_runs_seed ON simulation_runs(seed);

		CREATE TABLE IF NOT EXISTS run_series (
			run_id UUID NOT NULL REFERENCES simulation_runs(run_id) ON DELETE CASCADE,
			step INTEGER NOT NULL,
			ref_price_usd DOUBLE PRECISION NOT NULL,
			spot_price DOUBLE PRECISION NOT NULL,
			market_price_usd DOUBLE PRECISION NOT NULL,
			twap_usd DOUBLE PRECISION NOT NULL,
			redemption_price DOUBLE PRECISION NOT NULL,
			redemption_rate DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, step)
		);

		CREATE TABLE IF NOT EXISTS agent_series (
			run_id UUID NOT NULL REFERENCES simulation_runs(run_id) ON DELETE CASCADE,
			step INTEGER NOT NULL,
			agent_id VARCHAR(64) NOT NULL,
			kind VARCHAR(32) NOT NULL,
			expected_return DOUBLE PRECISION NOT NULL,
			pool_share DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, step, agent_id)
		);
	`
	_, err := DB.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}

	// Use a short timeout context for health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := DB.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
