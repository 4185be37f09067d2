package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all infrastructure configuration loaded from environment
// variables. Simulation parameters live in Parameters.go; these only cover
// the surrounding I/O.
var (
	// ResultsDir is where run CSV files are written.
	ResultsDir string

	// WebPort is the port for the results dashboard.
	WebPort string

	// DBEnabled toggles Postgres persistence of run results.
	DBEnabled bool
	// DBHost, DBPort, DBUser, DBPassword, DBName, DBSSLMode configure the
	// Postgres connection when DBEnabled is set.
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
)

// LoadConfig loads infrastructure configuration from environment variables.
// Everything has a sensible default; only the database settings are required,
// and only when PEGSIM_DB_ENABLED is truthy.
func LoadConfig() error {
	log.Debug().Msg("Loading infrastructure configuration from environment variables...")

	ResultsDir = getEnvOr("RESULTS_DIR", "results")
	WebPort = getEnvOr("WEB_PORT", "8080")

	DBEnabled = getEnvOr("PEGSIM_DB_ENABLED", "false") == "true"
	if DBEnabled {
		var err error
		DBHost, err = getEnv("DB_HOST")
		if err != nil {
			return err
		}
		DBPort, err = getEnvAsInt("DB_PORT")
		if err != nil {
			return err
		}
		DBUser, err = getEnv("DB_USER")
		if err != nil {
			return err
		}
		DBPassword, err = getEnv("DB_PASSWORD")
		if err != nil {
			return err
		}
		DBName, err = getEnv("DB_NAME")
		if err != nil {
			return err
		}
		DBSSLMode = getEnvOr("DB_SSLMODE", "disable")
	}

	log.Debug().
		Str("ResultsDir", ResultsDir).
		Bool("DBEnabled", DBEnabled).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvOr retrieves a string environment variable with a default.
func getEnvOr(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an int. Returns error if not set or invalid.
func getEnvAsInt(key string) (int, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid integer, got: " + valueStr)
	}
	return value, nil
}
