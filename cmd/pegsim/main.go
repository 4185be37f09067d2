package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pegdyn/pegsim/internal/config"
	"github.com/pegdyn/pegsim/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "pegsim",
	Short: "Market-dynamics simulator for an algorithmic stablecoin",
	Long: `pegsim simulates the hourly market dynamics of a reflex-index
stablecoin: a constant-product pool, a proportional redemption-rate
controller, and a population of heterogeneous trading agents.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Debug().Msg(".env file not found, relying on OS environment variables")
		}
		logger.Initialize(os.Getenv("LOG_LEVEL"))
		return config.LoadConfig()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
