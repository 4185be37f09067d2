package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pegdyn/pegsim/internal/config"
	"github.com/pegdyn/pegsim/internal/state"
	"github.com/pegdyn/pegsim/internal/web"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve archived runs over HTTP",
	RunE:  executeServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "listen port (default WEB_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func executeServe(cmd *cobra.Command, args []string) error {
	if !config.DBEnabled {
		return fmt.Errorf("the run archive requires PEGSIM_DB_ENABLED=true")
	}
	if err := initRunDatabase(); err != nil {
		return err
	}
	defer state.CloseDB()

	port := servePort
	if port == "" {
		port = config.WebPort
	}

	server := web.NewWebServer(port)
	log.Info().Str("url", "http://localhost:"+port).Msg("Serving run archive")
	return server.Start()
}
