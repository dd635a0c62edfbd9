package main

import (
	"fmt"

	"github.com/spf13/cobra"

	roadhttp "github.com/roadsafety/roadguard/adapters/http"
	"github.com/roadsafety/roadguard/bootstrap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the RoadGuard API server.

The server will:
  - Load configuration from roadguard.yaml (or --config)
  - Or load configuration from ROADGUARD_* environment variables
  - Open the database and apply migrations
  - Serve the accident dataset behind API key rate limiting

Environment variables (for Docker deployments):
  ROADGUARD_DATABASE_DSN     - Database path (default: roadguard.db)
  ROADGUARD_SERVER_PORT      - Server port (default: 8080)
  ROADGUARD_RATELIMIT_WINDOW - Window seconds (default: 3600)
  ROADGUARD_LOG_LEVEL        - Log level: debug, info, warn, error

Examples:
  roadguard serve
  roadguard serve --config /etc/roadguard/config.yaml

  # Docker (env vars only):
  ROADGUARD_DATABASE_DSN=/data/roadguard.db roadguard serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	roadhttp.BuildVersion = version

	app, err := bootstrap.New(cfgFile)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run blocks until shutdown.
	return app.Run()
}
