package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "roadguard",
	Short: "Road safety data API with key authentication and tiered rate limiting",
	Long: `RoadGuard serves the UK road accident dataset behind API key
authentication, per-tier fixed-window rate limiting, and asynchronous
usage accounting.

Quick start:
  roadguard serve     # Start the API server

Management:
  roadguard keys      # Manage standalone API keys
  roadguard validate  # Validate configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "roadguard.yaml", "config file path")
}
