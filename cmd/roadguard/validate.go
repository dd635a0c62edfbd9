package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roadsafety/roadguard/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	fmt.Println("Configuration valid")
	fmt.Printf("  Listen:       %s\n", cfg.Addr())
	fmt.Printf("  Database:     %s\n", cfg.Database.DSN)
	fmt.Printf("  Window:       %s\n", cfg.Window())
	if len(cfg.RateLimit.TierLimits) > 0 {
		fmt.Printf("  Tier limits:  %d override(s)\n", len(cfg.RateLimit.TierLimits))
	}
	return nil
}
