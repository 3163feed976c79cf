package main

import (
	"fmt"
	"os"

	"github.com/aretw0/qret"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "qret",
	Short: "QRET is the core of a retail returns workstation",
	Long: `QRET tracks what a cashier sees on a returns screen and what is being
returned, and derives the refund from the receipts presented.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "qret.yaml", "Path to the QRET configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Override the configured log level (debug, info, warn, error)")
}

// loadConfig reads --config. The default path is optional; an explicit one must exist.
func loadConfig(cmd *cobra.Command) (qret.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := qret.LoadConfig(path, !cmd.Flags().Changed("config"))
	if err != nil {
		return cfg, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	return cfg, cfg.Validate()
}

func openApp(cmd *cobra.Command) (*qret.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	app, err := qret.New(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize qret: %w", err)
	}
	return app, nil
}
