package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/postforge/postforge/internal/config"
	"github.com/postforge/postforge/internal/dashboard"
	"github.com/postforge/postforge/internal/store"
)

var dashboardEnvPath string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Serve the read-only pipeline dashboard",
	Long:  `Opens the pipeline database read-only and serves an HTML overview page plus JSON endpoints for post states, recent activity, and recent uploads. Never writes to the database.`,
	RunE:  runDashboard,
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardEnvPath, "env", ".env", "Path to .env file")
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(dashboardEnvPath)
	if err != nil {
		return err
	}

	st, err := store.OpenReadOnly(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open store read-only: %w", err)
	}
	defer st.Close()

	srv, err := dashboard.New(cfg.DashboardAddr, st)
	if err != nil {
		return fmt.Errorf("build dashboard server: %w", err)
	}

	return srv.Start()
}
