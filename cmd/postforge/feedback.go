package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/postforge/postforge/internal/audit"
	"github.com/postforge/postforge/internal/config"
	"github.com/postforge/postforge/internal/remotes/storefront"
	"github.com/postforge/postforge/internal/salesfeedback"
	"github.com/postforge/postforge/internal/store"
)

var feedbackEnvPath string

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Check recent sales and refunds, suppressing future publishing if unhealthy",
	Long:  `Pulls sales reports for recently uploaded products, aggregates sales and refund totals over the configured lookback window, and records a suppression decision if the zero-sales streak or refund rate crosses its threshold.`,
	RunE:  runFeedback,
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackEnvPath, "env", ".env", "Path to .env file")
	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(feedbackEnvPath)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DatabasePath, cfg.ArtifactsPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	sfClient := storefront.NewHTTPClient("https://storefront.example.com", cfg.StorefrontToken)
	auditor := audit.New(st)

	fb := salesfeedback.New(st, sfClient, auditor, salesfeedback.Thresholds{
		ZeroSalesSuppressionCount: cfg.ZeroSalesSuppressionCount,
		RefundRateMax:             cfg.RefundRateMax,
		LookbackDays:              cfg.SalesLookbackDays,
	})

	summary, err := fb.Run(ctx)
	if err != nil {
		return fmt.Errorf("sales feedback run failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
