package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/postforge/postforge/internal/backup"
	"github.com/postforge/postforge/internal/config"
	"github.com/postforge/postforge/internal/llm"
	"github.com/postforge/postforge/internal/orchestrator"
	"github.com/postforge/postforge/internal/remotes/storefront"
	"github.com/postforge/postforge/internal/store"
)

var runEnvPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest, process, and upload posts for one run",
	Long:  `Acquires the pipeline's PID lock, ingests new posts from every configured origin, then drives each unprocessed post through the stage pipeline one at a time until the post limit, the kill switch, or a cost budget stops it.`,
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runEnvPath, "env", ".env", "Path to .env file")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(runEnvPath)
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	st, err := store.Open(cfg.DatabasePath, cfg.ArtifactsPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	llmClient, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.LLMAPIKey)
	if err != nil {
		return fmt.Errorf("build llm client: %w", err)
	}
	defer llmClient.Close()

	sfClient := storefront.NewHTTPClient("https://storefront.example.com", cfg.StorefrontToken)

	o, err := orchestrator.New(cfg, st, llmClient, sfClient, logger)
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}

	bm := backup.New(cfg.DatabasePath, cfg.BackupPath)
	o.BackupTick = func(context.Context) error {
		_, err := bm.Snapshot()
		return err
	}

	pidFile := filepath.Join(cfg.ArtifactsPath, "..", "postforge.pid")

	return o.Run(ctx, pidFile, func(ev orchestrator.ProgressEvent) {
		fields := []zap.Field{
			zap.String("post_id", ev.PostID),
			zap.String("from", string(ev.From)),
			zap.String("to", string(ev.To)),
			zap.String("stage", string(ev.Stage)),
		}
		if ev.Err != nil {
			logger.Warn("stage transition", append(fields, zap.Error(ev.Err))...)
			return
		}
		logger.Info("stage transition", fields...)
	})
}
