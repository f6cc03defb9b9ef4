package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/postforge/postforge/internal/backup"
	"github.com/postforge/postforge/internal/config"
)

var backupEnvPath string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Take a one-off compressed database snapshot",
	Long:  `Snapshots the live SQLite database to a timestamped, gzip-compressed file in the configured backup directory, then applies the tiered daily/weekly/monthly retention policy.`,
	RunE:  runBackup,
}

func init() {
	backupCmd.Flags().StringVar(&backupEnvPath, "env", ".env", "Path to .env file")
	rootCmd.AddCommand(backupCmd)
}

func runBackup(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(backupEnvPath)
	if err != nil {
		return err
	}

	bm := backup.New(cfg.DatabasePath, cfg.BackupPath)
	path, err := bm.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}

	fmt.Println(path)
	return nil
}
