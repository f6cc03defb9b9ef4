package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/postforge/postforge/internal/backup"
	"github.com/postforge/postforge/internal/config"
)

var restoreEnvPath string

var restoreCmd = &cobra.Command{
	Use:   "restore <backup-file>",
	Short: "Restore the database from a compressed snapshot",
	Long:  `Decompresses the given backup file to a staging path, runs a SQLite integrity check against it, copies the live database aside as a .recovery file, then atomically replaces it with the restored snapshot.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

func init() {
	restoreCmd.Flags().StringVar(&restoreEnvPath, "env", ".env", "Path to .env file")
	rootCmd.AddCommand(restoreCmd)
}

func runRestore(_ *cobra.Command, args []string) error {
	cfg, err := config.Load(restoreEnvPath)
	if err != nil {
		return err
	}

	bm := backup.New(cfg.DatabasePath, cfg.BackupPath)
	if err := bm.Restore(args[0]); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	fmt.Printf("restored %s from %s\n", cfg.DatabasePath, args[0])
	return nil
}
