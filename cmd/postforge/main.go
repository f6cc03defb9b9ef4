// Package main provides the postforge CLI: an unattended pipeline that
// turns forum posts into storefront digital-product listings.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/postforge/postforge/internal/apperr"
)

var rootCmd = &cobra.Command{
	Use:   "postforge",
	Short: "postforge pipeline CLI",
	Long:  "postforge converts scored forum posts into storefront digital-product listings, end to end and unattended, subject to a three-budget cost governor.",
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(apperr.ExitCode(err))
	}
}
