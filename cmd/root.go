// Package cmd implements the docproof CLI commands using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "docproof",
	Short: "docproof — proposal documents with normalized exports",
	Long: `docproof stores block-based proposal documents and exports them to
PDF, Markdown, or HTML through a style-normalizing pipeline.

Usage:
  docproof serve [flags]
  docproof export -doc <id> [flags]`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
