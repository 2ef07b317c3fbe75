package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "holdings",
	Short: "Offline tools for the holdings backend",
	Long: `Holdings provides offline tooling around the holdings backend:
grid-strategy backtests against historical price CSVs and parameter sweeps
across trigger intervals.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
