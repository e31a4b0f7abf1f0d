// Package cli implements the wellness command-line interface using Cobra.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/genyouth/wellness/internal/api"
)

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:   "wellness",
	Short: "Wellness progression and content service",
	Long: `wellness serves mood-based content recommendations and tracks each
user's points, streaks, achievements, challenges and milestones.

Run 'wellness serve' for the HTTP API, or use the subcommands to inspect
and adjust ledgers directly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print machine-readable JSON")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version
	api.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
