// Package cli implements the wisp command line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wisp",
	Short: "A small database-backed publishing server",
	Long: `Wisp is a small database-backed publishing server. It serves a themed
site and a JSON admin API, with experimental functionality gated behind
tiered labs flags.

Configuration comes from WISP_* environment variables, an optional .env
file in the working directory, and an optional YAML file named by
WISP_CONFIG.`,
	SilenceUsage: true,
}

// Execute runs the CLI. It returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}
