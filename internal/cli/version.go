package cli

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags. When empty the module
// build info is consulted instead.
var Version = ""

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the wisp version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("wisp " + resolveVersion())
	},
}

func resolveVersion() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "devel"
}
