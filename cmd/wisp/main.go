// Command wisp runs the wisp publishing server and its maintenance
// subcommands.
package main

import (
	"os"

	"github.com/wisp-cms/wisp/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
