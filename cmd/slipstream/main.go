// Command slipstream serves and manages per-context UI layout state.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/slipstream/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
