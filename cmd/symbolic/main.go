// Command symbolic compiles PDDL-style domains written in CUE and applies
// grounded actions to their problems.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/symbolic/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
