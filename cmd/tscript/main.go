// Command tscript loads and runs a declarative task program: "tscript run
// <program>" validates it with the static analyzer then interprets it
// against an interactive or agent-mode I/O channel; "tscript check
// <program>" runs only the analyzer. Grounded in the teacher's cmd/wt
// root-command-plus-subcommands layout (cmd/wt/main.go): a bare root
// command with no RunE of its own, subcommands built by small
// "xCmd() *cobra.Command" constructors, errors returned (not printed)
// from RunE so cobra's own "Error: ..." reporting stays consistent.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "tscript",
		Short: "tscript — declarative task program interpreter",
		Long:  "Loads a task program, validates it statically, and interprets it: interpolation, streaming chat, and interactive or agent-mode I/O.",
	}

	root.AddCommand(runCmd(), checkCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
