package main

import (
	"github.com/spf13/cobra"
)

func newSolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "solve FILE",
		Short: "Solve the problem stored in a DOT or HCL file",
		Long: `Solves the problem stored in FILE (.dot, .gv or .hcl) and prints one line
per node with its gen, kill and out sets.
Example) dataflow solve --direction backward liveness.hcl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.load(args[0])
			if err != nil {
				return err
			}
			return a.solve(cmd.Context(), cmd.OutOrStdout(), p)
		},
	}
}
