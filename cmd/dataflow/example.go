package main

import (
	"strings"

	"github.com/graphism/dataflow/problem"
	"github.com/spf13/cobra"
)

func newExampleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "example NAME",
		Short:     "Solve a built-in problem",
		Long:      "Solves the built-in problem NAME; one of " + strings.Join(problem.Names(), ", ") + ".",
		Args:      cobra.ExactValidArgs(1),
		ValidArgs: problem.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := problem.Lookup(args[0])
			if err != nil {
				return err
			}
			if err := a.prepare(p); err != nil {
				return err
			}
			return a.solve(cmd.Context(), cmd.OutOrStdout(), p)
		},
	}
}
