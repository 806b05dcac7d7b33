package main

import (
	"fmt"

	"github.com/graphism/dataflow/internal/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flags.
var (
	cDotSolve = config.Def{
		Type:    config.Bool,
		Key:     "solve",
		Default: false,
		Desc:    "solve the problem and record the out set of each node",
	}
)

func newDotCmd(a *app) *cobra.Command {
	defs := []config.Def{cDotSolve}
	flagSet := config.BuildFlagSet("dot", defs...)
	local := viper.New()
	cmd := &cobra.Command{
		Use:   "dot FILE",
		Short: "Print a problem as an annotated DOT graph",
		Long: `Prints the problem stored in FILE as a Graphviz DOT graph, with its universe,
gen and kill sets recorded as attributes; the output is itself a valid problem
file. With --solve, the out set of each node is recorded as well.
Example) dataflow dot --solve storeloop.hcl > storeloop.dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.load(args[0])
			if err != nil {
				return err
			}
			if local.GetBool(cDotSolve.Key) {
				sess, err := a.session(p)
				if err != nil {
					return err
				}
				if _, err := a.run(cmd.Context(), sess, nil); err != nil {
					return errors.Wrapf(err, "unable to solve %q", p.Name)
				}
				p.Annotate(sess.System())
			} else {
				p.Annotate(nil)
			}
			buf, err := p.Graph.MarshalDOT()
			if err != nil {
				return errors.WithStack(err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", buf)
			return errors.WithStack(err)
		},
	}
	cmd.Flags().AddFlagSet(flagSet)
	if err := config.Bind(local, flagSet, defs...); err != nil {
		panic(fmt.Errorf("failed to bind dot flags: %w", err))
	}
	return cmd
}
