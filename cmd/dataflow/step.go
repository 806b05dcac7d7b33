package main

import (
	"fmt"

	"github.com/graphism/dataflow/flow"
	"github.com/graphism/dataflow/internal/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newStepCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "step FILE",
		Short: "Print the state of a problem after every pass",
		Long: `Steps the problem stored in FILE one pass at a time, printing the initial
state and the state after every pass until a pass changes nothing. With
--json, each state is printed as one line of JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.load(args[0])
			if err != nil {
				return err
			}
			sess, err := a.session(p)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			asJSON := a.v.GetBool(config.CJSON.Key)
			show := func(snap flow.Snapshot) error {
				if asJSON {
					return printJSON(w, snap)
				}
				_, err := fmt.Fprintf(w, "=== [ pass %d (changed=%t) ] ===\n%s\n", snap.Pass, snap.Changed, sess.System().Report(p.Graph))
				return errors.WithStack(err)
			}
			initial, err := sess.Reset()
			if err != nil {
				return err
			}
			if err := show(initial); err != nil {
				return err
			}
			_, err = a.run(cmd.Context(), sess, show)
			return err
		},
	}
}
