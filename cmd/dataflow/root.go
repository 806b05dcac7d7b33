package main

import (
	"context"
	"fmt"
	"io"

	"github.com/graphism/dataflow/flow"
	"github.com/graphism/dataflow/internal/config"
	"github.com/graphism/dataflow/internal/logging"
	"github.com/graphism/dataflow/problem"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app holds the configuration shared by the commands.
type app struct {
	v        *viper.Viper
	closeLog func()
}

// newRootCmd returns the root command with every subcommand attached.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{v: viper.New()}
	flagSet := config.BuildFlagSet("dataflow", config.GlobalFlagDefs...)
	rootCmd := &cobra.Command{
		Use:           "dataflow",
		Short:         "dataflow - solve gen/kill data-flow problems over control flow graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	rootCmd.PersistentFlags().AddFlagSet(flagSet)
	if err := config.Bind(a.v, flagSet, config.GlobalFlagDefs...); err != nil {
		panic(fmt.Errorf("failed to bind global flags: %w", err))
	}

	rootCmd.AddCommand(newSolveCmd(a))
	rootCmd.AddCommand(newStepCmd(a))
	rootCmd.AddCommand(newDotCmd(a))
	rootCmd.AddCommand(newExampleCmd(a))
	return rootCmd, a
}

// init reads the configuration file and sets up logging.
func (a *app) init() error {
	if err := config.ReadFile(a.v); err != nil {
		return err
	}
	level := zerolog.Level(a.v.GetUint(config.CLogLevel.Key))
	closeLog, err := logging.Setup(a.v.GetString(config.CLogFile.Key), level)
	if err != nil {
		return err
	}
	a.closeLog = closeLog
	return nil
}

// cleanup closes the log files opened by init.
func (a *app) cleanup() {
	if a.closeLog != nil {
		a.closeLog()
		a.closeLog = nil
	}
}

// load loads the problem stored at path.
func (a *app) load(path string) (*problem.Problem, error) {
	p, err := problem.Load(path)
	if err != nil {
		return nil, err
	}
	if err := a.prepare(p); err != nil {
		return nil, err
	}
	return p, nil
}

// prepare applies the configured direction to p, and warns about nodes
// unreachable from its entry node.
func (a *app) prepare(p *problem.Problem) error {
	if dir := a.v.GetString(config.CDirection.Key); len(dir) > 0 {
		d, err := flow.ParseDirection(dir)
		if err != nil {
			return err
		}
		p.Direction = d
	}
	for _, n := range flow.Unreachable(p.Graph, p.Graph.Entry()) {
		log.Warn().
			Str("problem", p.Name).
			Str("node", n.Name()).
			Msg("node unreachable from entry")
	}
	return nil
}

// session returns a new session of p, logging through the global logger.
func (a *app) session(p *problem.Problem) (*flow.Session, error) {
	solver := flow.NewSolver(p.Direction)
	solver.Log = log.Logger.With().Str("problem", p.Name).Logger()
	return p.Session(solver)
}

// run advances sess until a pass changes nothing, calling each after every
// pass. It fails once the configured maximum number of passes is exceeded.
func (a *app) run(ctx context.Context, sess *flow.Session, each func(flow.Snapshot) error) (flow.Snapshot, error) {
	maxPasses := a.v.GetInt(config.CMaxPasses.Key)
	for {
		if err := ctx.Err(); err != nil {
			return flow.Snapshot{}, errors.WithStack(err)
		}
		if maxPasses > 0 && sess.Pass() >= maxPasses {
			return flow.Snapshot{}, errors.Errorf("no fixed point after %d passes", maxPasses)
		}
		snap := sess.Advance()
		if each != nil {
			if err := each(snap); err != nil {
				return flow.Snapshot{}, err
			}
		}
		if !snap.Changed {
			return snap, nil
		}
	}
}

// solve solves p and prints its solution to w.
func (a *app) solve(ctx context.Context, w io.Writer, p *problem.Problem) error {
	sess, err := a.session(p)
	if err != nil {
		return err
	}
	snap, err := a.run(ctx, sess, nil)
	if err != nil {
		return errors.Wrapf(err, "unable to solve %q", p.Name)
	}
	log.Info().
		Str("problem", p.Name).
		Stringer("direction", p.Direction).
		Int("passes", snap.Pass).
		Msg("reached fixed point")
	if a.v.GetBool(config.CJSON.Key) {
		return printJSON(w, snap)
	}
	_, err = fmt.Fprintln(w, sess.System().Report(p.Graph))
	return errors.WithStack(err)
}

// printJSON prints snap to w as one line of JSON.
func printJSON(w io.Writer, snap flow.Snapshot) error {
	buf, err := snap.JSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", buf)
	return errors.WithStack(err)
}
