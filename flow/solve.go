package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/graphism/dataflow/cfg"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Direction specifies the neighbors whose out sets flow into a node.
type Direction int

// Analysis directions.
const (
	// Forward analyses meet over the out sets of predecessors.
	Forward Direction = iota
	// Backward analyses meet over the out sets of successors.
	Backward
)

// ParseDirection returns the direction with the given name.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "forward", "fwd":
		return Forward, nil
	case "backward", "bwd":
		return Backward, nil
	}
	return 0, errors.Errorf("invalid analysis direction %q; expected forward or backward", s)
}

// String returns the name of the direction.
func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	}
	return "Direction(?)"
}

// Neighbors returns the neighbors of n that flow into n.
func (d Direction) Neighbors(n *cfg.Node) []*cfg.Node {
	if d == Backward {
		return n.Succs()
	}
	return n.Preds()
}

// Meet returns the intersection of the out sets of the given nodes.
//
// When nodes is empty, Meet returns the empty set rather than the universe;
// no information flows into a node without neighbors.
func Meet(s *System, nodes []*cfg.Node) Set {
	if len(nodes) == 0 {
		return s.u.Empty()
	}
	meet := s.Out(nodes[0])
	for _, n := range nodes[1:] {
		meet = meet.Intersect(s.Out(n))
	}
	return meet
}

// Transfer returns (meet - kill) | gen for node n.
func Transfer(s *System, n *cfg.Node, meet Set) Set {
	return meet.Difference(s.Kill(n)).Union(s.Gen(n))
}

// === [ Solver ] ==============================================================

// A Solver computes the fixed point of a flow value system by round-robin
// iteration over the nodes of a control flow graph.
type Solver struct {
	// Direction of the analysis.
	Dir Direction
	// Logger receiving per-node debug events.
	Log zerolog.Logger
}

// NewSolver returns a new solver for the given direction, with logging
// disabled.
func NewSolver(dir Direction) *Solver {
	return &Solver{
		Dir: dir,
		Log: zerolog.Nop(),
	}
}

// Step performs one pass over the nodes of g in insertion order, updating the
// out set of each node in place. Updates are visible to the nodes visited
// later in the same pass. Step reports whether any out set changed.
//
// Step panics if a transfer yields a value outside of the universe of s.
func (sv *Solver) Step(g *cfg.Graph, s *System) bool {
	changed := false
	for _, n := range g.Nodes() {
		neighbors := sv.Dir.Neighbors(n)
		meet := Meet(s, neighbors)
		sv.Log.Debug().
			Str("node", n.Name()).
			Int("neighbors", len(neighbors)).
			Stringer("meet", meet).
			Msg("computed meet")
		newOut := Transfer(s, n, meet)
		if newOut.Equal(s.Out(n)) {
			continue
		}
		sv.Log.Debug().
			Str("node", n.Name()).
			Stringer("old", s.Out(n)).
			Stringer("new", newOut).
			Msg("updated out set")
		if err := s.SetOut(n, newOut); err != nil {
			panic(fmt.Errorf("unable to update out set; %v", err))
		}
		changed = true
	}
	return changed
}

// Solve repeats Step until a pass changes nothing, and returns the number of
// passes performed, including the final one.
func (sv *Solver) Solve(g *cfg.Graph, s *System) int {
	passes, _ := sv.SolveContext(context.Background(), g, s)
	return passes
}

// SolveContext is like Solve, but stops between passes once ctx is done, in
// which case the context error is returned along with the passes performed.
func (sv *Solver) SolveContext(ctx context.Context, g *cfg.Graph, s *System) (int, error) {
	passes := 0
	for {
		if err := ctx.Err(); err != nil {
			return passes, errors.WithStack(err)
		}
		passes++
		if !sv.Step(g, s) {
			break
		}
	}
	sv.Log.Debug().
		Stringer("direction", sv.Dir).
		Int("passes", passes).
		Msg("reached fixed point")
	return passes, nil
}

// Step performs one pass of the analysis of s over g in the given direction.
func Step(g *cfg.Graph, s *System, dir Direction) bool {
	return NewSolver(dir).Step(g, s)
}

// Solve solves the analysis of s over g in the given direction, and returns
// the number of passes performed.
func Solve(g *cfg.Graph, s *System, dir Direction) int {
	return NewSolver(dir).Solve(g, s)
}
