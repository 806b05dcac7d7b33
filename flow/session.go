package flow

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/graphism/dataflow/cfg"
	"github.com/pkg/errors"
)

// A Snapshot is the state of a stepped analysis after a pass.
type Snapshot struct {
	// Number of passes performed since the last reset.
	Pass int `json:"pass"`
	// Changed reports whether the last pass changed an out set. It is true
	// after a reset.
	Changed bool `json:"changed"`
	// Out maps from node label to the members of its out set.
	Out map[string][]string `json:"out"`
}

// JSON returns the JSON encoding of the snapshot.
func (snap Snapshot) JSON() ([]byte, error) {
	buf, err := json.Marshal(snap)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return buf, nil
}

// Setup returns a freshly initialized flow value system, with gen and kill
// sets defined.
type Setup func() (*System, error)

// A Session steps one analysis over a control flow graph, one pass at a time,
// for callers that present intermediate states.
type Session struct {
	// Control flow graph.
	g *cfg.Graph
	// setup initializes the flow value system on reset.
	setup Setup
	// Solver performing the passes.
	solver *Solver
	// Current flow value system.
	sys *System
	// Passes performed since the last reset.
	pass int
	// changed reports whether the last pass changed an out set; true after a
	// reset.
	changed bool
}

// NewSession returns a new session for the analysis defined by setup over g,
// reset to its initial state.
func NewSession(g *cfg.Graph, setup Setup, solver *Solver) (*Session, error) {
	s := &Session{
		g:      g,
		setup:  setup,
		solver: solver,
	}
	if _, err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset discards all computed values and returns the initial snapshot.
func (s *Session) Reset() (Snapshot, error) {
	sys, err := s.setup()
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "unable to set up flow value system")
	}
	s.sys = sys
	s.pass = 0
	s.changed = true
	return s.snapshot(), nil
}

// Advance performs one pass and returns the resulting snapshot.
func (s *Session) Advance() Snapshot {
	s.changed = s.solver.Step(s.g, s.sys)
	s.pass++
	return s.snapshot()
}

// Run advances the session until a pass changes nothing or ctx is done, and
// returns the last snapshot. If ctx is done, the snapshot of the current state
// is returned along with the context error.
func (s *Session) Run(ctx context.Context) (Snapshot, error) {
	for {
		if err := ctx.Err(); err != nil {
			return s.snapshot(), errors.WithStack(err)
		}
		snap := s.Advance()
		if !snap.Changed {
			return snap, nil
		}
	}
}

// Graph returns the control flow graph of the session.
func (s *Session) Graph() *cfg.Graph {
	return s.g
}

// System returns the current flow value system of the session.
func (s *Session) System() *System {
	return s.sys
}

// Pass returns the number of passes performed since the last reset.
func (s *Session) Pass() int {
	return s.pass
}

// snapshot returns the current state of the session.
func (s *Session) snapshot() Snapshot {
	out := make(map[string][]string)
	for label, v := range s.sys.OutProperty().ByLabel(s.g) {
		out[label] = v.Elements()
	}
	return Snapshot{
		Pass:    s.pass,
		Changed: s.changed,
		Out:     out,
	}
}
