// Package flow implements iterative gen/kill data-flow analysis over control
// flow graphs.
//
// A System holds the gen, kill and out sets of one analysis; a Solver applies
// the flow equation
//
//	out(n) = (meet(n) - kill(n)) | gen(n)
//
// to every node, in graph order, until no out set changes.
package flow

import (
	"fmt"
	"strings"

	"github.com/graphism/dataflow/cfg"
	"github.com/pkg/errors"
)

// A System is the system of flow values of one analysis run: the gen, kill
// and out properties of the nodes of a control flow graph, drawn from a
// common universe.
type System struct {
	// Universe of facts.
	u *Universe
	// gen and kill default to the empty set; out defaults to the initial value
	// of the system.
	gen, kill, out *Property
}

// NewSystem returns a new flow value system over the given universe. Out sets
// default to initial; typically the empty set or the full universe, depending
// on the analysis.
func NewSystem(u *Universe, initial Set) (*System, error) {
	if err := checkUniverse(u, initial); err != nil {
		return nil, errors.Wrap(err, "invalid initial out value")
	}
	if initial.Universe() == nil {
		initial = u.Empty()
	}
	return &System{
		u:    u,
		gen:  NewProperty("gen", u.Empty()),
		kill: NewProperty("kill", u.Empty()),
		out:  NewProperty("out", initial),
	}, nil
}

// Universe returns the universe of the system.
func (s *System) Universe() *Universe {
	return s.u
}

// DefGen defines the gen set of node n, replacing any previous definition.
func (s *System) DefGen(n *cfg.Node, elems ...string) error {
	v, err := s.u.NewSet(elems...)
	if err != nil {
		return errors.Wrapf(err, "gen set of node %q", n)
	}
	s.gen.Set(n, v)
	return nil
}

// DefKill defines the kill set of node n, replacing any previous definition.
func (s *System) DefKill(n *cfg.Node, elems ...string) error {
	v, err := s.u.NewSet(elems...)
	if err != nil {
		return errors.Wrapf(err, "kill set of node %q", n)
	}
	s.kill.Set(n, v)
	return nil
}

// Gen returns the gen set of node n.
func (s *System) Gen(n *cfg.Node) Set {
	return s.gen.Get(n)
}

// Kill returns the kill set of node n.
func (s *System) Kill(n *cfg.Node) Set {
	return s.kill.Get(n)
}

// Out returns the current out set of node n.
func (s *System) Out(n *cfg.Node) Set {
	return s.out.Get(n)
}

// SetOut records a new out set for node n. Solvers record every update of an
// out set through SetOut.
func (s *System) SetOut(n *cfg.Node, v Set) error {
	if err := checkUniverse(s.u, v); err != nil {
		return errors.Wrapf(err, "out set of node %q", n)
	}
	if v.Universe() == nil {
		v = s.u.Empty()
	}
	s.out.Set(n, v)
	return nil
}

// GenProperty returns the gen property of the system.
func (s *System) GenProperty() *Property {
	return s.gen
}

// KillProperty returns the kill property of the system.
func (s *System) KillProperty() *Property {
	return s.kill
}

// OutProperty returns the out property of the system.
func (s *System) OutProperty() *Property {
	return s.out
}

// Reset forgets every computed out set; gen and kill are kept.
func (s *System) Reset() {
	s.out.clear()
}

// Validate checks that every value held by the system belongs to its
// universe.
func (s *System) Validate() error {
	for _, p := range []*Property{s.gen, s.kill, s.out} {
		if err := checkUniverse(s.u, p.Default()); err != nil {
			return errors.Wrapf(err, "default %s set", p.Name())
		}
		for n, v := range p.Values() {
			if err := checkUniverse(s.u, v); err != nil {
				return errors.Wrapf(err, "%s set of node %q", p.Name(), n)
			}
		}
	}
	return nil
}

// Report returns the nodes of g, in insertion order, labeled with their flow
// values; one line per node.
func (s *System) Report(g *cfg.Graph) string {
	lines := make([]string, 0, g.Len())
	for _, n := range g.Nodes() {
		line := fmt.Sprintf("%s\tgen=%v\tkill=%v\tout=%v", n.Name(), s.Gen(n), s.Kill(n), s.Out(n))
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// checkUniverse reports an error if v belongs to another universe than u.
func checkUniverse(u *Universe, v Set) error {
	if v.Universe() != nil && v.Universe() != u {
		return errors.Wrapf(ErrUniverseViolation, "set %v", v)
	}
	return nil
}
