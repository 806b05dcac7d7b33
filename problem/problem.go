// Package problem defines complete data-flow analysis problems: a control flow
// graph together with the universe and the gen and kill sets of an analysis.
package problem

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/graphism/dataflow/cfg"
	"github.com/graphism/dataflow/flow"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ErrInvalidElement is returned when a universe element cannot be listed in a
// comma-separated DOT attribute; i.e. it is empty, contains a comma, or has
// leading or trailing white space.
var ErrInvalidElement = errors.New("invalid universe element")

// Initial specifies the value of out sets before the first pass.
type Initial int

// Initial out values.
const (
	// InitialEmpty starts every out set as the empty set.
	InitialEmpty Initial = iota
	// InitialUniverse starts every out set as the full universe.
	InitialUniverse
)

// ParseInitial returns the initial out value with the given name. The empty
// string denotes InitialEmpty.
func ParseInitial(s string) (Initial, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "empty":
		return InitialEmpty, nil
	case "universe", "full":
		return InitialUniverse, nil
	}
	return 0, errors.Errorf("invalid initial out value %q; expected empty or universe", s)
}

// String returns the name of the initial out value.
func (i Initial) String() string {
	if i == InitialUniverse {
		return "universe"
	}
	return "empty"
}

// A Problem is an instance of a gen/kill data-flow analysis.
type Problem struct {
	// Problem name.
	Name string
	// Control flow graph.
	Graph *cfg.Graph
	// Universe of facts.
	Universe *flow.Universe
	// Initial out value.
	Initial Initial
	// Direction of the analysis.
	Direction flow.Direction
	// gen and kill sets per node.
	gen, kill map[*cfg.Node][]string
}

// New returns a new problem over g with the given universe; gen and kill sets
// are empty until defined.
func New(name string, g *cfg.Graph, u *flow.Universe) *Problem {
	return &Problem{
		Name:     name,
		Graph:    g,
		Universe: u,
		gen:      make(map[*cfg.Node][]string),
		kill:     make(map[*cfg.Node][]string),
	}
}

// DefGen defines the gen set of node n, replacing any previous definition.
func (p *Problem) DefGen(n *cfg.Node, elems ...string) {
	p.gen[n] = elems
}

// DefKill defines the kill set of node n, replacing any previous definition.
func (p *Problem) DefKill(n *cfg.Node, elems ...string) {
	p.kill[n] = elems
}

// System returns a fresh flow value system of the problem, with gen and kill
// sets defined and no out set computed.
func (p *Problem) System() (*flow.System, error) {
	for _, elem := range p.Universe.Elements() {
		if len(elem) == 0 || strings.Contains(elem, ",") || strings.TrimSpace(elem) != elem {
			return nil, errors.Wrapf(ErrInvalidElement, "element %q", elem)
		}
	}
	initial := p.Universe.Empty()
	if p.Initial == InitialUniverse {
		initial = p.Universe.Full()
	}
	sys, err := flow.NewSystem(p.Universe, initial)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	// Define in graph order to report the first offending node.
	for _, n := range p.Graph.Nodes() {
		if elems, ok := p.gen[n]; ok {
			if err := sys.DefGen(n, elems...); err != nil {
				return nil, err
			}
		}
		if elems, ok := p.kill[n]; ok {
			if err := sys.DefKill(n, elems...); err != nil {
				return nil, err
			}
		}
	}
	return sys, nil
}

// Session returns a new session stepping the problem with the given solver.
func (p *Problem) Session(solver *flow.Solver) (*flow.Session, error) {
	return flow.NewSession(p.Graph, p.System, solver)
}

// Load loads the problem stored at path; either a Graphviz DOT file (.dot,
// .gv) or an HCL file (.hcl). Unnamed problems are named after the file.
func Load(path string) (*Problem, error) {
	var p *Problem
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".dot", ".gv":
		g, err := cfg.ParseFile(path)
		if err != nil {
			return nil, err
		}
		if p, err = FromDOT(g); err != nil {
			return nil, errors.Wrapf(err, "invalid problem in %q", path)
		}
	case ".hcl":
		var err error
		if p, err = LoadHCL(path); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Errorf("unable to load %q; unknown file extension %q", path, ext)
	}
	if len(p.Name) == 0 {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// LoadHCL loads the HCL problem file stored at path.
func LoadHCL(path string) (*Problem, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return ParseHCL(path, src)
}

// splitElems splits a comma-separated list of elements.
func splitElems(s string) []string {
	elems := lo.Map(strings.Split(s, ","), func(elem string, _ int) string {
		return strings.TrimSpace(elem)
	})
	return lo.Filter(elems, func(elem string, _ int) bool {
		return len(elem) > 0
	})
}
