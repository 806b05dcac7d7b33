package problem

import (
	"strings"

	"github.com/graphism/dataflow/cfg"
	"github.com/graphism/dataflow/flow"
	"github.com/samber/lo"
)

// DOT attributes read by FromDOT and written by Annotate.
const (
	// Graph attribute listing the universe, comma-separated.
	attrUniverse = "universe"
	// Graph attribute holding the initial out value.
	attrInitial = "initial"
	// Graph attribute holding the direction of the analysis.
	attrDirection = "direction"
	// Node attributes listing gen and kill sets, comma-separated.
	attrGen  = "gen"
	attrKill = "kill"
	// Node attribute listing the out set of a solved problem; ignored by
	// FromDOT.
	attrOut = "out"
)

// FromDOT returns the problem described by the attributes of a control flow
// graph decoded from DOT:
//
//	digraph storeloop {
//		graph [universe="x0,x2", initial=universe, direction=forward];
//		s0 [label="x = 0", gen=x0, kill=x2];
//		...
//	}
//
// Without a universe attribute, the universe holds every gen and kill element,
// in order of first appearance.
func FromDOT(g *cfg.Graph) (*Problem, error) {
	var u *flow.Universe
	var err error
	if elems, ok := g.Attrs[attrUniverse]; ok {
		u, err = flow.NewUniverse(splitElems(elems)...)
	} else {
		var all []string
		for _, n := range g.Nodes() {
			all = append(all, splitElems(n.Attrs[attrGen])...)
			all = append(all, splitElems(n.Attrs[attrKill])...)
		}
		u, err = flow.NewUniverse(lo.Uniq(all)...)
	}
	if err != nil {
		return nil, err
	}
	p := New(g.DOTID(), g, u)
	if p.Initial, err = ParseInitial(g.Attrs[attrInitial]); err != nil {
		return nil, err
	}
	if dir, ok := g.Attrs[attrDirection]; ok {
		if p.Direction, err = flow.ParseDirection(dir); err != nil {
			return nil, err
		}
	}
	for _, n := range g.Nodes() {
		if elems, ok := n.Attrs[attrGen]; ok {
			p.DefGen(n, splitElems(elems)...)
		}
		if elems, ok := n.Attrs[attrKill]; ok {
			p.DefKill(n, splitElems(elems)...)
		}
	}
	if _, err := p.System(); err != nil {
		return nil, err
	}
	return p, nil
}

// Annotate records the problem in the DOT attributes of its graph, so that
// FromDOT recovers it from the marshalled graph. If sys is non-nil, the out
// set of each node is recorded in its out attribute.
func (p *Problem) Annotate(sys *flow.System) {
	g := p.Graph
	if len(g.DOTID()) == 0 {
		g.SetDOTID(p.Name)
	}
	g.Attrs[attrUniverse] = strings.Join(p.Universe.Elements(), ",")
	g.Attrs[attrInitial] = p.Initial.String()
	g.Attrs[attrDirection] = p.Direction.String()
	for _, n := range g.Nodes() {
		delete(n.Attrs, attrGen)
		delete(n.Attrs, attrKill)
		if elems := p.gen[n]; len(elems) > 0 {
			n.Attrs[attrGen] = strings.Join(elems, ",")
		}
		if elems := p.kill[n]; len(elems) > 0 {
			n.Attrs[attrKill] = strings.Join(elems, ",")
		}
		if sys != nil {
			n.Attrs[attrOut] = strings.Join(sys.Out(n).Elements(), ",")
		}
	}
}
