package problem

import (
	"github.com/graphism/dataflow/cfg"
	"github.com/graphism/dataflow/flow"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"
)

// hclProblemFile represents the top-level structure of a problem file for
// decoding:
//
//	name      = "storeloop"
//	universe  = ["x0", "x2"]
//	initial   = "universe"
//	direction = "forward"
//
//	node "s0" {
//	  name = "s0: x = 0"
//	  gen  = ["x0"]
//	  kill = ["x2"]
//	}
//
//	edge {
//	  from = "s0"
//	  to   = "s1"
//	}
type hclProblemFile struct {
	Name      string     `hcl:"name,optional"`
	Universe  []string   `hcl:"universe"`
	Initial   string     `hcl:"initial,optional"`
	Direction string     `hcl:"direction,optional"`
	Nodes     []*hclNode `hcl:"node,block"`
	Edges     []*hclEdge `hcl:"edge,block"`
}

type hclNode struct {
	Label string   `hcl:"label,label"`
	Name  string   `hcl:"name,optional"`
	Gen   []string `hcl:"gen,optional"`
	Kill  []string `hcl:"kill,optional"`
}

type hclEdge struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

// ParseHCL parses the problem file src, reporting diagnostics against
// filename.
func ParseHCL(filename string, src []byte) (*Problem, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Wrapf(diags, "failed to parse HCL file %s", filename)
	}
	var parsed hclProblemFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, errors.Wrapf(diags, "failed to decode HCL file %s", filename)
	}
	p, err := parsed.problem()
	if err != nil {
		return nil, errors.Wrapf(err, "invalid problem in %s", filename)
	}
	return p, nil
}

// problem builds the problem described by the decoded file.
func (f *hclProblemFile) problem() (*Problem, error) {
	u, err := flow.NewUniverse(f.Universe...)
	if err != nil {
		return nil, err
	}
	g := cfg.NewGraph()
	g.SetDOTID(f.Name)
	p := New(f.Name, g, u)
	if p.Initial, err = ParseInitial(f.Initial); err != nil {
		return nil, err
	}
	if len(f.Direction) > 0 {
		if p.Direction, err = flow.ParseDirection(f.Direction); err != nil {
			return nil, err
		}
	}
	for _, hn := range f.Nodes {
		name := hn.Name
		if len(name) == 0 {
			name = hn.Label
		}
		n, err := g.AddNode(name, hn.Label)
		if err != nil {
			return nil, err
		}
		if hn.Gen != nil {
			p.DefGen(n, hn.Gen...)
		}
		if hn.Kill != nil {
			p.DefKill(n, hn.Kill...)
		}
	}
	for _, he := range f.Edges {
		if _, err := g.AddEdge(cfg.Label(he.From), cfg.Label(he.To)); err != nil {
			return nil, err
		}
	}
	if _, err := p.System(); err != nil {
		return nil, err
	}
	return p, nil
}
