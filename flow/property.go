package flow

import (
	"github.com/graphism/dataflow/cfg"
)

// A Property is a set-valued attribute of the nodes of a control flow graph,
// such as the gen, kill or out set of a data-flow analysis. Nodes that were
// never explicitly set hold the default value of the property.
type Property struct {
	// Property name (e.g. "out").
	name string
	// Value of nodes not explicitly set.
	def Set
	// vals maps from node to its explicitly set value.
	vals map[*cfg.Node]Set
}

// NewProperty returns a new property with the given name and default value.
func NewProperty(name string, def Set) *Property {
	return &Property{
		name: name,
		def:  def,
		vals: make(map[*cfg.Node]Set),
	}
}

// Name returns the name of the property.
func (p *Property) Name() string {
	return p.name
}

// Default returns the value held by nodes that were never set.
func (p *Property) Default() Set {
	return p.def
}

// Get returns the current value of the property at node n.
func (p *Property) Get(n *cfg.Node) Set {
	if v, ok := p.vals[n]; ok {
		return v
	}
	return p.def
}

// Set overwrites the value of the property at node n.
func (p *Property) Set(n *cfg.Node, v Set) {
	p.vals[n] = v
}

// Values returns the explicitly set values of the property.
func (p *Property) Values() map[*cfg.Node]Set {
	vals := make(map[*cfg.Node]Set, len(p.vals))
	for n, v := range p.vals {
		vals[n] = v
	}
	return vals
}

// ByLabel returns the current value of the property at every labeled node of
// g, keyed by label.
func (p *Property) ByLabel(g *cfg.Graph) map[string]Set {
	vals := make(map[string]Set)
	for _, n := range g.Nodes() {
		if len(n.Label()) > 0 {
			vals[n.Label()] = p.Get(n)
		}
	}
	return vals
}

// clear forgets every explicitly set value.
func (p *Property) clear() {
	p.vals = make(map[*cfg.Node]Set)
}
