package cfg

import (
	"fmt"

	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"
)

// String returns the string representation of the graph in Graphviz DOT format.
func (g *Graph) String() string {
	data, err := g.MarshalDOT()
	if err != nil {
		panic(fmt.Errorf("unable to marshal control flow graph in DOT format; %v", err))
	}
	return string(data)
}

// MarshalDOT returns the Graphviz DOT representation of the graph. Nodes are
// written in insertion order, and graph attributes as a graph attribute
// statement.
func (g *Graph) MarshalDOT() ([]byte, error) {
	return dot.MarshalMulti(dotView{DirectedGraph: g.lines, g: g}, g.DOTID(), "", "\t")
}

// dotView exposes the graph-level attributes of a control flow graph to the
// DOT encoder.
type dotView struct {
	*multi.DirectedGraph
	g *Graph
}

// --- [ dot.Attributers ] -----------------------------------------------------

// DOTAttributers returns the global DOT attributes of the graph.
func (v dotView) DOTAttributers() (graphAttrs, nodeAttrs, edgeAttrs encoding.Attributer) {
	return v.g.Attrs, Attrs{}, Attrs{}
}
