package flow

import (
	"github.com/graphism/dataflow/cfg"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/graph/traverse"
)

// Unreachable returns the nodes of g, in insertion order, which cannot be
// reached by a path from the entry node.
//
// The solver does not require every node to be reachable; unreachable nodes
// simply receive no flow from the entry node.
func Unreachable(g *cfg.Graph, entry *cfg.Node) []*cfg.Node {
	if entry == nil {
		return nil
	}
	df := &traverse.DepthFirst{}
	df.Walk(g.Directed(), entry, nil)
	return lo.Filter(g.Nodes(), func(n *cfg.Node, _ int) bool {
		return !df.Visited(n)
	})
}
