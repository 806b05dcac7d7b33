// Package cfg provides access to control flow graphs.
package cfg

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/multi"
)

var (
	// ErrDuplicateLabel is returned when a node label is already in use.
	ErrDuplicateLabel = errors.New("duplicate node label")
	// ErrUnknownLabel is returned when a label does not name a node of the
	// graph.
	ErrUnknownLabel = errors.New("unknown node label")
	// ErrForeignNode is returned when a node of another graph is used as an
	// edge endpoint.
	ErrForeignNode = errors.New("node belongs to another graph")
)

// === [ Graph ] ===============================================================

// Graph is a control flow graph.
//
// Nodes are kept in insertion order, which is also the order in which
// data-flow analyses visit them. Edges may form cycles, and both parallel
// edges and self-loops are permitted.
type Graph struct {
	// Graph ID.
	id string
	// nodes in insertion order; a node's ID is its index.
	nodes []*Node
	// edges in insertion order; an edge's ID is its index.
	edges []*Edge
	// labels maps from node label to graph node.
	labels map[string]*Node
	// lines mirrors the graph for gonum algorithms and encoders.
	lines *multi.DirectedGraph
	// Graph-level DOT attributes.
	Attrs
}

// NewGraph returns a new control flow graph.
func NewGraph() *Graph {
	return &Graph{
		labels: make(map[string]*Node),
		lines:  multi.NewDirectedGraph(),
		Attrs:  make(Attrs),
	}
}

// AddNode appends a new node with the given name to the graph. An empty label
// leaves the node unlabeled; unlabeled nodes can only be referred to directly.
func (g *Graph) AddNode(name, label string) (*Node, error) {
	if len(label) > 0 {
		if _, ok := g.labels[label]; ok {
			return nil, errors.Wrapf(ErrDuplicateLabel, "label %q", label)
		}
	}
	n := &Node{
		g:     g,
		id:    int64(len(g.nodes)),
		name:  name,
		label: label,
		Attrs: make(Attrs),
	}
	g.nodes = append(g.nodes, n)
	if len(label) > 0 {
		g.labels[label] = n
	}
	g.lines.AddNode(n)
	return n, nil
}

// AddEdge adds an edge from one node to another. Both endpoints may be given
// as nodes of g or as labels.
func (g *Graph) AddEdge(from, to Ref) (*Edge, error) {
	src, err := from.resolve(g)
	if err != nil {
		return nil, err
	}
	dst, err := to.resolve(g)
	if err != nil {
		return nil, err
	}
	e := &Edge{
		g:     g,
		id:    int64(len(g.edges)),
		from:  src.id,
		to:    dst.id,
		Attrs: make(Attrs),
	}
	g.edges = append(g.edges, e)
	src.succs = append(src.succs, dst.id)
	dst.preds = append(dst.preds, src.id)
	g.lines.SetLine(e)
	return e, nil
}

// Edge adds an edge from one node to another and returns g, so that edge
// declarations may be chained.
//
// If either endpoint cannot be resolved, Edge panics.
func (g *Graph) Edge(from, to Ref) *Graph {
	if _, err := g.AddEdge(from, to); err != nil {
		panic(fmt.Errorf("unable to add edge; %v", err))
	}
	return g
}

// FindNode returns the node with the given label.
func (g *Graph) FindNode(label string) (*Node, error) {
	n, ok := g.labels[label]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownLabel, "label %q", label)
	}
	return n, nil
}

// Node returns the node with the given ID, and a boolean variable indicating
// success.
func (g *Graph) Node(id int64) (*Node, bool) {
	if id < 0 || id >= int64(len(g.nodes)) {
		return nil, false
	}
	return g.nodes[id], true
}

// Nodes returns the nodes of the graph in insertion order.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// Edges returns the edges of the graph in insertion order.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Entry returns the first node added to the graph, or nil if the graph is
// empty.
func (g *Graph) Entry() *Node {
	if len(g.nodes) == 0 {
		return nil
	}
	return g.nodes[0]
}

// Directed returns a gonum view of the graph. Its nodes are the *Node values
// of g and its lines are the *Edge values of g.
func (g *Graph) Directed() graph.Directed {
	return g.lines
}

// --- [ dot.Graph ] -----------------------------------------------------------

// DOTID returns the DOT ID of the graph.
func (g *Graph) DOTID() string {
	return g.id
}

// --- [ dot.DOTIDSetter ] -----------------------------------------------------

// SetDOTID sets the DOT ID of the graph.
func (g *Graph) SetDOTID(id string) {
	g.id = id
}

// === [ Node ] ================================================================

// Node is a node in a control flow graph.
type Node struct {
	// Graph owning the node.
	g *Graph
	// Node ID; index into the node list of the owning graph.
	id int64
	// Node name (e.g. source statement).
	name string
	// Optional unique label.
	label string
	// IDs of predecessors and successors, one entry per edge.
	preds, succs []int64
	// DOT attributes.
	Attrs
}

// ID returns the ID of the node.
func (n *Node) ID() int64 {
	return n.id
}

// Name returns the name of the node.
func (n *Node) Name() string {
	return n.name
}

// Label returns the label of the node, or the empty string if unlabeled.
func (n *Node) Label() string {
	return n.label
}

// Graph returns the graph owning the node.
func (n *Node) Graph() *Graph {
	return n.g
}

// Preds returns the immediate predecessors of the node, in edge insertion
// order.
func (n *Node) Preds() []*Node {
	return n.g.resolveIDs(n.preds)
}

// Succs returns the immediate successors of the node, in edge insertion order.
func (n *Node) Succs() []*Node {
	return n.g.resolveIDs(n.succs)
}

// String returns the name of the node.
func (n *Node) String() string {
	return n.name
}

func (n *Node) resolve(g *Graph) (*Node, error) {
	if n.g != g {
		return nil, errors.Wrapf(ErrForeignNode, "node %q", n.name)
	}
	return n, nil
}

// --- [ dot.Node ] ------------------------------------------------------------

// DOTID returns the DOT ID of the node; its label if present. Unlabeled nodes
// are given the ID "n<ID>", extended with underscores until no label of the
// graph uses it.
func (n *Node) DOTID() string {
	if len(n.label) > 0 {
		return n.label
	}
	id := fmt.Sprintf("n%d", n.id)
	for {
		if _, ok := n.g.labels[id]; !ok {
			return id
		}
		id += "_"
	}
}

// --- [ encoding.Attributer ] -------------------------------------------------

// Attributes returns the DOT attributes of the node. The node name is stored
// in the label attribute.
func (n *Node) Attributes() []encoding.Attribute {
	attrs := n.Attrs.Attributes()
	if len(n.name) == 0 {
		return attrs
	}
	label := encoding.Attribute{Key: "label", Value: n.name}
	return append([]encoding.Attribute{label}, attrs...)
}

// === [ Edge ] ================================================================

// Edge is an edge in a control flow graph.
type Edge struct {
	// Graph owning the edge.
	g *Graph
	// Edge ID; index into the edge list of the owning graph.
	id int64
	// Source and destination node IDs.
	from, to int64
	// DOT attributes.
	Attrs
}

// Source returns the source node of the edge.
func (e *Edge) Source() *Node {
	return e.g.nodes[e.from]
}

// Dest returns the destination node of the edge.
func (e *Edge) Dest() *Node {
	return e.g.nodes[e.to]
}

// Graph returns the graph owning the edge.
func (e *Edge) Graph() *Graph {
	return e.g
}

// --- [ graph.Line ] ----------------------------------------------------------

// From returns the source node of the edge.
func (e *Edge) From() graph.Node {
	return e.Source()
}

// To returns the destination node of the edge.
func (e *Edge) To() graph.Node {
	return e.Dest()
}

// ID returns the ID of the edge.
func (e *Edge) ID() int64 {
	return e.id
}

// ReversedLine returns a copy of the edge with its endpoints swapped.
func (e *Edge) ReversedLine() graph.Line {
	rev := *e
	rev.from, rev.to = e.to, e.from
	return &rev
}

// === [ Ref ] =================================================================

// Ref refers to a node of a graph, either directly through a *Node or through
// its Label.
type Ref interface {
	resolve(g *Graph) (*Node, error)
}

// Label refers to the node with the given label.
type Label string

func (l Label) resolve(g *Graph) (*Node, error) {
	return g.FindNode(string(l))
}

// ### [ Helper functions ] ####################################################

// Attrs specifies a set of DOT attributes as key-value pairs.
type Attrs map[string]string

// --- [ encoding.Attributer ] -------------------------------------------------

// Attributes returns the DOT attributes of a node or edge.
func (a Attrs) Attributes() []encoding.Attribute {
	var keys []string
	for key := range a {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var attrs []encoding.Attribute
	for _, key := range keys {
		attr := encoding.Attribute{
			Key:   key,
			Value: a[key],
		}
		attrs = append(attrs, attr)
	}
	return attrs
}

// --- [ encoding.AttributeSetter ] -------------------------------------------

// SetAttribute sets the DOT attribute of a graph, node or edge.
func (a Attrs) SetAttribute(attr encoding.Attribute) error {
	a[attr.Key] = attr.Value
	return nil
}

// resolveIDs maps node IDs to graph nodes.
func (g *Graph) resolveIDs(ids []int64) []*Node {
	nodes := make([]*Node, len(ids))
	for i, id := range ids {
		nodes[i] = g.nodes[id]
	}
	return nodes
}
