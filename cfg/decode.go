package cfg

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"
)

// Parse parses the given Graphviz DOT file into a control flow graph, reading
// from r.
func Parse(r io.Reader) (*Graph, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return ParseBytes(buf)
}

// ParseFile parses the given Graphviz DOT file into a control flow graph,
// reading from path.
func ParseFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	g, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse %q", path)
	}
	return g, nil
}

// ParseBytes parses the given Graphviz DOT file into a control flow graph,
// reading from b.
//
// The DOT ID of each node becomes its label, and its label attribute (if any)
// its name. Nodes are added in order of first appearance, and edges in
// statement order. Escaped quotes of quoted IDs and attribute values are
// unescaped.
func ParseBytes(b []byte) (*Graph, error) {
	dst := newBuilder()
	if err := dot.UnmarshalMulti(b, dst); err != nil {
		return nil, errors.WithStack(err)
	}
	g := NewGraph()
	g.SetDOTID(unescape(dst.id))
	copyAttrs(g.Attrs, dst.graphAttrs)
	for _, dn := range dst.nodes {
		label := unescape(dn.id)
		name, ok := dn.Attrs["label"]
		if ok {
			name = unescape(name)
		} else {
			name = label
		}
		n, err := g.AddNode(name, label)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		copyAttrs(n.Attrs, dn.Attrs)
		delete(n.Attrs, "label")
	}
	for _, dl := range dst.lines {
		from, to := dotNodeOf(dl.From()), dotNodeOf(dl.To())
		e, err := g.AddEdge(Label(unescape(from.id)), Label(unescape(to.id)))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		copyAttrs(e.Attrs, dl.Attrs)
	}
	return g, nil
}

// copyAttrs copies the unescaped attributes of src into dst.
func copyAttrs(dst, src Attrs) {
	for key, val := range src {
		dst[unescape(key)] = unescape(val)
	}
}

// unescape replaces the escaped quotes of a quoted DOT ID by quotes; the
// decoder only strips the enclosing quotes.
func unescape(s string) string {
	return strings.ReplaceAll(s, `\"`, `"`)
}

// ParseString parses the given Graphviz DOT file into a control flow graph,
// reading from s.
func ParseString(s string) (*Graph, error) {
	return ParseBytes([]byte(s))
}

// === [ builder ] =============================================================

// builder records the nodes and lines of a DOT file in the order the decoder
// produces them.
type builder struct {
	*multi.DirectedGraph
	// Graph ID.
	id string
	// Nodes in order of first appearance.
	nodes []*dotNode
	// Lines in statement order.
	lines []*dotLine
	// Graph-level DOT attributes.
	graphAttrs Attrs
}

// newBuilder returns a new DOT graph builder.
func newBuilder() *builder {
	return &builder{
		DirectedGraph: multi.NewDirectedGraph(),
		graphAttrs:    make(Attrs),
	}
}

// NewNode returns a new node with a unique arbitrary ID.
func (b *builder) NewNode() graph.Node {
	return &dotNode{
		Node:  b.DirectedGraph.NewNode(),
		Attrs: make(Attrs),
	}
}

// AddNode adds a node to the graph.
func (b *builder) AddNode(n graph.Node) {
	dn := dotNodeOf(n)
	b.DirectedGraph.AddNode(dn)
	b.nodes = append(b.nodes, dn)
}

// NewLine returns a new line from the source to the destination node.
func (b *builder) NewLine(from, to graph.Node) graph.Line {
	return &dotLine{
		Line:  b.DirectedGraph.NewLine(from, to),
		Attrs: make(Attrs),
	}
}

// SetLine adds a line from one node to another.
func (b *builder) SetLine(l graph.Line) {
	dl, ok := l.(*dotLine)
	if !ok {
		panic(fmt.Errorf("invalid line type; expected *cfg.dotLine, got %T", l))
	}
	b.DirectedGraph.SetLine(dl)
	b.lines = append(b.lines, dl)
}

// SetDOTID sets the DOT ID of the graph.
func (b *builder) SetDOTID(id string) {
	b.id = id
}

// DOTAttributeSetters returns the global attribute setters. Default node and
// edge attributes are discarded.
func (b *builder) DOTAttributeSetters() (graphAttrs, nodeAttrs, edgeAttrs encoding.AttributeSetter) {
	return b.graphAttrs, make(Attrs), make(Attrs)
}

// dotNode is a node of a DOT file being decoded.
type dotNode struct {
	graph.Node
	// DOT ID of the node.
	id string
	// DOT attributes.
	Attrs
}

// SetDOTID sets the DOT ID of the node.
func (n *dotNode) SetDOTID(id string) {
	n.id = id
}

// dotLine is a line of a DOT file being decoded.
type dotLine struct {
	graph.Line
	// DOT attributes.
	Attrs
}

// dotNodeOf asserts that the given node is a DOT node being decoded.
func dotNodeOf(n graph.Node) *dotNode {
	if n, ok := n.(*dotNode); ok {
		return n
	}
	panic(fmt.Errorf("invalid node type; expected *cfg.dotNode, got %T", n))
}
