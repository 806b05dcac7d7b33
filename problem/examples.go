package problem

import (
	"sort"

	"github.com/graphism/dataflow/cfg"
	"github.com/graphism/dataflow/flow"
	"github.com/pkg/errors"
)

// examples maps from name to constructor of the built-in problems.
var examples = map[string]func() *Problem{
	"storeloop":    StoreLoop,
	"questionable": Questionable,
}

// Names returns the names of the built-in problems, sorted.
func Names() []string {
	var names []string
	for name := range examples {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a new instance of the built-in problem with the given name.
func Lookup(name string) (*Problem, error) {
	f, ok := examples[name]
	if !ok {
		return nil, errors.Errorf("unknown example %q; expected one of %v", name, Names())
	}
	return f(), nil
}

// StoreLoop returns the available stores of x in
//
//	s0: x = 0
//	s1: while x < 10
//	s2:     x = x + 1
//	s3: return x
//
// where x0 and x2 denote the stores of s0 and s2.
func StoreLoop() *Problem {
	g := cfg.NewGraph()
	g.SetDOTID("storeloop")
	s0 := mustNode(g, "s0: x = 0", "s0")
	s1 := mustNode(g, "s1: while x < 10", "s1")
	s2 := mustNode(g, "s2: x = x + 1", "s2")
	s3 := mustNode(g, "s3: return x", "s3")
	g.Edge(s0, s1).Edge(s1, s2).Edge(s2, s3)
	g.Edge(s1, s3)
	g.Edge(s2, s1)

	p := New("storeloop", g, flow.MustUniverse("x0", "x2"))
	p.Initial = InitialUniverse
	p.DefGen(s0, "x0")
	p.DefKill(s0, "x2")
	p.DefGen(s2, "x2")
	p.DefKill(s2, "x0")
	return p
}

// Questionable returns the definitely assigned variables of
//
//	static void questionable() {
//		int k;
//		for (int i = 0; i < 10; ++i) {
//			if (someCondition(i)) {
//				k = 0;
//			} else {
//				k += i;
//			}
//		}
//		System.out.println(k);
//	}
//
// where k is not definitely assigned when printed.
func Questionable() *Problem {
	g := cfg.NewGraph()
	g.SetDOTID("questionable")
	nStart := mustNode(g, "start", "nStart")
	nA := mustNode(g, "int k;", "nA")
	nB := mustNode(g, "for (int i = 0;", "nB")
	nC := mustNode(g, "i < 10;", "nC")
	nD := mustNode(g, "if (someCondition(i))", "nD")
	nE := mustNode(g, "{ k = 0; }", "nE")
	nF := mustNode(g, "else { k += i; }", "nF")
	nG := mustNode(g, "++i) }", "nG")
	nH := mustNode(g, "System.out.println(k);", "nH")
	g.Edge(nStart, nA)
	g.Edge(nA, nB).Edge(nB, nC).Edge(nC, nD)
	g.Edge(nD, nE).Edge(nE, nG)
	g.Edge(nD, nF).Edge(nF, nG)
	// Loop exit and back edge.
	g.Edge(nC, nH)
	g.Edge(nG, nC)

	p := New("questionable", g, flow.MustUniverse("i", "k"))
	p.Initial = InitialUniverse
	p.DefGen(nB, "i")
	p.DefGen(nE, "k")
	p.DefGen(nF, "k")
	p.DefGen(nG, "i")
	return p
}

// mustNode adds a node to g, and panics if the label is already in use.
func mustNode(g *cfg.Graph, name, label string) *cfg.Node {
	n, err := g.AddNode(name, label)
	if err != nil {
		panic(err)
	}
	return n
}
