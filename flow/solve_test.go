package flow

import (
	"bytes"
	"context"
	"testing"

	"github.com/graphism/dataflow/cfg"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeLoop returns the control flow graph of
//
//	s0: x = 0
//	s1: while x < 10
//	s2:     x = x + 1
//	s3: return x
//
// with the stores of x as universe, and out sets defaulting to initial.
func storeLoop(t *testing.T, initial func(u *Universe) Set) (*cfg.Graph, *System) {
	g := cfg.NewGraph()
	s0, _ := g.AddNode("s0: x = 0", "s0")
	s1, _ := g.AddNode("s1: while x < 10", "s1")
	s2, _ := g.AddNode("s2: x = x + 1", "s2")
	s3, _ := g.AddNode("s3: return x", "s3")
	g.Edge(s0, s1).Edge(s1, s2).Edge(s2, s3)
	g.Edge(s1, s3)
	g.Edge(s2, s1)
	return g, storeLoopSystem(t, g, initial)
}

// storeLoopSystem returns the gen and kill sets of the stores of x.
func storeLoopSystem(t *testing.T, g *cfg.Graph, initial func(u *Universe) Set) *System {
	u := MustUniverse("x0", "x2")
	sys, err := NewSystem(u, initial(u))
	require.NoError(t, err)
	s0, err := g.FindNode("s0")
	require.NoError(t, err)
	s2, err := g.FindNode("s2")
	require.NoError(t, err)
	require.NoError(t, sys.DefGen(s0, "x0"))
	require.NoError(t, sys.DefKill(s0, "x2"))
	require.NoError(t, sys.DefGen(s2, "x2"))
	require.NoError(t, sys.DefKill(s2, "x0"))
	return sys
}

func empty(u *Universe) Set { return u.Empty() }

func full(u *Universe) Set { return u.Full() }

func outs(g *cfg.Graph, sys *System) map[string][]string {
	m := make(map[string][]string)
	for _, n := range g.Nodes() {
		m[n.Label()] = sys.Out(n).Elements()
	}
	return m
}

func TestSolveStoreLoop(t *testing.T) {
	golden := []struct {
		name    string
		initial func(u *Universe) Set
		passes  int
	}{
		{name: "empty", initial: empty, passes: 2},
		{name: "universe", initial: full, passes: 3},
	}
	want := map[string][]string{
		"s0": {"x0"},
		"s1": {},
		"s2": {"x2"},
		"s3": {},
	}
	for _, gold := range golden {
		g, sys := storeLoop(t, gold.initial)
		passes := Solve(g, sys, Forward)
		assert.Equal(t, gold.passes, passes, "%s; pass count mismatch", gold.name)
		assert.Equal(t, want, outs(g, sys), "%s; out sets mismatch", gold.name)
		require.NoError(t, sys.Validate())
	}
}

func TestReport(t *testing.T) {
	g, sys := storeLoop(t, full)
	Solve(g, sys, Forward)
	want := "s0: x = 0\tgen={x0}\tkill={x2}\tout={x0}\n" +
		"s1: while x < 10\tgen={}\tkill={}\tout={}\n" +
		"s2: x = x + 1\tgen={x2}\tkill={x0}\tout={x2}\n" +
		"s3: return x\tgen={}\tkill={}\tout={}"
	assert.Equal(t, want, sys.Report(g))
}

func TestReportNodeOrder(t *testing.T) {
	g := cfg.NewGraph()
	c, _ := g.AddNode("c", "")
	a, _ := g.AddNode("a", "")
	b, _ := g.AddNode("b", "")
	g.Edge(a, b).Edge(b, c).Edge(c, a)
	sys, err := NewSystem(MustUniverse("v"), Set{})
	require.NoError(t, err)
	want := "c\tgen={}\tkill={}\tout={}\n" +
		"a\tgen={}\tkill={}\tout={}\n" +
		"b\tgen={}\tkill={}\tout={}"
	assert.Equal(t, want, sys.Report(g))
}

func TestMeetWithoutNeighbors(t *testing.T) {
	g := cfg.NewGraph()
	src, _ := g.AddNode("src", "")
	dst, _ := g.AddNode("dst", "")
	g.Edge(src, dst)
	u := MustUniverse("a", "b")
	sys, err := NewSystem(u, u.Full())
	require.NoError(t, err)
	require.NoError(t, sys.DefGen(src, "b"))

	assert.True(t, Meet(sys, src.Preds()).IsEmpty())
	Solve(g, sys, Forward)
	assert.Equal(t, []string{"b"}, sys.Out(src).Elements())
	assert.True(t, sys.Out(src).Equal(sys.Gen(src)))
	assert.Equal(t, []string{"b"}, sys.Out(dst).Elements())
}

func TestTransfer(t *testing.T) {
	g := cfg.NewGraph()
	p, _ := g.AddNode("p", "")
	n, _ := g.AddNode("n", "")
	g.Edge(p, n)
	u := MustUniverse("x0", "x2")
	sys, err := NewSystem(u, u.Empty())
	require.NoError(t, err)
	require.NoError(t, sys.SetOut(p, u.MustSet("x0")))
	require.NoError(t, sys.DefGen(n, "x2"))
	require.NoError(t, sys.DefKill(n, "x0"))

	meet := Meet(sys, n.Preds())
	assert.Equal(t, []string{"x0"}, meet.Elements())
	assert.Equal(t, []string{"x2"}, Transfer(sys, n, meet).Elements())
}

func TestTransferGenWins(t *testing.T) {
	g := cfg.NewGraph()
	n, _ := g.AddNode("n", "")
	u := MustUniverse("a")
	sys, err := NewSystem(u, u.Empty())
	require.NoError(t, err)
	require.NoError(t, sys.DefGen(n, "a"))
	require.NoError(t, sys.DefKill(n, "a"))
	assert.Equal(t, []string{"a"}, Transfer(sys, n, u.Full()).Elements())
}

func TestMeetOrderIndependent(t *testing.T) {
	g := cfg.NewGraph()
	p1, _ := g.AddNode("p1", "")
	p2, _ := g.AddNode("p2", "")
	p3, _ := g.AddNode("p3", "")
	u := MustUniverse("a", "b", "c")
	sys, err := NewSystem(u, u.Empty())
	require.NoError(t, err)
	require.NoError(t, sys.SetOut(p1, u.MustSet("a", "b")))
	require.NoError(t, sys.SetOut(p2, u.MustSet("b", "c")))
	require.NoError(t, sys.SetOut(p3, u.MustSet("b")))

	orders := [][]*cfg.Node{
		{p1, p2, p3},
		{p1, p3, p2},
		{p2, p1, p3},
		{p2, p3, p1},
		{p3, p1, p2},
		{p3, p2, p1},
	}
	for _, order := range orders {
		assert.Equal(t, []string{"b"}, Meet(sys, order).Elements(), "%v; meet mismatch", order)
	}
}

func TestFixedPointIdempotent(t *testing.T) {
	g, sys := storeLoop(t, full)
	Solve(g, sys, Forward)
	before := outs(g, sys)
	for i := 0; i < 3; i++ {
		assert.False(t, Step(g, sys, Forward))
		assert.Equal(t, before, outs(g, sys))
	}
}

func TestMonotoneConvergence(t *testing.T) {
	g, sys := storeLoop(t, full)
	u := sys.Universe()
	bound := u.Len()*g.Len() + 1
	prev := make(map[*cfg.Node]Set)
	for _, n := range g.Nodes() {
		prev[n] = sys.Out(n)
	}
	passes := 0
	for {
		passes++
		require.LessOrEqual(t, passes, bound, "no fixed point within %d passes", bound)
		changed := Step(g, sys, Forward)
		for _, n := range g.Nodes() {
			cur := sys.Out(n)
			assert.True(t, cur.SubsetOf(prev[n]), "%q; out grew from %v to %v", n, prev[n], cur)
			prev[n] = cur
		}
		if !changed {
			break
		}
	}
}

func TestBackward(t *testing.T) {
	g := cfg.NewGraph()
	a, _ := g.AddNode("a", "a")
	b, _ := g.AddNode("b", "b")
	c, _ := g.AddNode("c", "c")
	d, _ := g.AddNode("d", "d")
	g.Edge(a, b).Edge(b, c).Edge(a, d)
	u := MustUniverse("x", "y")
	sys, err := NewSystem(u, u.Empty())
	require.NoError(t, err)
	require.NoError(t, sys.DefGen(c, "x"))
	require.NoError(t, sys.DefGen(d, "x", "y"))
	require.NoError(t, sys.DefKill(b, "y"))

	Solve(g, sys, Backward)
	want := map[string][]string{
		"a": {"x"},
		"b": {"x"},
		"c": {"x"},
		"d": {"x", "y"},
	}
	assert.Equal(t, want, outs(g, sys))
}

func TestSolveContextCanceled(t *testing.T) {
	g, sys := storeLoop(t, full)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	passes, err := NewSolver(Forward).SolveContext(ctx, g, sys)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, passes)
	s1, _ := g.FindNode("s1")
	assert.True(t, sys.Out(s1).Equal(sys.Universe().Full()))
}

func TestSolverLog(t *testing.T) {
	var buf bytes.Buffer
	g, sys := storeLoop(t, empty)
	sv := NewSolver(Forward)
	sv.Log = zerolog.New(&buf).Level(zerolog.DebugLevel)
	sv.Solve(g, sys)
	assert.Contains(t, buf.String(), `"message":"reached fixed point"`)
	assert.Contains(t, buf.String(), `"node":"s2: x = x + 1"`)
}

func TestParseDirection(t *testing.T) {
	golden := []struct {
		in   string
		want Direction
	}{
		{in: "forward", want: Forward},
		{in: "Backward", want: Backward},
		{in: "bwd", want: Backward},
	}
	for _, gold := range golden {
		got, err := ParseDirection(gold.in)
		require.NoError(t, err)
		assert.Equal(t, gold.want, got, "%q; direction mismatch", gold.in)
	}
	_, err := ParseDirection("sideways")
	assert.Error(t, err)
	assert.Equal(t, "backward", Backward.String())
}

func TestUniverseViolation(t *testing.T) {
	g := cfg.NewGraph()
	n, _ := g.AddNode("n", "")
	u := MustUniverse("a")
	sys, err := NewSystem(u, u.Empty())
	require.NoError(t, err)

	require.ErrorIs(t, sys.DefGen(n, "b"), ErrUniverseViolation)
	require.ErrorIs(t, sys.DefKill(n, "a", "b"), ErrUniverseViolation)
	other := MustUniverse("a")
	require.ErrorIs(t, sys.SetOut(n, other.Full()), ErrUniverseViolation)
	_, err = NewSystem(u, other.Full())
	require.ErrorIs(t, err, ErrUniverseViolation)

	sys.OutProperty().Set(n, other.Full())
	require.ErrorIs(t, sys.Validate(), ErrUniverseViolation)
}

func TestDefOverwrite(t *testing.T) {
	g := cfg.NewGraph()
	n, _ := g.AddNode("n", "")
	u := MustUniverse("a", "b")
	sys, err := NewSystem(u, u.Empty())
	require.NoError(t, err)
	require.NoError(t, sys.DefGen(n, "a"))
	require.NoError(t, sys.DefGen(n, "b"))
	assert.Equal(t, []string{"b"}, sys.Gen(n).Elements())
	require.NoError(t, sys.DefKill(n, "a", "b"))
	require.NoError(t, sys.DefKill(n))
	assert.True(t, sys.Kill(n).IsEmpty())

	assert.Equal(t, "gen", sys.GenProperty().Name())
	assert.Equal(t, "kill", sys.KillProperty().Name())
	gen := sys.GenProperty().Values()
	require.Len(t, gen, 1)
	assert.Equal(t, []string{"b"}, gen[n].Elements())
	kill := sys.KillProperty().Values()
	require.Len(t, kill, 1)
	assert.True(t, kill[n].IsEmpty())
	assert.True(t, sys.KillProperty().Default().IsEmpty())

	require.NoError(t, sys.SetOut(n, u.Full()))
	sys.Reset()
	assert.True(t, sys.Out(n).IsEmpty())
	assert.Equal(t, []string{"b"}, sys.Gen(n).Elements())
	assert.Len(t, sys.GenProperty().Values(), 1)
}

func TestStepRecordsOut(t *testing.T) {
	g, sys := storeLoop(t, empty)
	require.True(t, NewSolver(Forward).Step(g, sys))
	vals := sys.OutProperty().Values()
	got := make(map[string][]string)
	for n, v := range vals {
		assert.Same(t, sys.Universe(), v.Universe(), "%q; universe mismatch", n.Label())
		got[n.Label()] = v.Elements()
	}
	// s1 and s3 keep their initial out set and are not recorded.
	want := map[string][]string{
		"s0": {"x0"},
		"s2": {"x2"},
	}
	assert.Equal(t, want, got)
	assert.NoError(t, sys.Validate())
}
