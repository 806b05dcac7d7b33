package flow

import (
	"testing"

	"github.com/graphism/dataflow/cfg"
	"github.com/stretchr/testify/assert"
)

func TestUnreachable(t *testing.T) {
	g := cfg.NewGraph()
	entry, _ := g.AddNode("entry", "")
	loop, _ := g.AddNode("loop", "")
	dead, _ := g.AddNode("dead", "")
	exit, _ := g.AddNode("exit", "")
	island, _ := g.AddNode("island", "")
	g.Edge(entry, loop).Edge(loop, loop).Edge(loop, exit).Edge(dead, exit)

	assert.Equal(t, []*cfg.Node{dead, island}, Unreachable(g, g.Entry()))
	assert.Equal(t, []*cfg.Node{entry, loop, island}, Unreachable(g, dead))
	assert.Nil(t, Unreachable(cfg.NewGraph(), nil))

	g2, _ := storeLoop(t, empty)
	assert.Empty(t, Unreachable(g2, g2.Entry()))
}
