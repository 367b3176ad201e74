package dag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, nodes []string, edges [][2]string) *Graph {
	t.Helper()
	g := New()
	for _, n := range nodes {
		g.AddNode(n)
	}
	for _, e := range edges {
		g.AddEdge(e[0], e[1])
	}
	return g
}

func TestAddNodeAndEdge(t *testing.T) {
	g := New()
	g.AddNode("a")
	g.AddNode("a") // idempotent
	g.AddNode("b")
	assert.Equal(t, 2, g.Len())

	g.AddEdge("a", "b")
	g.AddEdge("a", "b") // duplicate edge dedups
	assert.Equal(t, []string{"b"}, g.Successors("a"))
	assert.Equal(t, []string{"a"}, g.Predecessors("b"))

	// Malformed input is tolerated, not an error.
	g.AddEdge("a", "a")
	g.AddEdge("a", "ghost")
	g.AddEdge("ghost", "b")
	assert.Equal(t, []string{"b"}, g.Successors("a"))
	assert.Equal(t, []string{"a"}, g.Predecessors("b"))
}

func TestSortRespectsEdges(t *testing.T) {
	g := build(t,
		[]string{"a", "b", "c", "d", "e"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"a", "d"}, {"d", "e"}, {"c", "e"}},
	)
	res := g.Sort()
	require.Empty(t, res.Unsortable)
	require.Len(t, res.Order, 5)

	pos := map[string]int{}
	for i, id := range res.Order {
		pos[id] = i
	}
	for _, e := range [][2]string{{"a", "b"}, {"b", "c"}, {"a", "d"}, {"d", "e"}, {"c", "e"}} {
		assert.Less(t, pos[e[0]], pos[e[1]], "%s must precede %s", e[0], e[1])
	}
}

func TestSortDiamond(t *testing.T) {
	g := build(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}},
	)
	res := g.Sort()
	require.Len(t, res.Order, 4)
	assert.Equal(t, "a", res.Order[0])
	assert.Equal(t, "d", res.Order[3])
}

func TestSortIsDeterministic(t *testing.T) {
	g := build(t, []string{"z", "m", "a"}, nil)
	for i := 0; i < 10; i++ {
		assert.Equal(t, []string{"z", "m", "a"}, g.Sort().Order)
	}
}

func TestSortReportsCycleParticipants(t *testing.T) {
	g := build(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "b"}, {"c", "d"}},
	)
	res := g.Sort()
	assert.Equal(t, []string{"a"}, res.Order)
	// The cycle and everything transitively dependent on it is reported.
	assert.ElementsMatch(t, []string{"b", "c", "d"}, res.Unsortable)
}

func TestSortSubsetIgnoresOutsideDeps(t *testing.T) {
	g := build(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}},
	)
	// "c" depends on "b" which is outside the subset: not waited on.
	res := g.SortSubset([]string{"c", "d"})
	require.Empty(t, res.Unsortable)
	assert.Equal(t, []string{"c", "d"}, res.Order)
}

func TestSortTolerantBreaksCycles(t *testing.T) {
	g := build(t,
		[]string{"a", "b", "c"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "b"}},
	)
	order := g.SortTolerant(context.Background(), []string{"a", "b", "c"})
	require.Len(t, order, 3)
	assert.Equal(t, "a", order[0])
}

func TestDownstreamUpstream(t *testing.T) {
	g := build(t,
		[]string{"a", "b", "c", "d", "x"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"b", "d"}},
	)

	assert.ElementsMatch(t, []string{"b", "c", "d"}, g.Downstream("b"))
	assert.ElementsMatch(t, []string{"c", "b", "a"}, g.Upstream("c"))
	assert.Equal(t, []string{"x"}, g.Downstream("x"))
	assert.Nil(t, g.Downstream("ghost"))
}

func TestLayers(t *testing.T) {
	g := build(t,
		[]string{"a", "b", "c", "d"},
		[][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}},
	)
	layers := g.Layers()
	require.Len(t, layers, 3)
	assert.Equal(t, []string{"a"}, layers[0])
	assert.ElementsMatch(t, []string{"b", "c"}, layers[1])
	assert.Equal(t, []string{"d"}, layers[2])
}
