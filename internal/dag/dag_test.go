package dag_test

import (
	"testing"

	"github.com/ozmeta-labs/ozmeta/internal/dag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diamond builds a -> {b, c} -> d.
func diamond(t *testing.T) *dag.Graph {
	t.Helper()
	g := dag.New()
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("a", "c"))
	require.NoError(t, g.AddEdge("b", "d"))
	require.NoError(t, g.AddEdge("c", "d"))
	return g
}

func TestAddEdgeRejectsUnknownNodesAndSelfLoops(t *testing.T) {
	g := dag.New()
	g.AddNode("a")

	assert.ErrorContains(t, g.AddEdge("a", "ghost"), `child node "ghost" does not exist`)
	assert.ErrorContains(t, g.AddEdge("ghost", "a"), `parent node "ghost" does not exist`)
	assert.ErrorContains(t, g.AddEdge("a", "a"), "self-loop")
}

func TestAddNodeAndEdgeIdempotent(t *testing.T) {
	g := dag.New()
	g.AddNode("a")
	g.AddNode("a")
	g.AddNode("b")
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("a", "b"))

	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, []string{"b"}, g.Children("a"))
	assert.Equal(t, []string{"a"}, g.Parents("b"))
}

func TestTopologicalSortDeterministic(t *testing.T) {
	g := diamond(t)
	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, order)

	// Re-running yields identical output.
	again, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, order, again)
}

func TestHasCycleReportsPath(t *testing.T) {
	g := dag.New()
	for _, id := range []string{"x", "y", "z"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("x", "y"))
	require.NoError(t, g.AddEdge("y", "z"))
	require.NoError(t, g.AddEdge("z", "x"))

	cyclic, path := g.HasCycle()
	assert.True(t, cyclic)
	require.NotEmpty(t, path)
	assert.Equal(t, path[0], path[len(path)-1])

	_, err := g.TopologicalSort()
	assert.ErrorContains(t, err, "cycle detected")
}

func TestExecutionLevels(t *testing.T) {
	g := diamond(t)
	levels, err := g.ExecutionLevels()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a"}, {"b", "c"}, {"d"}}, levels)
}

func TestDownstreamAndUpstream(t *testing.T) {
	g := diamond(t)
	assert.Equal(t, []string{"b", "d"}, g.Downstream([]string{"b"}))
	assert.Equal(t, []string{"a", "b", "c"}, g.Upstream("d"))
	assert.Empty(t, g.Downstream([]string{"ghost"}))
}

func TestRootsAndLeaves(t *testing.T) {
	g := diamond(t)
	assert.Equal(t, []string{"a"}, g.Roots())
	assert.Equal(t, []string{"d"}, g.Leaves())
}
