package stagraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The-OpenROAD-Project/stacore/collaborators"
	"github.com/The-OpenROAD-Project/stacore/stagraph"
)

func TestAddVertexIsIdempotentPerPinSide(t *testing.T) {
	g := stagraph.NewGraph()

	a1 := g.AddVertex("u1/A", false)
	a2 := g.AddVertex("u1/A", false)
	assert.Equal(t, a1, a2)

	y1 := g.AddVertex("u1/Y", true)
	y2 := g.AddVertex("u1/Y", false)
	assert.NotEqual(t, y1, y2, "driver and load side get distinct vertices")
}

func TestAddEdgeLinksIntrusiveLists(t *testing.T) {
	g := stagraph.NewGraph()
	a := g.AddVertex("u1/A", false)
	y := g.AddVertex("u1/Y", true)

	eid, err := g.AddEdge(a, y, []collaborators.TimingArc{{From: "A", To: "Y", Role: collaborators.RoleGate}})
	require.NoError(t, err)

	av, err := g.Vertex(a)
	require.NoError(t, err)
	assert.Contains(t, av.OutEdges(), eid)

	yv, err := g.Vertex(y)
	require.NoError(t, err)
	assert.Contains(t, yv.InEdges(), eid)
}

func TestLevelizeOrdersLevelsAboveAllPredecessors(t *testing.T) {
	g := stagraph.NewGraph()
	a := g.AddVertex("in", true)
	b := g.AddVertex("mid", true)
	c := g.AddVertex("out", false)

	_, err := g.AddEdge(a, b, []collaborators.TimingArc{{Role: collaborators.RoleWire}})
	require.NoError(t, err)
	_, err = g.AddEdge(b, c, []collaborators.TimingArc{{Role: collaborators.RoleWire}})
	require.NoError(t, err)

	require.NoError(t, g.Levelize())
	assert.True(t, g.LevelsValid())

	va, _ := g.Vertex(a)
	vb, _ := g.Vertex(b)
	vc, _ := g.Vertex(c)
	assert.Less(t, va.Level(), vb.Level())
	assert.Less(t, vb.Level(), vc.Level())
}

func TestLevelizeBreaksCombinationalLoop(t *testing.T) {
	g := stagraph.NewGraph()
	a := g.AddVertex("a", true)
	b := g.AddVertex("b", true)

	e1, err := g.AddEdge(a, b, []collaborators.TimingArc{{Role: collaborators.RoleGate}})
	require.NoError(t, err)
	e2, err := g.AddEdge(b, a, []collaborators.TimingArc{{Role: collaborators.RoleGate}})
	require.NoError(t, err)

	require.NoError(t, g.Levelize())

	edge1, _ := g.Edge(e1)
	edge2, _ := g.Edge(e2)
	brokenCount := 0
	if edge1.Disabled() {
		brokenCount++
	}
	if edge2.Disabled() {
		brokenCount++
	}
	assert.Equal(t, 1, brokenCount, "exactly one edge of the two-cycle is disabled")
}

func TestRemoveEdgeUnlinksEndpoints(t *testing.T) {
	g := stagraph.NewGraph()
	a := g.AddVertex("a", true)
	b := g.AddVertex("b", false)
	eid, err := g.AddEdge(a, b, []collaborators.TimingArc{{Role: collaborators.RoleWire}})
	require.NoError(t, err)

	require.NoError(t, g.RemoveEdge(eid))

	av, _ := g.Vertex(a)
	assert.NotContains(t, av.OutEdges(), eid)
	_, err = g.Edge(eid)
	assert.ErrorIs(t, err, stagraph.ErrEdgeNotFound)
}

func TestArcDelayAnnotationRoundTrip(t *testing.T) {
	g := stagraph.NewGraph(stagraph.WithAnalysisPoints([]stagraph.AnalysisPoint{{MinMax: stagraph.Max}, {MinMax: stagraph.Min}}))
	a := g.AddVertex("a", true)
	b := g.AddVertex("b", false)
	eid, err := g.AddEdge(a, b, []collaborators.TimingArc{{Role: collaborators.RoleGate}})
	require.NoError(t, err)

	e, _ := g.Edge(eid)
	require.NoError(t, e.SetArcDelay(0, 0, 0.5, false))
	assert.False(t, e.ArcDelayAnnotated(0, 0))

	require.NoError(t, e.SetArcDelay(0, 0, 0.9, true))
	assert.True(t, e.ArcDelayAnnotated(0, 0))

	// a non-annotated write must not clobber an annotated value
	require.NoError(t, e.SetArcDelay(0, 0, 0.1, false))
	got, err := e.ArcDelay(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.9, got)

	require.NoError(t, e.ClearAnnotation(0, 0))
	assert.False(t, e.ArcDelayAnnotated(0, 0))
}
