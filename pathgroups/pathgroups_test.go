package pathgroups_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The-OpenROAD-Project/stacore/collaborators"
	"github.com/The-OpenROAD-Project/stacore/pathgroups"
	"github.com/The-OpenROAD-Project/stacore/stagraph"
)

func TestAssignGroupPriority(t *testing.T) {
	clockPE := pathgroups.PathEnd{Class: pathgroups.ClassSetup, SourceClock: "clk"}
	assert.Equal(t, "clk", pathgroups.AssignGroup(clockPE, "", false))

	asyncPE := pathgroups.PathEnd{Class: pathgroups.ClassRecovery, SourceClock: "clk"}
	assert.Equal(t, pathgroups.GroupAsynchronous, pathgroups.AssignGroup(asyncPE, "", false))

	gatePE := pathgroups.PathEnd{Class: pathgroups.ClassGatedClockHold, SourceClock: "clk"}
	assert.Equal(t, pathgroups.GroupClockGating, pathgroups.AssignGroup(gatePE, "", false))

	unconPE := pathgroups.PathEnd{Class: pathgroups.ClassUnconstrained}
	assert.Equal(t, pathgroups.GroupUnconstrained, pathgroups.AssignGroup(unconPE, "", false))

	// a user group_path exception outranks every other rule, even the
	// asynchronous/clock_gating classification.
	assert.Equal(t, "my_group", pathgroups.AssignGroup(asyncPE, "my_group", true))
}

func TestBuildRanksWorstSlackFirst(t *testing.T) {
	ends := pathEndMax(t)

	byGroup := pathgroups.Build(ends, pathgroups.Options{})
	group := byGroup["clk"]
	require.Len(t, group, 3)
	// Max analysis: smaller slack is worse and must sort first.
	assert.Equal(t, -1.0, group[0].Slack())
	assert.Equal(t, 0.5, group[1].Slack())
	assert.Equal(t, 2.0, group[2].Slack())
}

func TestBuildPrunesGroupPathCount(t *testing.T) {
	ends := pathEndMax(t)

	byGroup := pathgroups.Build(ends, pathgroups.Options{GroupPathCount: 1})
	assert.Len(t, byGroup["clk"], 1)
	assert.Equal(t, -1.0, byGroup["clk"][0].Slack())
}

func TestBuildPrunesEndpointPathCount(t *testing.T) {
	v := stagraph.VertexID(1)
	ends := []pathgroups.PathEnd{
		{Vertex: v, Group: "clk", MinMax: stagraph.Max, Path: stagraph.Path{Slack: -1}},
		{Vertex: v, Group: "clk", MinMax: stagraph.Max, Path: stagraph.Path{Slack: -0.5}},
		{Vertex: stagraph.VertexID(2), Group: "clk", MinMax: stagraph.Max, Path: stagraph.Path{Slack: -0.2}},
	}

	byGroup := pathgroups.Build(ends, pathgroups.Options{EndpointPathCount: 1})
	require.Len(t, byGroup["clk"], 2)
	assert.Equal(t, v, byGroup["clk"][0].Vertex)
	assert.Equal(t, stagraph.VertexID(2), byGroup["clk"][1].Vertex)
}

func TestBuildUniquePinsCollapsesRiseFall(t *testing.T) {
	v := stagraph.VertexID(5)
	ends := []pathgroups.PathEnd{
		{Vertex: v, Group: "clk", MinMax: stagraph.Max, Path: stagraph.Path{RF: stagraph.Rise, Slack: 1.0}},
		{Vertex: v, Group: "clk", MinMax: stagraph.Max, Path: stagraph.Path{RF: stagraph.Fall, Slack: -0.3}},
	}

	byGroup := pathgroups.Build(ends, pathgroups.Options{UniquePins: true})
	require.Len(t, byGroup["clk"], 1)
	assert.Equal(t, -0.3, byGroup["clk"][0].Slack())
}

func TestBuildUniqueEdgesCollapsesSamePathDifferentRF(t *testing.T) {
	g := stagraph.NewGraph()
	a := g.AddVertex("a", true)
	b := g.AddVertex("b", false)
	eid, err := g.AddEdge(a, b, []collaborators.TimingArc{{Role: collaborators.RoleWire}})
	require.NoError(t, err)

	g.AddVertex("b", true) // ensure b has a driver-side sibling, unused here

	av, _ := g.Vertex(a)
	av.MakePaths(1)
	av.SetPath(0, stagraph.Path{Vertex: a, Arrival: 0})

	bv, _ := g.Vertex(b)
	bv.MakePaths(2)
	bv.SetPath(0, stagraph.Path{Vertex: b, RF: stagraph.Rise, PrevEdge: eid, PrevVertex: a, PrevTag: 0, Slack: 1.0})
	bv.SetPath(1, stagraph.Path{Vertex: b, RF: stagraph.Fall, PrevEdge: eid, PrevVertex: a, PrevTag: 0, Slack: -0.4})

	ends := []pathgroups.PathEnd{
		{Vertex: b, TagPos: 0, Group: "clk", MinMax: stagraph.Max, Path: bv.Paths()[0]},
		{Vertex: b, TagPos: 1, Group: "clk", MinMax: stagraph.Max, Path: bv.Paths()[1]},
	}

	byGroup := pathgroups.Build(ends, pathgroups.Options{UniqueEdges: true, Graph: g})
	require.Len(t, byGroup["clk"], 1)
	assert.Equal(t, -0.4, byGroup["clk"][0].Slack())
}

// pathEndMax builds three setup (Max-analysis) PathEnds in the "clk"
// group with slacks 2.0, -1.0, 0.5, in deliberately scrambled order.
func pathEndMax(t *testing.T) []pathgroups.PathEnd {
	t.Helper()

	return []pathgroups.PathEnd{
		{Vertex: 1, Group: "clk", MinMax: stagraph.Max, Path: stagraph.Path{Slack: 2.0}},
		{Vertex: 2, Group: "clk", MinMax: stagraph.Max, Path: stagraph.Path{Slack: -1.0}},
		{Vertex: 3, Group: "clk", MinMax: stagraph.Max, Path: stagraph.Path{Slack: 0.5}},
	}
}
