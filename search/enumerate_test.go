package search_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The-OpenROAD-Project/stacore/collaborators"
	"github.com/The-OpenROAD-Project/stacore/search"
	"github.com/The-OpenROAD-Project/stacore/stagraph"
	"github.com/The-OpenROAD-Project/stacore/tagdb"
)

func TestEnumerateKBestPicksWorstAlternatives(t *testing.T) {
	g := stagraph.NewGraph()
	a := g.AddVertex("a", true)
	b := g.AddVertex("b", false)
	eid, err := g.AddEdge(a, b, []collaborators.TimingArc{{Role: collaborators.RoleWire}})
	require.NoError(t, err)

	av, _ := g.Vertex(a)
	av.MakePaths(1)
	av.SetPath(0, stagraph.Path{Vertex: a})

	bv, _ := g.Vertex(b)
	bv.MakePaths(3)
	bv.SetPath(0, stagraph.Path{Vertex: b, TagIndex: 0, PrevEdge: eid, PrevVertex: a, PrevTag: 0, Slack: -1.0})
	bv.SetPath(1, stagraph.Path{Vertex: b, TagIndex: 1, PrevEdge: eid, PrevVertex: a, PrevTag: 0, Slack: 0.5})
	bv.SetPath(2, stagraph.Path{Vertex: b, TagIndex: 2, PrevEdge: eid, PrevVertex: a, PrevTag: 0, Slack: -0.3})

	db := tagdb.New()

	out, err := search.EnumerateKBest(g, db, b, 0, stagraph.Max, 2, false)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, -1.0, out[0].Slack, "primary path is the caller-supplied best")
	assert.Equal(t, -0.3, out[1].Slack, "second worst alternative among siblings beats the better 0.5 one")
	assert.True(t, out[1].IsEnum)
	assert.False(t, out[0].IsEnum, "the primary path itself is never marked as an enumeration alternative")
}

func TestEnumerateKBestStopsWhenExhausted(t *testing.T) {
	g := stagraph.NewGraph()
	b := g.AddVertex("b", false)
	bv, _ := g.Vertex(b)
	bv.MakePaths(1)
	bv.SetPath(0, stagraph.Path{Vertex: b, Slack: 1.0})

	db := tagdb.New()

	out, err := search.EnumerateKBest(g, db, b, 0, stagraph.Max, 5, false)
	require.NoError(t, err)
	assert.Len(t, out, 1, "no siblings exist, so enumeration cannot manufacture more than the primary path")
}
