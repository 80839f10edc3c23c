package crpr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The-OpenROAD-Project/stacore/crpr"
	"github.com/The-OpenROAD-Project/stacore/stagraph"
	"github.com/The-OpenROAD-Project/stacore/tagdb"
)

// TestCreditIsMaxMinSpreadOverSharedBuffers reproduces spec.md §8
// scenario 5: launch and capture share two clock-tree buffers, each
// with a 0.1/0.12 min/max delay spread, so the common-ancestor credit
// is the accumulated variability over the shared prefix,
// 2*(0.12-0.1) = 0.04 — not the smaller of the two raw arrivals.
func TestCreditIsMaxMinSpreadOverSharedBuffers(t *testing.T) {
	g := stagraph.NewGraph()
	src := g.AddVertex("clk_src", true)
	buf1 := g.AddVertex("buf1/Y", true)
	buf2 := g.AddVertex("buf2/Y", true)
	launchEp := g.AddVertex("ff1/CK", false)
	captureEp := g.AddVertex("ff2/CK", false)

	tags := tagdb.New()
	clk := tags.InternClkInfo(tagdb.ClkInfo{ClockName: "clk"})
	tagMax := tags.InternTag(tagdb.Tag{APIndex: 0, IsClockPath: true, ClkInfoIdx: clk})
	tagMin := tags.InternTag(tagdb.Tag{APIndex: 1, IsClockPath: true, ClkInfoIdx: clk})
	sharedGroup := tags.InternTagGroup([]int{tagMax, tagMin})
	launchGroup := tags.InternTagGroup([]int{tagMax})
	captureGroup := tags.InternTagGroup([]int{tagMin})

	for _, vid := range []stagraph.VertexID{src, buf1, buf2} {
		v, err := g.Vertex(vid)
		require.NoError(t, err)
		v.SetTagGroupIndex(sharedGroup)
		v.MakePaths(2)
	}

	// Max leg (pos 0): each buffer costs 0.12. Min leg (pos 1): each
	// buffer costs 0.1. Both legs fan out from the same clock source.
	srcV, _ := g.Vertex(src)
	srcV.SetPath(0, stagraph.Path{Vertex: src, TagIndex: 0, Arrival: 0})
	srcV.SetPath(1, stagraph.Path{Vertex: src, TagIndex: 1, Arrival: 0})

	buf1V, _ := g.Vertex(buf1)
	buf1V.SetPath(0, stagraph.Path{Vertex: buf1, TagIndex: 0, Arrival: 0.12, PrevVertex: src, PrevTag: 0, PrevEdge: 1})
	buf1V.SetPath(1, stagraph.Path{Vertex: buf1, TagIndex: 1, Arrival: 0.1, PrevVertex: src, PrevTag: 1, PrevEdge: 1})

	buf2V, _ := g.Vertex(buf2)
	buf2V.SetPath(0, stagraph.Path{Vertex: buf2, TagIndex: 0, Arrival: 0.24, PrevVertex: buf1, PrevTag: 0, PrevEdge: 2})
	buf2V.SetPath(1, stagraph.Path{Vertex: buf2, TagIndex: 1, Arrival: 0.2, PrevVertex: buf1, PrevTag: 1, PrevEdge: 2})

	launchV, err := g.Vertex(launchEp)
	require.NoError(t, err)
	launchV.SetTagGroupIndex(launchGroup)
	launchV.MakePaths(1)
	launchV.SetPath(0, stagraph.Path{Vertex: launchEp, TagIndex: 0, Arrival: 0.29, PrevVertex: buf2, PrevTag: 0, PrevEdge: 3})

	captureV, err := g.Vertex(captureEp)
	require.NoError(t, err)
	captureV.SetTagGroupIndex(captureGroup)
	captureV.MakePaths(1)
	captureV.SetPath(0, stagraph.Path{Vertex: captureEp, TagIndex: 0, Arrival: 0.23, PrevVertex: buf2, PrevTag: 1, PrevEdge: 4})

	r := crpr.Resolver{Graph: g, Tags: tags, Mode: crpr.ModeExact}

	launchPath, ok := launchV.Path(0)
	require.True(t, ok)
	capturePath, ok := captureV.Path(0)
	require.True(t, ok)

	credit, found := r.Credit(launchPath, capturePath)
	require.True(t, found, "launch and capture share buf1/buf2 on their clock path")
	assert.InDelta(t, 0.04, credit, 1e-9,
		"credit is the max-min delay spread accumulated over the two shared buffers")
}

func TestModeDisabledNeverCredits(t *testing.T) {
	r := crpr.Resolver{Mode: crpr.ModeDisabled}
	_, ok := r.Credit(stagraph.Path{}, stagraph.Path{})
	assert.False(t, ok)
}
