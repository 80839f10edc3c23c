// Package crpr computes the clock-reconvergence-pessimism-removal
// credit for a (launch, capture) path pair (spec.md §4.5 CRPR): the
// portion of clock-path delay common to both the launching and
// capturing clock trees, which must not be double-counted as
// pessimism in the setup/hold check.
//
// Grounded on the common-ancestor-by-walking-back-a-parent-chain
// pattern the DFS cycle detector uses to find an already-visited
// vertex on the current recursion stack, generalized here from a DFS
// call stack to stagraph.Path's prev-path linked list.
package crpr

import (
	"github.com/The-OpenROAD-Project/stacore/stagraph"
	"github.com/The-OpenROAD-Project/stacore/tagdb"
)

// Mode selects how precisely CRPR is computed (spec.md §4.5 "CRPR may
// be disabled, approximate, or exact per configuration").
type Mode int

const (
	ModeExact Mode = iota
	ModeApproximate
	ModeDisabled
)

// Resolver finds a Path given its (vertex, tag) coordinates, and a
// Tag given its intern index — the minimal surface CRPR needs from
// whatever owns the vertex/tag tables (stagraph.Graph + tagdb.DB).
type Resolver struct {
	Graph *stagraph.Graph
	Tags  *tagdb.DB
	Mode  Mode
}

// Credit returns the shared-clock-path delay variability between the
// launch and capture Path chains (spec.md §4.5 line 139): at their
// common clock-path ancestor vertex, the launch leg carries that
// vertex's Max-analysis arrival and the capture leg carries its
// Min-analysis arrival (or vice versa) over the identical physical
// buffers, and the credit is the magnitude of that max-min spread —
// the portion of on-chip variation the setup/hold check would
// otherwise double-count as pessimism on a path segment both legs
// share. ok is false if Mode is ModeDisabled or no common ancestor was
// found (paths launched from different, unrelated clock trees).
func (r Resolver) Credit(launch, capture stagraph.Path) (credit float64, ok bool) {
	if r.Mode == ModeDisabled {
		return 0, false
	}
	launchTag, lok := r.globalTag(launch)
	captureTag, cok := r.globalTag(capture)
	if !lok || !cok || !r.Tags.MatchCRPRClkPin(launchTag, captureTag) {
		return 0, false
	}

	_, launchArrival, captureArrival, found := r.commonAncestor(launch, capture)
	if !found {
		return 0, false
	}

	return absFloat(launchArrival - captureArrival), true
}

// commonAncestor walks both chains back to their clock-path origin,
// recording every (vertex, arrival) pair visited, then returns the
// deepest vertex present in both chains along with each chain's
// arrival at that vertex.
func (r Resolver) commonAncestor(launch, capture stagraph.Path) (vertex stagraph.VertexID, launchArr, captureArr float64, found bool) {
	launchChain := r.walkClockPath(launch)
	captureChain := r.walkClockPath(capture)

	captureByVertex := make(map[stagraph.VertexID]float64, len(captureChain))
	for _, step := range captureChain {
		captureByVertex[step.vertex] = step.arrival
	}

	// launchChain is ordered from the endpoint back to the clock
	// source; the first vertex also present in captureChain is the
	// deepest (closest-to-endpoint) common ancestor.
	for _, step := range launchChain {
		if capArr, ok := captureByVertex[step.vertex]; ok {
			return step.vertex, step.arrival, capArr, true
		}
	}

	return 0, 0, 0, false
}

type pathStep struct {
	vertex  stagraph.VertexID
	arrival float64
}

// walkClockPath follows Path.PrevVertex/PrevEdge back from p until it
// reaches a path-origin record (no predecessor), the clock-path prefix
// CRPR compares between launch and capture.
func (r Resolver) walkClockPath(p stagraph.Path) []pathStep {
	var chain []pathStep
	cur := p
	curVertex := p.Vertex
	for {
		chain = append(chain, pathStep{vertex: curVertex, arrival: cur.Arrival})
		if !cur.HasPrev() {
			return chain
		}

		prevV, err := r.Graph.Vertex(cur.PrevVertex)
		if err != nil {
			return chain
		}
		prevPath, ok := prevV.Path(cur.PrevTag)
		if !ok {
			return chain
		}
		curVertex = cur.PrevVertex
		cur = prevPath
	}
}

// globalTag resolves p's vertex-local TagIndex to a global tagdb.Tag
// intern index via the owning vertex's current TagGroup (spec.md §3:
// "the i-th path at this vertex has tag group_tags[i]").
func (r Resolver) globalTag(p stagraph.Path) (int, bool) {
	v, err := r.Graph.Vertex(p.Vertex)
	if err != nil {
		return 0, false
	}
	tags := r.Tags.GroupTags(v.TagGroupIndex())
	if p.TagIndex < 0 || p.TagIndex >= len(tags) {
		return 0, false
	}

	return tags[p.TagIndex], true
}

func absFloat(a float64) float64 {
	if a < 0 {
		return -a
	}

	return a
}
