// Package pathgroups turns endpoint arrivals/requireds into ranked
// PathEnd objects grouped by clock or user group (spec.md §4.8): one
// PathEnd per endpoint-path, classified, assigned to a group by the
// fixed priority rule, ranked by slack within its group, and pruned by
// group_path_count/endpoint_path_count/unique_pins/unique_edges.
//
// Ranking reuses the teacher's sort.Slice-over-collected-keys idiom
// (core/methods.go); golang.org/x/exp/slices is used only for
// slices.Reverse when building unique-edges chain keys.
package pathgroups

import (
	"sort"

	"golang.org/x/exp/slices"

	"github.com/The-OpenROAD-Project/stacore/collaborators"
	"github.com/The-OpenROAD-Project/stacore/stagraph"
)

// Classification names the kind of check a PathEnd terminates
// (spec.md §3 PathEnd).
type Classification int

const (
	ClassSetup Classification = iota
	ClassHold
	ClassRecovery
	ClassRemoval
	ClassGatedClockSetup
	ClassGatedClockHold
	ClassPathDelay
	ClassOutputDelay
	ClassUnconstrained
)

// Group names for the fixed-priority grouping rule (spec.md §4.8).
const (
	GroupAsynchronous  = "asynchronous"
	GroupClockGating   = "clock_gating"
	GroupUnconstrained = "unconstrained"
)

// PathEnd is one endpoint's one path, classified and slotted into a
// reporting group (spec.md §3 PathEnd).
type PathEnd struct {
	Vertex         stagraph.VertexID
	TagPos         int
	Path           stagraph.Path
	Class          Classification
	SourceClock    string // launching clock name, "" if unclocked/unconstrained
	TargetClock    string // capturing clock name, "" if not a check
	Margin         float64
	GoverningExc   string // exception name/kind governing this check, "" if none
	Group          string
	MinMax         stagraph.MinMax
}

// Slack returns the PathEnd's slack (Required - Arrival for Max,
// Arrival - Required for Min), as already computed onto Path.Slack by
// the required search.
func (pe PathEnd) Slack() float64 { return pe.Path.Slack }

// AssignGroup implements spec.md §4.8's priority rule: a user
// group_path exception wins, then asynchronous/clock_gating/
// unconstrained by classification, else the launching clock's name.
func AssignGroup(pe PathEnd, userGroup string, ok bool) string {
	if ok && userGroup != "" {
		return userGroup
	}
	switch pe.Class {
	case ClassRecovery, ClassRemoval:
		return GroupAsynchronous
	case ClassGatedClockSetup, ClassGatedClockHold:
		return GroupClockGating
	case ClassUnconstrained:
		return GroupUnconstrained
	default:
		return pe.SourceClock
	}
}

// Options configures Build's pruning/ranking behavior.
type Options struct {
	// GroupPathCount caps how many PathEnds are retained per group (0 =
	// unbounded).
	GroupPathCount int
	// EndpointPathCount caps how many PathEnds are retained per
	// endpoint vertex within each group (0 = unbounded).
	EndpointPathCount int
	// UniquePins collapses PathEnds that differ only by rise/fall at
	// the same endpoint vertex.
	UniquePins bool
	// UniqueEdges collapses PathEnds that traverse the same edge
	// sequence regardless of rise/fall, keyed by the edge chain walked
	// back from the terminal Path via Graph.
	UniqueEdges bool
	// Graph resolves Path.PrevVertex/PrevTag hops; required when
	// UniqueEdges is set.
	Graph *stagraph.Graph
}

// Build sorts ends into their groups, ranks each group worst-first,
// prunes per Options, and returns the resulting map keyed by group
// name. Grouping precedes pruning: GroupPathCount/EndpointPathCount
// apply per already-assigned group (spec.md §4.8).
func Build(ends []PathEnd, opts Options) map[string][]PathEnd {
	if opts.UniquePins {
		ends = collapseUniquePins(ends)
	}
	if opts.UniqueEdges && opts.Graph != nil {
		ends = collapseUniqueEdges(ends, opts.Graph)
	}

	byGroup := make(map[string][]PathEnd)
	for _, pe := range ends {
		byGroup[pe.Group] = append(byGroup[pe.Group], pe)
	}

	for name, group := range byGroup {
		ranked := rank(group)
		ranked = pruneEndpointCount(ranked, opts.EndpointPathCount)
		if opts.GroupPathCount > 0 && len(ranked) > opts.GroupPathCount {
			ranked = ranked[:opts.GroupPathCount]
		}
		byGroup[name] = ranked
	}

	return byGroup
}

// rank sorts group worst-slack-first using each PathEnd's own MinMax
// direction (spec.md §4.8 "min_max.compare(a.slack, b.slack)").
func rank(group []PathEnd) []PathEnd {
	out := append([]PathEnd(nil), group...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MinMax.Compare(out[i].Slack(), out[j].Slack()) < 0
	})

	return out
}

// pruneEndpointCount keeps at most n worst PathEnds per endpoint vertex
// (n == 0 means unbounded), preserving group's existing worst-first
// order.
func pruneEndpointCount(group []PathEnd, n int) []PathEnd {
	if n <= 0 {
		return group
	}

	kept := make([]PathEnd, 0, len(group))
	counts := make(map[stagraph.VertexID]int, len(group))
	for _, pe := range group {
		if counts[pe.Vertex] >= n {
			continue
		}
		counts[pe.Vertex]++
		kept = append(kept, pe)
	}

	return kept
}

// collapseUniquePins keeps, for every (vertex, ignoring RF) key, only
// the worst PathEnd, per spec.md §4.8 "unique_pins collapses PathEnds
// that differ only by rise/fall".
func collapseUniquePins(ends []PathEnd) []PathEnd {
	best := make(map[stagraph.VertexID]PathEnd, len(ends))
	order := make([]stagraph.VertexID, 0, len(ends))
	for _, pe := range ends {
		cur, ok := best[pe.Vertex]
		if !ok {
			best[pe.Vertex] = pe
			order = append(order, pe.Vertex)

			continue
		}
		if pe.MinMax.Compare(pe.Slack(), cur.Slack()) < 0 {
			best[pe.Vertex] = pe
		}
	}

	out := make([]PathEnd, 0, len(order))
	for _, v := range order {
		out = append(out, best[v])
	}

	return out
}

// collapseUniqueEdges keeps, for every distinct edge-chain key
// (ignoring rise/fall), only the worst PathEnd, per spec.md §4.8
// "unique_edges collapses PathEnds that traverse the same edge
// sequence regardless of rise/fall".
func collapseUniqueEdges(ends []PathEnd, g *stagraph.Graph) []PathEnd {
	best := make(map[string]PathEnd, len(ends))
	order := make([]string, 0, len(ends))
	for _, pe := range ends {
		key := edgeChainKey(g, pe.Vertex, pe.TagPos)
		cur, ok := best[key]
		if !ok {
			best[key] = pe
			order = append(order, key)

			continue
		}
		if pe.MinMax.Compare(pe.Slack(), cur.Slack()) < 0 {
			best[key] = pe
		}
	}

	out := make([]PathEnd, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}

	return out
}

// edgeChainKey walks the Path chain from (vertex, tagPos) back to its
// origin, joining every hop's edge id into a canonical, rise/fall-
// independent string.
func edgeChainKey(g *stagraph.Graph, vertex stagraph.VertexID, tagPos int) string {
	var ids []stagraph.EdgeID

	v, err := g.Vertex(vertex)
	if err != nil {
		return ""
	}
	cur, ok := v.Path(tagPos)
	if !ok {
		return ""
	}
	for {
		ids = append(ids, cur.PrevEdge)
		if !cur.HasPrev() {
			break
		}
		pv, err := g.Vertex(cur.PrevVertex)
		if err != nil {
			break
		}
		next, ok := pv.Path(cur.PrevTag)
		if !ok {
			break
		}
		cur = next
	}

	b := make([]byte, 0, len(ids)*8)
	for _, id := range ids {
		b = appendUint(b, uint64(id))
		b = append(b, ',')
	}

	return string(b)
}

func appendUint(b []byte, v uint64) []byte {
	if v == 0 {
		return append(b, '0')
	}
	start := len(b)
	for v > 0 {
		b = append(b, byte('0'+v%10))
		v /= 10
	}
	slices.Reverse(b[start:])

	return b
}

// EndpointGroupName resolves the reporting group for one endpoint,
// given the caller's resolved user group_path exception (if any) and
// the collaborators.Exception kind governing the check, matching
// AssignGroup's priority rule against the raw Sdc exception vocabulary
// rather than a pre-classified PathEnd.
func EndpointGroupName(class Classification, launchClock string, groupExc collaborators.Exception, hasGroupExc bool) string {
	pe := PathEnd{Class: class, SourceClock: launchClock}
	userGroup := ""
	if hasGroupExc && groupExc.Kind == collaborators.ExceptionGroupPath {
		userGroup = groupExc.GroupName
	}

	return AssignGroup(pe, userGroup, hasGroupExc && userGroup != "")
}
