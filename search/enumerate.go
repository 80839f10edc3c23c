package search

import (
	"container/heap"

	"github.com/The-OpenROAD-Project/stacore/stagraph"
	"github.com/The-OpenROAD-Project/stacore/tagdb"
)

// Alternative is one candidate path diverging from the primary path at
// some intermediate vertex: a different incoming tag (always
// considered) or, in unique-pin mode, a different incoming edge
// (spec.md §4.7 "considers alternative incoming arrivals ... and, for
// unique-pin mode, other incoming edges").
type Alternative struct {
	Vertex stagraph.VertexID
	TagPos int
	Path   stagraph.Path
}

// EnumerateKBest implements spec.md §4.7's lazy k-best path enumeration
// for one endpoint: it walks the primary (best) path from endpoint back
// to its startpoint, and at every intermediate vertex considers sibling
// paths (other tags, other edges under uniquePins) as candidates for
// a worse-but-still-reportable alternative, scoring each by its slack
// and keeping the k worst overall.
//
// Grounded on the teacher's dijkstra.nodePQ lazy-decrease-key heap
// (dijkstra/dijkstra.go): generalized here from "pop smallest distance"
// to "pop worst slack", with Path.IsEnum marking an emitted alternative
// so nested enumeration never re-expands it (spec.md §4.7).
func EnumerateKBest(g *stagraph.Graph, tags *tagdb.DB, endpoint stagraph.VertexID, endpointTagPos int, mm stagraph.MinMax, k int, uniquePins bool) ([]stagraph.Path, error) {
	primary, ok := pathAt(g, endpoint, endpointTagPos)
	if !ok {
		return nil, stagraph.ErrVertexNotFound
	}

	pq := &altPQ{mm: mm}
	heap.Init(pq)
	seedAlternatives(g, tags, endpoint, endpointTagPos, uniquePins, pq)

	out := []stagraph.Path{primary}
	seen := map[stagraph.VertexID]map[int]bool{endpoint: {endpointTagPos: true}}

	for len(out) < k && pq.Len() > 0 {
		alt := heap.Pop(pq).(*altItem)
		v := alt.alt.Vertex
		pos := alt.alt.TagPos
		if seen[v] != nil && seen[v][pos] {
			continue
		}
		if seen[v] == nil {
			seen[v] = make(map[int]bool)
		}
		seen[v][pos] = true

		p := alt.alt.Path
		p.IsEnum = true
		out = append(out, p)

		seedAlternatives(g, tags, v, pos, uniquePins, pq)
	}

	return out, nil
}

// pathAt returns the Path at (vertex, tagPos).
func pathAt(g *stagraph.Graph, vertex stagraph.VertexID, tagPos int) (stagraph.Path, bool) {
	v, err := g.Vertex(vertex)
	if err != nil {
		return stagraph.Path{}, false
	}

	return v.Path(tagPos)
}

// seedAlternatives pushes every sibling candidate at (vertex, tagPos)
// into pq: every other tag currently held at vertex (an alternative
// arrival context reaching the same point), plus, under uniquePins,
// every other incoming edge's best path at vertex.
func seedAlternatives(g *stagraph.Graph, tags *tagdb.DB, vertex stagraph.VertexID, tagPos int, uniquePins bool, pq *altPQ) {
	v, err := g.Vertex(vertex)
	if err != nil {
		return
	}
	primary, ok := v.Path(tagPos)
	if !ok || primary.IsEnum {
		return
	}

	for pos, p := range v.Paths() {
		if pos == tagPos || p.IsEnum {
			continue
		}
		heap.Push(pq, &altItem{alt: Alternative{Vertex: vertex, TagPos: pos, Path: p}})
	}

	if !uniquePins || !primary.HasPrev() {
		return
	}

	froms, edgeIDs, err := g.InNeighbors(vertex, false)
	if err != nil {
		return
	}
	for i, fromID := range froms {
		if fromID == primary.PrevVertex && edgeIDs[i] == primary.PrevEdge {
			continue
		}
		fromV, err := g.Vertex(fromID)
		if err != nil {
			continue
		}
		for pos, fp := range fromV.Paths() {
			if fp.IsEnum {
				continue
			}
			heap.Push(pq, &altItem{alt: Alternative{Vertex: fromID, TagPos: pos, Path: fp}})
		}
	}
}

// altItem is one heap entry; altPQ pops the worst-slack item first
// under mm's ordering, the same lazy-decrease-key discipline the
// teacher's nodePQ uses (stale/duplicate entries are simply skipped
// when popped, per EnumerateKBest's seen-set check).
type altItem struct {
	alt Alternative
}

type altPQ struct {
	items []*altItem
	mm    stagraph.MinMax
}

func (pq altPQ) Len() int { return len(pq.items) }
func (pq altPQ) Less(i, j int) bool {
	return pq.mm.Compare(pq.items[i].alt.Path.Slack, pq.items[j].alt.Path.Slack) < 0
}
func (pq altPQ) Swap(i, j int) { pq.items[i], pq.items[j] = pq.items[j], pq.items[i] }
func (pq *altPQ) Push(x any)   { pq.items = append(pq.items, x.(*altItem)) }
func (pq *altPQ) Pop() any {
	old := pq.items
	n := len(old)
	item := old[n-1]
	pq.items = old[:n-1]

	return item
}
