package stagraph

import "sort"

// Levelize assigns Vertex.level to every live vertex such that level(to)
// > level(from) for every non-disabled edge from->to, and marks any edge
// that would break that invariant (a cycle participant) with
// FlagDisabledToBreakLoop. Grounded on a three-color DFS (White/Gray/
// Black) for back-edge detection, generalized from a single topological
// walk into a levelisation pass: a back edge found during the DFS is
// disabled immediately rather than aborting the sort (spec.md §4.2
// "combinational loops are broken deterministically, not rejected").
//
// Determinism: roots are visited in increasing VertexID order and each
// vertex's out-neighbors are visited in increasing EdgeID order (the
// order AddEdge assigned them), so the same graph always breaks the
// same edge for the same loop regardless of call history. A vertex
// whose clock pin closes a loop is handled the same as any other back
// edge; callers that need register clocks never to be the disabled
// edge should route clock nets around combinational feedback before
// calling Levelize, since a clock-bearing back edge is a netlist error
// rather than an ordinary combinational loop.
func (g *Graph) Levelize() error {
	g.muVert.Lock()
	ids := make([]VertexID, 0, len(g.vertices))
	for _, v := range g.vertices {
		if v != nil {
			ids = append(ids, v.id)
			v.color = White
			v.level = 0
		}
	}
	g.muVert.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var order []VertexID
	for _, id := range ids {
		v, err := g.Vertex(id)
		if err != nil || v.color != White {
			continue
		}
		if err := g.levelizeDFS(id, nil, &order); err != nil {
			return err
		}
	}

	// Reverse DFS post-order is a topological order of the non-disabled
	// edges, so every in-neighbor is leveled before the vertex itself.
	for i := len(order) - 1; i >= 0; i-- {
		if err := g.assignLevel(order[i]); err != nil {
			return err
		}
	}

	g.muVert.Lock()
	g.levelValid = true
	g.muVert.Unlock()

	return nil
}

// levelizeDFS visits id and its out-neighbors depth-first, disabling
// back edges on the fly, then appends id to order once all of id's
// descendants are finished (DFS post-order).
func (g *Graph) levelizeDFS(id VertexID, path []EdgeID, order *[]VertexID) error {
	v, err := g.Vertex(id)
	if err != nil {
		return err
	}
	v.color = Gray

	vs, es, err := g.OutNeighbors(id, false)
	if err != nil {
		return err
	}

	for i, nid := range vs {
		nv, err := g.Vertex(nid)
		if err != nil {
			return err
		}
		switch nv.color {
		case White:
			if err := g.levelizeDFS(nid, append(path, es[i]), order); err != nil {
				return err
			}
		case Gray:
			if err := g.breakLoop(es[i]); err != nil {
				return err
			}
		case Black:
			// cross/forward edge in this DFS forest, not a loop member.
		}
	}

	v.color = Black
	*order = append(*order, id)

	return nil
}

// breakLoop disables the back edge that closed a cycle during DFS.
func (g *Graph) breakLoop(id EdgeID) error {
	e, err := g.Edge(id)
	if err != nil {
		return err
	}
	e.SetFlag(FlagDisabledToBreakLoop, true)

	return nil
}

// assignLevel computes id's level from its non-disabled in-neighbors,
// all of which already have their final level because Levelize calls
// this in reverse DFS post-order.
func (g *Graph) assignLevel(id VertexID) error {
	vs, _, err := g.InNeighbors(id, false)
	if err != nil {
		return err
	}

	level := uint32(0)
	for _, pid := range vs {
		pv, err := g.Vertex(pid)
		if err != nil {
			return err
		}
		if pv.level+1 > level {
			level = pv.level + 1
		}
	}

	return g.SetLevel(id, level)
}

// MaxLevel returns the highest level assigned by the last Levelize call.
func (g *Graph) MaxLevel() uint32 {
	var max uint32
	g.EachVertex(func(v *Vertex) bool {
		if v.level > max {
			max = v.level
		}

		return true
	})

	return max
}

// LevelsValid reports whether Levelize has run since the last structural
// edit (AddVertex/AddEdge/RemoveVertex/RemoveEdge do not clear this
// themselves; callers that mutate the graph must call InvalidateLevels).
func (g *Graph) LevelsValid() bool {
	g.muVert.RLock()
	defer g.muVert.RUnlock()

	return g.levelValid
}

// InvalidateLevels marks levels stale, e.g. after a netlist edit.
func (g *Graph) InvalidateLevels() {
	g.muVert.Lock()
	g.levelValid = false
	g.muVert.Unlock()
}
