package engine

import (
	"github.com/The-OpenROAD-Project/stacore/pathgroups"
	"github.com/The-OpenROAD-Project/stacore/report"
	"github.com/The-OpenROAD-Project/stacore/stagraph"
)

// latchBorrow implements spec.md §4.5's latch time-borrowing fixed
// point over already-classified PathEnds. A latch's D pin is
// structurally distinguishable from an ordinary flop's D pin here: it
// is a check endpoint (stagraph.IsLeaf's doc calls a pure check-only
// pin a leaf) that ALSO drives at least one outgoing edge — the
// transparent D-to-Q pass-through arc a flop's D pin never has. Any
// negative slack at such a vertex is time the latch borrowed from its
// own cycle, charged against the Required of whatever endpoint the
// borrowed Q eventually reaches (the project's resolved Open Question:
// iterate while total negative slack across all endpoints keeps
// strictly decreasing, capped at borrowCap).
func (e *Engine) latchBorrow(ends []pathgroups.PathEnd, borrowCap int) []pathgroups.PathEnd {
	latchIdx := e.findLatchEndpoints(ends)
	if len(latchIdx) == 0 {
		return ends
	}

	byVertex := make(map[stagraph.VertexID][]int, len(ends))
	for i, pe := range ends {
		byVertex[pe.Vertex] = append(byVertex[pe.Vertex], i)
	}

	prevNeg := totalNegativeSlack(ends)
	converged := false
	for iter := 0; iter < borrowCap; iter++ {
		changed := false
		for _, li := range latchIdx {
			borrow := -ends[li].Path.Slack
			if borrow <= 0 {
				continue
			}

			for _, vid := range e.downstreamEndpoints(ends[li].Vertex) {
				for _, idx := range byVertex[vid] {
					if idx == li {
						continue
					}
					ends[idx].Path.Slack -= borrow
					changed = true
				}
			}
		}

		if !changed {
			converged = true

			break
		}

		negNow := totalNegativeSlack(ends)
		if negNow >= prevNeg {
			converged = true

			break
		}
		prevNeg = negNow
	}
	if !converged && borrowCap > 0 && e.sink != nil {
		e.sink.Warn(report.WarnBorrowFixedPointCapped, "latch borrowing stopped after %d iterations", borrowCap)
	}

	return ends
}

func totalNegativeSlack(ends []pathgroups.PathEnd) float64 {
	var sum float64
	for _, pe := range ends {
		if s := pe.Slack(); s < 0 {
			sum += -s
		}
	}

	return sum
}

// findLatchEndpoints returns the indices of ends whose vertex is both a
// setup/hold check endpoint and a launch point for a gated Q arrival.
func (e *Engine) findLatchEndpoints(ends []pathgroups.PathEnd) []int {
	var out []int
	for i, pe := range ends {
		if pe.Class != pathgroups.ClassSetup && pe.Class != pathgroups.ClassHold {
			continue
		}
		outs, _, err := e.graph.OutNeighbors(pe.Vertex, false)
		if err != nil || len(outs) == 0 {
			continue
		}
		out = append(out, i)
	}

	return out
}

// downstreamEndpoints walks forward from a latch's D vertex through
// every non-disabled out edge to the next leaf (endpoint) vertices the
// borrowed time eventually constrains.
func (e *Engine) downstreamEndpoints(latchD stagraph.VertexID) []stagraph.VertexID {
	var out []stagraph.VertexID
	visited := map[stagraph.VertexID]bool{latchD: true}
	queue := []stagraph.VertexID{latchD}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		outs, _, err := e.graph.OutNeighbors(cur, false)
		if err != nil {
			continue
		}
		for _, next := range outs {
			if visited[next] {
				continue
			}
			visited[next] = true

			if leaf, _ := e.graph.IsLeaf(next); leaf {
				out = append(out, next)

				continue
			}
			queue = append(queue, next)
		}
	}

	return out
}
