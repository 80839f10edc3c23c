package search

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/The-OpenROAD-Project/stacore/stagraph"
)

// EndpointRequired is one endpoint's seed required time (spec.md §4.6
// "required = arrival + slack_derived_from_check_margin_or_path_delay",
// computed by the caller from the governing check/path-delay exception
// before handing the seed to Required.Run).
type EndpointRequired struct {
	Vertex   stagraph.VertexID
	APIndex  int
	TagPos   int // position within the vertex's current TagGroup
	Required float64
}

// Required runs the backward BFS filling Path.Required/Path.Slack from
// a set of endpoint seeds (spec.md §4.6).
type Required struct {
	Graph   *stagraph.Graph
	Workers int
}

// Run propagates required times backward in descending level order,
// the mirror image of Arrival.Run's ascending sweep.
func (r *Required) Run(ctx context.Context, seeds []EndpointRequired) error {
	seeded := make(map[[2]int]bool, len(seeds))
	for _, s := range seeds {
		v, err := r.Graph.Vertex(s.Vertex)
		if err != nil {
			continue
		}
		p, ok := v.Path(s.TagPos)
		if !ok {
			continue
		}
		mm := r.Graph.AnalysisPoints()[s.APIndex].MinMax
		key := [2]int{int(s.Vertex), s.TagPos}
		if seeded[key] && !betterRequired(mm, s.Required, p.Required, true) {
			continue
		}
		seeded[key] = true
		p.Required = s.Required
		p.Slack = slackFor(mm, p.Arrival, p.Required)
		p.RequiredSet = true
		v.SetPath(s.TagPos, p)
	}

	maxLevel := r.Graph.MaxLevel()
	byLevel := make(map[uint32][]stagraph.VertexID)
	r.Graph.EachVertex(func(v *stagraph.Vertex) bool {
		byLevel[v.Level()] = append(byLevel[v.Level()], v.ID())

		return true
	})

	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}

	for i := int64(maxLevel); i >= 0; i-- {
		lvl := uint32(i)
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ids := byLevel[lvl]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for _, id := range ids {
			id := id
			g.Go(func() error { return r.processVertex(gctx, id) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	return nil
}

// processVertex implements spec.md §4.6: for every outgoing arrival
// path from v, pull the to-vertex's required time and subtract the arc
// delay, merging by min (Max analysis) or max (Min analysis) across
// every to-path sharing v as a predecessor.
func (r *Required) processVertex(ctx context.Context, id stagraph.VertexID) error {
	v, err := r.Graph.Vertex(id)
	if err != nil {
		return err
	}

	tos, edgeIDs, err := r.Graph.OutNeighbors(id, false)
	if err != nil {
		return err
	}

	ap0 := r.Graph.AnalysisPoints()
	for i, toID := range tos {
		toV, err := r.Graph.Vertex(toID)
		if err != nil {
			continue
		}
		edge, err := r.Graph.Edge(edgeIDs[i])
		if err != nil {
			continue
		}

		for toPos := range toV.Paths() {
			toPath, ok := toV.Path(toPos)
			if !ok || toPath.PrevVertex != id {
				continue
			}
			if !toPath.RequiredSet {
				// to-vertex has no required yet on this pass; nothing to
				// pull back (spec.md §4.6 "unreachable requireds remain
				// the no-required sentinel").
				continue
			}

			fromPos := toPath.PrevTag
			fromPath, ok := v.Path(fromPos)
			if !ok {
				continue
			}

			arcDelay := 0.0
			if len(edge.Arcs()) > 0 {
				d, _ := edge.ArcDelay(0, fromPath.APIndex)
				arcDelay = d
			}
			candidate := toPath.Required - arcDelay

			mm := ap0[fromPath.APIndex].MinMax
			replace := betterRequired(mm, candidate, fromPath.Required, fromPath.HasRequired())
			if replace {
				fromPath.Required = candidate
				fromPath.Slack = slackFor(mm, fromPath.Arrival, candidate)
				fromPath.RequiredSet = true
				v.SetPath(fromPos, fromPath)
			}
		}
	}

	return nil
}

// betterRequired reports whether candidate should replace current: the
// min for Max analysis, the max for Min analysis (spec.md §4.6 Merge).
func betterRequired(mm stagraph.MinMax, candidate, current float64, currentSet bool) bool {
	if !currentSet {
		return true
	}
	if mm == stagraph.Max {
		return candidate < current
	}

	return candidate > current
}

func slackFor(mm stagraph.MinMax, arrival, required float64) float64 {
	if mm == stagraph.Max {
		return required - arrival
	}

	return arrival - required
}
