package search

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/The-OpenROAD-Project/stacore/collaborators"
	"github.com/The-OpenROAD-Project/stacore/report"
	"github.com/The-OpenROAD-Project/stacore/stagraph"
	"github.com/The-OpenROAD-Project/stacore/tagdb"
)

// DerateFunc scales an arc's delay per spec.md §4.5 step 3's derating
// cube (global x net x instance x cell, already folded together by the
// caller into one factor per {is_clock, rf, min_max}).
type DerateFunc func(edge *stagraph.Edge, arcIdx int, isClockPath bool, rf collaborators.RiseFall, ap stagraph.AnalysisPoint) float64

// EdgeClassifier supplies everything ThruTag needs about one edge that
// only the caller (with access to collaborators.Network/Sdc) can
// resolve: tristate/case-analysis state and which of the from-tag's
// active exception states advance across this edge.
type EdgeClassifier interface {
	Classify(edge *stagraph.Edge, fromTag tagdb.Tag) tagdb.ThruTagEdge
	// Matches reports any false_path/path_delay/multicycle/
	// filter/group_path exceptions whose `through` list's next point
	// is satisfied by this edge, for ExceptionResolver.
	Matches(edge *stagraph.Edge, fromTag tagdb.Tag) []ExceptionMatch
}

// Arrival runs the forward BFS over graph, filling vertex.Paths with
// tagged arrivals (spec.md §4.5).
type Arrival struct {
	Graph      *stagraph.Graph
	Tags       *tagdb.DB
	Classifier EdgeClassifier
	Exceptions ExceptionResolver
	Derate     DerateFunc
	Sink       report.Sink
	Workers    int

	mu        sync.Mutex
	endpoints map[stagraph.VertexID]struct{}
}

// Seed is one initial arrival (spec.md §4.5 "Seeded by"): a vertex, the
// Tag it carries, and the arrival time.
type Seed struct {
	Vertex  stagraph.VertexID
	Tag     tagdb.Tag
	RF      collaborators.RiseFall
	APIndex int
	Arrival float64
}

// Endpoints returns every vertex flagged as a timing endpoint during
// the last Run.
func (a *Arrival) Endpoints() []stagraph.VertexID {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]stagraph.VertexID, 0, len(a.endpoints))
	for id := range a.endpoints {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// Run seeds the graph with seeds and propagates arrivals forward in
// ascending level order, the same level-barrier dispatch graphdelay
// uses (spec.md §5 "arrival ... iterators partition work by topological
// level").
func (a *Arrival) Run(ctx context.Context, seeds []Seed) error {
	a.mu.Lock()
	a.endpoints = make(map[stagraph.VertexID]struct{})
	a.mu.Unlock()

	for _, s := range seeds {
		if err := a.applySeed(s); err != nil {
			return err
		}
	}

	maxLevel := a.Graph.MaxLevel()
	byLevel := make(map[uint32][]stagraph.VertexID)
	a.Graph.EachVertex(func(v *stagraph.Vertex) bool {
		byLevel[v.Level()] = append(byLevel[v.Level()], v.ID())

		return true
	})

	workers := a.Workers
	if workers <= 0 {
		workers = 1
	}

	for lvl := uint32(0); lvl <= maxLevel; lvl++ {
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
			g.Go(func() error { return a.processVertex(gctx, id) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	return nil
}

func (a *Arrival) applySeed(s Seed) error {
	v, err := a.Graph.Vertex(s.Vertex)
	if err != nil {
		return err
	}
	tagIdx := a.Tags.InternTag(s.Tag)

	return a.mergeArrival(v, s.APIndex, tagIdx, s.Arrival, stagraph.Path{
		Vertex:  s.Vertex,
		RF:      s.RF,
		APIndex: s.APIndex,
		Arrival: s.Arrival,
	})
}

// processVertex implements spec.md §4.5 steps 1-6 for one vertex.
func (a *Arrival) processVertex(ctx context.Context, id stagraph.VertexID) error {
	v, err := a.Graph.Vertex(id)
	if err != nil {
		return err
	}

	froms, edgeIDs, err := a.Graph.InNeighbors(id, false)
	if err != nil {
		return err
	}

	for i, fromID := range froms {
		fromV, err := a.Graph.Vertex(fromID)
		if err != nil {
			continue
		}
		edge, err := a.Graph.Edge(edgeIDs[i])
		if err != nil {
			continue
		}

		for tagPos, fromTagGlobalIdx := range a.Tags.GroupTags(fromV.TagGroupIndex()) {
			fromPath, ok := fromV.Path(tagPos)
			if !ok {
				continue
			}
			fromTag := a.Tags.Tag(fromTagGlobalIdx)

			var classify tagdb.ThruTagEdge
			var matches []ExceptionMatch
			if a.Classifier != nil {
				classify = a.Classifier.Classify(edge, fromTag)
				matches = a.Classifier.Matches(edge, fromTag)
			}

			match, matched := a.Exceptions.Resolve(matches)
			if Dropped(match, matched) {
				continue
			}

			toRF := fromPath.RF
			toTagIdx := a.Tags.ThruTag(fromTagGlobalIdx, toRF, classify)

			for arcIdx, arc := range edge.Arcs() {
				if isCheckRole(arc.Role) {
					continue
				}
				for ap, apv := range a.Graph.AnalysisPoints() {
					if ap != fromTag.APIndex {
						continue
					}
					delay, _ := edge.ArcDelay(arcIdx, ap)
					if a.Derate != nil {
						delay *= a.Derate(edge, arcIdx, fromTag.IsClockPath, toRF, apv)
					}

					toArrival := fromPath.Arrival + delay
					if err := a.mergeArrival(v, ap, toTagIdx, toArrival, stagraph.Path{
						Vertex:     id,
						RF:         toRF,
						APIndex:    ap,
						Arrival:    toArrival,
						PrevEdge:   edgeIDs[i],
						PrevVertex: fromID,
						PrevTag:    tagPos,
					}); err != nil {
						return err
					}
				}
			}
		}
	}

	if isLeaf, _ := a.Graph.IsLeaf(id); isLeaf {
		a.mu.Lock()
		a.endpoints[id] = struct{}{}
		a.mu.Unlock()
	}

	return nil
}

// mergeArrival implements spec.md §4.5 steps 4-5: merge toArrival into
// v's arrival set under tagIdx at analysis point ap, growing the
// vertex's TagGroup and Paths array if this is a new tag, and keeping
// whichever of the old/new arrival is worse-case for this AP's MinMax
// (larger for Max/setup analysis, smaller for Min/hold).
func (a *Arrival) mergeArrival(v *stagraph.Vertex, ap int, tagIdx int, arrival float64, newPath stagraph.Path) error {
	aps := a.Graph.AnalysisPoints()
	if ap < 0 || ap >= len(aps) {
		return stagraph.ErrAPIndexRange
	}
	mm := aps[ap].MinMax

	existing := a.Tags.GroupTags(v.TagGroupIndex())
	pos := -1
	for i, t := range existing {
		if t == tagIdx {
			pos = i

			break
		}
	}

	if pos < 0 {
		grown := append(append([]int(nil), existing...), tagIdx)
		newGroup := a.Tags.InternTagGroup(grown)
		oldPaths := v.Paths()
		v.SetTagGroupIndex(newGroup)
		tagsInGroup := a.Tags.GroupTags(newGroup)
		v.MakePaths(len(tagsInGroup))
		for i, t := range tagsInGroup {
			placed := false
			for j, oldTag := range existing {
				if oldTag == t && j < len(oldPaths) {
					p := oldPaths[j]
					p.TagIndex = i
					v.SetPath(i, p)
					placed = true

					break
				}
			}
			if t == tagIdx && !placed {
				newPath.TagIndex = i
				v.SetPath(i, newPath)
			}
		}

		return nil
	}

	current, ok := v.Path(pos)
	if !ok || current.Arrival == 0 && current.PrevEdge == 0 && !current.HasPrev() {
		newPath.TagIndex = pos
		v.SetPath(pos, newPath)

		return nil
	}

	// Arrival merge takes the MAX arrival for Max (setup) analysis and
	// the MIN arrival for Min (hold) analysis (spec.md §4.5 step 4) —
	// the inverse sense from stagraph.MinMax.Compare, which orders
	// *slacks*, not arrivals, so it is deliberately not reused here.
	replace := arrival > current.Arrival
	if mm == stagraph.Min {
		replace = arrival < current.Arrival
	}
	if replace {
		newPath.TagIndex = pos
		v.SetPath(pos, newPath)
	}

	return nil
}

// isCheckRole reports whether role is a timing-check arc rather than a
// propagation arc, mirroring graphdelay's own isCheckRole (spec.md §4.4
// step 7: a check arc's delay is a margin to verify against an already-
// arrived data path, not additional propagation delay, so arrival must
// never extend across one — the data path and the checking clock edge
// reach the shared vertex as two separate tags, not one continuation of
// the other).
func isCheckRole(role collaborators.ArcRole) bool {
	switch role {
	case collaborators.RoleSetup, collaborators.RoleHold, collaborators.RoleRecovery,
		collaborators.RoleRemoval, collaborators.RoleWidth, collaborators.RolePeriod:
		return true
	default:
		return false
	}
}
