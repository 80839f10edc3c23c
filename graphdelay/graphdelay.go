// Package graphdelay implements the level-ordered BFS that drives
// delaycalc.Calculator over a stagraph.Graph, writing arc delays and
// vertex slews and propagating invalidation downstream (spec.md §4.4).
//
// Concurrency is dispatched per level via golang.org/x/sync/errgroup,
// the same "process a level, wait, advance" barrier search and crpr
// both reuse: all vertices at one level are independent by construction
// (level = 1 + max(fanin.level)), so they can run on a worker pool
// concurrently, but two different levels never run at once.
package graphdelay

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/The-OpenROAD-Project/stacore/collaborators"
	"github.com/The-OpenROAD-Project/stacore/delaycalc"
	"github.com/The-OpenROAD-Project/stacore/stagraph"
)

// LoadResolver builds the per-net load model and ordered load-pin list a
// driver vertex needs; supplied by the caller so graphdelay never has to
// know how to walk Network/Parasitics itself.
type LoadResolver interface {
	// Loads returns the ordered load vertex ids driven by v, and the
	// LoadModel the Calculator should use for that net.
	Loads(g *stagraph.Graph, v *stagraph.Vertex) ([]stagraph.VertexID, delaycalc.LoadModel)
}

// GraphDelayCalc maintains the two dirty sets spec.md §4.4 names and
// drives delaycalc.Calculator across the graph in level order.
type GraphDelayCalc struct {
	graph   *stagraph.Graph
	calc    delaycalc.Calculator
	loads   LoadResolver
	workers int

	mu                      sync.Mutex
	verticesWithInvalidDelay map[stagraph.VertexID]struct{}
	invalidCheckEdges       map[stagraph.EdgeID]struct{}

	incrementalTolerance float64
}

// Option configures a GraphDelayCalc at construction.
type Option func(*GraphDelayCalc)

// WithWorkers sets the per-level worker pool size (default: 1, i.e.
// sequential — safe default, since a level is often too small to
// benefit from parallel dispatch and some Calculator implementations
// may not be goroutine-safe across shared state).
func WithWorkers(n int) Option {
	return func(gdc *GraphDelayCalc) {
		if n > 0 {
			gdc.workers = n
		}
	}
}

// WithIncrementalTolerance sets the delay-change threshold below which
// downstream vertices are not re-marked dirty (spec.md §4.4 step 6;
// default 0, i.e. any change at all propagates).
func WithIncrementalTolerance(tol float64) Option {
	return func(gdc *GraphDelayCalc) { gdc.incrementalTolerance = tol }
}

// New creates a GraphDelayCalc over graph, using calc for per-driver
// delay/slew computation and loads to resolve each driver's net.
func New(graph *stagraph.Graph, calc delaycalc.Calculator, loads LoadResolver, opts ...Option) *GraphDelayCalc {
	gdc := &GraphDelayCalc{
		graph:                    graph,
		calc:                     calc,
		loads:                    loads,
		workers:                  1,
		verticesWithInvalidDelay: make(map[stagraph.VertexID]struct{}),
		invalidCheckEdges:        make(map[stagraph.EdgeID]struct{}),
	}
	for _, opt := range opts {
		opt(gdc)
	}

	return gdc
}

// MarkVertexInvalid adds id to the dirty set, e.g. after an annotation
// or netlist edit touching that pin.
func (gdc *GraphDelayCalc) MarkVertexInvalid(id stagraph.VertexID) {
	gdc.mu.Lock()
	gdc.verticesWithInvalidDelay[id] = struct{}{}
	gdc.mu.Unlock()
}

// MarkCheckEdgeInvalid adds id to the invalid-check-edges set.
func (gdc *GraphDelayCalc) MarkCheckEdgeInvalid(id stagraph.EdgeID) {
	gdc.mu.Lock()
	gdc.invalidCheckEdges[id] = struct{}{}
	gdc.mu.Unlock()
}

// DirtyVertexCount reports how many vertices are currently pending
// recomputation (for tests/diagnostics).
func (gdc *GraphDelayCalc) DirtyVertexCount() int {
	gdc.mu.Lock()
	defer gdc.mu.Unlock()

	return len(gdc.verticesWithInvalidDelay)
}

// TakeInvalidCheckEdges drains and returns the set of check edges whose
// margin changed beyond tolerance since the last drain, for the caller
// to re-run required-time propagation through (spec.md §4.4 step 7).
func (gdc *GraphDelayCalc) TakeInvalidCheckEdges() []stagraph.EdgeID {
	gdc.mu.Lock()
	defer gdc.mu.Unlock()

	out := make([]stagraph.EdgeID, 0, len(gdc.invalidCheckEdges))
	for id := range gdc.invalidCheckEdges {
		out = append(out, id)
	}
	gdc.invalidCheckEdges = make(map[stagraph.EdgeID]struct{})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// FindDelays runs find_delays(up_to_level): a forward BFS over the
// union of the dirty set and the graph's root vertices, processing
// strictly in ascending level and dispatching each level's independent
// vertices to a worker pool (spec.md §4.4 Ordering/Concurrency).
func (gdc *GraphDelayCalc) FindDelays(ctx context.Context, upToLevel uint32) error {
	byLevel := gdc.frontierByLevel(upToLevel)

	levels := make([]uint32, 0, len(byLevel))
	for lvl := range byLevel {
		levels = append(levels, lvl)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	for _, lvl := range levels {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ids := byLevel[lvl]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		if err := gdc.processLevel(ctx, ids); err != nil {
			return err
		}
	}

	return nil
}

// frontierByLevel groups the dirty-set + root vertices by level,
// skipping any vertex above upToLevel (0 means "no limit").
func (gdc *GraphDelayCalc) frontierByLevel(upToLevel uint32) map[uint32][]stagraph.VertexID {
	gdc.mu.Lock()
	seed := make(map[stagraph.VertexID]struct{}, len(gdc.verticesWithInvalidDelay))
	for id := range gdc.verticesWithInvalidDelay {
		seed[id] = struct{}{}
	}
	gdc.mu.Unlock()

	gdc.graph.EachVertex(func(v *stagraph.Vertex) bool {
		if isRoot, _ := gdc.graph.IsRoot(v.ID()); isRoot {
			seed[v.ID()] = struct{}{}
		}

		return true
	})

	byLevel := make(map[uint32][]stagraph.VertexID)
	for id := range seed {
		v, err := gdc.graph.Vertex(id)
		if err != nil {
			continue
		}
		if upToLevel != 0 && v.Level() > upToLevel {
			continue
		}
		byLevel[v.Level()] = append(byLevel[v.Level()], id)
	}

	return byLevel
}

// processLevel dispatches ids to gdc.workers goroutines via errgroup,
// then clears each processed vertex from the dirty set.
func (gdc *GraphDelayCalc) processLevel(ctx context.Context, ids []stagraph.VertexID) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(gdc.workers)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			return gdc.processVertex(id)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	gdc.mu.Lock()
	for _, id := range ids {
		delete(gdc.verticesWithInvalidDelay, id)
	}
	gdc.mu.Unlock()

	return nil
}

// processVertex implements spec.md §4.4's seven per-vertex steps for
// one driver vertex v.
func (gdc *GraphDelayCalc) processVertex(id stagraph.VertexID) error {
	v, err := gdc.graph.Vertex(id)
	if err != nil {
		return err
	}

	outVertices, outEdges, err := gdc.graph.OutNeighbors(id, false)
	if err != nil {
		return err
	}
	if len(outEdges) == 0 {
		return nil
	}

	loadVertices, loadModel := []stagraph.VertexID{}, delaycalc.LoadModel{}
	if gdc.loads != nil {
		loadVertices, loadModel = gdc.loads.Loads(gdc.graph, v)
	}
	loadPins := make([]collaborators.PinID, len(loadVertices))
	for i, lv := range loadVertices {
		if lvv, err := gdc.graph.Vertex(lv); err == nil {
			loadPins[i] = lvv.Pin()
		}
	}
	loadMap := delaycalc.NewLoadPinIndexMap(loadPins)

	changed := false
	for ei, eid := range outEdges {
		e, err := gdc.graph.Edge(eid)
		if err != nil {
			continue
		}

		for ap := 0; ap < gdc.graph.APCount(); ap++ {
			for _, rf := range []collaborators.RiseFall{collaborators.Rise, collaborators.Fall} {
				inputSlew := v.Slew(rf, ap)
				for arcIdx, arc := range e.Arcs() {
					if isCheckRole(arc.Role) {
						toV, err := gdc.graph.Vertex(e.To())
						if err != nil {
							continue
						}
						toSlew := toV.Slew(rf, ap)
						margin := gdc.calc.CheckDelay(arc, rf, inputSlew, toSlew, 0, ap)
						before, _ := e.ArcDelay(arcIdx, ap)
						if err := e.SetArcDelay(arcIdx, ap, margin, false); err != nil {
							continue
						}
						if absDiff(margin, before) > gdc.incrementalTolerance {
							gdc.MarkCheckEdgeInvalid(eid)
						}

						continue
					}

					res := gdc.calc.Gate(arc, rf, inputSlew, loadModel, loadMap, ap)
					before, _ := e.ArcDelay(arcIdx, ap)
					if err := e.SetArcDelay(arcIdx, ap, res.GateDelay, false); err != nil {
						continue
					}
					if absDiff(res.GateDelay, before) > gdc.incrementalTolerance {
						changed = true
					}
					if ei == len(outEdges)-1 {
						slewToUse := v.Slew(rf, ap)
						if res.DriverOutputSlew > slewToUse {
							v.SetSlew(rf, ap, res.DriverOutputSlew)
						}
					}
				}
			}
		}
	}

	if changed {
		for _, nid := range outVertices {
			gdc.MarkVertexInvalid(nid)
		}
	}

	return nil
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}

	return b - a
}

// isCheckRole reports whether role is a timing-check arc (setup, hold,
// recovery, removal, width, period) rather than a propagation arc
// (spec.md §4.4 step 7: check arcs are computed and invalidated
// separately from gate/wire propagation).
func isCheckRole(role collaborators.ArcRole) bool {
	switch role {
	case collaborators.RoleSetup, collaborators.RoleHold, collaborators.RoleRecovery,
		collaborators.RoleRemoval, collaborators.RoleWidth, collaborators.RolePeriod:
		return true
	default:
		return false
	}
}
