package stagraph

import "github.com/The-OpenROAD-Project/stacore/collaborators"

// AddEdge creates a new edge from -> to realizing arcs, and links it into
// both vertices' intrusive edge lists.
func (g *Graph) AddEdge(from, to VertexID, arcs []collaborators.TimingArc) (EdgeID, error) {
	g.muVert.RLock()
	fromOK := int(from) > 0 && int(from) < len(g.vertices) && g.vertices[from] != nil
	toOK := int(to) > 0 && int(to) < len(g.vertices) && g.vertices[to] != nil
	g.muVert.RUnlock()
	if !fromOK || !toOK {
		return 0, ErrVertexNotFound
	}

	g.muEdgeAdj.Lock()
	id := EdgeID(len(g.edges))
	e := &Edge{
		id:        id,
		from:      from,
		to:        to,
		arcs:      arcs,
		arcDelays: make([]ArcDelayRow, len(arcs)),
		annotated: make([]annotatedRow, len(arcs)),
	}
	for i := range arcs {
		e.arcDelays[i] = make(ArcDelayRow, len(g.analysisPoints))
		e.annotated[i] = make(annotatedRow, len(g.analysisPoints))
	}
	if hasWireArc(arcs) {
		e.wireDelay = make([][]float64, g.slewRFCount)
		e.wireSlew = make([][]float64, g.slewRFCount)
		for i := range e.wireDelay {
			e.wireDelay[i] = make([]float64, len(g.analysisPoints))
			e.wireSlew[i] = make([]float64, len(g.analysisPoints))
		}
	}
	g.edges = append(g.edges, e)
	g.muEdgeAdj.Unlock()

	g.muVert.Lock()
	g.vertices[from].outEdges = append(g.vertices[from].outEdges, id)
	g.vertices[to].inEdges = append(g.vertices[to].inEdges, id)
	g.muVert.Unlock()

	return id, nil
}

func hasWireArc(arcs []collaborators.TimingArc) bool {
	for _, a := range arcs {
		if a.Role == collaborators.RoleWire {
			return true
		}
	}

	return false
}

// Edge returns the edge for id, or an error if id does not exist.
func (g *Graph) Edge(id EdgeID) (*Edge, error) {
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()

	if int(id) <= 0 || int(id) >= len(g.edges) || g.edges[id] == nil {
		return nil, ErrEdgeNotFound
	}

	return g.edges[id], nil
}

// EdgeCount returns the number of live (non-removed) edges.
func (g *Graph) EdgeCount() int {
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()

	n := 0
	for _, e := range g.edges {
		if e != nil {
			n++
		}
	}

	return n
}

// EachEdge calls fn for every live edge in id order.
func (g *Graph) EachEdge(fn func(*Edge) bool) {
	g.muEdgeAdj.RLock()
	es := make([]*Edge, len(g.edges))
	copy(es, g.edges)
	g.muEdgeAdj.RUnlock()

	for _, e := range es {
		if e == nil {
			continue
		}
		if !fn(e) {
			return
		}
	}
}

// RemoveEdge tombstones id and unlinks it from both endpoint vertices'
// intrusive edge lists.
func (g *Graph) RemoveEdge(id EdgeID) error {
	g.muEdgeAdj.Lock()
	if int(id) <= 0 || int(id) >= len(g.edges) || g.edges[id] == nil {
		g.muEdgeAdj.Unlock()

		return ErrEdgeNotFound
	}
	e := g.edges[id]
	g.edges[id] = nil
	g.muEdgeAdj.Unlock()

	g.muVert.Lock()
	defer g.muVert.Unlock()

	if from := g.vertices[e.from]; from != nil {
		from.outEdges = removeEdgeID(from.outEdges, id)
	}
	if to := g.vertices[e.to]; to != nil {
		to.inEdges = removeEdgeID(to.inEdges, id)
	}

	return nil
}

func removeEdgeID(s []EdgeID, id EdgeID) []EdgeID {
	for i, e := range s {
		if e == id {
			return append(s[:i], s[i+1:]...)
		}
	}

	return s
}
