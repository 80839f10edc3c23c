package stagraph

import "github.com/The-OpenROAD-Project/stacore/collaborators"

// AddVertex creates a new load-side (or driver-side, via isDriver) vertex
// for pin and returns its id. A pin gets at most one load vertex and at
// most one driver vertex; calling AddVertex twice for the same
// (pin, isDriver) pair returns the existing id rather than duplicating.
func (g *Graph) AddVertex(pin collaborators.PinID, isDriver bool) VertexID {
	g.muVert.Lock()
	defer g.muVert.Unlock()

	pair := g.pinVertex[pin]
	if isDriver && pair.driver != 0 {
		return pair.driver
	}
	if !isDriver && pair.load != 0 {
		return pair.load
	}

	id := VertexID(len(g.vertices))
	v := &Vertex{
		id:    id,
		pin:   pin,
		slews: make([][]float64, g.slewRFCount),
	}
	for i := range v.slews {
		v.slews[i] = make([]float64, len(g.analysisPoints))
	}
	g.vertices = append(g.vertices, v)

	if isDriver {
		pair.driver = id
	} else {
		pair.load = id
	}
	g.pinVertex[pin] = pair

	return id
}

// Vertex returns the vertex for id, or an error if id does not exist or
// has been removed.
func (g *Graph) Vertex(id VertexID) (*Vertex, error) {
	g.muVert.RLock()
	defer g.muVert.RUnlock()

	if int(id) <= 0 || int(id) >= len(g.vertices) || g.vertices[id] == nil {
		return nil, ErrVertexNotFound
	}

	return g.vertices[id], nil
}

// PinVertices returns the (load, driver) vertex ids for pin; either may
// be 0 if that side was never created.
func (g *Graph) PinVertices(pin collaborators.PinID) (load, driver VertexID, err error) {
	g.muVert.RLock()
	defer g.muVert.RUnlock()

	pair, ok := g.pinVertex[pin]
	if !ok {
		return 0, 0, ErrPinNotFound
	}

	return pair.load, pair.driver, nil
}

// VertexCount returns the number of live (non-removed) vertices.
func (g *Graph) VertexCount() int {
	g.muVert.RLock()
	defer g.muVert.RUnlock()

	n := 0
	for _, v := range g.vertices {
		if v != nil {
			n++
		}
	}

	return n
}

// EachVertex calls fn for every live vertex in id order. fn returning
// false stops the iteration early.
func (g *Graph) EachVertex(fn func(*Vertex) bool) {
	g.muVert.RLock()
	vs := make([]*Vertex, len(g.vertices))
	copy(vs, g.vertices)
	g.muVert.RUnlock()

	for _, v := range vs {
		if v == nil {
			continue
		}
		if !fn(v) {
			return
		}
	}
}

// RemoveVertex tombstones id: the slot becomes nil, VertexID(id) is
// never reissued, and any edge still referencing id becomes dangling
// (callers must remove incident edges first; see RemoveEdge).
func (g *Graph) RemoveVertex(id VertexID) error {
	g.muVert.Lock()
	defer g.muVert.Unlock()

	if int(id) <= 0 || int(id) >= len(g.vertices) || g.vertices[id] == nil {
		return ErrVertexNotFound
	}

	v := g.vertices[id]
	pair := g.pinVertex[v.pin]
	if pair.load == id {
		pair.load = 0
	}
	if pair.driver == id {
		pair.driver = 0
	}
	if pair.load == 0 && pair.driver == 0 {
		delete(g.pinVertex, v.pin)
	} else {
		g.pinVertex[v.pin] = pair
	}
	g.vertices[id] = nil

	return nil
}

// SetLevel records vertex id's levelisation level (stagraph/levelize.go
// is the only writer outside of AddVertex's zero-init).
func (g *Graph) SetLevel(id VertexID, level uint32) error {
	g.muVert.Lock()
	defer g.muVert.Unlock()

	if int(id) <= 0 || int(id) >= len(g.vertices) || g.vertices[id] == nil {
		return ErrVertexNotFound
	}
	g.vertices[id].level = level

	return nil
}
