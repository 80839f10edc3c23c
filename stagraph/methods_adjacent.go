package stagraph

// OutNeighbors returns the vertex ids reachable from id via one
// non-disabled out edge, paired with the edge used to reach them.
func (g *Graph) OutNeighbors(id VertexID, includeDisabled bool) ([]VertexID, []EdgeID, error) {
	v, err := g.Vertex(id)
	if err != nil {
		return nil, nil, err
	}

	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()

	var vs []VertexID
	var es []EdgeID
	for _, eid := range v.outEdges {
		e := g.edges[eid]
		if e == nil || (!includeDisabled && e.Disabled()) {
			continue
		}
		vs = append(vs, e.to)
		es = append(es, eid)
	}

	return vs, es, nil
}

// InNeighbors is OutNeighbors' mirror over id's in edges.
func (g *Graph) InNeighbors(id VertexID, includeDisabled bool) ([]VertexID, []EdgeID, error) {
	v, err := g.Vertex(id)
	if err != nil {
		return nil, nil, err
	}

	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()

	var vs []VertexID
	var es []EdgeID
	for _, eid := range v.inEdges {
		e := g.edges[eid]
		if e == nil || (!includeDisabled && e.Disabled()) {
			continue
		}
		vs = append(vs, e.from)
		es = append(es, eid)
	}

	return vs, es, nil
}

// IsRoot reports whether id has no non-disabled in edges, i.e. it is a
// primary input, constant-driven pin, or register output.
func (g *Graph) IsRoot(id VertexID) (bool, error) {
	_, es, err := g.InNeighbors(id, false)
	if err != nil {
		return false, err
	}

	return len(es) == 0, nil
}

// IsLeaf reports whether id has no non-disabled out edges, i.e. it is a
// primary output or register input/check pin.
func (g *Graph) IsLeaf(id VertexID) (bool, error) {
	_, es, err := g.OutNeighbors(id, false)
	if err != nil {
		return false, err
	}

	return len(es) == 0, nil
}
