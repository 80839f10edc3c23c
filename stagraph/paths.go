package stagraph

// Path is one entry in a Vertex's path array: the best (per min_max,
// analysis point, tag) arrival/required chain reaching that vertex,
// per spec.md §3 PathStore. Prev links form the backward chain search
// walks to reconstruct a full timing path and CRPR uses to find the
// common clock-path ancestor.
type Path struct {
	Vertex    VertexID
	RF        RiseFall
	APIndex   int
	TagIndex  int // index into the owning TagGroup's tag slice
	Arrival   float64
	Required  float64 // populated only after the backward search pass
	Slack     float64 // Required - Arrival, or Arrival - Required depending on min_max; set by search
	RequiredSet bool  // distinguishes "required computed" from the zero value
	PrevEdge  EdgeID  // 0 if this is a path-origin (clock/input-delay seed)
	PrevVertex VertexID
	PrevTag   int // tag index at PrevVertex, for CRPR/path reconstruction
	IsEnum    bool // marks an enumeration-generated alternative path, suppressing re-expansion (spec.md §4.7)
}

// HasPrev reports whether this path has a predecessor in the chain.
func (p Path) HasPrev() bool { return p.PrevEdge != 0 }

// HasRequired reports whether the backward search has already written
// a required time into this path (distinguishing a genuine zero
// required time from "not yet visited").
func (p Path) HasRequired() bool { return p.RequiredSet }

// MakePaths allocates (or reallocates) v's path array to hold n entries,
// discarding any existing paths. Called by search's arrival merge when
// a vertex's TagGroup is (re)assigned (spec.md §3 "path array sized
// to the vertex's TagGroup cardinality").
func (v *Vertex) MakePaths(n int) {
	v.paths = make([]Path, n)
}

// Paths returns v's current path array.
func (v *Vertex) Paths() []Path { return v.paths }

// Path returns v's path at tagIndex, and whether tagIndex was in range.
func (v *Vertex) Path(tagIndex int) (Path, bool) {
	if tagIndex < 0 || tagIndex >= len(v.paths) {
		return Path{}, false
	}

	return v.paths[tagIndex], true
}

// SetPath overwrites v's path at tagIndex.
func (v *Vertex) SetPath(tagIndex int, p Path) bool {
	if tagIndex < 0 || tagIndex >= len(v.paths) {
		return false
	}
	v.paths[tagIndex] = p

	return true
}

// DeletePaths discards v's path array, e.g. on invalidation.
func (v *Vertex) DeletePaths() {
	v.paths = nil
}
