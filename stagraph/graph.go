package stagraph

import (
	"sync"

	"github.com/The-OpenROAD-Project/stacore/collaborators"
)

// Vertex is one driver or load side of a pin (spec.md §3). Bidirectional
// pins get two vertices; Graph.PinVertices returns both.
type Vertex struct {
	id  VertexID
	pin collaborators.PinID

	level uint32
	flags VertexFlags
	sim   SimValue
	color Color
	bfs   BFSMask

	tagGroupIndex int

	// slews[rf][ap], sized slewRFCount x len(analysisPoints) at
	// construction; indices beyond slewRFCount are never used.
	slews [][]float64
	// paths is the vertex's current Path array, length equal to its
	// TagGroup's tag count (spec.md §3 PathStore/TagGroup invariant).
	paths []Path

	inEdges  []EdgeID
	outEdges []EdgeID
}

func (v *Vertex) ID() VertexID                  { return v.id }
func (v *Vertex) Pin() collaborators.PinID       { return v.pin }
func (v *Vertex) Level() uint32                  { return v.level }
func (v *Vertex) Flags() VertexFlags             { return v.flags }
func (v *Vertex) SetFlag(bit VertexFlags, on bool) {
	if on {
		v.flags |= bit
	} else {
		v.flags &^= bit
	}
}
func (v *Vertex) SimValue() SimValue          { return v.sim }
func (v *Vertex) Color() Color                { return v.color }
func (v *Vertex) TagGroupIndex() int          { return v.tagGroupIndex }
func (v *Vertex) SetTagGroupIndex(idx int)    { v.tagGroupIndex = idx }
func (v *Vertex) InEdges() []EdgeID           { return v.inEdges }
func (v *Vertex) OutEdges() []EdgeID          { return v.outEdges }
func (v *Vertex) Slew(rf RiseFall, ap int) float64 {
	if int(rf) >= len(v.slews) || ap >= len(v.slews[rf]) {
		return 0
	}

	return v.slews[rf][ap]
}
func (v *Vertex) SetSlew(rf RiseFall, ap int, s float64) {
	if int(rf) < len(v.slews) && ap < len(v.slews[rf]) {
		v.slews[rf][ap] = s
	}
}

// Edge is one (from, to, timing-arc-set) relationship (spec.md §3).
type Edge struct {
	id   EdgeID
	from VertexID
	to   VertexID

	arcs  []collaborators.TimingArc // the library arc set this edge realizes
	flags EdgeFlags

	// arcDelays[arcIdx][ap]; annotated[arcIdx][ap] tracks which slots
	// carry an SDF/manual override rather than a calculator-computed
	// value (spec.md §3 "compact bitmap of delay-is-annotated flags").
	arcDelays []ArcDelayRow
	annotated []annotatedRow

	// wireDelay/wireSlew are populated only for RoleWire edges, one
	// entry per (rf, ap); gate edges instead store their downstream
	// effects on the load vertex's slew side array directly.
	wireDelay [][]float64
	wireSlew  [][]float64
}

// ArcDelayRow holds one arc's delay per analysis point.
type ArcDelayRow []float64

type annotatedRow []bool

func (e *Edge) ID() EdgeID                       { return e.id }
func (e *Edge) From() VertexID                   { return e.from }
func (e *Edge) To() VertexID                     { return e.to }
func (e *Edge) Arcs() []collaborators.TimingArc  { return e.arcs }
func (e *Edge) Flags() EdgeFlags                 { return e.flags }
func (e *Edge) SetFlag(bit EdgeFlags, on bool)    { e.flags.Set(bit, on) }

// Disabled reports whether this edge should be skipped by search
// predicates (spec.md §4.1 edge disabling policy): the OR of constraint
// disable, condition disable and loop disable.
func (e *Edge) Disabled() bool {
	return e.flags.Has(FlagDisabledByConstraint) ||
		e.flags.Has(FlagDisabledByCond) ||
		e.flags.Has(FlagDisabledToBreakLoop)
}

// ArcDelay returns the delay of arc arcIdx at analysis point ap.
func (e *Edge) ArcDelay(arcIdx, ap int) (float64, error) {
	if arcIdx < 0 || arcIdx >= len(e.arcDelays) {
		return 0, ErrArcIndexRange
	}
	if ap < 0 || ap >= len(e.arcDelays[arcIdx]) {
		return 0, ErrAPIndexRange
	}

	return e.arcDelays[arcIdx][ap], nil
}

// SetArcDelay writes arc arcIdx's delay at ap; annotated marks whether
// this write is a user/SDF override (true) or a calculator write (false).
// A calculator write never clears an existing annotation — removing an
// annotation is an explicit act (see ClearAnnotation).
func (e *Edge) SetArcDelay(arcIdx, ap int, delay float64, annotated bool) error {
	if arcIdx < 0 || arcIdx >= len(e.arcDelays) {
		return ErrArcIndexRange
	}
	if ap < 0 || ap >= len(e.arcDelays[arcIdx]) {
		return ErrAPIndexRange
	}
	if annotated || !e.annotated[arcIdx][ap] {
		e.arcDelays[arcIdx][ap] = delay
	}
	if annotated {
		e.annotated[arcIdx][ap] = true
	}

	return nil
}

// ClearAnnotation removes the annotated flag on arc arcIdx at ap, so the
// next calculator pass overwrites it with a computed value again
// (spec.md §8 round-trip property).
func (e *Edge) ClearAnnotation(arcIdx, ap int) error {
	if arcIdx < 0 || arcIdx >= len(e.annotated) {
		return ErrArcIndexRange
	}
	if ap < 0 || ap >= len(e.annotated[arcIdx]) {
		return ErrAPIndexRange
	}
	e.annotated[arcIdx][ap] = false

	return nil
}

// ArcDelayAnnotated reports whether arcIdx's delay at ap is an override.
func (e *Edge) ArcDelayAnnotated(arcIdx, ap int) bool {
	if arcIdx < 0 || arcIdx >= len(e.annotated) {
		return false
	}
	if ap < 0 || ap >= len(e.annotated[arcIdx]) {
		return false
	}

	return e.annotated[arcIdx][ap]
}

// DelayAnnotated reports whether any arc on this edge is annotated.
func (e *Edge) DelayAnnotated() bool {
	for _, row := range e.annotated {
		for _, b := range row {
			if b {
				return true
			}
		}
	}

	return false
}

func (e *Edge) WireDelay(rf RiseFall, ap int) float64 {
	if int(rf) < len(e.wireDelay) && ap < len(e.wireDelay[rf]) {
		return e.wireDelay[rf][ap]
	}

	return 0
}
func (e *Edge) SetWireDelay(rf RiseFall, ap int, d float64) {
	if int(rf) < len(e.wireDelay) && ap < len(e.wireDelay[rf]) {
		e.wireDelay[rf][ap] = d
	}
}
func (e *Edge) WireSlew(rf RiseFall, ap int) float64 {
	if int(rf) < len(e.wireSlew) && ap < len(e.wireSlew[rf]) {
		return e.wireSlew[rf][ap]
	}

	return 0
}
func (e *Edge) SetWireSlew(rf RiseFall, ap int, s float64) {
	if int(rf) < len(e.wireSlew) && ap < len(e.wireSlew[rf]) {
		e.wireSlew[rf][ap] = s
	}
}

// Graph owns every Vertex and Edge in the timing graph. Vertex/edge
// catalogs use an append-only slice rather than the teacher's
// map[string]*T: deletions tombstone a slot (nil it out) instead of
// compacting, and tombstoned slots are not reused, preserving VertexID/EdgeID stability for side tables held
// by TagDB/search/graphdelay across incremental edits (spec.md §3
// Lifecycle: "vertices and edges ... mutated only by netlist edit
// operations that notify the core").
type Graph struct {
	muVert    sync.RWMutex // guards vertices, pinVertex
	muEdgeAdj sync.RWMutex // guards edges

	analysisPoints []AnalysisPoint
	slewRFCount    SlewRFCount

	vertices  []*Vertex // index 0 unused; VertexID(0) is invalid
	edges     []*Edge   // index 0 unused; EdgeID(0) is invalid
	pinVertex map[collaborators.PinID]pinVertexPair

	// levelValid is false once any netlist edit invalidates levels
	// (spec.md §4.2 "Levels are maintained under incremental edit").
	levelValid bool
}

type pinVertexPair struct {
	load   VertexID
	driver VertexID // 0 if the pin is not a driver
}

// GraphOption configures a Graph at construction.
type GraphOption func(*Graph)

// WithAnalysisPoints sets the dense list of analysis points every side
// array is sized against.
func WithAnalysisPoints(aps []AnalysisPoint) GraphOption {
	return func(g *Graph) {
		g.analysisPoints = make([]AnalysisPoint, len(aps))
		for i, ap := range aps {
			ap.idx = i
			g.analysisPoints[i] = ap
		}
	}
}

// WithSlewRFCount sets how many rise/fall slew slots each vertex carries.
func WithSlewRFCount(n SlewRFCount) GraphOption {
	return func(g *Graph) { g.slewRFCount = n }
}

// NewGraph creates an empty Graph. Vertex/edge id 0 is reserved invalid,
// so internal slices are pre-seeded with one nil placeholder.
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		vertices:       []*Vertex{nil},
		edges:          []*Edge{nil},
		pinVertex:      make(map[collaborators.PinID]pinVertexPair),
		slewRFCount:    2,
		analysisPoints: []AnalysisPoint{{MinMax: Max, Corner: "default"}, {MinMax: Min, Corner: "default"}},
	}
	for i := range g.analysisPoints {
		g.analysisPoints[i].idx = i
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// AnalysisPoints returns the graph's dense analysis-point list.
func (g *Graph) AnalysisPoints() []AnalysisPoint { return g.analysisPoints }

// APCount returns len(AnalysisPoints()).
func (g *Graph) APCount() int { return len(g.analysisPoints) }

// SlewRFCount returns how many rise/fall slots vertex slew arrays carry.
func (g *Graph) SlewRFCount() SlewRFCount { return g.slewRFCount }
