// Package stagraph owns the timing graph: one Vertex per driver/load side
// of a pin, one Edge per (from, to, timing-arc-set), with side arrays for
// computed slews, arc delays and path records (spec.md §3). It is the
// direct descendant of the teacher's core.Graph: the same per-table
// sync.RWMutex discipline and sentinel-error vocabulary, generalized from
// a string-keyed adjacency map to integer vertex/edge ids with intrusive
// in/out edge lists, because the side arrays spec.md §3 calls for (slews,
// arc delays, paths) are indexed by position, not by string lookup.
//
// Errors:
//
//	ErrPinNotFound     - a referenced pin has no corresponding vertex.
//	ErrVertexNotFound  - a referenced vertex id does not exist.
//	ErrEdgeNotFound    - a referenced edge id does not exist.
//	ErrArcIndexRange   - an arc index is outside its edge's arc set.
//	ErrAPIndexRange    - an analysis-point index is outside the graph's AP count.
//	ErrCycleUnbreakable - levelisation could not find an edge to disable.
package stagraph

import (
	"errors"
	"math"

	"github.com/The-OpenROAD-Project/stacore/collaborators"
)

var (
	ErrPinNotFound      = errors.New("stagraph: pin not found")
	ErrVertexNotFound   = errors.New("stagraph: vertex not found")
	ErrEdgeNotFound     = errors.New("stagraph: edge not found")
	ErrArcIndexRange    = errors.New("stagraph: arc index out of range")
	ErrAPIndexRange     = errors.New("stagraph: analysis point index out of range")
	ErrCycleUnbreakable = errors.New("stagraph: cycle could not be broken during levelisation")
)

// VertexID indexes Graph.vertices. 0 is never issued, so the zero value
// of VertexID can serve as a "no vertex" sentinel in side tables.
type VertexID uint32

// EdgeID indexes Graph.edges, with the same "0 is invalid" convention.
type EdgeID uint32

// RiseFall selects a signal transition direction. Aliased from
// collaborators so graph code never has to import both packages just to
// spell the same two-valued type twice.
type RiseFall = collaborators.RiseFall

const (
	Rise = collaborators.Rise
	Fall = collaborators.Fall
)

// SlewRFCount bounds how many RiseFall-indexed slew slots a vertex's side
// array carries: 0 (no slew distinction, e.g. constant nets), 1 (single
// merged transition) or 2 (independent rise/fall), per spec.md §3.
type SlewRFCount int

// AnalysisPoint is one interned (min|max, PVT corner) product: the unit
// every delay, slew and arrival/required value is stored per, per
// spec.md's GLOSSARY entry. Index is a dense array index assigned at
// Graph construction time so side arrays can use it directly.
type AnalysisPoint struct {
	MinMax MinMax
	Corner string
	idx    int
}

// Index returns the dense array index this AnalysisPoint was assigned.
func (ap AnalysisPoint) Index() int { return ap.idx }

// MinMax distinguishes the two search directions: Max analysis computes
// worst-case (setup) timing, Min analysis computes best-case (hold)
// timing. Compare implements spec.md §4.8's "min_max.compare": for Max,
// smaller slack is worse; for Min, larger slack is worse.
type MinMax int

const (
	Max MinMax = iota
	Min
)

// Compare returns a negative number if a is worse than b, zero if equal,
// positive if a is better than b — ordering slacks from worst to best.
func (mm MinMax) Compare(a, b float64) int {
	switch {
	case a == b:
		return 0
	case mm == Max:
		if a < b {
			return -1
		}

		return 1
	default: // Min: larger slack is worse
		if a > b {
			return -1
		}

		return 1
	}
}

// Worse returns whichever of a, b is worse under this MinMax direction.
func (mm MinMax) Worse(a, b float64) float64 {
	if mm.Compare(a, b) < 0 {
		return a
	}

	return b
}

// Better returns whichever of a, b is better under this MinMax direction.
func (mm MinMax) Better(a, b float64) float64 {
	if mm.Compare(a, b) < 0 {
		return b
	}

	return a
}

// Sentinel returns the "no value yet" bound for this MinMax direction:
// +Inf for Max (any real arrival/required is better/lower priority to
// replace), -Inf for Min.
func (mm MinMax) Sentinel() float64 {
	if mm == Max {
		return posInf
	}

	return negInf
}

var (
	posInf = math.Inf(1)
	negInf = math.Inf(-1)
)

// SimValue is aliased from collaborators for vertex constant propagation.
type SimValue = collaborators.SimValue

const (
	SimUnknown = collaborators.SimUnknown
	SimZero    = collaborators.SimZero
	SimOne     = collaborators.SimOne
)

// Color is the three-state DFS marking used by levelisation's
// cycle/back-edge detection (spec.md §3 Vertex "colour for DFS").
type Color uint8

const (
	White Color = iota
	Gray
	Black
)

// BFSMask is a bitmask recording which BFS queues currently hold a
// vertex, so a vertex can be a member of the delay-calc queue and the
// arrival queue simultaneously without two separate "enqueued" bools.
type BFSMask uint8

const (
	BFSNone BFSMask = 0
)

const (
	BFSDelayCalc BFSMask = 1 << iota
	BFSArrival
	BFSRequired
	BFSOther
)

// VertexFlags is the bitmask of per-vertex boolean attributes from
// spec.md §3.
type VertexFlags uint16

const (
	FlagIsBidirectDriver VertexFlags = 1 << iota
	FlagIsRegisterClock
	FlagIsDisabledConstraint
	FlagHasTimingCheck
	FlagIsCheckClock
	FlagIsGatedClockEnable
	FlagHasDownstreamClockPin
	FlagIsConstrained
	FlagIsRoot
)

func (f VertexFlags) Has(bit VertexFlags) bool { return f&bit != 0 }

// EdgeFlags is the bitmask of per-edge boolean attributes from spec.md §3.
type EdgeFlags uint16

const (
	FlagDisabledByConstraint EdgeFlags = 1 << iota
	FlagDisabledByCond
	FlagDisabledToBreakLoop
	FlagIsBidirectInstPath
	FlagIsBidirectNetPath
	FlagDelayAnnotationIsIncremental
)

func (f EdgeFlags) Has(bit EdgeFlags) bool { return f&bit != 0 }
func (f *EdgeFlags) Set(bit EdgeFlags, v bool) {
	if v {
		*f |= bit
	} else {
		*f &^= bit
	}
}
