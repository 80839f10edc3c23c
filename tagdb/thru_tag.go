package tagdb

import "github.com/The-OpenROAD-Project/stacore/collaborators"

// ThruTagEdge carries everything about the edge being crossed that the
// search pass (which knows about stagraph.Edge, the library arc sense
// and the Sdc exceptions) has already resolved, so that tagdb itself
// stays free of any stagraph/collaborators-specific matching logic and
// only performs the mechanical field mutation + interning spec.md §4.5
// describes for thruTag.
type ThruTagEdge struct {
	// Sense is the crossed arc's timing sense; a negative-unate arc on
	// a clock path flips which phase is "active" downstream.
	Sense collaborators.ArcSense

	// IsTristateEnable marks an edge whose arc passes through a
	// tristate buffer's enable-controlled path.
	IsTristateEnable bool
	// ClkThruTristateEnabled mirrors Sdc.ClkThruTristateEnabled(): when
	// true, clock-ness propagates through a tristate enable path.
	ClkThruTristateEnabled bool
	// TristateCaseAnalysisActive is true when the tristate enable pin
	// has an active case-analysis constant. Per the project's resolved
	// open question, case analysis outranks clk_thru_tristate: an
	// explicit case-analysis value on the enable pin always wins.
	TristateCaseAnalysisActive bool

	// MatchedThrough lists, by ExceptionState intern index, every
	// active exception-state cursor on the from-tag whose next
	// `through` point matches this edge and should advance.
	MatchedThrough []int

	// NewClkInfoIdx, when nonzero, replaces the from-tag's ClkInfoIdx
	// (used when crossing a clock source's own insertion edge, or when
	// a pulse-clock-converting gate changes pulse sense); 0 means
	// "keep the from-tag's ClkInfo unchanged".
	NewClkInfoIdx int

	// SegmentStart marks the to-vertex as the start of a new path
	// segment (e.g. a generated-clock source pin), setting the
	// resulting tag's IsSegmentStart.
	SegmentStart bool
}

// ThruTag implements spec.md §4.5 step 2: it derives the to-vertex's tag
// from fromIdx crossing one edge, applying clock-ness propagation,
// exception-state growth and ClkInfo substitution, then interns the
// result (reusing an existing Tag if one already has these exact
// field values).
func (db *DB) ThruTag(fromIdx int, toRF RiseFall, edge ThruTagEdge) int {
	from := db.Tag(fromIdx)

	to := from
	to.RF = toRF
	to.IsSegmentStart = edge.SegmentStart

	to.IsClockPath = db.propagateClockness(from.IsClockPath, edge)

	if edge.NewClkInfoIdx != 0 {
		to.ClkInfoIdx = edge.NewClkInfoIdx
	}

	if len(edge.MatchedThrough) > 0 {
		states := append([]int(nil), db.ExceptionStateSet(from.ExcStateSetIdx)...)
		stateIdx := indexStates(states)
		for _, matched := range edge.MatchedThrough {
			if pos, ok := stateIdx[matched]; ok {
				adv := db.ExceptionState(matched).Advanced()
				states[pos] = db.InternExceptionState(adv)
			}
		}
		to.ExcStateSetIdx = db.InternExceptionStateSet(states)
	}

	return db.InternTag(to)
}

// propagateClockness implements the clock-through-tristate /
// sense-inversion rule: a clock path stays a clock path across any
// edge unless it is gated by a tristate-enable path and
// clk_thru_tristate is disabled (or case analysis on the enable pin
// overrides it); a negative-unate arc never breaks clock-ness, it only
// flips the active phase, which is tracked by the caller's choice of
// toRF, not here.
func (db *DB) propagateClockness(fromIsClockPath bool, edge ThruTagEdge) bool {
	if !fromIsClockPath {
		return false
	}
	if !edge.IsTristateEnable {
		return true
	}
	if edge.TristateCaseAnalysisActive {
		return false
	}

	return edge.ClkThruTristateEnabled
}

func indexStates(states []int) map[int]int {
	m := make(map[int]int, len(states))
	for i, s := range states {
		m[s] = i
	}

	return m
}
