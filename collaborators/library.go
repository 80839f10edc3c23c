package collaborators

// ArcRole classifies the timing relationship a TimingArc describes.
type ArcRole int

const (
	RoleGate ArcRole = iota
	RoleWire
	RoleSetup
	RoleHold
	RoleRecovery
	RoleRemoval
	RoleWidth
	RolePeriod
)

// ArcSense classifies how the arc's output transition depends on its
// input transition.
type ArcSense int

const (
	SenseUnknown ArcSense = iota
	SensePositiveUnate
	SenseNegativeUnate
	SenseNonUnate
)

// TimingArc is one directed (from-port, to-port) timing relationship
// inside a cell, as read from the liberty library.
type TimingArc struct {
	From PortID
	To   PortID
	Role ArcRole
	Sense ArcSense
	// When is the conditional expression gating this arc, already
	// simplified against constants is the Network's job (§4.1); this
	// field carries the raw (possibly nil) predicate for condition-arc
	// disabling at graph-build time.
	When CondExpr
	// Table looks up (input_slew, output_load) -> (delay, output_slew).
	// For check arcs the same table holds the check margin; nil for
	// wire arcs.
	Table LookupTable
}

// CondExpr is the minimal surface the core needs from a liberty `when`
// expression: whether it is satisfiable given a map of pin->SimValue
// observed on the arc's sibling pins. A nil CondExpr is always true.
type CondExpr interface {
	// Eval reports whether the condition holds given constant/case
	// analysis values resolved by the Network collaborator.
	Eval(consts map[PinID]SimValue) bool
}

// LookupTable returns (delay, output slew) for a gate arc given an input
// slew and an output load capacitance, and the reciprocal contract for
// wire/port delays. Concrete axis interpolation (bilinear NLDM lookup) is
// supplied by delaycalc, not here: Library only owns the raw table data.
// Tables are per-transition: a cell typically has distinct rise/fall
// delay and slew surfaces.
type LookupTable interface {
	// Axes returns the sorted input-slew and output-load breakpoints.
	Axes() (slews []float64, loads []float64)
	// DelayAt returns the stored delay at exact breakpoint indices for rf.
	DelayAt(rf RiseFall, slewIdx, loadIdx int) float64
	// SlewAt returns the stored output slew at exact breakpoint indices for rf.
	SlewAt(rf RiseFall, slewIdx, loadIdx int) float64
}

// Library exposes cell timing arcs, library units, per-corner derating
// and the set of operating conditions a design may be analyzed against.
type Library interface {
	// ArcSets returns every TimingArc whose To port is toPort.
	ArcSets(toPort PortID) []TimingArc
	Units() Units
	Derating(cellName string, pvt PVTCorner) DeratingFactors
	OperatingConditions() []PVTCorner
}
