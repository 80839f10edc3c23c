// Package collaborators declares the read-only interfaces and plain data
// types that the timing core consumes from its external collaborators:
// a linked Network, a cell Library, a Parasitics network reducer, Sdc
// constraints and Sdf back-annotation. The core never imports a concrete
// parser or linker; it only ever sees these interfaces, so a test or a
// caller can supply an in-memory fake (see the collabtest subpackage)
// without pulling in a netlist/liberty/SDC front end.
//
// None of the identifier types below are owned by the core: PinID,
// InstanceID, NetID and PortID are opaque strings handed back and forth
// between the core and its collaborators, exactly as spec.md §3's
// "Ownership" section describes.
package collaborators

// PinID identifies a pin within a linked design. Opaque to the core.
type PinID string

// InstanceID identifies an instance (cell or hierarchical module).
type InstanceID string

// NetID identifies a net connecting one or more pins.
type NetID string

// PortID identifies a library cell port (the liberty-side counterpart of a
// pin once the pin has been resolved against its cell).
type PortID string

// SimValue is a constant/case-analysis value observed on a pin.
type SimValue int

const (
	SimUnknown SimValue = iota
	SimZero
	SimOne
)

// RiseFall selects one of the two signal transition directions.
type RiseFall int

const (
	Rise RiseFall = iota
	Fall
)

// Other returns the opposite transition.
func (rf RiseFall) Other() RiseFall {
	if rf == Rise {
		return Fall
	}

	return Rise
}

func (rf RiseFall) String() string {
	if rf == Rise {
		return "rise"
	}

	return "fall"
}

// AnalysisType selects how operating-condition corners combine.
type AnalysisType int

const (
	AnalysisSingle AnalysisType = iota
	AnalysisBCWC
	AnalysisOCV
)

// PVTCorner names one process/voltage/temperature operating condition.
type PVTCorner string

// Units records the library's physical units (time, capacitance,
// resistance, voltage) so that delay-calculator inputs/outputs can be
// interpreted consistently across libraries with different unit scales.
type Units struct {
	Time         float64 // seconds per library time unit
	Capacitance  float64 // farads per library capacitance unit
	Resistance   float64 // ohms per library resistance unit
	Voltage      float64 // volts per library voltage unit
}

// DeratingFactors holds the scale factors applied to arc delays, indexed
// by {cell_delay, cell_check, net_delay} x {clk, data} x rf x early/late,
// per spec.md §4.5 step 3.
type DeratingFactors struct {
	CellDelay DeratingAxis
	CellCheck DeratingAxis
	NetDelay  DeratingAxis
}

// DeratingAxis is one {clk,data} x {rise,fall} x {early,late} cube.
type DeratingAxis struct {
	Clk  [2]EarlyLate // indexed by RiseFall
	Data [2]EarlyLate
}

// EarlyLate is a pair of derating factors for the early (min) and late
// (max) analysis directions. Factors default to 1.0 (no derating).
type EarlyLate struct {
	Early float64
	Late  float64
}

// DefaultDerating returns neutral (1.0) derating factors.
func DefaultDerating() DeratingFactors {
	neutral := EarlyLate{Early: 1, Late: 1}
	axis := DeratingAxis{
		Clk:  [2]EarlyLate{neutral, neutral},
		Data: [2]EarlyLate{neutral, neutral},
	}

	return DeratingFactors{CellDelay: axis, CellCheck: axis, NetDelay: axis}
}

// Capacitance is a lumped load capacitance in library units.
type Capacitance float64

// ParasiticForm names the shape a net's parasitics are stored in.
type ParasiticForm int

const (
	FormNone ParasiticForm = iota
	FormLumped
	FormPi
	FormTree
)

// PiModel is a reduced driver-side pi network: C1 - R - C2 (far cap).
type PiModel struct {
	C1 Capacitance
	R  float64
	C2 Capacitance
}

// TotalCap returns the pi-model's total capacitance as seen by the driver
// in the DC limit (C1 + C2), the standard fallback when a calculator only
// supports lumped loads.
func (p PiModel) TotalCap() Capacitance { return p.C1 + p.C2 }
