package collaborators

// Network is the read-only, post-link view of the netlist the core
// traverses to build its timing graph (spec.md §6). Every hierarchical
// pin is followed transparently by the core through IsHierarchical +
// NetPins; Network never exposes a separate "flattened" view.
type Network interface {
	// TopInstances lists the design's top-level instances.
	TopInstances() []InstanceID
	// ChildInstances lists the instances directly inside inst.
	ChildInstances(inst InstanceID) []InstanceID
	// Pins lists every pin belonging to inst (in stable, deterministic
	// order — callers rely on this for reproducible graph construction).
	Pins(inst InstanceID) []PinID
	// NetPins lists every pin connected to net (drivers and loads mixed;
	// callers classify by Direction).
	NetPins(net NetID) []PinID
	// PinNet returns the net a pin is connected to, if any.
	PinNet(pin PinID) (NetID, bool)
	// LibertyPort resolves a pin to its library port, if the pin's
	// instance is a leaf cell with a matching liberty definition.
	LibertyPort(pin PinID) (PortID, bool)
	// CellName returns the liberty cell name for the instance owning pin.
	CellName(pin PinID) (string, bool)
	// IsHierarchical reports whether pin belongs to a hierarchical
	// (non-leaf) instance, in which case the core must follow through to
	// the corresponding pins of the instance's contents.
	IsHierarchical(pin PinID) bool
	// IsBidirect reports whether pin can act as both a load and a driver.
	IsBidirect(pin PinID) bool
	// Direction reports whether pin is an input, output or bidirectional
	// port of its owning instance.
	Direction(pin PinID) Direction
	// Less provides a stable total order over pins. Graph construction
	// and levelisation do not call it: vertex ids follow Pins order and
	// loop breaking follows vertex/edge id order.
	Less(a, b PinID) bool
	// ConstantValue reports any constant or case-analysis value observed
	// on pin (tie/case-analysis set by the Sdc collaborator or constant
	// propagation already performed upstream of the core).
	ConstantValue(pin PinID) SimValue
	// HierPinThru follows a hierarchical pin to the edges that cross its
	// boundary, used by Graph.EdgesThruHierPin.
	HierPinThru(pin PinID) []PinID
}

// Direction classifies a pin's signal direction.
type Direction int

const (
	DirInput Direction = iota
	DirOutput
	DirBidirect
)
