// Package delaycalc implements the per-driver delay/slew contract
// spec.md §4.3 calls DelayCalc: given an input slew and a load model,
// compute a gate's delay and output slew, plus the wire delay/slew to
// each load. The calculator never fails (spec.md §4.3 Failure model):
// degenerate inputs clamp to the nearest library table point without
// being reported, and unsupported load forms fall back to a
// lumped-capacitance estimate, warned once per form through a
// report.Sink rather than returned as an error.
package delaycalc

import (
	"github.com/The-OpenROAD-Project/stacore/collaborators"
	"github.com/The-OpenROAD-Project/stacore/report"
)

// DriverResult is one call's worth of computed timing: the arc's gate
// delay and output slew, and per-load wire delay/slew, indexed the
// same way LoadPinIndexMap orders loads.
type DriverResult struct {
	GateDelay        float64
	DriverOutputSlew float64
	WireDelay        []float64
	LoadSlew         []float64
}

// ReduceSupport reports which load-model forms a Calculator accepts
// without a fallback reduction, so GraphDelayCalc can pre-reduce a
// parasitic network into whichever form the calculator actually wants
// before calling it (spec.md §4.3 `reduce_supported()`).
type ReduceSupport struct {
	Lumped    bool
	Pi        bool
	Parasitic bool
}

// Calculator is the per-driver contract. Implementations must never
// return an error for a well-formed arc: Sink receives a warning for
// anything degenerate instead.
type Calculator interface {
	// ReduceSupported reports which LoadModel forms this calculator
	// accepts directly.
	ReduceSupported() ReduceSupport

	// Gate computes one gate arc's delay and output slew, and the wire
	// delay/slew at every load named by loads.
	Gate(arc collaborators.TimingArc, rf collaborators.RiseFall, inputSlew float64, load LoadModel, loads LoadPinIndexMap, ap int) DriverResult

	// InputPortDelay computes wire-only delay/slew for a primary input
	// with no driving cell (spec.md §4.3 `input_port_delay`).
	InputPortDelay(rf collaborators.RiseFall, inputSlew float64, load LoadModel, loads LoadPinIndexMap, ap int) DriverResult

	// CheckDelay computes a timing check's margin (setup/hold/recovery/
	// removal/width/period), given the clock and data slews and the
	// related output capacitance at the check pin.
	CheckDelay(arc collaborators.TimingArc, rf collaborators.RiseFall, fromSlew, toSlew float64, relatedOutCap collaborators.Capacitance, ap int) float64
}

// LoadModel is the load-side input to a Gate/InputPortDelay call: a
// lumped capacitance, a reduced pi-model, or a full parasitic network,
// mirroring collaborators.ParasiticForm.
type LoadModel struct {
	Form   collaborators.ParasiticForm
	Lumped collaborators.Capacitance
	Pi     collaborators.PiModel
	Net    collaborators.NetID // valid when Form == FormTree, resolved via collaborators.Parasitics
}

// LoadPinIndexMap is an ordered, deduplicated pin->index mapping over a
// net's load pins, built once per GraphDelayCalc vertex visit so wire
// delay/slew results line up positionally with the net's load list
// (spec.md §4.4 step 3 "unique mapping load_pin -> index").
type LoadPinIndexMap struct {
	pins []collaborators.PinID
	idx  map[collaborators.PinID]int
}

// NewLoadPinIndexMap builds a LoadPinIndexMap from pins, in the order
// given (callers should pass pins already ordered by pin identity, per
// spec.md §4.4, so results are deterministic across runs).
func NewLoadPinIndexMap(pins []collaborators.PinID) LoadPinIndexMap {
	m := LoadPinIndexMap{
		pins: make([]collaborators.PinID, 0, len(pins)),
		idx:  make(map[collaborators.PinID]int, len(pins)),
	}
	for _, p := range pins {
		if _, ok := m.idx[p]; ok {
			continue
		}
		m.idx[p] = len(m.pins)
		m.pins = append(m.pins, p)
	}

	return m
}

// Len returns the number of distinct load pins.
func (m LoadPinIndexMap) Len() int { return len(m.pins) }

// Index returns pin's position, or (-1, false) if pin is not a load.
func (m LoadPinIndexMap) Index(pin collaborators.PinID) (int, bool) {
	i, ok := m.idx[pin]

	return i, ok
}

// Pin returns the load pin at index i.
func (m LoadPinIndexMap) Pin(i int) collaborators.PinID { return m.pins[i] }

// Pins returns the ordered load-pin slice.
func (m LoadPinIndexMap) Pins() []collaborators.PinID { return m.pins }

// reportOnce forwards one warning to sink (dropped when sink is nil);
// callers decide whether a condition has already been reported.
func reportOnce(sink report.Sink, id report.ID, format string, args ...any) {
	if sink == nil {
		return
	}
	sink.Warn(id, format, args...)
}
