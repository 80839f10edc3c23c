package delaycalc

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/The-OpenROAD-Project/stacore/collaborators"
	"github.com/The-OpenROAD-Project/stacore/report"
)

// NLDMCalculator is the default Calculator: bilinear lookup against each
// arc's (input_slew x output_load) breakpoint table, the non-linear
// delay model every modern liberty library characterises cells with.
// Pi-model and parasitic-network loads are reduced to a lumped
// capacitance inside the calculator itself (see effectiveLoadCap):
// ReduceSupported reports Pi/Parasitic as false, but GraphDelayCalc does
// not consult it and passes load models through unreduced.
type NLDMCalculator struct {
	library collaborators.Library
	sink    report.Sink

	// warned records which load forms have already produced a fallback
	// warning, so each form is reported at most once per calculator.
	warned sync.Map
}

// NewNLDMCalculator constructs a calculator backed by library, logging
// degenerate/fallback conditions through sink (nil is valid: warnings
// are dropped).
func NewNLDMCalculator(library collaborators.Library, sink report.Sink) *NLDMCalculator {
	return &NLDMCalculator{library: library, sink: sink}
}

func (c *NLDMCalculator) ReduceSupported() ReduceSupport {
	return ReduceSupport{Lumped: true, Pi: false, Parasitic: false}
}

func (c *NLDMCalculator) Gate(arc collaborators.TimingArc, rf collaborators.RiseFall, inputSlew float64, load LoadModel, loads LoadPinIndexMap, ap int) DriverResult {
	cap := c.effectiveLoadCap(load)

	res := DriverResult{
		WireDelay: make([]float64, loads.Len()),
		LoadSlew:  make([]float64, loads.Len()),
	}
	if arc.Table == nil {
		return res
	}

	delay, slew := bilinear(arc.Table, rf, inputSlew, float64(cap))
	res.GateDelay = delay
	res.DriverOutputSlew = slew
	for i := range loads.Pins() {
		res.LoadSlew[i] = slew
	}

	return res
}

func (c *NLDMCalculator) InputPortDelay(rf collaborators.RiseFall, inputSlew float64, load LoadModel, loads LoadPinIndexMap, ap int) DriverResult {
	return DriverResult{
		DriverOutputSlew: inputSlew,
		WireDelay:        make([]float64, loads.Len()),
		LoadSlew:         repeat(inputSlew, loads.Len()),
	}
}

func (c *NLDMCalculator) CheckDelay(arc collaborators.TimingArc, rf collaborators.RiseFall, fromSlew, toSlew float64, relatedOutCap collaborators.Capacitance, ap int) float64 {
	if arc.Table == nil {
		return 0
	}
	margin, _ := bilinear(arc.Table, rf, fromSlew, float64(relatedOutCap))

	return margin
}

// effectiveLoadCap reduces any load form this calculator doesn't
// natively support down to a lumped capacitance, warning once via Sink
// (spec.md §4.3 "unsupported parasitic forms fall back to lumped cap
// with a one-time warning").
func (c *NLDMCalculator) effectiveLoadCap(load LoadModel) collaborators.Capacitance {
	switch load.Form {
	case collaborators.FormNone, collaborators.FormLumped:
		return load.Lumped
	case collaborators.FormPi:
		if _, seen := c.warned.LoadOrStore(load.Form, true); !seen {
			reportOnce(c.sink, report.WarnParasiticFormUnsupported, "pi-model load reduced to lumped cap for NLDM lookup")
		}

		return load.Pi.TotalCap()
	default:
		if _, seen := c.warned.LoadOrStore(load.Form, true); !seen {
			reportOnce(c.sink, report.WarnParasiticFormUnsupported, "parasitic network load reduced to lumped cap for NLDM lookup")
		}

		return load.Lumped
	}
}

// bilinear looks up delay/slew from tbl at (inputSlew, loadCap),
// clamping out-of-range inputs to the nearest breakpoint (spec.md
// §4.3 "degenerate inputs ... clamp to the library's nearest cell")
// and linearly blending between the four surrounding breakpoints
// otherwise, weighted by gonum/floats.Dot against the four corner
// values.
func bilinear(tbl collaborators.LookupTable, rf collaborators.RiseFall, inputSlew, loadCap float64) (delay, slew float64) {
	slews, loads := tbl.Axes()
	if len(slews) == 0 || len(loads) == 0 {
		return 0, 0
	}

	si0, si1, sw := bracket(slews, inputSlew)
	li0, li1, lw := bracket(loads, loadCap)

	weights := []float64{(1 - sw) * (1 - lw), (1 - sw) * lw, sw * (1 - lw), sw * lw}
	delayCorners := []float64{
		tbl.DelayAt(rf, si0, li0), tbl.DelayAt(rf, si0, li1),
		tbl.DelayAt(rf, si1, li0), tbl.DelayAt(rf, si1, li1),
	}
	slewCorners := []float64{
		tbl.SlewAt(rf, si0, li0), tbl.SlewAt(rf, si0, li1),
		tbl.SlewAt(rf, si1, li0), tbl.SlewAt(rf, si1, li1),
	}

	return floats.Dot(weights, delayCorners), floats.Dot(weights, slewCorners)
}

// bracket finds the pair of indices in sorted axis that surrounds x,
// and the fractional weight toward the upper index; x outside the
// axis range clamps to the nearest endpoint (weight 0 below the range,
// weight 1 above it).
func bracket(axis []float64, x float64) (lo, hi int, w float64) {
	if len(axis) == 1 {
		return 0, 0, 0
	}
	i := sort.SearchFloat64s(axis, x)
	switch {
	case i <= 0:
		return 0, 1, 0
	case i >= len(axis):
		return len(axis) - 2, len(axis) - 1, 1
	default:
		lo, hi = i-1, i
		span := axis[hi] - axis[lo]
		if span <= 0 {
			return lo, hi, 0
		}

		return lo, hi, (x - axis[lo]) / span
	}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}

	return out
}
