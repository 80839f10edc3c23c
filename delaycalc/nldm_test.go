package delaycalc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The-OpenROAD-Project/stacore/collaborators"
	"github.com/The-OpenROAD-Project/stacore/delaycalc"
)

// twoByTwoTable is a minimal LookupTable fixture with two slew
// breakpoints and two load breakpoints, values chosen so bilinear
// interpolation midpoint checks are easy to hand-verify.
type twoByTwoTable struct{}

func (twoByTwoTable) Axes() (slews, loads []float64) {
	return []float64{0, 1}, []float64{0, 1}
}

func (twoByTwoTable) DelayAt(rf collaborators.RiseFall, si, li int) float64 {
	return float64(si*2 + li) // 0,1,2,3 at the four corners
}

func (twoByTwoTable) SlewAt(rf collaborators.RiseFall, si, li int) float64 {
	return float64(si + li)
}

func TestBilinearMidpointAveragesFourCorners(t *testing.T) {
	lib := fakeLibrary{}
	calc := delaycalc.NewNLDMCalculator(lib, nil)

	arc := collaborators.TimingArc{Role: collaborators.RoleGate, Table: twoByTwoTable{}}
	loads := delaycalc.NewLoadPinIndexMap([]collaborators.PinID{"u2/A"})
	load := delaycalc.LoadModel{Form: collaborators.FormLumped, Lumped: 0.5}

	res := calc.Gate(arc, collaborators.Rise, 0.5, load, loads, 0)
	assert.InDelta(t, 1.5, res.GateDelay, 1e-9, "corner average at the exact midpoint of both axes")
	require.Len(t, res.LoadSlew, 1)
}

func TestBilinearClampsOutOfRangeToNearestBreakpoint(t *testing.T) {
	lib := fakeLibrary{}
	calc := delaycalc.NewNLDMCalculator(lib, nil)

	arc := collaborators.TimingArc{Role: collaborators.RoleGate, Table: twoByTwoTable{}}
	loads := delaycalc.NewLoadPinIndexMap(nil)
	load := delaycalc.LoadModel{Form: collaborators.FormLumped, Lumped: -5}

	res := calc.Gate(arc, collaborators.Rise, -5, load, loads, 0)
	assert.Equal(t, 0.0, res.GateDelay, "below-range input clamps to the (0,0) corner")
}

func TestReduceSupportedReportsLumpedOnly(t *testing.T) {
	calc := delaycalc.NewNLDMCalculator(fakeLibrary{}, nil)
	sup := calc.ReduceSupported()
	assert.True(t, sup.Lumped)
	assert.False(t, sup.Pi)
	assert.False(t, sup.Parasitic)
}

type fakeLibrary struct{}

func (fakeLibrary) ArcSets(collaborators.PortID) []collaborators.TimingArc { return nil }
func (fakeLibrary) Units() collaborators.Units                            { return collaborators.Units{} }
func (fakeLibrary) Derating(string, collaborators.PVTCorner) collaborators.DeratingFactors {
	return collaborators.DeratingFactors{}
}
func (fakeLibrary) OperatingConditions() []collaborators.PVTCorner { return nil }
