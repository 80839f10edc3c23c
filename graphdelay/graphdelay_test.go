package graphdelay_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The-OpenROAD-Project/stacore/collaborators"
	"github.com/The-OpenROAD-Project/stacore/delaycalc"
	"github.com/The-OpenROAD-Project/stacore/graphdelay"
	"github.com/The-OpenROAD-Project/stacore/stagraph"
)

type flatTable struct{ delay, slew float64 }

func (f flatTable) Axes() (slews, loads []float64)                                    { return []float64{0}, []float64{0} }
func (f flatTable) DelayAt(collaborators.RiseFall, int, int) float64                  { return f.delay }
func (f flatTable) SlewAt(collaborators.RiseFall, int, int) float64                    { return f.slew }

type noopResolver struct{}

func (noopResolver) Loads(*stagraph.Graph, *stagraph.Vertex) ([]stagraph.VertexID, delaycalc.LoadModel) {
	return nil, delaycalc.LoadModel{Form: collaborators.FormLumped, Lumped: 0.1}
}

func TestFindDelaysWritesArcDelayAndSlew(t *testing.T) {
	g := stagraph.NewGraph()
	a := g.AddVertex("a", true)
	b := g.AddVertex("b", false)
	_, err := g.AddEdge(a, b, []collaborators.TimingArc{{Role: collaborators.RoleGate, Table: flatTable{delay: 0.7, slew: 0.2}}})
	require.NoError(t, err)
	require.NoError(t, g.Levelize())

	calc := delaycalc.NewNLDMCalculator(fakeLibrary{}, nil)
	gdc := graphdelay.New(g, calc, noopResolver{})
	gdc.MarkVertexInvalid(a)

	require.NoError(t, gdc.FindDelays(context.Background(), 0))

	edge, _ := g.Edge(1)
	delay, err := edge.ArcDelay(0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, delay, 1e-9)

	av, err := g.Vertex(a)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, av.Slew(collaborators.Rise, 0), 1e-9)
}

type fakeLibrary struct{}

func (fakeLibrary) ArcSets(collaborators.PortID) []collaborators.TimingArc { return nil }
func (fakeLibrary) Units() collaborators.Units                            { return collaborators.Units{} }
func (fakeLibrary) Derating(string, collaborators.PVTCorner) collaborators.DeratingFactors {
	return collaborators.DeratingFactors{}
}
func (fakeLibrary) OperatingConditions() []collaborators.PVTCorner { return nil }
