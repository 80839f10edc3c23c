package engine_test

import (
	"context"
	"testing"

	"pgregory.net/rapid"

	"github.com/The-OpenROAD-Project/stacore/collaborators"
	"github.com/The-OpenROAD-Project/stacore/collaborators/collabtest"
	"github.com/The-OpenROAD-Project/stacore/delaycalc"
	"github.com/The-OpenROAD-Project/stacore/engine"
	"github.com/The-OpenROAD-Project/stacore/pathgroups"
	"github.com/The-OpenROAD-Project/stacore/stagraph"
)

// chainFixture builds a combinational chain of n buffers, IN -> BUF0 ->
// BUF1 -> ... -> BUFn-1 -> OUT, each stage delaying by delays[i], the
// same shape as combFixture generalized to an arbitrary stage count.
func chainFixture(delays []float64) (*collabtest.Network, *collabtest.Library, *collabtest.Sdc) {
	net := collabtest.NewNetwork()
	lib := collabtest.NewLibrary()

	net.AddInstance("IN", "PIN_OUT", []string{"Y"}, []collaborators.Direction{collaborators.DirOutput})

	prev := "IN/Y"
	for i, d := range delays {
		inst := bufName(i)
		// collabtest.Network.LibertyPort returns the bare port name given
		// to AddInstance (not instance-qualified), and collabtest.Library
		// keys its arc sets on that same bare name, so every instance
		// needs its own globally-unique port names here to avoid its arc
		// set colliding with every other stage's.
		portA, portY := inst+"A", inst+"Y"
		net.AddInstance(inst, "BUF1", []string{portA, portY},
			[]collaborators.Direction{collaborators.DirInput, collaborators.DirOutput})
		lib.AddArc(collaborators.PortID(portA), collaborators.PortID(portY),
			collaborators.RoleGate, collaborators.SensePositiveUnate, d, d, 0, 0)
		net.Connect(netName(i), prev, inst+"/"+portA)
		prev = inst + "/" + portY
	}

	net.AddInstance("OUT", "PIN_IN", []string{"A"}, []collaborators.Direction{collaborators.DirInput})
	net.Connect("nout", prev, "OUT/A")

	sdc := collabtest.NewSdc()
	sdc.EnableDefaultArrivalClock()

	return net, lib, sdc
}

func bufName(i int) string { return "BUF" + itoa(i) }
func netName(i int) string { return "n" + itoa(i) }

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := ""
	for i > 0 {
		digits = string(rune('0'+i%10)) + digits
		i /= 10
	}

	return digits
}

func buildChainEngine(t *rapid.T, delays []float64) *engine.Engine {
	t.Helper()

	net, lib, sdc := chainFixture(delays)
	calc := delaycalc.NewNLDMCalculator(lib, nil)

	eng, err := engine.New(net, lib, sdc, calc, defaultAPs(), 2)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	if err := eng.UpdateTiming(context.Background(), true); err != nil {
		t.Fatalf("UpdateTiming: %v", err)
	}

	return eng
}

// TestArrivalEqualsSumOfStageDelays checks spec.md §4.5's arrival-
// propagation invariant directly: for any chain of combinational stages
// with no reconvergence, the worst-case arrival at the final endpoint
// equals the sum of every stage's delay, regardless of chain length or
// per-stage delay value.
func TestArrivalEqualsSumOfStageDelays(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(t, "stages")
		delays := make([]float64, n)
		var want float64
		for i := range delays {
			d := rapid.Float64Range(0, 50).Draw(t, "delay")
			delays[i] = d
			want += d
		}

		eng := buildChainEngine(t, delays)

		ends := eng.PathEnds(pathgroups.GroupUnconstrained)
		if len(ends) == 0 {
			t.Fatalf("expected at least one unconstrained PathEnd for a %d-stage chain", n)
		}

		found := false
		for _, pe := range ends {
			if approxEqual(pe.Path.Arrival, want) {
				found = true
			}
		}
		if !found {
			t.Fatalf("no PathEnd with arrival %v found across a %d-stage chain: %+v", want, n, ends)
		}
	})
}

// TestLevelizationRespectsEdgeDirection checks spec.md §4.1's levelling
// invariant (level = 1 + max(fanin.level)) over the same generated chains:
// every edge's destination vertex must sit at a strictly higher level
// than its source.
func TestLevelizationRespectsEdgeDirection(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(t, "stages")
		delays := make([]float64, n)
		for i := range delays {
			delays[i] = rapid.Float64Range(0, 10).Draw(t, "delay")
		}

		eng := buildChainEngine(t, delays)
		g := eng.Graph()

		g.EachVertex(func(v *stagraph.Vertex) bool {
			outs, _, err := g.OutNeighbors(v.ID(), false)
			if err != nil {
				return true
			}
			for _, to := range outs {
				toV, err := g.Vertex(to)
				if err != nil {
					continue
				}
				if toV.Level() <= v.Level() {
					t.Fatalf("edge %d->%d does not increase level (%d -> %d)", v.ID(), to, v.Level(), toV.Level())
				}
			}

			return true
		})
	})
}

// TestUpdateTimingIsDeterministic checks spec.md §9's "incremental
// equals full" property's weaker, always-true sibling: re-running
// UpdateTiming(full=false) on an already-converged engine with no
// annotation edits changes nothing observable.
func TestUpdateTimingIsDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 4).Draw(t, "stages")
		delays := make([]float64, n)
		for i := range delays {
			delays[i] = rapid.Float64Range(0, 20).Draw(t, "delay")
		}

		eng := buildChainEngine(t, delays)
		before := eng.PathEnds(pathgroups.GroupUnconstrained)

		if err := eng.UpdateTiming(context.Background(), false); err != nil {
			t.Fatalf("second UpdateTiming: %v", err)
		}
		after := eng.PathEnds(pathgroups.GroupUnconstrained)

		if len(before) != len(after) {
			t.Fatalf("PathEnd count changed across a no-op incremental update: %d -> %d", len(before), len(after))
		}
		for i := range before {
			if !approxEqual(before[i].Path.Arrival, after[i].Path.Arrival) {
				t.Fatalf("PathEnd[%d] arrival changed across a no-op incremental update: %v -> %v",
					i, before[i].Path.Arrival, after[i].Path.Arrival)
			}
		}
	})
}

func approxEqual(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	if d < 0 {
		d = -d
	}

	return d < eps
}
