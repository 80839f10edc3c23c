package engine

import (
	"github.com/The-OpenROAD-Project/stacore/collaborators"
	"github.com/The-OpenROAD-Project/stacore/search"
	"github.com/The-OpenROAD-Project/stacore/stagraph"
	"github.com/The-OpenROAD-Project/stacore/tagdb"
)

// SeedBuilder supplies the forward arrival search's initial seeds
// (spec.md §4.5 "Seeded by"). It is split into two calls because the
// reference-pin form of input delay needs a prior arrival at the
// reference pin before its own seed value is known (spec.md §4.5 "If a
// reference pin is given, substitute the reference pin's arrival for
// the clock edge time").
type SeedBuilder interface {
	// ArrivalSeeds returns every seed derivable without any prior
	// arrival data: clock sources, non-reference-pin input delays, and
	// (if Sdc.DefaultArrivalClockEnabled) the synthetic zero-arrival
	// seeds for otherwise-unconstrained primary inputs.
	ArrivalSeeds(g *stagraph.Graph, tags *tagdb.DB, sdc collaborators.Sdc, network collaborators.Network) ([]search.Seed, error)
	// RefPinArrivalSeeds returns reference-pin input-delay seeds; the
	// caller must have already run an Arrival pass seeded by
	// ArrivalSeeds so the reference pin's own Path.Arrival exists.
	RefPinArrivalSeeds(g *stagraph.Graph, tags *tagdb.DB, sdc collaborators.Sdc, network collaborators.Network) ([]search.Seed, error)
}

// DefaultSeedBuilder implements SeedBuilder directly against
// collaborators.Sdc/Network, with no additional collaborator surface.
type DefaultSeedBuilder struct{}

// vertexForPin resolves a pin to the vertex a seed should land on,
// preferring the driver-side vertex (the pin's own output side) over
// the load-side vertex, mirroring stagraph.Build's own "driver vertex
// exists for Output/Bidirect pins" convention.
func vertexForPin(g *stagraph.Graph, pin collaborators.PinID) (stagraph.VertexID, bool) {
	load, driver, err := g.PinVertices(pin)
	if err != nil {
		return 0, false
	}
	if driver != 0 {
		return driver, true
	}
	if load != 0 {
		return load, true
	}

	return 0, false
}

func earlyLate(v collaborators.EarlyLateValue, mm stagraph.MinMax) float64 {
	if mm == stagraph.Max {
		return v.Max
	}

	return v.Min
}

func clockEdgeTime(c collaborators.Clock, rf collaborators.RiseFall) float64 {
	if rf == collaborators.Rise {
		return c.RiseTime
	}

	return c.FallTime
}

func (DefaultSeedBuilder) ArrivalSeeds(g *stagraph.Graph, tags *tagdb.DB, sdc collaborators.Sdc, network collaborators.Network) ([]search.Seed, error) {
	var seeds []search.Seed
	aps := g.AnalysisPoints()
	bothRF := []collaborators.RiseFall{collaborators.Rise, collaborators.Fall}

	for _, clk := range sdc.Clocks() {
		for _, src := range clk.SourcePins {
			vid, ok := vertexForPin(g, src)
			if !ok {
				continue
			}
			for _, rf := range bothRF {
				edgeTime := clockEdgeTime(clk, rf)
				for _, ap := range aps {
					ci := tagdb.ClkInfo{
						ClockName:        clk.Name,
						Edge:             rf,
						SourcePin:        src,
						Propagated:       clk.Propagated,
						Insertion:        earlyLate(clk.Insertion, ap.MinMax),
						Latency:          earlyLate(clk.Latency, ap.MinMax),
						SetupUncertainty: clk.Uncertainty.Setup,
						HoldUncertainty:  clk.Uncertainty.Hold,
						MinMax:           ap.MinMax,
					}
					ciIdx := tags.InternClkInfo(ci)
					seeds = append(seeds, search.Seed{
						Vertex:  vid,
						APIndex: ap.Index(),
						RF:      rf,
						Arrival: edgeTime + ci.Insertion,
						Tag: tagdb.Tag{
							RF: rf, APIndex: ap.Index(), ClkInfoIdx: ciIdx,
							IsClockPath: true, InputDelayRef: -1, IsSegmentStart: true,
						},
					})
				}
			}
		}
	}

	clockByName := make(map[string]collaborators.Clock, len(sdc.Clocks()))
	for _, c := range sdc.Clocks() {
		clockByName[c.Name] = c
	}

	for _, id := range sdc.InputDelays() {
		if id.HasRefPin {
			continue // resolved by RefPinArrivalSeeds, once phase-1 arrivals exist
		}
		vid, ok := vertexForPin(g, id.Pin)
		if !ok {
			continue
		}
		clk, hasClk := clockByName[id.Clock]
		for _, ap := range aps {
			edgeTime, latency := 0.0, 0.0
			ciIdx := 0
			if hasClk {
				edgeTime = clockEdgeTime(clk, id.RiseFall)
				latency = earlyLate(clk.Latency, ap.MinMax)
				ciIdx = tags.InternClkInfo(tagdb.ClkInfo{ClockName: clk.Name, Edge: id.RiseFall, MinMax: ap.MinMax})
			}
			seeds = append(seeds, search.Seed{
				Vertex:  vid,
				APIndex: ap.Index(),
				RF:      id.RiseFall,
				Arrival: edgeTime + latency + earlyLate(id.Delay, ap.MinMax),
				Tag: tagdb.Tag{
					RF: id.RiseFall, APIndex: ap.Index(), ClkInfoIdx: ciIdx,
					InputDelayRef: 1, IsSegmentStart: true,
				},
			})
		}
	}

	if sdc.DefaultArrivalClockEnabled() {
		seeded := make(map[stagraph.VertexID]bool, len(seeds))
		for _, s := range seeds {
			seeded[s.Vertex] = true
		}
		g.EachVertex(func(v *stagraph.Vertex) bool {
			if seeded[v.ID()] {
				return true
			}
			if isRoot, err := g.IsRoot(v.ID()); err != nil || !isRoot {
				return true
			}
			for _, rf := range bothRF {
				for _, ap := range aps {
					seeds = append(seeds, search.Seed{
						Vertex: v.ID(), APIndex: ap.Index(), RF: rf, Arrival: 0,
						Tag: tagdb.Tag{RF: rf, APIndex: ap.Index(), InputDelayRef: -1, IsSegmentStart: true},
					})
				}
			}

			return true
		})
	}

	return seeds, nil
}

func (DefaultSeedBuilder) RefPinArrivalSeeds(g *stagraph.Graph, tags *tagdb.DB, sdc collaborators.Sdc, network collaborators.Network) ([]search.Seed, error) {
	var seeds []search.Seed
	aps := g.AnalysisPoints()

	for _, id := range sdc.InputDelays() {
		if !id.HasRefPin {
			continue
		}
		vid, ok := vertexForPin(g, id.Pin)
		if !ok {
			continue
		}
		refVid, ok := vertexForPin(g, id.RefPin)
		if !ok {
			continue
		}
		refV, err := g.Vertex(refVid)
		if err != nil {
			continue
		}

		for _, ap := range aps {
			for _, p := range refV.Paths() {
				if p.APIndex != ap.Index() || p.RF != id.RiseFall {
					continue
				}
				seeds = append(seeds, search.Seed{
					Vertex:  vid,
					APIndex: ap.Index(),
					RF:      id.RiseFall,
					Arrival: p.Arrival + earlyLate(id.Delay, ap.MinMax),
					Tag: tagdb.Tag{
						RF: id.RiseFall, APIndex: ap.Index(), ClkInfoIdx: 0,
						InputDelayRef: 1, IsSegmentStart: true,
					},
				})
			}
		}
	}

	return seeds, nil
}
