package stagraph

import "github.com/The-OpenROAD-Project/stacore/collaborators"

// Build walks network and library and constructs a Graph: one vertex
// pair per pin (load always, driver only if network reports the pin as
// an output or bidirectional), and one gate edge per (to pin, from port)
// carrying every timing arc between that pair whose ports resolve to
// pins of the same instance. Wire edges are not added here; call
// ConnectNets for them. Levels are not assigned; call (*Graph).Levelize
// before running a search pass.
func Build(network collaborators.Network, library collaborators.Library, opts ...GraphOption) (*Graph, error) {
	g := NewGraph(opts...)

	insts := network.TopInstances()
	for _, inst := range insts {
		if err := buildInstance(g, network, library, inst); err != nil {
			return nil, err
		}
	}

	return g, nil
}

func buildInstance(g *Graph, network collaborators.Network, library collaborators.Library, inst collaborators.InstanceID) error {
	pins := network.Pins(inst)

	// Create vertices for every pin first, so gate-arc wiring below can
	// always find both endpoints regardless of port declaration order.
	for _, pin := range pins {
		g.AddVertex(pin, false)
		switch network.Direction(pin) {
		case collaborators.DirOutput, collaborators.DirBidirect:
			g.AddVertex(pin, true)
		}
	}

	for _, pin := range pins {
		toPort, ok := network.LibertyPort(pin)
		if !ok {
			continue
		}
		arcsByFrom := groupArcsByFromPort(library.ArcSets(toPort))
		for fromPort, arcs := range arcsByFrom {
			fromPin := siblingPin(network, pins, fromPort)
			if fromPin == "" {
				continue
			}
			fromLoad, fromDriver, err := g.PinVertices(fromPin)
			if err != nil {
				continue
			}
			from := fromDriver
			if from == 0 {
				from = fromLoad
			}
			toLoad, toDriver, err := g.PinVertices(pin)
			if err != nil {
				continue
			}
			to := toDriver
			if to == 0 {
				to = toLoad
			}
			if from == 0 || to == 0 {
				continue
			}
			if _, err := g.AddEdge(from, to, arcs); err != nil {
				return err
			}
		}
	}

	return nil
}

func groupArcsByFromPort(arcs []collaborators.TimingArc) map[collaborators.PortID][]collaborators.TimingArc {
	out := make(map[collaborators.PortID][]collaborators.TimingArc)
	for _, a := range arcs {
		out[a.From] = append(out[a.From], a)
	}

	return out
}

func siblingPin(network collaborators.Network, pins []collaborators.PinID, port collaborators.PortID) collaborators.PinID {
	for _, p := range pins {
		if pp, ok := network.LibertyPort(p); ok && pp == port {
			return p
		}
	}

	return ""
}

// ConnectNets adds a driver->load wire edge for every net in the design,
// one edge per (driver, load) pair reported by network.NetPins, so
// downstream delay calc and search see wires as ordinary RoleWire edges
// rather than a separate graph layer.
func ConnectNets(g *Graph, network collaborators.Network, nets []collaborators.NetID) error {
	for _, net := range nets {
		pins := network.NetPins(net)

		var driver VertexID
		var loads []VertexID
		for _, pin := range pins {
			_, drv, err := g.PinVertices(pin)
			if err != nil {
				continue
			}
			if drv != 0 {
				driver = drv
			}
			ld, _, err := g.PinVertices(pin)
			if err == nil && ld != 0 && ld != driver {
				loads = append(loads, ld)
			}
		}
		if driver == 0 {
			continue
		}
		for _, load := range loads {
			wireArc := []collaborators.TimingArc{{Role: collaborators.RoleWire}}
			if _, err := g.AddEdge(driver, load, wireArc); err != nil {
				return err
			}
		}
	}

	return nil
}
