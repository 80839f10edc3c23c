// Package collabtest provides small in-memory fakes of the five core
// collaborator interfaces (Network, Library, Parasitics, Sdc, Sdf), built
// either programmatically or from a YAML fixture, so that package tests
// never need a real netlist/liberty/SDC front end. This mirrors how the
// teacher's test suites build small fixtures inline rather than pulling
// in parsers, generalized to the core's external-collaborator boundary.
package collabtest

import (
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/The-OpenROAD-Project/stacore/collaborators"
)

// Pin is a fully-qualified "instance/port" pin name used by the fake
// network. Top-level ports are named "PORT/port".
type Pin = collaborators.PinID

// Network is an in-memory collaborators.Network.
type Network struct {
	top       []collaborators.InstanceID
	pins      map[collaborators.InstanceID][]Pin
	pinNet    map[Pin]collaborators.NetID
	netPins   map[collaborators.NetID][]Pin
	cellOf    map[Pin]string
	portOf    map[Pin]collaborators.PortID
	direction map[Pin]collaborators.Direction
	bidirect  map[Pin]bool
	constants map[Pin]collaborators.SimValue
	// sessionID distinguishes fakes built in the same process for
	// scene/session-scoped identifiers the core may want from a
	// collaborator (none of the plain interfaces require it, but fixture
	// authors occasionally tag a build with one for log correlation).
	sessionID uuid.UUID
}

// NewNetwork returns an empty fake network ready for Connect/AddPin calls.
func NewNetwork() *Network {
	return &Network{
		pins:      make(map[collaborators.InstanceID][]Pin),
		pinNet:    make(map[Pin]collaborators.NetID),
		netPins:   make(map[collaborators.NetID][]Pin),
		cellOf:    make(map[Pin]string),
		portOf:    make(map[Pin]collaborators.PortID),
		direction: make(map[Pin]collaborators.Direction),
		bidirect:  make(map[Pin]bool),
		constants: make(map[Pin]collaborators.SimValue),
		sessionID: uuid.New(),
	}
}

// AddInstance registers a leaf instance of the given cell with pins and
// their directions (dir[i] corresponds to ports[i]).
func (n *Network) AddInstance(inst, cell string, ports []string, dirs []collaborators.Direction) {
	id := collaborators.InstanceID(inst)
	n.top = append(n.top, id)
	for i, p := range ports {
		pin := Pin(fmt.Sprintf("%s/%s", inst, p))
		n.pins[id] = append(n.pins[id], pin)
		n.cellOf[pin] = cell
		n.portOf[pin] = collaborators.PortID(p)
		if i < len(dirs) {
			n.direction[pin] = dirs[i]
			n.bidirect[pin] = dirs[i] == collaborators.DirBidirect
		}
	}
}

// Connect adds net with the given member pins, recording both directions
// of the pin<->net mapping.
func (n *Network) Connect(net string, pins ...string) {
	nid := collaborators.NetID(net)
	for _, p := range pins {
		pin := Pin(p)
		n.pinNet[pin] = nid
		n.netPins[nid] = append(n.netPins[nid], pin)
	}
}

// SetConstant marks pin as tied to a constant/case-analysis value.
func (n *Network) SetConstant(pin string, v collaborators.SimValue) {
	n.constants[Pin(pin)] = v
}

func (n *Network) TopInstances() []collaborators.InstanceID { return n.top }
func (n *Network) ChildInstances(collaborators.InstanceID) []collaborators.InstanceID {
	return nil // fake network is always flat; no hierarchy to descend into
}
func (n *Network) Pins(inst collaborators.InstanceID) []Pin { return n.pins[inst] }
func (n *Network) NetPins(net collaborators.NetID) []Pin    { return n.netPins[net] }
func (n *Network) PinNet(pin Pin) (collaborators.NetID, bool) {
	net, ok := n.pinNet[pin]

	return net, ok
}
func (n *Network) LibertyPort(pin Pin) (collaborators.PortID, bool) {
	port, ok := n.portOf[pin]

	return port, ok
}
func (n *Network) CellName(pin Pin) (string, bool) {
	cell, ok := n.cellOf[pin]

	return cell, ok
}
func (n *Network) IsHierarchical(Pin) bool { return false }
func (n *Network) IsBidirect(pin Pin) bool { return n.bidirect[pin] }
func (n *Network) Direction(pin Pin) collaborators.Direction {
	return n.direction[pin]
}
func (n *Network) Less(a, b Pin) bool { return a < b }
func (n *Network) ConstantValue(pin Pin) collaborators.SimValue {
	if v, ok := n.constants[pin]; ok {
		return v
	}

	return collaborators.SimUnknown
}
func (n *Network) HierPinThru(Pin) []Pin { return nil }

// Library is an in-memory collaborators.Library.
type Library struct {
	arcs     map[collaborators.PortID][]collaborators.TimingArc
	units    collaborators.Units
	derating map[string]collaborators.DeratingFactors
	corners  []collaborators.PVTCorner
}

// NewLibrary returns an empty fake library with neutral (1.0) units.
func NewLibrary() *Library {
	return &Library{
		arcs: make(map[collaborators.PortID][]collaborators.TimingArc),
		units: collaborators.Units{
			Time: 1, Capacitance: 1, Resistance: 1, Voltage: 1,
		},
		derating: make(map[string]collaborators.DeratingFactors),
		corners:  []collaborators.PVTCorner{"typical"},
	}
}

// AddArc registers a timing arc ending at toPort with a constant-delay
// lookup table (flat table returning riseDelay/fallDelay regardless of
// slew/load), the simplest table a fixture needs.
func (l *Library) AddArc(from, to collaborators.PortID, role collaborators.ArcRole, sense collaborators.ArcSense, riseDelay, fallDelay, riseSlew, fallSlew float64) {
	l.arcs[to] = append(l.arcs[to], collaborators.TimingArc{
		From: from, To: to, Role: role, Sense: sense,
		Table: &flatTable{riseDelay: riseDelay, fallDelay: fallDelay, riseSlew: riseSlew, fallSlew: fallSlew},
	})
}

func (l *Library) ArcSets(toPort collaborators.PortID) []collaborators.TimingArc {
	return l.arcs[toPort]
}
func (l *Library) Units() collaborators.Units { return l.units }
func (l *Library) Derating(cell string, pvt collaborators.PVTCorner) collaborators.DeratingFactors {
	if d, ok := l.derating[cell]; ok {
		return d
	}

	return collaborators.DefaultDerating()
}
func (l *Library) OperatingConditions() []collaborators.PVTCorner { return l.corners }

// flatTable is a degenerate LookupTable returning a fixed (delay, slew)
// pair per transition regardless of the requested axis point; delaycalc
// interpolates it exactly like a real NLDM table with one breakpoint.
type flatTable struct {
	riseDelay, fallDelay float64
	riseSlew, fallSlew   float64
}

func (f *flatTable) Axes() (slews, loads []float64) { return []float64{0}, []float64{0} }
func (f *flatTable) DelayAt(rf collaborators.RiseFall, slewIdx, loadIdx int) float64 {
	if rf == collaborators.Rise {
		return f.riseDelay
	}

	return f.fallDelay
}
func (f *flatTable) SlewAt(rf collaborators.RiseFall, slewIdx, loadIdx int) float64 {
	if rf == collaborators.Rise {
		return f.riseSlew
	}

	return f.fallSlew
}

// Parasitics is an in-memory collaborators.Parasitics that only knows
// lumped capacitances (no π/tree forms, the simplest fixture shape); a
// net without SetLumped reports FormNone.
type Parasitics struct {
	lumped map[collaborators.NetID]collaborators.Capacitance
}

func NewParasitics() *Parasitics {
	return &Parasitics{lumped: make(map[collaborators.NetID]collaborators.Capacitance)}
}

func (p *Parasitics) SetLumped(net string, cap collaborators.Capacitance) {
	p.lumped[collaborators.NetID(net)] = cap
}

func (p *Parasitics) Form(net collaborators.NetID) collaborators.ParasiticForm {
	if _, ok := p.lumped[net]; ok {
		return collaborators.FormLumped
	}

	return collaborators.FormNone
}
func (p *Parasitics) ReduceToPi(net collaborators.NetID) (collaborators.PiModel, error) {
	c, ok := p.lumped[net]
	if !ok {
		return collaborators.PiModel{}, fmt.Errorf("collabtest: no parasitics for net %q", net)
	}

	return collaborators.PiModel{C1: c / 2, C2: c / 2}, nil
}
func (p *Parasitics) ReduceToLumped(net collaborators.NetID) (collaborators.Capacitance, error) {
	c, ok := p.lumped[net]
	if !ok {
		return 0, fmt.Errorf("collabtest: no parasitics for net %q", net)
	}

	return c, nil
}

// Sdc is an in-memory collaborators.Sdc.
type Sdc struct {
	clocks        []collaborators.Clock
	genClocks     []collaborators.GeneratedClock
	inputDelays   []collaborators.InputDelay
	outputDelays  []collaborators.OutputDelay
	exceptions    []collaborators.Exception
	caseAnalysis  map[collaborators.PinID]collaborators.SimValue
	disabled      []collaborators.PinID
	analysisType  collaborators.AnalysisType
	defaultArrClk bool
	bidirectPaths bool
	clkThruTri    bool
}

func NewSdc() *Sdc {
	return &Sdc{caseAnalysis: make(map[collaborators.PinID]collaborators.SimValue)}
}

func (s *Sdc) AddClock(c collaborators.Clock) { s.clocks = append(s.clocks, c) }
func (s *Sdc) AddGeneratedClock(c collaborators.GeneratedClock) {
	s.genClocks = append(s.genClocks, c)
}
func (s *Sdc) AddInputDelay(d collaborators.InputDelay)   { s.inputDelays = append(s.inputDelays, d) }
func (s *Sdc) AddOutputDelay(d collaborators.OutputDelay) { s.outputDelays = append(s.outputDelays, d) }
func (s *Sdc) AddException(e collaborators.Exception) {
	e.Seq = len(s.exceptions)
	s.exceptions = append(s.exceptions, e)
}
func (s *Sdc) SetAnalysisType(t collaborators.AnalysisType) { s.analysisType = t }
func (s *Sdc) EnableDefaultArrivalClock()                   { s.defaultArrClk = true }
func (s *Sdc) EnableBidirectInstPaths()                     { s.bidirectPaths = true }
func (s *Sdc) EnableClkThruTristate()                       { s.clkThruTri = true }

func (s *Sdc) Clocks() []collaborators.Clock                   { return s.clocks }
func (s *Sdc) GeneratedClocks() []collaborators.GeneratedClock { return s.genClocks }
func (s *Sdc) InputDelays() []collaborators.InputDelay         { return s.inputDelays }
func (s *Sdc) OutputDelays() []collaborators.OutputDelay       { return s.outputDelays }
func (s *Sdc) Exceptions() []collaborators.Exception           { return s.exceptions }
func (s *Sdc) CaseAnalysis(pin collaborators.PinID) (collaborators.SimValue, bool) {
	v, ok := s.caseAnalysis[pin]

	return v, ok
}
func (s *Sdc) DisabledPins() []collaborators.PinID    { return s.disabled }
func (s *Sdc) AnalysisType() collaborators.AnalysisType { return s.analysisType }
func (s *Sdc) DefaultArrivalClockEnabled() bool       { return s.defaultArrClk }
func (s *Sdc) BidirectInstPathsEnabled() bool         { return s.bidirectPaths }
func (s *Sdc) ClkThruTristateEnabled() bool           { return s.clkThruTri }

// Sdf is an in-memory collaborators.Sdf.
type Sdf struct {
	arcs   []collaborators.ArcAnnotation
	checks []collaborators.CheckAnnotation
}

func NewSdf() *Sdf { return &Sdf{} }
func (s *Sdf) AddArcAnnotation(a collaborators.ArcAnnotation)     { s.arcs = append(s.arcs, a) }
func (s *Sdf) AddCheckAnnotation(c collaborators.CheckAnnotation) { s.checks = append(s.checks, c) }
func (s *Sdf) ArcAnnotations() []collaborators.ArcAnnotation      { return s.arcs }
func (s *Sdf) CheckAnnotations() []collaborators.CheckAnnotation  { return s.checks }

// ---- YAML fixture loading ----

// Fixture is the on-disk shape of a small end-to-end test design: enough
// instances/nets/clocks to drive engine tests without Go literal graphs.
type Fixture struct {
	Instances []struct {
		Name  string   `yaml:"name"`
		Cell  string   `yaml:"cell"`
		Ports []string `yaml:"ports"`
		Dirs  []string `yaml:"dirs"`
	} `yaml:"instances"`
	Nets []struct {
		Name string   `yaml:"name"`
		Pins []string `yaml:"pins"`
	} `yaml:"nets"`
	Arcs []struct {
		Inst      string  `yaml:"inst"`
		From      string  `yaml:"from"`
		To        string  `yaml:"to"`
		Role      string  `yaml:"role"`
		Sense     string  `yaml:"sense"`
		RiseDelay float64 `yaml:"rise_delay"`
		FallDelay float64 `yaml:"fall_delay"`
		RiseSlew  float64 `yaml:"rise_slew"`
		FallSlew  float64 `yaml:"fall_slew"`
	} `yaml:"arcs"`
	Clocks []struct {
		Name     string   `yaml:"name"`
		Period   float64  `yaml:"period"`
		Source   []string `yaml:"source"`
	} `yaml:"clocks"`
}

// LoadFixture parses a YAML fixture file into a Network, Library and Sdc.
// Nets/arcs/clocks reference pins by "inst/port" strings.
func LoadFixture(path string) (*Network, *Library, *Sdc, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("collabtest: read fixture %q: %w", path, err)
	}
	var fx Fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, nil, nil, fmt.Errorf("collabtest: parse fixture %q: %w", path, err)
	}

	net := NewNetwork()
	for _, inst := range fx.Instances {
		dirs := make([]collaborators.Direction, len(inst.Ports))
		for i, d := range inst.Dirs {
			dirs[i] = parseDirection(d)
		}
		net.AddInstance(inst.Name, inst.Cell, inst.Ports, dirs)
	}
	for _, n := range fx.Nets {
		net.Connect(n.Name, n.Pins...)
	}

	lib := NewLibrary()
	for _, a := range fx.Arcs {
		inst := fmt.Sprintf("%s/", a.Inst)
		lib.AddArc(
			collaborators.PortID(inst+a.From), collaborators.PortID(inst+a.To),
			parseRole(a.Role), parseSense(a.Sense),
			a.RiseDelay, a.FallDelay, a.RiseSlew, a.FallSlew,
		)
	}

	sdc := NewSdc()
	for _, c := range fx.Clocks {
		pins := make([]collaborators.PinID, len(c.Source))
		for i, p := range c.Source {
			pins[i] = collaborators.PinID(p)
		}
		sdc.AddClock(collaborators.Clock{Name: c.Name, Period: c.Period, SourcePins: pins, RiseTime: 0, FallTime: c.Period / 2})
	}

	return net, lib, sdc, nil
}

func parseDirection(s string) collaborators.Direction {
	switch s {
	case "output":
		return collaborators.DirOutput
	case "bidirect":
		return collaborators.DirBidirect
	default:
		return collaborators.DirInput
	}
}

func parseRole(s string) collaborators.ArcRole {
	switch s {
	case "setup":
		return collaborators.RoleSetup
	case "hold":
		return collaborators.RoleHold
	case "recovery":
		return collaborators.RoleRecovery
	case "removal":
		return collaborators.RoleRemoval
	case "wire":
		return collaborators.RoleWire
	default:
		return collaborators.RoleGate
	}
}

func parseSense(s string) collaborators.ArcSense {
	switch s {
	case "negative_unate":
		return collaborators.SenseNegativeUnate
	case "non_unate":
		return collaborators.SenseNonUnate
	default:
		return collaborators.SensePositiveUnate
	}
}

// sortedPins returns a sorted copy of ks.
func sortedPins(ks []Pin) []Pin {
	out := append([]Pin(nil), ks...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}
