// Package engine is the programmatic façade spec.md §6 calls for (added
// by SPEC_FULL.md §2, not named by the distillation's component table):
// it wires stagraph.Build/Levelize, graphdelay.GraphDelayCalc, the
// forward/backward search passes, crpr.Resolver and pathgroups.Build
// into one UpdateTiming(ctx, full) entry point plus the query surface
// (WorstSlack, Endpoints, PathEnds) a caller drives.
//
// Grounded on the teacher's functional-options construction idiom
// (graph.NewGraph/NewDigraph) generalized from "one graph, one set of
// options" to "one engine wiring together the whole pipeline, one set
// of options per pipeline stage".
package engine

import (
	"context"
	"sync"

	"github.com/The-OpenROAD-Project/stacore/collaborators"
	"github.com/The-OpenROAD-Project/stacore/crpr"
	"github.com/The-OpenROAD-Project/stacore/delaycalc"
	"github.com/The-OpenROAD-Project/stacore/graphdelay"
	"github.com/The-OpenROAD-Project/stacore/pathgroups"
	"github.com/The-OpenROAD-Project/stacore/report"
	"github.com/The-OpenROAD-Project/stacore/search"
	"github.com/The-OpenROAD-Project/stacore/stagraph"
	"github.com/The-OpenROAD-Project/stacore/tagdb"
)

// Engine owns one timing graph and the pipeline that keeps its
// arrivals/requireds/PathEnds current.
type Engine struct {
	graph   *stagraph.Graph
	tags    *tagdb.DB
	network collaborators.Network
	sdc     collaborators.Sdc
	sink    report.Sink

	delayCalc *graphdelay.GraphDelayCalc
	arrival   *search.Arrival
	required  *search.Required
	crprR     crpr.Resolver
	seeds     SeedBuilder
	groupOpts pathgroups.Options

	mu        sync.RWMutex
	endpoints []stagraph.VertexID
	pathEnds  map[string][]pathgroups.PathEnd
}

type config struct {
	workers     int
	sink        report.Sink
	crprMode    crpr.Mode
	classifier  search.EdgeClassifier
	exceptions  search.ExceptionResolver
	derate      search.DerateFunc
	loads       graphdelay.LoadResolver
	tolerance   float64
	seedBuilder SeedBuilder
	groupOpts   pathgroups.Options
	tagOpts     []tagdb.Option
}

// Option configures an Engine at construction, in the style of the
// teacher's BuilderOption/GraphOption functional options.
type Option func(*config)

// WithWorkers sets the per-level worker pool size shared by
// graphdelay/arrival/required (default 1).
func WithWorkers(n int) Option { return func(c *config) { c.workers = n } }

// WithSink overrides the default report.LogSink.
func WithSink(s report.Sink) Option { return func(c *config) { c.sink = s } }

// WithCRPRMode selects exact/approximate/disabled CRPR credit (default
// crpr.ModeExact).
func WithCRPRMode(m crpr.Mode) Option { return func(c *config) { c.crprMode = m } }

// WithClassifier supplies the EdgeClassifier thru-point exceptions and
// tristate/case-analysis clock-ness propagation need during the forward
// pass; nil (the default) performs no exception-state growth or
// tristate gating during arrival, so exceptions with a through list
// never take effect.
func WithClassifier(c search.EdgeClassifier) Option {
	return func(cfg *config) { cfg.classifier = c }
}

// WithExceptionTieBreak overrides DefaultTieBreak ("earlier Seq wins")
// for equal-priority exception conflicts during arrival.
func WithExceptionTieBreak(f func(a, b collaborators.Exception) bool) Option {
	return func(c *config) { c.exceptions = search.ExceptionResolver{TieBreak: f} }
}

// WithDerate supplies the derating cube function search.Arrival applies
// to each crossed arc; nil (the default) applies no derating.
func WithDerate(f search.DerateFunc) Option { return func(c *config) { c.derate = f } }

// WithLoadResolver supplies graphdelay's per-net load model builder;
// the default resolves every net to an empty lumped load.
func WithLoadResolver(l graphdelay.LoadResolver) Option {
	return func(c *config) { c.loads = l }
}

// WithIncrementalTolerance sets graphdelay's delay-change threshold
// (default 0: any change propagates).
func WithIncrementalTolerance(tol float64) Option {
	return func(c *config) { c.tolerance = tol }
}

// WithSeedBuilder overrides DefaultSeedBuilder.
func WithSeedBuilder(b SeedBuilder) Option { return func(c *config) { c.seedBuilder = b } }

// WithGroupOptions sets pathgroups.Build's pruning/collapsing options.
func WithGroupOptions(o pathgroups.Options) Option { return func(c *config) { c.groupOpts = o } }

// WithBorrowIterationCap overrides tagdb's default 10-iteration cap on
// the latch time-borrowing fixed point.
func WithBorrowIterationCap(n int) Option {
	return func(c *config) { c.tagOpts = append(c.tagOpts, tagdb.WithBorrowIterationCap(n)) }
}

// allNets derives the full net list from network's pins, since
// collaborators.Network exposes per-pin net membership (PinNet) but no
// direct net enumeration — stagraph.ConnectNets needs the list once, at
// build time, to wire the driver->load wire edges stagraph.Build itself
// does not (Build only wires instance-internal gate arcs).
func allNets(network collaborators.Network) []collaborators.NetID {
	seen := make(map[collaborators.NetID]bool)
	var out []collaborators.NetID
	for _, inst := range network.TopInstances() {
		for _, pin := range network.Pins(inst) {
			net, ok := network.PinNet(pin)
			if !ok || seen[net] {
				continue
			}
			seen[net] = true
			out = append(out, net)
		}
	}

	return out
}

type noopLoadResolver struct{}

func (noopLoadResolver) Loads(*stagraph.Graph, *stagraph.Vertex) ([]stagraph.VertexID, delaycalc.LoadModel) {
	return nil, delaycalc.LoadModel{}
}

// New builds the timing graph from network/library, levelizes it, and
// wires the full pipeline described in the package doc comment.
func New(
	network collaborators.Network,
	library collaborators.Library,
	sdc collaborators.Sdc,
	calc delaycalc.Calculator,
	aps []stagraph.AnalysisPoint,
	slewRFCount stagraph.SlewRFCount,
	opts ...Option,
) (*Engine, error) {
	cfg := config{workers: 1, crprMode: crpr.ModeExact}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sink == nil {
		cfg.sink = report.NewLogSink()
	}
	if cfg.loads == nil {
		cfg.loads = noopLoadResolver{}
	}
	if cfg.seedBuilder == nil {
		cfg.seedBuilder = DefaultSeedBuilder{}
	}

	g, err := stagraph.Build(network, library,
		stagraph.WithAnalysisPoints(aps),
		stagraph.WithSlewRFCount(slewRFCount),
	)
	if err != nil {
		return nil, err
	}
	if err := stagraph.ConnectNets(g, network, allNets(network)); err != nil {
		return nil, err
	}
	if err := g.Levelize(); err != nil {
		return nil, err
	}

	tags := tagdb.New(cfg.tagOpts...)

	delayCalc := graphdelay.New(g, calc, cfg.loads,
		graphdelay.WithWorkers(cfg.workers),
		graphdelay.WithIncrementalTolerance(cfg.tolerance),
	)

	arrival := &search.Arrival{
		Graph:      g,
		Tags:       tags,
		Classifier: cfg.classifier,
		Exceptions: cfg.exceptions,
		Derate:     cfg.derate,
		Sink:       cfg.sink,
		Workers:    cfg.workers,
	}
	required := &search.Required{Graph: g, Workers: cfg.workers}

	groupOpts := cfg.groupOpts
	groupOpts.Graph = g

	return &Engine{
		graph:     g,
		tags:      tags,
		network:   network,
		sdc:       sdc,
		sink:      cfg.sink,
		delayCalc: delayCalc,
		arrival:   arrival,
		required:  required,
		crprR:     crpr.Resolver{Graph: g, Tags: tags, Mode: cfg.crprMode},
		seeds:     cfg.seedBuilder,
		groupOpts: groupOpts,
		pathEnds:  make(map[string][]pathgroups.PathEnd),
	}, nil
}

// Graph returns the underlying timing graph.
func (e *Engine) Graph() *stagraph.Graph { return e.graph }

// Tags returns the underlying intern tables.
func (e *Engine) Tags() *tagdb.DB { return e.tags }

// MarkVertexInvalid flags id for delay recomputation on the next
// UpdateTiming(full=false) (e.g. after an annotation edit).
func (e *Engine) MarkVertexInvalid(id stagraph.VertexID) { e.delayCalc.MarkVertexInvalid(id) }

// MarkCheckEdgeInvalid flags id's check margin for recomputation.
func (e *Engine) MarkCheckEdgeInvalid(id stagraph.EdgeID) { e.delayCalc.MarkCheckEdgeInvalid(id) }

// UpdateTiming runs the full pipeline: delay calc, forward arrival
// search, backward required search, CRPR credit, latch time-borrowing,
// and path-group ranking (spec.md §4.4-§4.8). full=true marks every
// vertex dirty first, matching update_timing(full=true)'s semantics;
// full=false recomputes delays only for graphdelay's own incremental
// dirty set, then always reruns the search passes in full — search has
// no partial-reseed path of its own, so "incremental" here only
// shortens the delay-calc stage.
func (e *Engine) UpdateTiming(ctx context.Context, full bool) error {
	if full {
		e.graph.EachVertex(func(v *stagraph.Vertex) bool {
			e.delayCalc.MarkVertexInvalid(v.ID())

			return true
		})
	}
	if err := e.delayCalc.FindDelays(ctx, 0); err != nil {
		return err
	}

	seeds, err := e.seeds.ArrivalSeeds(e.graph, e.tags, e.sdc, e.network)
	if err != nil {
		return err
	}
	if err := e.arrival.Run(ctx, seeds); err != nil {
		return err
	}

	refSeeds, err := e.seeds.RefPinArrivalSeeds(e.graph, e.tags, e.sdc, e.network)
	if err != nil {
		return err
	}
	if len(refSeeds) > 0 {
		if err := e.arrival.Run(ctx, refSeeds); err != nil {
			return err
		}
	}

	endpoints := e.checkEndpoints(e.arrival.Endpoints())

	reqSeeds, ends, err := e.classifyEndpoints(endpoints)
	if err != nil {
		return err
	}
	if err := e.required.Run(ctx, reqSeeds); err != nil {
		return err
	}

	ends = e.applyCRPR(ends)
	ends = e.latchBorrow(ends, e.tags.BorrowIterationCap())

	byGroup := pathgroups.Build(ends, e.groupOpts)

	e.mu.Lock()
	e.endpoints = endpoints
	e.pathEnds = byGroup
	e.mu.Unlock()

	return nil
}

// Endpoints returns every vertex flagged as a timing endpoint by the
// last UpdateTiming.
func (e *Engine) Endpoints() []stagraph.VertexID {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]stagraph.VertexID, len(e.endpoints))
	copy(out, e.endpoints)

	return out
}

// PathEnds returns group's ranked PathEnds from the last UpdateTiming,
// or nil if the group has none.
func (e *Engine) PathEnds(group string) []pathgroups.PathEnd {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]pathgroups.PathEnd, len(e.pathEnds[group]))
	copy(out, e.pathEnds[group])

	return out
}

// WorstSlack returns group's worst (rank-0) slack, or the Max-analysis
// sentinel (+Inf) if the group has no PathEnds — "(no paths)" is not an
// error (spec.md §7).
func (e *Engine) WorstSlack(group string) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ends := e.pathEnds[group]
	if len(ends) == 0 {
		return stagraph.Max.Sentinel()
	}

	return ends[0].Slack()
}
