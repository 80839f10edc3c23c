package engine

import (
	"github.com/The-OpenROAD-Project/stacore/collaborators"
	"github.com/The-OpenROAD-Project/stacore/pathgroups"
	"github.com/The-OpenROAD-Project/stacore/search"
	"github.com/The-OpenROAD-Project/stacore/stagraph"
	"github.com/The-OpenROAD-Project/stacore/tagdb"
)

// isCheckRole reports whether role is one of the four check roles this
// engine turns into endpoint PathEnds against a data path. Width/period
// checks are excluded deliberately: graphdelay still computes and
// invalidates their margins (graphdelay.go's own isCheckRole covers all
// six roles), but they constrain a single pin's pulse shape rather than
// a launch/capture path pair, so they have no PathEnd here.
func isCheckRole(role collaborators.ArcRole) bool {
	switch role {
	case collaborators.RoleSetup, collaborators.RoleHold, collaborators.RoleRecovery, collaborators.RoleRemoval:
		return true
	default:
		return false
	}
}

// checkShape returns the nominal cycle multiplier, analysis direction,
// and PathEnd classification for a check role.
func checkShape(role collaborators.ArcRole) (cycles float64, mm stagraph.MinMax, class pathgroups.Classification, ok bool) {
	switch role {
	case collaborators.RoleSetup:
		return 1, stagraph.Max, pathgroups.ClassSetup, true
	case collaborators.RoleHold:
		return 0, stagraph.Min, pathgroups.ClassHold, true
	case collaborators.RoleRecovery:
		return 1, stagraph.Max, pathgroups.ClassRecovery, true
	case collaborators.RoleRemoval:
		return 0, stagraph.Min, pathgroups.ClassRemoval, true
	default:
		return 0, stagraph.Max, 0, false
	}
}

// originOf walks p's prev-path chain back to its origin record, the
// same walk crpr.Resolver.walkClockPath performs, generalized here to
// locate the origin vertex (its pin names the launch point an
// exception's From list references) rather than accumulate a clock
// credit.
func (e *Engine) originOf(vertex stagraph.VertexID, p stagraph.Path) (stagraph.VertexID, stagraph.Path) {
	cur := p
	curVertex := vertex
	for cur.HasPrev() {
		pv, err := e.graph.Vertex(cur.PrevVertex)
		if err != nil {
			break
		}
		next, ok := pv.Path(cur.PrevTag)
		if !ok {
			break
		}
		curVertex = cur.PrevVertex
		cur = next
	}

	return curVertex, cur
}

func (e *Engine) originClockName(vertex stagraph.VertexID, p stagraph.Path) string {
	originVertex, origin := e.originOf(vertex, p)
	v, err := e.graph.Vertex(originVertex)
	if err != nil {
		return ""
	}
	tagIdx := e.tags.GroupTags(v.TagGroupIndex())
	if origin.TagIndex < 0 || origin.TagIndex >= len(tagIdx) {
		return ""
	}
	tag := e.tags.Tag(tagIdx[origin.TagIndex])

	return e.tags.ClkInfo(tag.ClkInfoIdx).ClockName
}

func containsPin(list []collaborators.PinID, pin collaborators.PinID) bool {
	for _, p := range list {
		if p == pin {
			return true
		}
	}

	return false
}

// matchesFromTo reports whether exc's From/To pin lists govern a path
// launching at fromPin and ending at toPin, treating an empty list as
// "any". Thru-point exceptions are out of scope here (return false):
// resolving a Thru list requires tracking which edges have been crossed
// so far as the forward search walks the graph, which is exactly what
// search.EdgeClassifier/ExceptionResolver already do during Arrival.Run
// (see engine.WithClassifier) — this endpoint-side check only resolves
// the common, Thru-free "-from/-to" exception shape directly from the
// already-computed Path chain, without needing a classifier wired in at
// all for that common case.
func matchesFromTo(exc collaborators.Exception, fromPin, toPin collaborators.PinID) bool {
	if len(exc.Thru) > 0 {
		return false
	}
	if len(exc.From) == 0 && len(exc.To) == 0 {
		return false
	}
	if len(exc.From) > 0 && !containsPin(exc.From, fromPin) {
		return false
	}
	if len(exc.To) > 0 && !containsPin(exc.To, toPin) {
		return false
	}

	return true
}

// governingException returns the highest-priority (then lowest Seq)
// Thru-free exception matching (fromPin, toPin).
func governingException(excs []collaborators.Exception, fromPin, toPin collaborators.PinID) (collaborators.Exception, bool) {
	var best collaborators.Exception
	found := false
	for _, exc := range excs {
		if !matchesFromTo(exc, fromPin, toPin) {
			continue
		}
		if !found || exc.Kind.Priority() < best.Kind.Priority() ||
			(exc.Kind.Priority() == best.Kind.Priority() && exc.Seq < best.Seq) {
			best = exc
			found = true
		}
	}

	return best, found
}

// checkEndpoints augments leaves (pure timing endpoints: no outgoing
// edge at all) with every vertex that terminates an incoming check-role
// edge regardless of leaf status — a transparent latch's D pin drives a
// D-to-Q pass-through arc downstream (spec.md §4.5 latch time-
// borrowing), so it is never a leaf, but it is still a check endpoint
// classifyEndpoints/latchBorrow need to see.
func (e *Engine) checkEndpoints(leaves []stagraph.VertexID) []stagraph.VertexID {
	seen := make(map[stagraph.VertexID]bool, len(leaves))
	out := append([]stagraph.VertexID(nil), leaves...)
	for _, id := range leaves {
		seen[id] = true
	}

	e.graph.EachVertex(func(v *stagraph.Vertex) bool {
		id := v.ID()
		if seen[id] {
			return true
		}
		ins, edgeIDs, err := e.graph.InNeighbors(id, false)
		if err != nil {
			return true
		}
		for i := range ins {
			edge, err := e.graph.Edge(edgeIDs[i])
			if err != nil {
				continue
			}
			for _, arc := range edge.Arcs() {
				if isCheckRole(arc.Role) {
					seen[id] = true
					out = append(out, id)

					return true
				}
			}
		}

		return true
	})

	return out
}

// classifyEndpoints implements spec.md §4.5's required-time seeding and
// §4.8's PathEnd classification in one pass over every arrival
// endpoint: for each incoming check edge it reads the capturing clock's
// own arrival straight off the check edge's from-vertex (a register's
// own CLK pin, per stagraph.Build's (clkVertex, dataVertex) check-edge
// wiring) rather than through any new collaborator API, and for
// endpoints with no check edge it falls back to Sdc.OutputDelays or
// leaves the PathEnd unconstrained.
func (e *Engine) classifyEndpoints(endpoints []stagraph.VertexID) ([]search.EndpointRequired, []pathgroups.PathEnd, error) {
	clockByName := make(map[string]collaborators.Clock, len(e.sdc.Clocks()))
	for _, c := range e.sdc.Clocks() {
		clockByName[c.Name] = c
	}
	outputByPin := make(map[collaborators.PinID]collaborators.OutputDelay)
	for _, od := range e.sdc.OutputDelays() {
		outputByPin[od.Pin] = od
	}
	excs := e.sdc.Exceptions()
	aps := e.graph.AnalysisPoints()

	var seeds []search.EndpointRequired
	var ends []pathgroups.PathEnd

	for _, vid := range endpoints {
		v, err := e.graph.Vertex(vid)
		if err != nil {
			continue
		}

		ins, edgeIDs, err := e.graph.InNeighbors(vid, false)
		if err != nil {
			continue
		}

		hasCheck := false
		for i, fromID := range ins {
			edge, err := e.graph.Edge(edgeIDs[i])
			if err != nil {
				continue
			}
			clkV, err := e.graph.Vertex(fromID)
			if err != nil {
				continue
			}
			clkTags := e.tags.GroupTags(clkV.TagGroupIndex())

			for arcIdx, arc := range edge.Arcs() {
				_, mm, class, ok := checkShape(arc.Role)
				if !ok {
					continue
				}
				hasCheck = true

				for pos, clkPath := range clkV.Paths() {
					if pos < 0 || pos >= len(clkTags) {
						continue
					}
					tag := e.tags.Tag(clkTags[pos])
					if !tag.IsClockPath || tag.APIndex >= len(aps) {
						continue
					}
					ap := aps[tag.APIndex]
					if ap.MinMax != mm {
						continue
					}
					ci := e.tags.ClkInfo(tag.ClkInfoIdx)
					period := clockByName[ci.ClockName].Period

					margin, _ := edge.ArcDelay(arcIdx, tag.APIndex)

					for vPos, vPath := range v.Paths() {
						if vPath.APIndex != tag.APIndex {
							continue
						}
						e.appendCheckEnd(&seeds, &ends, vid, vPos, vPath, clkPath, ci, period, margin, class, mm, excs)
					}
				}
			}
		}

		if hasCheck {
			continue
		}

		e.appendUnclockedEnd(&seeds, &ends, v, vid, outputByPin, clockByName, aps)
	}

	return seeds, ends, nil
}

func (e *Engine) appendCheckEnd(
	seeds *[]search.EndpointRequired, ends *[]pathgroups.PathEnd,
	vid stagraph.VertexID, vPos int, vPath, clkPath stagraph.Path,
	ci tagdb.ClkInfo, period, margin float64, class pathgroups.Classification, mm stagraph.MinMax,
	excs []collaborators.Exception,
) {
	v, err := e.graph.Vertex(vid)
	if err != nil {
		return
	}

	launchClock := e.originClockName(vid, vPath)
	originVertex, _ := e.originOf(vid, vPath)
	var originPin collaborators.PinID
	if originV, err := e.graph.Vertex(originVertex); err == nil {
		originPin = originV.Pin()
	}

	exc, hasExc := governingException(excs, originPin, v.Pin())
	if hasExc && exc.Kind == collaborators.ExceptionFalsePath {
		return
	}

	cycles, _, _, _ := checkShape(roleForClass(class))
	if hasExc && exc.Kind == collaborators.ExceptionMultiCycle && mm == stagraph.Max {
		shift := exc.MultiCycles - 1
		if shift < 0 {
			shift = 0
		}
		cycles += float64(shift)
	}

	pe := pathgroups.PathEnd{
		Vertex: vid, TagPos: vPos, Path: vPath, Class: class,
		SourceClock: launchClock, TargetClock: ci.ClockName, Margin: margin, MinMax: mm,
	}

	var required float64
	switch {
	case hasExc && exc.Kind == collaborators.ExceptionPathDelay:
		required = exc.PathDelayValue
		pe.Class = pathgroups.ClassPathDelay
		pe.GoverningExc = "path_delay"
	default:
		uncertainty := ci.SetupUncertainty
		if mm == stagraph.Min {
			uncertainty = ci.HoldUncertainty
		}
		required = clkPath.Arrival + cycles*period
		if mm == stagraph.Max {
			required -= margin + uncertainty
		} else {
			required += margin + uncertainty
		}
	}

	userGroup, hasUserGroup := "", false
	if hasExc && exc.Kind == collaborators.ExceptionGroupPath {
		userGroup, hasUserGroup = exc.GroupName, true
		pe.GoverningExc = "group_path"
	}
	pe.Group = pathgroups.AssignGroup(pe, userGroup, hasUserGroup)

	*seeds = append(*seeds, search.EndpointRequired{Vertex: vid, APIndex: vPath.APIndex, TagPos: vPos, Required: required})
	*ends = append(*ends, pe)
}

// roleForClass recovers the check role driving class, for re-deriving
// its nominal cycle count when an exception needs to adjust it.
func roleForClass(class pathgroups.Classification) collaborators.ArcRole {
	switch class {
	case pathgroups.ClassSetup:
		return collaborators.RoleSetup
	case pathgroups.ClassHold:
		return collaborators.RoleHold
	case pathgroups.ClassRecovery:
		return collaborators.RoleRecovery
	case pathgroups.ClassRemoval:
		return collaborators.RoleRemoval
	default:
		return collaborators.RoleSetup
	}
}

func (e *Engine) appendUnclockedEnd(
	seeds *[]search.EndpointRequired, ends *[]pathgroups.PathEnd,
	v *stagraph.Vertex, vid stagraph.VertexID,
	outputByPin map[collaborators.PinID]collaborators.OutputDelay,
	clockByName map[string]collaborators.Clock,
	aps []stagraph.AnalysisPoint,
) {
	if od, ok := outputByPin[v.Pin()]; ok {
		clk, hasClk := clockByName[od.Clock]
		for vPos, vPath := range v.Paths() {
			if vPath.APIndex >= len(aps) {
				continue
			}
			ap := aps[vPath.APIndex]
			edgeTime := 0.0
			if hasClk {
				edgeTime = clockEdgeTime(clk, od.RiseFall)
			}
			delay := earlyLate(od.Delay, ap.MinMax)
			required := edgeTime - delay
			if ap.MinMax == stagraph.Min {
				required = edgeTime + delay
			}

			pe := pathgroups.PathEnd{
				Vertex: vid, TagPos: vPos, Path: vPath, Class: pathgroups.ClassOutputDelay,
				SourceClock: e.originClockName(vid, vPath), TargetClock: od.Clock, MinMax: ap.MinMax,
			}
			pe.Group = pathgroups.AssignGroup(pe, "", false)

			*seeds = append(*seeds, search.EndpointRequired{Vertex: vid, APIndex: vPath.APIndex, TagPos: vPos, Required: required})
			*ends = append(*ends, pe)
		}

		return
	}

	for vPos, vPath := range v.Paths() {
		if vPath.APIndex >= len(aps) {
			continue
		}
		pe := pathgroups.PathEnd{
			Vertex: vid, TagPos: vPos, Path: vPath, Class: pathgroups.ClassUnconstrained,
			SourceClock: e.originClockName(vid, vPath), MinMax: aps[vPath.APIndex].MinMax,
		}
		pe.Group = pathgroups.AssignGroup(pe, "", false)
		*ends = append(*ends, pe)
	}
}

// applyCRPR refreshes each check PathEnd's Path from the now-Required
// graph and credits common-clock-path pessimism via crpr.Resolver
// (spec.md §4.6): launch is the endpoint's own arrival Path, capture is
// the matching check edge's clock vertex's own clock-tagged Path — both
// chains converge at a shared clock-tree buffer because a register's Q
// vertex carries its own CLK vertex as PrevVertex (the clock-to-Q gate
// arc), so CRPR's backward walk naturally finds the common ancestor.
func (e *Engine) applyCRPR(ends []pathgroups.PathEnd) []pathgroups.PathEnd {
	out := make([]pathgroups.PathEnd, len(ends))
	for i, pe := range ends {
		out[i] = pe

		switch pe.Class {
		case pathgroups.ClassSetup, pathgroups.ClassHold, pathgroups.ClassRecovery, pathgroups.ClassRemoval:
		default:
			continue
		}

		v, err := e.graph.Vertex(pe.Vertex)
		if err != nil {
			continue
		}
		fresh, ok := v.Path(pe.TagPos)
		if !ok {
			continue
		}
		out[i].Path = fresh

		capturePath, ok := e.captureClockPath(pe)
		if !ok {
			continue
		}

		credit, ok := e.crprR.Credit(fresh, capturePath)
		if !ok || credit == 0 {
			continue
		}
		if pe.MinMax == stagraph.Max {
			out[i].Path.Slack += credit
		} else {
			out[i].Path.Slack -= credit
		}
	}

	return out
}

// oppositeAPIndex finds the analysis point sharing apIndex's corner but
// the opposite MinMax sense, the capture leg CRPR needs (spec.md §4.5
// line 139): the launch and capture clock paths share the same physical
// buffers but are evaluated at opposite ends of on-chip variation (Max
// for the launching edge, Min for the capturing edge, or vice versa),
// and it is exactly that spread which CRPR credits back. Falls back to
// apIndex itself when no opposite-sense AP exists on the same corner
// (a single-MinMax engine has no variation to credit, so the resulting
// zero spread is the correct answer, not a crash).
func (e *Engine) oppositeAPIndex(apIndex int) int {
	aps := e.graph.AnalysisPoints()
	if apIndex < 0 || apIndex >= len(aps) {
		return apIndex
	}
	want := aps[apIndex]
	wantMM := stagraph.Min
	if want.MinMax == stagraph.Min {
		wantMM = stagraph.Max
	}
	for i, ap := range aps {
		if ap.MinMax == wantMM && ap.Corner == want.Corner {
			return i
		}
	}

	return apIndex
}

// captureClockPath re-locates the check edge feeding pe.Vertex and
// returns its clock vertex's Path at the opposite-MinMax analysis point
// from pe's own (launch) path, matching pe's target clock name — the
// capture leg CRPR's common-ancestor spread is computed against.
func (e *Engine) captureClockPath(pe pathgroups.PathEnd) (stagraph.Path, bool) {
	captureAP := e.oppositeAPIndex(pe.Path.APIndex)

	ins, edgeIDs, err := e.graph.InNeighbors(pe.Vertex, false)
	if err != nil {
		return stagraph.Path{}, false
	}

	for i, fromID := range ins {
		edge, err := e.graph.Edge(edgeIDs[i])
		if err != nil {
			continue
		}
		hasCheck := false
		for _, arc := range edge.Arcs() {
			if isCheckRole(arc.Role) {
				hasCheck = true

				break
			}
		}
		if !hasCheck {
			continue
		}

		clkV, err := e.graph.Vertex(fromID)
		if err != nil {
			continue
		}
		clkTags := e.tags.GroupTags(clkV.TagGroupIndex())
		for pos, p := range clkV.Paths() {
			if pos >= len(clkTags) {
				continue
			}
			tag := e.tags.Tag(clkTags[pos])
			if !tag.IsClockPath || tag.APIndex != captureAP {
				continue
			}
			if e.tags.ClkInfo(tag.ClkInfoIdx).ClockName == pe.TargetClock {
				return p, true
			}
		}
	}

	return stagraph.Path{}, false
}
