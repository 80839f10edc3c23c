// Package search implements the forward arrival and backward required
// BFS passes (spec.md §4.5, §4.6): propagating tagged arrivals across
// the timing graph and resolving exceptions in priority order. CRPR
// credit is applied by package crpr and latch time-borrowing by package
// engine, after these passes.
package search

import (
	"sort"

	"github.com/The-OpenROAD-Project/stacore/collaborators"
)

// ExceptionMatch is one exception's current relationship to a path
// passing through the vertex/edge under consideration: whether it
// applies at all, and if so, whether it is now Complete (every
// `through` point matched).
type ExceptionMatch struct {
	Exception collaborators.Exception
	State     int // tagdb.ExceptionState intern index, -1 if not yet tracked
	Complete  bool
}

// ExceptionResolver picks, among every currently-active, Complete
// exception at a path-end, the one that governs — the fixed priority
// order {false_path > path_delay > multicycle_path > filter >
// group_path}, with ties broken by TieBreak (spec.md §4.8 and the
// project's open-question resolution: earlier Seq wins, i.e. the
// exception registered earlier in Sdc ingestion order).
type ExceptionResolver struct {
	// TieBreak orders two equal-priority matches; a < b means a wins.
	// If nil, Resolve uses DefaultTieBreak ("lower Exception.Seq wins").
	TieBreak func(a, b collaborators.Exception) bool
}

// DefaultTieBreak implements "the exception registered earlier wins".
func DefaultTieBreak(a, b collaborators.Exception) bool { return a.Seq < b.Seq }

// WithExceptionTieBreak lets a caller substitute a different rule than
// DefaultTieBreak for equal-priority exception conflicts.
func WithExceptionTieBreak(r *ExceptionResolver, f func(a, b collaborators.Exception) bool) {
	r.TieBreak = f
}

// Resolve picks the governing exception among matches, or (zero value,
// false) if matches is empty. Reports report.WarnExceptionPriorityConflict
// is the caller's responsibility once it knows whether more than one
// candidate was in play (Resolve itself stays silent; it's a pure
// function of its inputs).
func (r ExceptionResolver) Resolve(matches []ExceptionMatch) (ExceptionMatch, bool) {
	if len(matches) == 0 {
		return ExceptionMatch{}, false
	}

	tieBreak := r.TieBreak
	if tieBreak == nil {
		tieBreak = DefaultTieBreak
	}

	best := make([]ExceptionMatch, len(matches))
	copy(best, matches)
	sort.SliceStable(best, func(i, j int) bool {
		pi, pj := best[i].Exception.Kind.Priority(), best[j].Exception.Kind.Priority()
		if pi != pj {
			return pi < pj
		}

		return tieBreak(best[i].Exception, best[j].Exception)
	})

	return best[0], true
}

// Dropped reports whether match represents a false-path exception that
// has reached completion — the governing condition for spec.md §4.5's
// "the path is dropped (its tag's arrival is not merged at the
// endpoint)".
func Dropped(match ExceptionMatch, ok bool) bool {
	return ok && match.Complete && match.Exception.Kind == collaborators.ExceptionFalsePath
}

// RequiredOverride returns the absolute required-time bound a
// completed path_delay exception imposes, if any.
func RequiredOverride(match ExceptionMatch, ok bool) (float64, bool) {
	if ok && match.Complete && match.Exception.Kind == collaborators.ExceptionPathDelay {
		return match.Exception.PathDelayValue, true
	}

	return 0, false
}

// MultiCycleShift returns how many extra launch/capture cycles a
// completed multicycle_path exception shifts the capture edge by
// (N-1 cycles per spec.md §4.5).
func MultiCycleShift(match ExceptionMatch, ok bool) (int, bool) {
	if ok && match.Complete && match.Exception.Kind == collaborators.ExceptionMultiCycle {
		n := match.Exception.MultiCycles
		if n < 1 {
			n = 1
		}

		return n - 1, true
	}

	return 0, false
}

// GroupOverride returns the reporting group name a completed
// group_path exception assigns, if any.
func GroupOverride(match ExceptionMatch, ok bool) (string, bool) {
	if ok && match.Complete && match.Exception.Kind == collaborators.ExceptionGroupPath {
		return match.Exception.GroupName, true
	}

	return "", false
}
