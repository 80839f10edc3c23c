// Package report carries warnings and fatal conditions out of the core
// (spec.md §7). Every warning has a stable numeric id so a caller can
// suppress it; nothing here escalates a warning to an error — that
// policy belongs one layer up, outside this module's scope.
package report

import (
	"fmt"
	"log"
	"sync"
)

// ID is a stable warning/error identifier. Values are never renumbered
// across releases once assigned, since callers persist suppression
// lists keyed by ID.
type ID int

const (
	WarnHierPinNoChildren ID = iota + 1000
	WarnEdgeUnknownArc
	WarnSdfUnknownInstance
	WarnExceptionPriorityConflict
	WarnParasiticFormUnsupported
	WarnBorrowFixedPointCapped
	WarnDegenerateLoadClamped
)

var names = map[ID]string{
	WarnHierPinNoChildren:         "hierarchical pin has no child pins",
	WarnEdgeUnknownArc:            "edge annotation refers to an unknown timing arc",
	WarnSdfUnknownInstance:        "SDF annotation refers to a non-existent instance",
	WarnExceptionPriorityConflict: "overlapping exceptions resolved by priority order",
	WarnParasiticFormUnsupported:  "parasitic form not supported by this delay calculator, falling back to lumped cap",
	WarnBorrowFixedPointCapped:    "latch time-borrowing fixed point did not converge before the iteration cap",
	WarnDegenerateLoadClamped:     "degenerate load/slew input clamped to nearest library table point",
}

// Name returns a human-readable description of id, or "" if unknown.
func Name(id ID) string { return names[id] }

// FatalError is the core's "invalid state, cannot continue" exception
// (spec.md §7 Fatal): out-of-memory during interning, or a topological
// level that a cycle could not be broken into. The engine is left
// consistent enough to be discarded, never half-mutated.
type FatalError struct {
	ID      ID
	Message string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("stacore: fatal [%d]: %s", e.ID, e.Message)
}

// Sink receives warnings and suppressions, in the shape every SDC/SDF/
// liberty ingestion path and every core subsystem shares. It is an
// interface, not a concrete logger, so a caller can route warnings
// anywhere (a report file, a TCL command's stdout, a test spy).
type Sink interface {
	Warn(id ID, format string, args ...any)
	Suppressed(id ID) bool
}

// LogSink is the default Sink, writing through the standard library's
// log package — mirroring the rest of the pack, which never reaches for
// a structured-logging dependency and always uses stdlib log for
// anything ambient.
type LogSink struct {
	mu         sync.Mutex
	logger     *log.Logger
	suppressed map[ID]bool
}

// NewLogSink creates a LogSink writing to log.Default() unless
// overridden by WithLogger.
func NewLogSink(opts ...LogSinkOption) *LogSink {
	s := &LogSink{
		logger:     log.Default(),
		suppressed: make(map[ID]bool),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// LogSinkOption configures a LogSink at construction.
type LogSinkOption func(*LogSink)

// WithLogger overrides the destination *log.Logger.
func WithLogger(l *log.Logger) LogSinkOption {
	return func(s *LogSink) { s.logger = l }
}

// WithSuppressed pre-populates the suppression set.
func WithSuppressed(ids ...ID) LogSinkOption {
	return func(s *LogSink) {
		for _, id := range ids {
			s.suppressed[id] = true
		}
	}
}

// Warn logs id's message unless it is suppressed.
func (s *LogSink) Warn(id ID, format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.suppressed[id] {
		return
	}
	s.logger.Printf("warning [%d] %s: %s", id, Name(id), fmt.Sprintf(format, args...))
}

// Suppress adds id to the suppression set.
func (s *LogSink) Suppress(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppressed[id] = true
}

// Unsuppress removes id from the suppression set.
func (s *LogSink) Unsuppress(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.suppressed, id)
}

// Suppressed reports whether id is currently suppressed.
func (s *LogSink) Suppressed(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.suppressed[id]
}
