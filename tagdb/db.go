// Package tagdb interns the Tag, ClkInfo, ExceptionState and TagGroup
// values a search pass needs to let one vertex carry many concurrent,
// independently-tracked arrivals (spec.md §3 Tag/TagGroup). Every table
// here is append-only for the lifetime of an analysis and freed only in
// batch on Reset, mirroring the graph's own "freed in batch on reset"
// ownership rule.
//
// Each table gets its own mutex, the same discipline stagraph's Graph
// uses for its vertex/edge tables: readers never block other readers,
// and a write to one table (say, ClkInfo) never blocks a concurrent
// read of another (say, Tag).
package tagdb

import (
	"sync"

	"github.com/The-OpenROAD-Project/stacore/stagraph"
)

// DB owns the four intern tables. Index 0 in every table is reserved as
// a "none"/invalid sentinel, matching stagraph's VertexID/EdgeID
// convention.
type DB struct {
	muClk sync.RWMutex
	clk   []ClkInfo
	clkIx map[ClkInfo]int

	muExcState sync.RWMutex
	excState   []ExceptionState
	excIx      map[ExceptionState]int

	muExcSet sync.RWMutex
	excSet   [][]int
	excSetIx map[string]int

	muTag sync.RWMutex
	tag   []Tag
	tagIx map[Tag]int

	muGroup sync.RWMutex
	group   [][]int
	groupIx map[string]int

	borrowCap int
}

// Option configures a DB at construction, in the style of the teacher's
// functional-options config builders.
type Option func(*DB)

// WithBorrowIterationCap overrides the default 10-iteration cap on latch
// time-borrowing fixed-point search (spec.md §4.5, §9).
func WithBorrowIterationCap(n int) Option {
	return func(db *DB) { db.borrowCap = n }
}

// New creates an empty DB with every intern table pre-seeded with one
// invalid sentinel at index 0.
func New(opts ...Option) *DB {
	db := &DB{
		clk:       []ClkInfo{{}},
		clkIx:     map[ClkInfo]int{{}: 0},
		excState:  []ExceptionState{{}},
		excIx:     map[ExceptionState]int{{}: 0},
		excSet:    [][]int{nil},
		excSetIx:  map[string]int{"": 0},
		tag:       []Tag{{}},
		tagIx:     map[Tag]int{{}: 0},
		group:     [][]int{nil},
		groupIx:   map[string]int{"": 0},
		borrowCap: 10,
	}
	for _, opt := range opts {
		opt(db)
	}

	return db
}

// BorrowIterationCap returns the configured latch-borrowing iteration cap.
func (db *DB) BorrowIterationCap() int { return db.borrowCap }

// Reset discards every interned value, freeing all four tables in batch
// (spec.md §3 "live for the lifetime of the analysis and are freed in
// batch on reset").
func (db *DB) Reset() {
	db.muClk.Lock()
	db.clk = []ClkInfo{{}}
	db.clkIx = map[ClkInfo]int{{}: 0}
	db.muClk.Unlock()

	db.muExcState.Lock()
	db.excState = []ExceptionState{{}}
	db.excIx = map[ExceptionState]int{{}: 0}
	db.muExcState.Unlock()

	db.muExcSet.Lock()
	db.excSet = [][]int{nil}
	db.excSetIx = map[string]int{"": 0}
	db.muExcSet.Unlock()

	db.muTag.Lock()
	db.tag = []Tag{{}}
	db.tagIx = map[Tag]int{{}: 0}
	db.muTag.Unlock()

	db.muGroup.Lock()
	db.group = [][]int{nil}
	db.groupIx = map[string]int{"": 0}
	db.muGroup.Unlock()
}

// RiseFall and AnalysisPoint indices are shared with stagraph's own
// index space so a Tag.APIndex can be used directly against
// Graph.AnalysisPoints().
type RiseFall = stagraph.RiseFall

const (
	Rise = stagraph.Rise
	Fall = stagraph.Fall
)
