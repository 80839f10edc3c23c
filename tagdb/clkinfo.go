package tagdb

import (
	"github.com/The-OpenROAD-Project/stacore/collaborators"
	"github.com/The-OpenROAD-Project/stacore/stagraph"
)

// PulseSense records whether a clock's active pulse, propagated through
// a pulse-clock-converting gate, is currently rising or falling.
type PulseSense int

const (
	PulseSenseRise PulseSense = iota
	PulseSenseFall
)

// ClkInfo is the launch-clock context carried by a clock-path Tag:
// which clock edge, which source pin, how it propagates, and the
// latency/uncertainty/insertion values search needs at merge time
// (spec.md §3 ClkInfo).
type ClkInfo struct {
	ClockName      string
	Edge           collaborators.RiseFall
	SourcePin      collaborators.PinID
	Propagated     bool
	IsGeneratedSrc bool
	Pulse          PulseSense
	Insertion      float64
	Latency        float64
	SetupUncertainty float64
	HoldUncertainty  float64
	MinMax         stagraph.MinMax

	// PathPrefixVertex/PathPrefixTag name the launching clock-path
	// prefix this ClkInfo was derived from, consulted by CRPR to find
	// the common clock-path ancestor between a launch and a capture
	// ClkInfo without re-walking the whole Path chain.
	PathPrefixVertex int
	PathPrefixTag    int
}

// InternClkInfo returns the interned index for ci, creating a new entry
// if this exact value has not been seen before.
func (db *DB) InternClkInfo(ci ClkInfo) int {
	db.muClk.Lock()
	defer db.muClk.Unlock()

	if idx, ok := db.clkIx[ci]; ok {
		return idx
	}
	idx := len(db.clk)
	db.clk = append(db.clk, ci)
	db.clkIx[ci] = idx

	return idx
}

// ClkInfo returns the interned value at idx.
func (db *DB) ClkInfo(idx int) ClkInfo {
	db.muClk.RLock()
	defer db.muClk.RUnlock()

	if idx < 0 || idx >= len(db.clk) {
		return ClkInfo{}
	}

	return db.clk[idx]
}
