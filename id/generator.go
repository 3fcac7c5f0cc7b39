package id

import (
	"sync"
	"time"

	"github.com/maxpert/fbsql/engine"
)

// LogicalBits is the number of low bits of the id word reserved for the
// per-millisecond counter. 16 bits = ~65k ids per millisecond per node.
const LogicalBits = 16

// LogicalMask masks the logical counter
const LogicalMask = (1 << LogicalBits) - 1

// Generator provides unique blob ids.
type Generator interface {
	NextID() engine.BlobID
}

// ClockGenerator issues blob ids whose high word is the node id and whose low
// word is (unix_ms << 16) | logical. Ids from one generator strictly increase.
// Thread-safe.
type ClockGenerator struct {
	nodeID  uint64
	lastMS  int64
	logical uint64
	mu      sync.Mutex

	now func() time.Time
}

// NewClockGenerator creates a generator for nodeID.
func NewClockGenerator(nodeID uint64) *ClockGenerator {
	return &ClockGenerator{nodeID: nodeID, now: time.Now}
}

// NextID generates a unique id.
func (g *ClockGenerator) NextID() engine.BlobID {
	g.mu.Lock()
	defer g.mu.Unlock()

	currentMS := g.now().UnixMilli()

	// Logical resets only when the clock moves forward; a clock that goes
	// backwards keeps counting on top of the last millisecond.
	if currentMS > g.lastMS {
		g.lastMS = currentMS
		g.logical = 0
	}

	// Exhausted this millisecond: borrow the next one.
	if g.logical >= LogicalMask {
		g.lastMS++
		g.logical = 0
	}

	g.logical++

	return engine.BlobID{
		Hi: g.nodeID,
		Lo: uint64(g.lastMS)<<LogicalBits | g.logical,
	}
}

// Observe makes sure ids issued later sort after id. Used to resume after a
// restart from the largest id already stored.
func (g *ClockGenerator) Observe(id engine.BlobID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := int64(id.Lo >> LogicalBits)
	logical := id.Lo & LogicalMask
	if ms > g.lastMS || (ms == g.lastMS && logical > g.logical) {
		g.lastMS = ms
		g.logical = logical
	}
}
