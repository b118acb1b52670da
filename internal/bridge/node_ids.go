// Package bridge implements the external-engine bridge (spec.md component
// I): a child-process-managed, co-located synthesis server talked to over
// a datagram control protocol (OSC address strings + ordered typed
// arguments).I and §6 "Control protocol".
package bridge

import "sync/atomic"

// Reserved ids below which the bridge never allocates, leaving room for
// the three well-known node groups and any server-reserved buffers
//.
const (
	reservedNodeIDs   = 1000
	reservedBufferIDs = 16
)

const (
	// SourceGroupID, FxGroupID, MonitorGroupID are the three node groups
	// created on boot, in render order (, GLOSSARY "Source
	// group / FX group / monitor group").
	SourceGroupID  = 1
	FxGroupID      = 2
	MonitorGroupID = 3

	// ScopeBufferID is the buffer the scope monitor polls with
	// `/b_getn` for waveform readout.
	ScopeBufferID = 0
)

// IDAllocator is a monotonically increasing atomic counter seeded above
// a reserved range, used for both node ids and sample buffer ids
// (
// monotonically increasing atomic counters seeded above the reserved
// group/buffer ids").
type IDAllocator struct {
	next atomic.Int64
}

// NewNodeIDAllocator returns an allocator seeded above the three
// reserved group ids.
func NewNodeIDAllocator() *IDAllocator {
	a := &IDAllocator{}
	a.next.Store(reservedNodeIDs)
	return a
}

// NewBufferIDAllocator returns an allocator seeded above the reserved
// scope buffer id.
func NewBufferIDAllocator() *IDAllocator {
	a := &IDAllocator{}
	a.next.Store(reservedBufferIDs)
	return a
}

// Next returns the next id and advances the counter.
func (a *IDAllocator) Next() int32 {
	return int32(a.next.Add(1))
}
