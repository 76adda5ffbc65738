package pkg

import "sync/atomic"

// Counters accumulates the hit/miss/skip statistics spec.md §2 and §7
// require of the memoization cache, plus the supplemented debug counters
// from the original's value-hash skip accounting (SPEC_FULL.md §4). All
// fields are safe for concurrent use; a nil *Counters is never passed to
// the hot path (the force loop always owns one), but every increment
// helper below tolerates a nil receiver so TryHashValue/IsHashableValue can
// be called without one when a caller doesn't care about the debug
// accounting.
type Counters struct {
	Hits        atomic.Uint64
	Misses      atomic.Uint64
	StaleHits   atomic.Uint64
	ImpureSkips atomic.Uint64
	LazySkips   atomic.Uint64

	ValueHashOK                atomic.Uint64
	ValueHashSkipDepth          atomic.Uint64
	ValueHashSkipThunk          atomic.Uint64
	ValueHashSkipLargeAttrs     atomic.Uint64
	ValueHashSkipLargeList      atomic.Uint64
	ValueHashSkipExternal       atomic.Uint64
	ValueHashSkipNonCheapThunk  atomic.Uint64
	ValueHashSkipNestedThunk    atomic.Uint64
	ValueHashSkipNestedNonCheap atomic.Uint64
}

func (c *Counters) incHit() {
	if c != nil {
		c.Hits.Add(1)
	}
}
func (c *Counters) incMiss() {
	if c != nil {
		c.Misses.Add(1)
	}
}
func (c *Counters) incStaleHit() {
	if c != nil {
		c.StaleHits.Add(1)
	}
}
func (c *Counters) incImpureSkip() {
	if c != nil {
		c.ImpureSkips.Add(1)
	}
}
func (c *Counters) incLazySkip() {
	if c != nil {
		c.LazySkips.Add(1)
	}
}
func (c *Counters) incValueHashOK() {
	if c != nil {
		c.ValueHashOK.Add(1)
	}
}
func (c *Counters) incSkipDepth() {
	if c != nil {
		c.ValueHashSkipDepth.Add(1)
	}
}
func (c *Counters) incSkipThunk() {
	if c != nil {
		c.ValueHashSkipThunk.Add(1)
	}
}
func (c *Counters) incSkipLargeAttrs() {
	if c != nil {
		c.ValueHashSkipLargeAttrs.Add(1)
	}
}
func (c *Counters) incSkipLargeList() {
	if c != nil {
		c.ValueHashSkipLargeList.Add(1)
	}
}
func (c *Counters) incSkipExternal() {
	if c != nil {
		c.ValueHashSkipExternal.Add(1)
	}
}
func (c *Counters) incSkipNonCheapThunk() {
	if c != nil {
		c.ValueHashSkipNonCheapThunk.Add(1)
	}
}
