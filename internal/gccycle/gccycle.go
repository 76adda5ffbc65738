// Package gccycle tracks the evaluator's GC-cycle counter, the mechanism
// the thunk memoization cache uses to detect stale entries (spec.md §3,
// §4.7, Design Notes).
//
// It is a plain monotonically increasing counter: advance it once per GC
// cycle, and compare an entry's recorded cycle against the current one to
// decide staleness. There is no arena rotation here — allocation lifetime
// is now Go's own GC's concern (see internal/arena for the one place this
// module still manages its own allocations) — just the "counter that
// advances and can be compared against a value recorded earlier" idea.
package gccycle

import "sync/atomic"

// Counter is a monotonically increasing GC-cycle counter. The zero value
// starts at cycle 0 and is ready to use.
type Counter struct {
	n atomic.Uint64
}

// Current returns the current cycle number.
func (c *Counter) Current() uint64 { return c.n.Load() }

// Advance increments the cycle counter, called by the evaluator whenever it
// completes a garbage collection pass, and returns the new value.
func (c *Counter) Advance() uint64 { return c.n.Add(1) }

// Stale reports whether a cache entry recorded at insertedAtCycle is stale
// relative to the counter's current value (spec.md invariant: "a cache hit
// is only honoured when entry.gc_cycle == current_gc_cycle").
func (c *Counter) Stale(insertedAtCycle uint64) bool {
	return insertedAtCycle != c.Current()
}
