package pkg

// cache.go is the public Cache type: the concurrent map from StructuralHash
// to (Value, gc_cycle) that spec.md §3/§4.7 describes. It lives on the
// evaluator and may be consulted in parallel (spec.md §5).
//
// © 2025 evalhash authors. MIT License.

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Voskan/evalhash/internal/gccycle"
	"github.com/Voskan/evalhash/langvalue"
)

// Cache is the thunk memoization cache: a sharded concurrent map keyed by
// StructuralHash, gated at the force loop by GC-cycle staleness, impurity
// tracking, and shallow-uncacheability (see Force in force.go).
type Cache struct {
	shards    []*shard
	cycle     *gccycle.Counter
	counters  *Counters
	metrics   metricsSink
	exprCache *ExprCache
	logger    *zap.Logger

	arenaMu sync.Mutex
	arena   *valueArena
}

// New constructs a Cache. Shard count, logger, metrics registry, and the
// shared GC-cycle counter are all configured via Option.
func New(opts ...Option) (*Cache, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	c := &Cache{
		shards:    make([]*shard, cfg.shards),
		cycle:     cfg.cycle,
		counters:  cfg.counters,
		metrics:   newMetricsSink(cfg.registry),
		exprCache: NewExprCache(cfg.exprCacheSz),
		logger:    cfg.logger,
		arena:     newValueArena(),
	}
	for i := range c.shards {
		c.shards[i] = newShard()
	}
	return c, nil
}

// ExprCache exposes the expression-hash cache created alongside this Cache,
// so callers can pass one consistent *ExprCache into HashExpr/ComputeThunkHash
// without constructing a second one.
func (c *Cache) ExprCache() *ExprCache { return c.exprCache }

// Counters exposes the hit/miss/skip accounting for this cache.
func (c *Cache) Counters() *Counters { return c.counters }

// GCCycle exposes the shared GC-cycle counter. AdvanceGCCycle should be
// called by the evaluator whenever a garbage collection pass completes.
func (c *Cache) GCCycle() *gccycle.Counter { return c.cycle }

// AdvanceGCCycle moves the cache's notion of "current" forward, logging the
// transition (a slow, rare event, never on the hot path).
func (c *Cache) AdvanceGCCycle() uint64 {
	n := c.cycle.Advance()
	c.arenaMu.Lock()
	c.arena = c.arena.rotate()
	c.arenaMu.Unlock()
	c.logger.Info("gc cycle advanced", zap.Uint64("cycle", n))
	return n
}

func (c *Cache) shardFor(h StructuralHash) *shard {
	b := h.Bytes()
	// FNV-1a over the digest bytes: cheap, stable, and gives identical
	// shard routing for identical hashes regardless of process-local
	// hash-seed randomization (unlike hash/maphash, which is seeded
	// per-process and would make routing non-reproducible across runs —
	// immaterial for correctness but awkward for tests that assert on
	// shard distribution).
	var x uint64 = 14695981039346656037
	for _, bb := range b {
		x ^= uint64(bb)
		x *= 1099511628211
	}
	return c.shards[x%uint64(len(c.shards))]
}

// lookup returns the raw entry for h and whether it was present at all,
// without judging staleness — force.go's Force is the only caller and it
// owns the staleness policy (spec.md §4.7/§8.14).
func (c *Cache) lookup(h StructuralHash) (memoEntry, bool) {
	return c.shardFor(h).lookup(h)
}

// insertOrAssign stores v under h at the current GC cycle.
func (c *Cache) insertOrAssign(h StructuralHash, v *langvalue.Value) {
	c.shardFor(h).insertOrAssign(h, memoEntry{value: v, gcCycle: c.cycle.Current()})
}

// Len returns the total number of live entries across all shards.
func (c *Cache) Len() int {
	total := 0
	for _, s := range c.shards {
		total += s.len()
	}
	return total
}

// Delete removes h from the cache, if present.
func (c *Cache) Delete(h StructuralHash) {
	c.shardFor(h).delete(h)
}
