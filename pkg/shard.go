package pkg

// shard.go contains the sharded segment of the thunk memoization cache. A
// Cache is split into N independent shards to minimise lock contention.
// Each entry carries only what spec.md §3/§4.7 needs: the cached Value and
// the GC cycle it was inserted under — no byte-capacity eviction state,
// since there is no eviction here beyond staleness (spec.md Non-goals).
//
// © 2025 evalhash authors. MIT License.

import (
	"sync"

	"github.com/Voskan/evalhash/langvalue"
)

// memoEntry is the metadata kept for every cached thunk identity.
type memoEntry struct {
	value   *langvalue.Value
	gcCycle uint64
}

// shard owns a slice of the StructuralHash key-space.
type shard struct {
	mu    sync.RWMutex
	index map[StructuralHash]memoEntry
}

func newShard() *shard {
	return &shard{
		index: make(map[StructuralHash]memoEntry, 256),
	}
}

// lookup returns the entry for h and whether it was present at all. The
// caller (Force, via Cache.lookup) compares entry.gcCycle against the current cycle —
// staleness is cache-level policy, not shard-level.
func (s *shard) lookup(h StructuralHash) (memoEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.index[h]
	return e, ok
}

// insertOrAssign overwrites whatever was previously stored for h. Per
// spec.md §5: concurrent misses on the same key both compute and both
// insert; since the same hash implies the same value, the last writer
// winning is harmless.
func (s *shard) insertOrAssign(h StructuralHash, e memoEntry) {
	s.mu.Lock()
	s.index[h] = e
	s.mu.Unlock()
}

func (s *shard) delete(h StructuralHash) {
	s.mu.Lock()
	delete(s.index, h)
	s.mu.Unlock()
}

func (s *shard) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index)
}
