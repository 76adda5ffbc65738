//go:build goexperiment.arenas

// This file backs the memo cache's cache-resident Value copies with
// internal/arena instead of the ordinary heap. The "generation" boundary
// is the GC cycle: one arena lives per cycle, and AdvanceGCCycle frees the
// previous cycle's arena wholesale instead of freeing individual entries.
//
// © 2025 evalhash authors. MIT License.
package pkg

import (
	"sync"

	"github.com/Voskan/evalhash/internal/arena"
	"github.com/Voskan/evalhash/langvalue"
)

// valueArena owns the arena backing one GC cycle's worth of cache-resident
// Value copies.
type valueArena struct {
	mu sync.Mutex
	a  *arena.Arena
}

func newValueArena() *valueArena {
	return &valueArena{a: arena.New()}
}

// alloc copies f into an arena-resident Value cell. Only the cell itself
// is arena-backed; Forced's own pointer fields (Record/List children,
// LambdaEnv, ...) keep whatever lifetime they already had — the arena
// covers the cache entry's Value copy, not its transitive closure.
func (va *valueArena) alloc(f langvalue.Forced) *langvalue.Value {
	va.mu.Lock()
	dst := arena.NewValue[langvalue.Value](va.a)
	va.mu.Unlock()
	return langvalue.NewFinishedAt(dst, f)
}

// rotate frees the current arena and starts a fresh one, called whenever
// the cache's GC cycle advances past every entry the old arena backed.
func (va *valueArena) rotate() *valueArena {
	va.mu.Lock()
	va.a.Free()
	va.mu.Unlock()
	return newValueArena()
}
