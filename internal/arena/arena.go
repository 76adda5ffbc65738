//go:build goexperiment.arenas
// +build goexperiment.arenas

// Package arena provides a thin wrapper around Go's experimental arena
// package, used to allocate the Value copies the thunk memoization cache
// stores (spec.md Design Notes: "the cache entry's Value copy is allocated
// from the evaluator's value allocator"). We expose only the primitives
// required:
//   • `New()` – construct an arena.
//   • `Free()` – release all memory at once (O(1)).
//   • `NewValue[T]()` – allocate a single value of type T.
//   • `MakeSlice[T]()` – allocate a slice of T with length==cap.
//
// The wrapper is intentionally minimal: **no pooling, no stats, no GC hooks** –
// such concerns belong to upper layers (internal/gccycle, pkg/metrics).
// Keeping it thin also simplifies future migration should the upstream
// `arena` API change.
//
// Concurrency
// -----------
// arena.Arena is *not* thread‑safe; callers (pkg's valueArena) already
// serialise access with a mutex. Therefore we do not add any locking here.
//
// ⚠️  DISCLAIMER  ----------------------------------------------
// Using arenas bypasses the garbage collector; ensure objects allocated inside
// never escape to the heap **after** Free() is called. In this module that
// means a cached entry's arena must outlive every lookup that might still
// return it, which the cache enforces by only freeing an arena once its
// GC cycle has been superseded and no readers can observe it anymore.
// -------------------------------------------------------------
//
// © 2025 evalhash authors. MIT License.

package arena

import (
	"arena" // standard library experimental package
	"unsafe"
)

// Arena is a thin new‑type wrapper that prevents external packages from
// directly depending on `arena.Arena`, giving us the freedom to switch to a
// different allocator if needed.

type Arena struct{ ar arena.Arena }

// New constructs an empty arena ready for allocations.
func New() *Arena {
	return &Arena{ar: *arena.NewArena()}
}

// Free releases **all** memory allocated in the arena.  After the call, any
// pointer previously returned from NewValue/MakeSlice becomes invalid.
func (a *Arena) Free() {
	a.ar.Free()
}

// NewValue allocates zero‑initialised T inside the arena and returns a pointer to it.
// The pointer is valid until Free() on the arena.
func NewValue[T any](a *Arena) *T { return arena.New[T](&a.ar) }

// MakeSlice allocates a slice of length==cap==n inside the arena and returns
// it.  The backing array is owned by the arena and will be released on Free().
func MakeSlice[T any](a *Arena, n int) []T { return arena.MakeSlice[T](&a.ar, n, n) }

// AllocBytes copies buf into the arena and returns a reference to the new
// memory.  Convenience helper used when we need an immutable grain inside the
// cache.
func AllocBytes(a *Arena, buf []byte) []byte {
	dst := arena.MakeSlice[byte](&a.ar, len(buf), len(buf))
	copy(dst, buf)
	return dst
}

// UnsafePointer converts an *arena-backed* pointer to unsafe.Pointer so that it
// can be stored inside cache metadata.  Usage is rare; provided for
// completeness.
func UnsafePointer[T any](p *T) unsafe.Pointer { return unsafe.Pointer(p) }
