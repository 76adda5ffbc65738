//go:build !goexperiment.arenas

// Plain-heap fallback for builds without GOEXPERIMENT=arenas set. Same
// shape as valuearena_experiment.go so cache.go doesn't need its own build
// tags; rotate() here is a no-op since the ordinary GC already reclaims
// unreferenced cache-resident Values on its own schedule.
//
// © 2025 evalhash authors. MIT License.
package pkg

import "github.com/Voskan/evalhash/langvalue"

type valueArena struct{}

func newValueArena() *valueArena { return &valueArena{} }

func (va *valueArena) alloc(f langvalue.Forced) *langvalue.Value {
	return langvalue.NewFinished(f)
}

func (va *valueArena) rotate() *valueArena {
	return va
}
