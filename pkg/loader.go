package pkg

// loader.go coalesces concurrent lookups of the same key behind a single
// in-flight call: when two goroutines request the same key at once, only
// one actually runs the loader function — the rest wait for its result and
// get it at no extra cost. Nothing in this module calls it: pkg/persist
// de-duplicates its disk reads with its own singleflight.Group, and the
// in-memory thunk cache's force path does not use it either, since there
// concurrent misses on the same StructuralHash across different thunk cells
// each independently compute and insert.
//
// © 2025 evalhash authors. MIT License.

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/Voskan/evalhash/langvalue"
)

// loaderGroup de-duplicates in-flight evaluations keyed by StructuralHash.
type loaderGroup struct {
	g singleflight.Group
}

func newLoaderGroup() *loaderGroup {
	return &loaderGroup{}
}

// load runs fn at most once per key among concurrent callers; every caller
// observes the same (Forced, error). shared reports whether this caller rode
// in on another goroutine's evaluation rather than triggering it.
func (lg *loaderGroup) load(ctx context.Context, key StructuralHash, fn EvalFunc) (result langvalue.Forced, err error, shared bool) {
	k := key.Hex()
	res, err, shared := lg.g.Do(k, func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return langvalue.Forced{}, err, shared
	}
	return res.(langvalue.Forced), nil, shared
}
