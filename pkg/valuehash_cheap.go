package pkg

import (
	"github.com/Voskan/evalhash/ast"
	"github.com/Voskan/evalhash/langvalue"
)

// MaxHashableAttrs and MaxHashDepth bound TryHashValue's best-effort
// traversal: records wider or trees deeper than these are judged too
// expensive to hash speculatively and TryHashValue reports failure instead
// of doing unbounded work. Carried over from the original's
// maxHashableAttrs/maxHashDepth (SPEC_FULL.md §4).
const (
	MaxHashableAttrs = 32
	MaxHashDepth     = 8
)

// IsCheapExpr reports whether forcing expr is safe to attempt purely for
// the sake of hashing it (TryForceAndHashValue), i.e. whether it can't
// trigger arbitrary computation. Literals, paths, and already-built
// structures are cheap; function calls, let/with/if/assert, and operators
// are not, because forcing them may run unbounded user code.
func IsCheapExpr(expr ast.Expr) bool {
	switch expr.(type) {
	case nil:
		return true
	case *ast.Int, *ast.Float, *ast.String, *ast.Path, *ast.Var,
		*ast.List, *ast.Attrs, *ast.Lambda, *ast.Pos, *ast.BlackHole,
		*ast.InheritFrom:
		return true
	default:
		return false
	}
}

// isCheapThunk reports whether forcing v (still a Thunk) is cheap, per
// IsCheapExpr over its captured expression. Non-thunk and App values are
// never cheap to force speculatively.
func isCheapThunk(v *langvalue.Value) bool {
	if v == nil || !v.IsThunk() || v.IsApp() {
		return false
	}
	_, expr := v.Thunk()
	return IsCheapExpr(expr)
}

// IsHashableValue reports whether v is simple enough for TryHashValue to
// hash within the MaxHashableAttrs/MaxHashDepth bounds, without forcing
// anything. counters, if non-nil, accumulates *why* a value was rejected —
// the original's nrHashSkip* debug accounting.
func IsHashableValue(v *langvalue.Value, depth int, counters *Counters) bool {
	if depth > MaxHashDepth {
		counters.incSkipDepth()
		return false
	}
	if v == nil {
		return true
	}
	if v.IsThunk() || v.IsPending() {
		if v.IsThunk() && isCheapThunk(v) {
			// A cheap, not-yet-forced thunk can still be judged hashable;
			// TryForceAndHashValue is the caller that actually forces it.
			return true
		}
		counters.incSkipThunk()
		return false
	}
	if v.IsFailed() {
		return false
	}
	forced := v.Forced()
	switch forced.Kind {
	case langvalue.KindExternal:
		counters.incSkipExternal()
		return false
	case langvalue.KindRecord:
		if len(forced.Record) > MaxHashableAttrs {
			counters.incSkipLargeAttrs()
			return false
		}
		for _, a := range forced.Record {
			if !IsHashableValue(a.Value, depth+1, counters) {
				return false
			}
		}
	case langvalue.KindList:
		if len(forced.List) > MaxHashableAttrs {
			counters.incSkipLargeList()
			return false
		}
		for _, el := range forced.List {
			if !IsHashableValue(el, depth+1, counters) {
				return false
			}
		}
	}
	return true
}

// TryHashValue attempts a bounded, best-effort ContentHash of an
// already-forced (or cheaply-forceable) value: it first screens v with
// IsHashableValue against the depth/width bounds, then hashes it with
// HashValue. It is intended for lighter-weight memoization layers above
// primops, not for the thunk cache's own correctness-critical hashing.
// Returns false if the value was judged unhashable within the depth/width
// bounds.
func TryHashValue(v *langvalue.Value, symbols *ast.SymbolTable, exprCache *ExprCache, counters *Counters) (ContentHash, bool) {
	if !IsHashableValue(v, 0, counters) {
		return ContentHash{}, false
	}
	h, _ := HashValue(v, symbols, exprCache, NewValueCache())
	counters.incValueHashOK()
	return h, true
}

// TryForceAndHashValue forces v (if it is a cheap, unforced thunk) and then
// hashes it via TryHashValue. force is the caller-supplied forcing
// function, since this package does not itself implement reduction.
func TryForceAndHashValue(v *langvalue.Value, symbols *ast.SymbolTable, exprCache *ExprCache, counters *Counters, force func(*langvalue.Value) error) (ContentHash, bool) {
	if v != nil && v.IsThunk() {
		if !isCheapThunk(v) {
			counters.incSkipNonCheapThunk()
			return ContentHash{}, false
		}
		if err := force(v); err != nil {
			return ContentHash{}, false
		}
	}
	return TryHashValue(v, symbols, exprCache, counters)
}
