package pkg

// force.go implements the forcing protocol of spec.md §4.7: the operation
// that turns a thunk into a finished value, consulting the memoization
// cache before reducing and populating it afterward, gated by the impurity
// token, the current GC cycle, and the shallow-uncacheability check.
//
// This package never reduces an expression itself — that is the
// evaluator's job, supplied here through the Evaluator interface — it only
// decides whether reduction can be skipped (cache hit) and whether its
// result is worth remembering (cache insert).
//
// © 2025 evalhash authors. MIT License.

import (
	"context"
	"errors"

	"github.com/Voskan/evalhash/ast"
	"github.com/Voskan/evalhash/langvalue"
)

// Evaluator is the reduction engine Force delegates to. evalhash owns
// identity and memoization; the evaluator owns semantics.
type Evaluator interface {
	// ImpurityToken returns the evaluator's current impurity generation.
	// Force samples it before and after reduction; a change means an
	// impure primop ran (trace, readEnv, interactive break, ...) and the
	// result must not be cached (spec.md §4.7, §6).
	ImpurityToken() uint64

	// CheckInterrupt returns a non-nil error if evaluation should stop
	// (e.g. a user-requested cancellation). Checked before every
	// reduction.
	CheckInterrupt() error

	// TryLevel returns the current exception-catching nesting depth,
	// fed into the thunk hash since a thunk's observable behavior can
	// differ inside vs. outside a try/catch construct.
	TryLevel() int

	// Eval reduces expr in env into v, mutating v to its finished (or
	// failed) form. Errors returned here are evaluation exceptions,
	// distinct from v ending up in the Failed state — see Force's
	// handling of both.
	Eval(ctx context.Context, env *langvalue.Env, expr ast.Expr, v *langvalue.Value) error

	// CallFunction reduces the application of left to right into v.
	CallFunction(ctx context.Context, left, right, v *langvalue.Value) error
}

// ErrUnknownValueState is returned if a Value is observed in a state Force
// does not know how to dispatch on — should be unreachable given the
// state machine in langvalue.Value, but guards against a stuck loop.
var ErrUnknownValueState = errors.New("evalhash: value in unrecognized state")

// Force reduces v to a finished value (or propagates its failure),
// consulting and populating c along the way. symbols resolves interned
// names for hashing; ev supplies reduction semantics.
func Force(ctx context.Context, c *Cache, ev Evaluator, symbols *ast.SymbolTable, v *langvalue.Value) error {
	for {
		switch {
		case v.IsFinished():
			return nil
		case v.IsFailed():
			return v.Err()
		case v.IsPending():
			v.Await()
		case v.IsApp():
			left, right := v.AppOperands()
			if err := ev.CallFunction(ctx, left, right, v); err != nil {
				return err
			}
		case v.IsThunk():
			if err := c.forceThunk(ctx, ev, symbols, v); err != nil {
				return err
			}
		default:
			return ErrUnknownValueState
		}
	}
}

// forceThunk runs one pass of the thunk branch of the force loop: hash,
// cache lookup, claim, reduce, classify, maybe insert. The caller (Force)
// loops back around afterward to observe v's new state.
func (c *Cache) forceThunk(ctx context.Context, ev Evaluator, symbols *ast.SymbolTable, v *langvalue.Value) error {
	env, expr := v.Thunk()
	tryLevel := ev.TryLevel()
	h := ComputeThunkStructuralHash(expr, env, tryLevel, symbols, c.exprCache)
	if pm, ok := c.metrics.(*promMetrics); ok {
		pm.setExprCacheEntries(c.exprCache.Len())
	}

	if entry, ok := c.lookup(h); ok {
		if !c.cycle.Stale(entry.gcCycle) {
			if v.TryClaim() {
				v.ArmWaiters()
				v.Finish(entry.value.Forced())
				c.counters.incHit()
				c.metrics.incHit()
			}
			// Lost the claim race: another goroutine is handling this
			// exact cell; the outer loop will see Pending and wait.
			return nil
		}
		c.counters.incStaleHit()
		c.metrics.incStaleHit()
	}

	if !v.TryClaim() {
		return nil
	}
	v.ArmWaiters()

	if err := ev.CheckInterrupt(); err != nil {
		v.RevertToThunk()
		return err
	}

	tokenBefore := ev.ImpurityToken()
	if err := ev.Eval(ctx, env, expr, v); err != nil {
		if v.IsFailed() {
			return v.Err()
		}
		v.RevertToThunk()
		return err
	}

	if !v.IsFinished() {
		// Eval routed v to Failed (or left it Pending for its own
		// reasons); nothing more for the force loop to classify here.
		return nil
	}

	if ev.ImpurityToken() != tokenBefore {
		c.counters.incImpureSkip()
		c.metrics.incImpureSkip()
		return nil
	}
	if valueIsShallowUncacheable(v) {
		c.counters.incLazySkip()
		c.metrics.incLazySkip()
		return nil
	}
	c.counters.incMiss()
	c.metrics.incMiss()
	c.arenaMu.Lock()
	cached := c.arena.alloc(v.Forced())
	c.arenaMu.Unlock()
	c.insertOrAssign(h, cached)
	return nil
}

// valueIsShallowUncacheable reports whether v, just finished, is unsafe to
// memoize: paths are context-dependent on the accessor that produced them,
// and a record/list with an unforced or path-typed immediate child would
// cache a result whose children escape that contract. The check is
// deliberately shallow — a child thunk gets its own cache entry once it is
// itself forced (spec.md §4.7).
func valueIsShallowUncacheable(v *langvalue.Value) bool {
	f := v.Forced()
	switch f.Kind {
	case langvalue.KindPath:
		return true
	case langvalue.KindRecord:
		for _, a := range f.Record {
			if childUncacheable(a.Value) {
				return true
			}
		}
	case langvalue.KindList:
		for _, el := range f.List {
			if childUncacheable(el) {
				return true
			}
		}
	}
	return false
}

func childUncacheable(v *langvalue.Value) bool {
	if v == nil {
		return false
	}
	if v.IsThunk() || v.IsPending() {
		return true
	}
	return v.IsFinished() && v.Forced().Kind == langvalue.KindPath
}
