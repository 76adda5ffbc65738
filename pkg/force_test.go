package pkg

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Voskan/evalhash/ast"
	"github.com/Voskan/evalhash/examples/internal/toyeval"
	"github.com/Voskan/evalhash/langvalue"
)

func newTestCache(t *testing.T) *Cache {
	c, err := New(WithShards(4))
	require.NoError(t, err)
	return c
}

func TestForceMissThenHit(t *testing.T) {
	symbols := ast.NewSymbolTable()
	ev := toyeval.New()
	c := newTestCache(t)
	env := langvalue.NewEnv(nil, 0)
	expr := &ast.Int{Value: 10}

	v1 := langvalue.NewThunk(env, expr)
	require.NoError(t, Force(context.Background(), c, ev, symbols, v1))
	require.True(t, v1.IsFinished())
	assert.Equal(t, uint64(1), c.Counters().Misses.Load())

	v2 := langvalue.NewThunk(env, expr)
	require.NoError(t, Force(context.Background(), c, ev, symbols, v2))
	require.True(t, v2.IsFinished())
	assert.Equal(t, int64(10), v2.Forced().Int)
	assert.Equal(t, uint64(1), c.Counters().Hits.Load())
}

func TestForceGCCycleStalenessForcesRecompute(t *testing.T) {
	symbols := ast.NewSymbolTable()
	ev := toyeval.New()
	c := newTestCache(t)
	env := langvalue.NewEnv(nil, 0)
	expr := &ast.Int{Value: 5}

	v1 := langvalue.NewThunk(env, expr)
	require.NoError(t, Force(context.Background(), c, ev, symbols, v1))

	c.AdvanceGCCycle()

	v2 := langvalue.NewThunk(env, expr)
	require.NoError(t, Force(context.Background(), c, ev, symbols, v2))
	assert.Equal(t, uint64(1), c.Counters().StaleHits.Load())
	assert.Equal(t, uint64(2), c.Counters().Misses.Load())
}

func TestForceImpureResultIsNotCached(t *testing.T) {
	symbols := ast.NewSymbolTable()
	ev := toyeval.New()
	c := newTestCache(t)
	env := langvalue.NewEnv(nil, 0)
	expr := &ast.Int{Value: 3}

	// impureDuringEval bumps the token from inside Eval, so Force's
	// before/after samples differ and the result must not be cached.
	impureEv := &impureDuringEval{Evaluator: ev}

	v := langvalue.NewThunk(env, expr)
	require.NoError(t, Force(context.Background(), c, impureEv, symbols, v))
	require.True(t, v.IsFinished())

	assert.Equal(t, uint64(1), c.Counters().ImpureSkips.Load())
	assert.Equal(t, uint64(0), c.Counters().Misses.Load())
	assert.Equal(t, 0, c.Len())
}

type impureDuringEval struct {
	*toyeval.Evaluator
}

func (e *impureDuringEval) Eval(ctx context.Context, env *langvalue.Env, expr ast.Expr, v *langvalue.Value) error {
	err := e.Evaluator.Eval(ctx, env, expr, v)
	e.Evaluator.MarkImpure()
	return err
}

func TestForcePathResultIsShallowUncacheable(t *testing.T) {
	symbols := ast.NewSymbolTable()
	ev := toyeval.New()
	c := newTestCache(t)
	env := langvalue.NewEnv(nil, 0)
	expr := &ast.Path{Relative: "a/b"}

	v := langvalue.NewThunk(env, expr)
	require.NoError(t, Force(context.Background(), c, ev, symbols, v))
	require.True(t, v.IsFinished())

	assert.Equal(t, uint64(1), c.Counters().LazySkips.Load())
	assert.Equal(t, 0, c.Len())
}

func TestForceListWithUnforcedChildIsShallowUncacheable(t *testing.T) {
	symbols := ast.NewSymbolTable()
	ev := toyeval.New()
	c := newTestCache(t)
	env := langvalue.NewEnv(nil, 0)

	// toyeval's List case leaves each element as an unforced thunk (it
	// only reduces the list spine, not its elements), so forcing the list
	// itself must land in the lazy-skip path rather than being memoized.
	listExpr := &ast.List{Elements: []ast.Expr{&ast.Int{Value: 1}}}
	v := langvalue.NewThunk(env, listExpr)

	require.NoError(t, Force(context.Background(), c, ev, symbols, v))
	require.True(t, v.IsFinished())
	assert.Equal(t, uint64(1), c.Counters().LazySkips.Load())
	assert.Equal(t, 0, c.Len())
}

func TestValueIsShallowUncacheableDetectsUnforcedListChild(t *testing.T) {
	env := langvalue.NewEnv(nil, 0)
	childThunk := langvalue.NewThunk(env, &ast.Int{Value: 1})
	v := langvalue.NewFinished(langvalue.Forced{
		Kind: langvalue.KindList,
		List: []*langvalue.Value{childThunk},
	})
	assert.True(t, valueIsShallowUncacheable(v))
}

func TestValueIsShallowUncacheableAllowsFullyForcedList(t *testing.T) {
	v := langvalue.NewFinished(langvalue.Forced{
		Kind: langvalue.KindList,
		List: []*langvalue.Value{langvalue.NewFinished(langvalue.Forced{Kind: langvalue.KindInt, Int: 1})},
	})
	assert.False(t, valueIsShallowUncacheable(v))
}

func TestForceFailurePropagates(t *testing.T) {
	symbols := ast.NewSymbolTable()
	ev := toyeval.New()
	c := newTestCache(t)
	env := langvalue.NewEnv(nil, 0)
	expr := &ast.Call{Fn: &ast.Int{Value: 1}, Arg: &ast.Int{Value: 2}}

	v := langvalue.NewThunk(env, expr)
	err := Force(context.Background(), c, ev, symbols, v)
	require.Error(t, err)
	var unsupported toyeval.ErrUnsupported
	assert.ErrorAs(t, err, &unsupported)
}

func TestForceConcurrentCallsOnSameCellCoalesce(t *testing.T) {
	symbols := ast.NewSymbolTable()
	ev := toyeval.New()
	c := newTestCache(t)
	env := langvalue.NewEnv(nil, 0)
	expr := &ast.Int{Value: 77}

	v := langvalue.NewThunk(env, expr)

	const n = 8
	var wg sync.WaitGroup
	wg.Add(n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			errs[i] = Force(context.Background(), c, ev, symbols, v)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.True(t, v.IsFinished())
	assert.Equal(t, int64(77), v.Forced().Int)
}

func TestForceInterruptRevertsToThunk(t *testing.T) {
	symbols := ast.NewSymbolTable()
	ev := toyeval.New()
	ev.Interrupt()
	c := newTestCache(t)
	env := langvalue.NewEnv(nil, 0)
	v := langvalue.NewThunk(env, &ast.Int{Value: 1})

	err := Force(context.Background(), c, ev, symbols, v)
	require.Error(t, err)
	assert.True(t, v.IsThunk(), "an interrupted force must leave the cell forceable again, not stuck Pending")
}
