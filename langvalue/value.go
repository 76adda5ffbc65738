// Package langvalue implements the forced/thunk value representation and
// environment frames the hashing core operates over. Like package ast, it
// is a minimal stand-in for the evaluator's real value graph: enough
// structure to force, hash, and cache against, no reduction rules.
package langvalue

import (
	"sync/atomic"

	"github.com/Voskan/evalhash/ast"
)

// ValueKind discriminates a forced Value's variant.
type ValueKind uint8

const (
	KindInt ValueKind = iota + 1
	KindFloat
	KindBool
	KindNull
	KindString
	KindPath
	KindRecord
	KindList
	KindLambda
	KindExternal
)

// ContextEntry is one dependency-context element attached to a String
// value (e.g. "this string's interpolation drew from store path P").
type ContextEntry struct {
	// Canonical is the sorted, canonical textual form fed into the value
	// hasher; its exact encoding is owned by the evaluator, not this
	// package.
	Canonical string
}

// Attr is one sorted record entry.
type Attr struct {
	Name  string
	Value *Value
}

// Forced is the payload of a value that has finished reducing. Exactly one
// field group is meaningful, selected by Kind.
type Forced struct {
	Kind ValueKind

	Int    int64
	Float  float64
	Bool   bool
	Str    string
	Ctx    []ContextEntry
	Path   ast.Path
	Record []Attr
	List   []*Value
	// Lambda values capture the environment and body they close over.
	LambdaEnv  *Env
	LambdaExpr ast.Expr
	// External is an opaque identity; only pointer equality distinguishes
	// two externals.
	External any
}

// state is the forcing state machine: Uninit -> Thunk -> Pending ->
// Finished | Failed. Transitions out of Thunk happen via compare-and-swap
// so concurrent forcers race safely.
type state int32

const (
	stateUninit state = iota
	stateThunk
	statePending
	stateFinished
	stateFailed
)

// Value is a single mutable cell in the value graph: either a thunk
// (unevaluated expression + environment) or a forced result, tracked with
// the state machine above so concurrent forcing is safe.
type Value struct {
	st state

	// Thunk payload, valid while st is stateThunk or statePending.
	env  *Env
	expr ast.Expr

	// App payload: thunk of the form (left value) applied to (right value).
	// Mutually exclusive with env/expr.
	isApp      bool
	appLeft    *Value
	appRight   *Value

	forced Forced
	err    error

	// waiters is closed when a Pending value transitions to Finished or
	// Failed, waking every goroutine parked in Await.
	waiters chan struct{}
}

// NewThunk returns a value in the Thunk state, closing over env/expr.
func NewThunk(env *Env, expr ast.Expr) *Value {
	return &Value{st: stateThunk, env: env, expr: expr}
}

// NewApp returns a value representing unevaluated function application.
func NewApp(left, right *Value) *Value {
	return &Value{st: stateThunk, isApp: true, appLeft: left, appRight: right}
}

// NewFinished returns an already-forced value, useful for literals and test
// fixtures.
func NewFinished(f Forced) *Value {
	return &Value{st: stateFinished, forced: f}
}

// NewFinishedAt initializes dst in place as an already-forced value and
// returns it. Unlike NewFinished, dst's storage is supplied by the caller —
// this is what lets package pkg's arena-backed build allocate the Value
// cell itself from an arena.Arena while still going through this package's
// state-machine invariants instead of poking unexported fields directly.
func NewFinishedAt(dst *Value, f Forced) *Value {
	*dst = Value{st: stateFinished, forced: f}
	return dst
}

// IsThunk reports whether v is still unevaluated (Thunk or App, not yet
// claimed by a forcer).
func (v *Value) IsThunk() bool {
	s := state(atomic.LoadInt32((*int32)(&v.st)))
	return s == stateThunk
}

// IsApp reports whether this thunk is an unevaluated application.
func (v *Value) IsApp() bool { return v.isApp }

// AppOperands returns the left/right operands of an App thunk.
func (v *Value) AppOperands() (left, right *Value) { return v.appLeft, v.appRight }

// Thunk returns the captured environment and expression of a Thunk value.
// Valid only while IsThunk (or IsPending, for a forcer that already claimed
// it) is true.
func (v *Value) Thunk() (*Env, ast.Expr) { return v.env, v.expr }

// IsFinished reports whether forcing completed successfully.
func (v *Value) IsFinished() bool {
	return state(atomic.LoadInt32((*int32)(&v.st))) == stateFinished
}

// IsFailed reports whether forcing raised an error.
func (v *Value) IsFailed() bool {
	return state(atomic.LoadInt32((*int32)(&v.st))) == stateFailed
}

// IsPending reports whether another goroutine has claimed this thunk and is
// currently forcing it.
func (v *Value) IsPending() bool {
	return state(atomic.LoadInt32((*int32)(&v.st))) == statePending
}

// Forced returns the finished payload. Caller must check IsFinished first.
func (v *Value) Forced() Forced { return v.forced }

// Err returns the stored evaluation failure. Caller must check IsFailed
// first.
func (v *Value) Err() error { return v.err }

// TryClaim attempts the Thunk -> Pending transition via compare-and-swap.
// It returns true iff this call won the race to force v; losers must wait.
func (v *Value) TryClaim() bool {
	return atomic.CompareAndSwapInt32((*int32)(&v.st), int32(stateThunk), int32(statePending))
}

// Await blocks until a Pending value reaches a terminal state. It must only
// be called after observing IsPending.
func (v *Value) Await() {
	if ch := v.waiters; ch != nil {
		<-ch
	}
}

// Finish transitions a Pending value to Finished, storing its result and
// waking any waiters. Must be called by the goroutine that won TryClaim.
func (v *Value) Finish(f Forced) {
	v.forced = f
	atomic.StoreInt32((*int32)(&v.st), int32(stateFinished))
	v.wake()
}

// Fail transitions a Pending value to Failed, storing the error.
func (v *Value) Fail(err error) {
	v.err = err
	atomic.StoreInt32((*int32)(&v.st), int32(stateFailed))
	v.wake()
}

// RevertToThunk restores a Pending value back to Thunk, used when forcing
// raises and the original (env, expr) must be retried by a later caller
// rather than permanently failing.
func (v *Value) RevertToThunk() {
	atomic.StoreInt32((*int32)(&v.st), int32(stateThunk))
	v.wake()
}

func (v *Value) wake() {
	if ch := v.waiters; ch != nil {
		close(ch)
		v.waiters = nil
	}
}

// ArmWaiters installs a fresh waiter channel; called by the claiming
// goroutine right after TryClaim succeeds, before any other goroutine can
// observe Pending.
func (v *Value) ArmWaiters() { v.waiters = make(chan struct{}) }

// Env is one frame in the environment chain: a parent pointer plus a
// contiguous slot array. Size is stored at allocation time (never derived
// from the allocator), which is what makes parent-chain hashing
// content-based rather than pointer-based.
type Env struct {
	Parent *Env
	Slots  []*Value
	size   int
}

// NewEnv allocates a frame with size slots, all nil (Uninit) until filled.
func NewEnv(parent *Env, size int) *Env {
	return &Env{Parent: parent, Slots: make([]*Value, size), size: size}
}

// Size returns the frame's immutable slot count, fixed at allocation.
func (e *Env) Size() int { return e.size }
