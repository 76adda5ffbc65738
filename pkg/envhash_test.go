package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Voskan/evalhash/ast"
	"github.com/Voskan/evalhash/langvalue"
)

func TestHashEnvNilIsPlaceholder(t *testing.T) {
	symbols := ast.NewSymbolTable()
	h, p := HashEnv(nil, symbols, nil, nil)
	assert.True(t, h.Equal(PlaceholderStructuralHash()))
	assert.Equal(t, Portable, p)
}

func TestHashEnvSameShapeHashesEqual(t *testing.T) {
	symbols := ast.NewSymbolTable()
	v := langvalue.NewFinished(langvalue.Forced{Kind: langvalue.KindInt, Int: 1})

	e1 := langvalue.NewEnv(nil, 1)
	e1.Slots[0] = v
	e2 := langvalue.NewEnv(nil, 1)
	e2.Slots[0] = v

	h1, _ := HashEnv(e1, symbols, nil, nil)
	h2, _ := HashEnv(e2, symbols, nil, nil)
	assert.True(t, h1.Equal(h2))
}

func TestHashEnvUnforcedSlotDoesNotContributeContent(t *testing.T) {
	symbols := ast.NewSymbolTable()
	thunkEnv := langvalue.NewEnv(nil, 0)

	e1 := langvalue.NewEnv(nil, 1)
	e1.Slots[0] = langvalue.NewThunk(thunkEnv, &ast.Int{Value: 1})
	e2 := langvalue.NewEnv(nil, 1)
	e2.Slots[0] = langvalue.NewThunk(thunkEnv, &ast.Int{Value: 999})

	h1, _ := HashEnv(e1, symbols, nil, nil)
	h2, _ := HashEnv(e2, symbols, nil, nil)
	assert.True(t, h1.Equal(h2), "two distinct unforced thunks in the same slot position must hash identically")
}

func TestHashEnvParentChainIsContentBased(t *testing.T) {
	symbols := ast.NewSymbolTable()
	v := langvalue.NewFinished(langvalue.Forced{Kind: langvalue.KindInt, Int: 7})

	parentA := langvalue.NewEnv(nil, 1)
	parentA.Slots[0] = v
	parentB := langvalue.NewEnv(nil, 1)
	parentB.Slots[0] = v

	childA := langvalue.NewEnv(parentA, 0)
	childB := langvalue.NewEnv(parentB, 0)

	hA, _ := HashEnv(childA, symbols, nil, nil)
	hB, _ := HashEnv(childB, symbols, nil, nil)
	assert.True(t, hA.Equal(hB), "two distinct *Env pointers with identical content must hash equal")
}

func TestHashEnvDifferentParentContentDiffers(t *testing.T) {
	symbols := ast.NewSymbolTable()
	parentA := langvalue.NewEnv(nil, 1)
	parentA.Slots[0] = langvalue.NewFinished(langvalue.Forced{Kind: langvalue.KindInt, Int: 1})
	parentB := langvalue.NewEnv(nil, 1)
	parentB.Slots[0] = langvalue.NewFinished(langvalue.Forced{Kind: langvalue.KindInt, Int: 2})

	childA := langvalue.NewEnv(parentA, 0)
	childB := langvalue.NewEnv(parentB, 0)

	hA, _ := HashEnv(childA, symbols, nil, nil)
	hB, _ := HashEnv(childB, symbols, nil, nil)
	assert.False(t, hA.Equal(hB))
}

func TestHashEnvOversizedFrameFallsBackToPlaceholder(t *testing.T) {
	symbols := ast.NewSymbolTable()
	env := langvalue.NewEnv(nil, MaxReasonableEnvSize+1)
	h, p := HashEnv(env, symbols, nil, nil)
	assert.True(t, h.Equal(PlaceholderStructuralHash()))
	assert.Equal(t, NonPortablePointer, p)
}

func TestHashEnvCyclicParentUsesBackRef(t *testing.T) {
	symbols := ast.NewSymbolTable()
	env := langvalue.NewEnv(nil, 0)
	env.Parent = env // pathological cycle; nothing in package langvalue prevents this

	assert.NotPanics(t, func() {
		HashEnv(env, symbols, nil, nil)
	})
}

// TestHashEnvLambdaClosingOverItsOwnFrameTerminates covers the
// env-value-env cycle a self-referential closure creates: `let f = x: f x;
// in f` forces to an env frame whose slot holds a Lambda, and that
// Lambda's LambdaEnv is the very same frame. HashEnv must recognize the
// frame again once the recursion comes back around through the value
// hasher's HashEnv/Lambda branch, rather than restarting cycle detection
// with an empty ancestor stack.
func TestHashEnvLambdaClosingOverItsOwnFrameTerminates(t *testing.T) {
	symbols := ast.NewSymbolTable()
	env := langvalue.NewEnv(nil, 1)
	lam := langvalue.NewFinished(langvalue.Forced{
		Kind:       langvalue.KindLambda,
		LambdaEnv:  env,
		LambdaExpr: &ast.Var{Lexical: ast.VarRef{Level: 0, Displacement: 0}},
	})
	env.Slots[0] = lam

	assert.NotPanics(t, func() {
		h, _ := HashEnv(env, symbols, nil, nil)
		_ = h
	})
}
