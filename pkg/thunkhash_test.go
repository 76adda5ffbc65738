package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Voskan/evalhash/ast"
	"github.com/Voskan/evalhash/langvalue"
)

func TestComputeThunkStructuralHashStableForIdenticalInputs(t *testing.T) {
	symbols := ast.NewSymbolTable()
	env := langvalue.NewEnv(nil, 0)
	expr := &ast.Int{Value: 1}

	h1 := ComputeThunkStructuralHash(expr, env, 0, symbols, nil)
	h2 := ComputeThunkStructuralHash(expr, env, 0, symbols, nil)
	assert.True(t, h1.Equal(h2))
}

func TestComputeThunkStructuralHashDiffersByTryLevel(t *testing.T) {
	symbols := ast.NewSymbolTable()
	env := langvalue.NewEnv(nil, 0)
	expr := &ast.Int{Value: 1}

	h0 := ComputeThunkStructuralHash(expr, env, 0, symbols, nil)
	h1 := ComputeThunkStructuralHash(expr, env, 1, symbols, nil)
	assert.False(t, h0.Equal(h1), "the same expression under a different try-catch nesting depth must hash differently")
}

func TestComputeThunkStructuralHashDiffersByExpr(t *testing.T) {
	symbols := ast.NewSymbolTable()
	env := langvalue.NewEnv(nil, 0)

	h1 := ComputeThunkStructuralHash(&ast.Int{Value: 1}, env, 0, symbols, nil)
	h2 := ComputeThunkStructuralHash(&ast.Int{Value: 2}, env, 0, symbols, nil)
	assert.False(t, h1.Equal(h2))
}

func TestComputeThunkStructuralHashDiffersByEnv(t *testing.T) {
	symbols := ast.NewSymbolTable()
	expr := &ast.Int{Value: 1}

	e1 := langvalue.NewEnv(nil, 1)
	e1.Slots[0] = langvalue.NewFinished(langvalue.Forced{Kind: langvalue.KindInt, Int: 1})
	e2 := langvalue.NewEnv(nil, 1)
	e2.Slots[0] = langvalue.NewFinished(langvalue.Forced{Kind: langvalue.KindInt, Int: 2})

	h1 := ComputeThunkStructuralHash(expr, e1, 0, symbols, nil)
	h2 := ComputeThunkStructuralHash(expr, e2, 0, symbols, nil)
	assert.False(t, h1.Equal(h2))
}

func TestComputeThunkStructuralHashNilEnvDistinctFromEmptyEnv(t *testing.T) {
	symbols := ast.NewSymbolTable()
	expr := &ast.Int{Value: 1}

	hNil := ComputeThunkStructuralHash(expr, nil, 0, symbols, nil)
	hEmpty := ComputeThunkStructuralHash(expr, langvalue.NewEnv(nil, 0), 0, symbols, nil)
	assert.False(t, hNil.Equal(hEmpty), "the hasEnv flag must distinguish a nil env from a present-but-empty frame")
}
