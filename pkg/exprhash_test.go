package pkg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Voskan/evalhash/ast"
)

func TestHashExprFloatCanonicalizesNaNButNotNegativeZero(t *testing.T) {
	symbols := ast.NewSymbolTable()
	a := HashExpr(&ast.Float{Value: math.NaN()}, symbols, nil)
	b := HashExpr(&ast.Float{Value: math.Float64frombits(math.Float64bits(math.NaN()) ^ 1)}, symbols, nil)
	assert.True(t, a.Equal(b), "distinct NaN bit patterns in a float literal must still hash identically")

	neg := HashExpr(&ast.Float{Value: math.Copysign(0, -1)}, symbols, nil)
	pos := HashExpr(&ast.Float{Value: 0}, symbols, nil)
	assert.False(t, neg.Equal(pos), "-0.0 and 0.0 literals must hash differently at the expression layer")
}

func TestHashExprLiteralsDifferByTag(t *testing.T) {
	symbols := ast.NewSymbolTable()
	i := HashExpr(&ast.Int{Value: 1}, symbols, nil)
	f := HashExpr(&ast.Float{Value: 1}, symbols, nil)
	s := HashExpr(&ast.String{Value: "1"}, symbols, nil)
	assert.False(t, i.Equal(f))
	assert.False(t, i.Equal(s))
	assert.False(t, f.Equal(s))
}

func TestHashExprNilIsPlaceholder(t *testing.T) {
	symbols := ast.NewSymbolTable()
	h := HashExpr(nil, symbols, nil)
	assert.True(t, h.Equal(PlaceholderContentHash()))
}

func TestHashExprIntStableAcrossCalls(t *testing.T) {
	symbols := ast.NewSymbolTable()
	a := HashExpr(&ast.Int{Value: 42}, symbols, nil)
	b := HashExpr(&ast.Int{Value: 42}, symbols, nil)
	assert.True(t, a.Equal(b))
}

func TestHashExprLambdaSingleArgIsAlphaEquivalent(t *testing.T) {
	symbols := ast.NewSymbolTable()
	body := &ast.Int{Value: 1}
	lx := &ast.Lambda{HasSingleArg: true, SingleArg: "x", Body: body}
	ly := &ast.Lambda{HasSingleArg: true, SingleArg: "y", Body: body}
	hx := HashExpr(lx, symbols, nil)
	hy := HashExpr(ly, symbols, nil)
	assert.True(t, hx.Equal(hy), "single-arg lambda names must not affect the hash")
}

func TestHashExprLambdaFormalsNamesAreHashed(t *testing.T) {
	symbols := ast.NewSymbolTable()
	body := &ast.Int{Value: 1}
	la := &ast.Lambda{HasFormals: true, Formals: []ast.Formal{{Name: "a"}}, Body: body}
	lb := &ast.Lambda{HasFormals: true, Formals: []ast.Formal{{Name: "b"}}, Body: body}
	ha := HashExpr(la, symbols, nil)
	hb := HashExpr(lb, symbols, nil)
	assert.False(t, ha.Equal(hb), "pattern-match formal names participate in the hash")
}

func TestHashExprLambdaFormalsOrderIndependent(t *testing.T) {
	symbols := ast.NewSymbolTable()
	body := &ast.Int{Value: 1}
	l1 := &ast.Lambda{HasFormals: true, Formals: []ast.Formal{{Name: "a"}, {Name: "b"}}, Body: body}
	l2 := &ast.Lambda{HasFormals: true, Formals: []ast.Formal{{Name: "b"}, {Name: "a"}}, Body: body}
	h1 := HashExpr(l1, symbols, nil)
	h2 := HashExpr(l2, symbols, nil)
	assert.True(t, h1.Equal(h2), "formals are sorted before hashing")
}

func TestHashExprLetBindingsAreNotAlphaEquivalent(t *testing.T) {
	symbols := ast.NewSymbolTable()
	body := &ast.Int{Value: 1}
	l1 := &ast.Let{Bindings: []ast.LetBinding{{Name: "a", Value: &ast.Int{Value: 2}}}, Body: body}
	l2 := &ast.Let{Bindings: []ast.LetBinding{{Name: "b", Value: &ast.Int{Value: 2}}}, Body: body}
	h1 := HashExpr(l1, symbols, nil)
	h2 := HashExpr(l2, symbols, nil)
	assert.False(t, h1.Equal(h2), "let bindings are not alpha-equivalent by design")
}

func TestHashExprWithRefDepthIsHashedVerbatim(t *testing.T) {
	symbols := ast.NewSymbolTable()
	scope := &ast.Int{Value: 0}

	innerA := &ast.With{
		Scope: scope,
		Body:  &ast.Var{FromWith: true, With: ast.WithRef{Name: "x", Depth: 0}},
	}
	innerB := &ast.With{
		Scope: scope,
		Body:  &ast.Var{FromWith: true, With: ast.WithRef{Name: "x", Depth: 1}},
	}

	ha := HashExpr(innerA, symbols, nil)
	hb := HashExpr(innerB, symbols, nil)
	assert.False(t, ha.Equal(hb), "a WithRef's own Depth field is hashed verbatim, distinguishing the two bodies")
}

func TestHashExprVarLexicalVsWithDoNotCollide(t *testing.T) {
	symbols := ast.NewSymbolTable()
	lexical := &ast.Var{FromWith: false, Lexical: ast.VarRef{Level: 0, Displacement: 0}}
	withRef := &ast.Var{FromWith: true, With: ast.WithRef{Name: "", Depth: 0}}
	hl := HashExpr(lexical, symbols, nil)
	hw := HashExpr(withRef, symbols, nil)
	assert.False(t, hl.Equal(hw))
}

func TestHashExprPosIsSessionLocal(t *testing.T) {
	symbols := ast.NewSymbolTable()
	_, p := HashExprWithPortability(&ast.Pos{Index: 1}, symbols, nil)
	assert.Equal(t, NonPortableSessionLocal, p)
}

func TestHashExprPlainLiteralIsPortable(t *testing.T) {
	symbols := ast.NewSymbolTable()
	_, p := HashExprWithPortability(&ast.Int{Value: 1}, symbols, nil)
	assert.Equal(t, Portable, p)
}

func TestHashExprCyclicSelfReferenceUsesBackRef(t *testing.T) {
	// A Select whose Base points back to the enclosing Attrs entry's value
	// forms a cycle through the *ast.Expr graph (nothing in package ast
	// prevents this). The hasher must not infinitely recurse; it must
	// instead detect the ancestor and emit a back-reference hash.
	symbols := ast.NewSymbolTable()

	attrs := &ast.Attrs{}
	sel := &ast.Select{Base: attrs, Path: []ast.AttrStep{{Name: "self"}}}
	attrs.Entries = []ast.AttrEntry{{Name: "self", Value: sel}}

	require.NotPanics(t, func() {
		HashExpr(attrs, symbols, nil)
	})
}

func TestHashExprDynamicAttrStepDiffersFromStatic(t *testing.T) {
	symbols := ast.NewSymbolTable()
	static := &ast.Select{Base: &ast.Int{Value: 0}, Path: []ast.AttrStep{{Name: "a"}}}
	dynamic := &ast.Select{Base: &ast.Int{Value: 0}, Path: []ast.AttrStep{{Dynamic: true, Expr: &ast.String{Value: "a"}}}}
	hs := HashExpr(static, symbols, nil)
	hd := HashExpr(dynamic, symbols, nil)
	assert.False(t, hs.Equal(hd))
}

func TestHashExprPathFingerprintPortable(t *testing.T) {
	symbols := ast.NewSymbolTable()
	acc := fakeAccessor{fp: "fp-123", ok: true}
	h1 := HashExpr(&ast.Path{Accessor: acc, Relative: "a/b"}, symbols, nil)
	h2 := HashExpr(&ast.Path{Accessor: acc, Relative: "a/b"}, symbols, nil)
	assert.True(t, h1.Equal(h2))

	_, p := HashExprWithPortability(&ast.Path{Accessor: acc, Relative: "a/b"}, symbols, nil)
	assert.Equal(t, Portable, p)
}

func TestHashExprPathFallsBackToContentHash(t *testing.T) {
	symbols := ast.NewSymbolTable()
	acc := fakeAccessor{hashAlgo: "sha256", hashSum: []byte{1, 2, 3}}
	_, p := HashExprWithPortability(&ast.Path{Accessor: acc, Relative: "a/b"}, symbols, nil)
	assert.Equal(t, Portable, p)
}

func TestHashExprPathWithNoAccessorIsRawAndNonPortable(t *testing.T) {
	symbols := ast.NewSymbolTable()
	_, p := HashExprWithPortability(&ast.Path{Relative: "/nix/store/x"}, symbols, nil)
	assert.Equal(t, NonPortableRawPath, p)
}

func TestHashExprUsesExprCacheOnRepeatedCall(t *testing.T) {
	symbols := ast.NewSymbolTable()
	cache := NewExprCache(16)
	e := &ast.Int{Value: 99}

	h1 := HashExpr(e, symbols, cache)
	_, ok := cache.Get(e)
	require.True(t, ok, "first call should populate the expr cache")

	h2 := HashExpr(e, symbols, cache)
	assert.True(t, h1.Equal(h2))
}

func TestHashExprCacheDoesNotAffectPortabilityRecompute(t *testing.T) {
	symbols := ast.NewSymbolTable()
	cache := NewExprCache(16)
	e := &ast.Pos{Index: 7}

	HashExpr(e, symbols, cache)
	_, p := HashExprWithPortability(e, symbols, cache)
	assert.Equal(t, NonPortableSessionLocal, p, "a portability-reporting call must not silently return Portable from a bare hash cache hit")
}

type fakeAccessor struct {
	fp       string
	ok       bool
	hashAlgo string
	hashSum  []byte
}

func (f fakeAccessor) Fingerprint(string) (string, bool) { return f.fp, f.ok }
func (f fakeAccessor) Exists(string) bool                { return true }
func (f fakeAccessor) HashPath(string) (string, []byte, error) {
	if f.hashAlgo == "" {
		return "", nil, assertErr
	}
	return f.hashAlgo, f.hashSum, nil
}

var assertErr = fakeErr("no hash available")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
