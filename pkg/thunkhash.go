package pkg

import (
	"github.com/Voskan/evalhash/ast"
	"github.com/Voskan/evalhash/langvalue"
)

const tagThunk byte = 0xD0

// ComputeThunkHash combines the expression hash, the environment hash, and
// the try-catch nesting depth into the StructuralHash that identifies a
// thunk for memoization purposes (spec.md §4.6). Try-level matters because
// the same expression behaves differently inside vs. outside an
// exception-catching construct.
func ComputeThunkHash(expr ast.Expr, env *langvalue.Env, tryLevel int, symbols *ast.SymbolTable, exprCache *ExprCache, valueCache ValueCache) StructuralHash {
	s := newSink()
	s.feedTag(tagThunk)
	s.feedInt64(int64(tryLevel))

	exprHash := HashExpr(expr, symbols, exprCache)
	s.feedContentHash(exprHash)

	hasEnv := env != nil
	s.feedBool(hasEnv)
	if hasEnv {
		envHash, _ := HashEnv(env, symbols, exprCache, valueCache)
		s.feedStructuralHash(envHash)
	}

	return s.sumStructural()
}

// ComputeThunkStructuralHash is a convenience wrapper matching the
// original's computeThunkStructuralHash: it calls ComputeThunkHash with a
// fresh, single-use ValueCache. Like ComputeThunkHash, it takes no slot
// count, since package langvalue's Env already carries its own size.
func ComputeThunkStructuralHash(expr ast.Expr, env *langvalue.Env, tryLevel int, symbols *ast.SymbolTable, exprCache *ExprCache) StructuralHash {
	return ComputeThunkHash(expr, env, tryLevel, symbols, exprCache, NewValueCache())
}
