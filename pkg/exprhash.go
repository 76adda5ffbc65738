package pkg

import (
	"fmt"
	"sort"

	"github.com/Voskan/evalhash/ast"
	"github.com/Voskan/evalhash/internal/exprcache"
)

// ExprCache is the pointer-keyed memoization table for expression hashes.
// Safe to share across every HashExpr/HashExprWithPortability call for the
// lifetime of the evaluator, because expressions never change after
// parsing.
type ExprCache = exprcache.Cache[ast.Expr, ContentHash]

// NewExprCache returns a bounded expression hash cache. A non-positive
// capacity means unbounded.
func NewExprCache(capacity int) *ExprCache {
	return exprcache.New[ast.Expr, ContentHash](capacity)
}

// tag bytes for each expression node kind. These are written before a
// variant's body so that, e.g., an Int and a Float never collapse onto the
// same byte stream by coincidence of their payload encodings.
const (
	tagExprInt byte = iota + 1
	tagExprFloat
	tagExprString
	tagExprPath
	tagExprVarLexical
	tagExprVarWith
	tagExprSelect
	tagExprHasAttr
	tagExprAttrs
	tagExprList
	tagExprLambda
	tagExprCall
	tagExprLet
	tagExprWith
	tagExprIf
	tagExprAssert
	tagExprOpNot
	tagExprOpEq
	tagExprOpNEq
	tagExprOpAnd
	tagExprOpOr
	tagExprOpImpl
	tagExprOpUpdate
	tagExprOpConcatLists
	tagExprConcatStrings
	tagExprPos
	tagExprBlackHole
	tagExprInheritFrom
	tagExprUnknown
)

const attrStepStatic byte = 0
const attrStepDynamic byte = 1

// HashExpr returns expr's ContentHash. A nil expr hashes to the placeholder.
// cache may be nil to disable memoization.
func HashExpr(expr ast.Expr, symbols *ast.SymbolTable, cache *ExprCache) ContentHash {
	h, _ := hashExprTop(expr, symbols, cache, false)
	return h
}

// HashExprWithPortability additionally returns the minimum portability tag
// over the whole subtree.
func HashExprWithPortability(expr ast.Expr, symbols *ast.SymbolTable, cache *ExprCache) (ContentHash, Portability) {
	return hashExprTop(expr, symbols, cache, true)
}

func hashExprTop(expr ast.Expr, symbols *ast.SymbolTable, cache *ExprCache, wantPortability bool) (ContentHash, Portability) {
	eh := &exprHasher{symbols: symbols, cache: cache, wantPortability: wantPortability}
	return eh.hash(expr)
}

type exprHasher struct {
	symbols         *ast.SymbolTable
	cache           *ExprCache
	wantPortability bool
	ancestors       []ast.Expr
}

// hash is the recursive core. WithRef.Depth lookups are relative to the
// With scope they were resolved against at parse/resolve time, already
// stored on the Var node itself — this function carries no extra depth
// bookkeeping of its own.
func (eh *exprHasher) hash(expr ast.Expr) (ContentHash, Portability) {
	if expr == nil {
		return PlaceholderContentHash(), Portable
	}

	if eh.cache != nil {
		if cached, ok := eh.cache.Get(expr); ok {
			// Portability isn't cached alongside the hash (the cache only
			// stores ContentHash, per spec.md's contract for the pointer
			// cache); a portability-reporting call re-derives it on a cache
			// hit. This costs a second traversal only for that variant, and
			// only the hash benefits from the short-circuit.
			if !eh.wantPortability {
				return cached, Portable
			}
		}
	}

	for depth, a := range eh.ancestors {
		if a == expr {
			d := uint64(len(eh.ancestors) - depth)
			return BackRefContentHash(d), NonPortablePointer
		}
	}

	eh.ancestors = append(eh.ancestors, expr)
	defer func() { eh.ancestors = eh.ancestors[:len(eh.ancestors)-1] }()

	s := newSink()
	portability := Portable

	switch e := expr.(type) {
	case *ast.Int:
		s.feedTag(tagExprInt)
		s.feedInt64(e.Value)

	case *ast.Float:
		s.feedTag(tagExprFloat)
		s.feedFloatRaw(e.Value)

	case *ast.String:
		s.feedTag(tagExprString)
		s.feedString(e.Value)

	case *ast.Path:
		s.feedTag(tagExprPath)
		portability = eh.feedPath(&s, e.Accessor, e.Relative)

	case *ast.Var:
		if e.FromWith {
			s.feedTag(tagExprVarWith)
			s.feedBool(true)
			s.feedString(e.With.Name)
			s.feedInt(e.With.Depth)
		} else {
			s.feedTag(tagExprVarLexical)
			s.feedBool(false)
			s.feedInt(e.Lexical.Level)
			s.feedInt(e.Lexical.Displacement)
		}

	case *ast.Select:
		s.feedTag(tagExprSelect)
		h, p := eh.hash(e.Base)
		s.feedContentHash(h)
		portability = portability.Combine(p)
		portability = portability.Combine(eh.feedAttrPath(&s, e.Path))
		hasDefault := e.Default != nil
		s.feedBool(hasDefault)
		if hasDefault {
			h, p := eh.hash(e.Default)
			s.feedContentHash(h)
			portability = portability.Combine(p)
		}

	case *ast.HasAttr:
		s.feedTag(tagExprHasAttr)
		h, p := eh.hash(e.Base)
		s.feedContentHash(h)
		portability = portability.Combine(p)
		portability = portability.Combine(eh.feedAttrPath(&s, e.Path))

	case *ast.Attrs:
		s.feedTag(tagExprAttrs)
		s.feedBool(e.Recursive)

		sorted := append([]ast.AttrEntry(nil), e.Entries...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
		s.feedUint64(uint64(len(sorted)))
		for _, entry := range sorted {
			s.feedString(entry.Name)
			h, p := eh.hash(entry.Value)
			s.feedContentHash(h)
			portability = portability.Combine(p)
		}

		s.feedUint64(uint64(len(e.Dynamic)))
		for _, d := range e.Dynamic {
			hn, pn := eh.hash(d.Name)
			s.feedContentHash(hn)
			portability = portability.Combine(pn)
			hv, pv := eh.hash(d.Value)
			s.feedContentHash(hv)
			portability = portability.Combine(pv)
		}

		s.feedUint64(uint64(len(e.InheritFrom)))
		for _, from := range e.InheritFrom {
			h, p := eh.hash(from)
			s.feedContentHash(h)
			portability = portability.Combine(p)
		}

	case *ast.List:
		s.feedTag(tagExprList)
		s.feedUint64(uint64(len(e.Elements)))
		for _, el := range e.Elements {
			h, p := eh.hash(el)
			s.feedContentHash(h)
			portability = portability.Combine(p)
		}

	case *ast.Lambda:
		s.feedTag(tagExprLambda)
		s.feedBool(e.HasFormals)
		if e.HasFormals {
			sorted := append([]ast.Formal(nil), e.Formals...)
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
			s.feedUint64(uint64(len(sorted)))
			for _, f := range sorted {
				s.feedString(f.Name)
				hasDefault := f.Default != nil
				s.feedBool(hasDefault)
				if hasDefault {
					h, p := eh.hash(f.Default)
					s.feedContentHash(h)
					portability = portability.Combine(p)
				}
			}
			s.feedBool(e.Ellipsis)
		}
		// Single-arg name is deliberately NOT hashed: this is the
		// alpha-equivalence rule (spec.md §4.3, §8.2). Only its presence
		// matters.
		s.feedBool(e.HasSingleArg)
		h, p := eh.hash(e.Body)
		s.feedContentHash(h)
		portability = portability.Combine(p)

	case *ast.Call:
		s.feedTag(tagExprCall)
		hf, pf := eh.hash(e.Fn)
		s.feedContentHash(hf)
		ha, pa := eh.hash(e.Arg)
		s.feedContentHash(ha)
		portability = portability.Combine(pf).Combine(pa)

	case *ast.Let:
		s.feedTag(tagExprLet)
		s.feedUint64(uint64(len(e.Bindings)))
		for _, b := range e.Bindings {
			s.feedString(b.Name)
			h, p := eh.hash(b.Value)
			s.feedContentHash(h)
			portability = portability.Combine(p)
		}
		h, p := eh.hash(e.Body)
		s.feedContentHash(h)
		portability = portability.Combine(p)

	case *ast.With:
		s.feedTag(tagExprWith)
		hs, ps := eh.hash(e.Scope)
		s.feedContentHash(hs)
		hb, pb := eh.hash(e.Body)
		s.feedContentHash(hb)
		portability = portability.Combine(ps).Combine(pb)

	case *ast.If:
		s.feedTag(tagExprIf)
		hc, pc := eh.hash(e.Cond)
		s.feedContentHash(hc)
		ht, pt := eh.hash(e.Then)
		s.feedContentHash(ht)
		he, pe := eh.hash(e.Else)
		s.feedContentHash(he)
		portability = portability.Combine(pc).Combine(pt).Combine(pe)

	case *ast.Assert:
		s.feedTag(tagExprAssert)
		hc, pc := eh.hash(e.Cond)
		s.feedContentHash(hc)
		hb, pb := eh.hash(e.Body)
		s.feedContentHash(hb)
		portability = portability.Combine(pc).Combine(pb)

	case *ast.OpNot:
		s.feedTag(tagExprOpNot)
		h, p := eh.hash(e.Operand)
		s.feedContentHash(h)
		portability = portability.Combine(p)

	case *ast.BinOp:
		s.feedTag(binOpTag(e.Op))
		hl, pl := eh.hash(e.Left)
		s.feedContentHash(hl)
		hr, pr := eh.hash(e.Right)
		s.feedContentHash(hr)
		portability = portability.Combine(pl).Combine(pr)

	case *ast.ConcatStrings:
		s.feedTag(tagExprConcatStrings)
		s.feedUint64(uint64(len(e.Parts)))
		for _, part := range e.Parts {
			h, p := eh.hash(part)
			s.feedContentHash(h)
			portability = portability.Combine(p)
		}

	case *ast.Pos:
		s.feedTag(tagExprPos)
		s.feedUint64(e.Index)
		portability = NonPortableSessionLocal

	case *ast.BlackHole:
		s.feedTag(tagExprBlackHole)

	case *ast.InheritFrom:
		s.feedTag(tagExprInheritFrom)
		s.feedInt(e.Level)
		s.feedInt(e.Displacement)

	default:
		s.feedTag(tagExprUnknown)
		s.feedString(fmt.Sprintf("%p", expr))
		portability = NonPortablePointer
	}

	h := s.sumContent()
	if eh.cache != nil {
		eh.cache.Put(expr, h)
	}
	return h, portability
}

// feedAttrPath hashes a Select/HasAttr attribute path: each step is either a
// literal name or, for dynamic steps, a recursive expression hash, tagged so
// the two kinds never collide.
func (eh *exprHasher) feedAttrPath(s *sink, path []ast.AttrStep) Portability {
	s.feedUint64(uint64(len(path)))
	portability := Portable
	for _, step := range path {
		if step.Dynamic {
			s.feedBytes([]byte{attrStepDynamic})
			h, p := eh.hash(step.Expr)
			s.feedContentHash(h)
			portability = portability.Combine(p)
		} else {
			s.feedBytes([]byte{attrStepStatic})
			s.feedString(step.Name)
		}
	}
	return portability
}

// feedPath implements the three-tier path fingerprinting strategy from
// spec.md §4.3: a cheap precomputed fingerprint, else a content hash of the
// file, else the raw path string as a last resort.
func (eh *exprHasher) feedPath(s *sink, acc ast.PathAccessor, relative string) Portability {
	if acc != nil {
		if fp, ok := acc.Fingerprint(relative); ok {
			s.feedBytes([]byte{0x01})
			s.feedString(fp)
			s.feedString(relative)
			return Portable
		}
		if algo, sum, err := acc.HashPath(relative); err == nil {
			s.feedBytes([]byte{0x02})
			s.feedString(algo)
			s.feedLenPrefixed(sum)
			return Portable
		}
	}
	s.feedBytes([]byte{0x00})
	s.feedString(relative)
	return NonPortableRawPath
}

func binOpTag(k ast.Kind) byte {
	switch k {
	case ast.KindOpEq:
		return tagExprOpEq
	case ast.KindOpNEq:
		return tagExprOpNEq
	case ast.KindOpAnd:
		return tagExprOpAnd
	case ast.KindOpOr:
		return tagExprOpOr
	case ast.KindOpImpl:
		return tagExprOpImpl
	case ast.KindOpUpdate:
		return tagExprOpUpdate
	case ast.KindOpConcatLists:
		return tagExprOpConcatLists
	default:
		return tagExprUnknown
	}
}
