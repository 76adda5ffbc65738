package pkg

import (
	"fmt"
	"sort"

	"github.com/Voskan/evalhash/ast"
	"github.com/Voskan/evalhash/langvalue"
)

// ValueCache memoizes value hashes by pointer identity within a single
// hashing call. It must NEVER be reused across separate forcings: value
// cells are reclaimed and reused by the garbage collector, so a pointer
// that meant one value in an earlier call may mean something else entirely
// later. Construct a fresh one (or pass nil) per top-level HashValue call.
type ValueCache map[*langvalue.Value]ContentHash

// NewValueCache returns an empty, single-use value hash cache.
func NewValueCache() ValueCache { return make(ValueCache) }

const (
	tagValueInt byte = iota + 1
	tagValueFloat
	tagValueBool
	tagValueNull
	tagValueString
	tagValuePath
	tagValueRecord
	tagValueList
	tagValueLambda
	tagValueExternal
)

// HashValue returns v's ContentHash and portability tag. cache may be nil
// to disable memoization; when non-nil it must be scoped to this call only
// (see ValueCache).
func HashValue(v *langvalue.Value, symbols *ast.SymbolTable, exprCache *ExprCache, cache ValueCache) (ContentHash, Portability) {
	vh := &valueHasher{symbols: symbols, exprCache: exprCache, cache: cache}
	return vh.hash(v)
}

type valueHasher struct {
	symbols        *ast.SymbolTable
	exprCache      *ExprCache
	cache          ValueCache
	envAncestors   []*langvalue.Env
	valueAncestors []*langvalue.Value
}

func (vh *valueHasher) hash(v *langvalue.Value) (ContentHash, Portability) {
	if v == nil || v.IsPending() || v.IsFailed() {
		return PlaceholderContentHash(), Portable
	}

	if vh.cache != nil {
		if h, ok := vh.cache[v]; ok {
			return h, Portable
		}
	}

	for depth, a := range vh.valueAncestors {
		if a == v {
			d := uint64(len(vh.valueAncestors) - depth)
			return BackRefContentHash(d), NonPortablePointer
		}
	}

	if v.IsThunk() {
		// An unforced thunk has no content yet; treat it like the
		// blackhole/invalid case rather than guessing at its eventual
		// value.
		return PlaceholderContentHash(), Portable
	}

	vh.valueAncestors = append(vh.valueAncestors, v)
	defer func() { vh.valueAncestors = vh.valueAncestors[:len(vh.valueAncestors)-1] }()

	forced := v.Forced()
	s := newSink()
	portability := Portable

	switch forced.Kind {
	case langvalue.KindInt:
		s.feedTag(tagValueInt)
		s.feedInt64(forced.Int)

	case langvalue.KindFloat:
		s.feedTag(tagValueFloat)
		s.feedFloat(forced.Float)

	case langvalue.KindBool:
		s.feedTag(tagValueBool)
		s.feedBool(forced.Bool)

	case langvalue.KindNull:
		s.feedTag(tagValueNull)

	case langvalue.KindString:
		s.feedTag(tagValueString)
		s.feedString(forced.Str)
		sortedCtx := make([]string, len(forced.Ctx))
		for i, c := range forced.Ctx {
			sortedCtx[i] = c.Canonical
		}
		sort.Strings(sortedCtx)
		s.feedUint64(uint64(len(sortedCtx)))
		for _, c := range sortedCtx {
			s.feedString(c)
		}

	case langvalue.KindPath:
		s.feedTag(tagValuePath)
		eh := &exprHasher{symbols: vh.symbols}
		portability = eh.feedPath(&s, forced.Path.Accessor, forced.Path.Relative)

	case langvalue.KindRecord:
		s.feedTag(tagValueRecord)
		sorted := append([]langvalue.Attr(nil), forced.Record...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
		s.feedUint64(uint64(len(sorted)))
		for _, a := range sorted {
			s.feedString(a.Name)
			h, p := vh.hash(a.Value)
			s.feedContentHash(h)
			portability = portability.Combine(p)
		}

	case langvalue.KindList:
		s.feedTag(tagValueList)
		s.feedUint64(uint64(len(forced.List)))
		for _, el := range forced.List {
			h, p := vh.hash(el)
			s.feedContentHash(h)
			portability = portability.Combine(p)
		}

	case langvalue.KindLambda:
		s.feedTag(tagValueLambda)
		eh, ep := HashExprWithPortability(forced.LambdaExpr, vh.symbols, vh.exprCache)
		s.feedContentHash(eh)
		envHasher := &envHasher{
			symbols:        vh.symbols,
			exprCache:      vh.exprCache,
			valueCache:     vh.cache,
			envAncestors:   vh.envAncestors,
			valueAncestors: vh.valueAncestors,
		}
		envHash, envPort := envHasher.hash(forced.LambdaEnv)
		s.feedStructuralHash(envHash)
		// Lambdas are always NonPortable_Pointer: the captured
		// environment's content can reference machine-local state even
		// though the hash itself is deterministic within one evaluation
		// (spec.md §4.4).
		portability = NonPortablePointer
		_ = ep
		_ = envPort

	case langvalue.KindExternal:
		s.feedTag(tagValueExternal)
		s.feedString(fmt.Sprintf("%p", forced.External))
		portability = NonPortablePointer

	default:
		return PlaceholderContentHash(), Portable
	}

	h := s.sumContent()
	if vh.cache != nil {
		vh.cache[v] = h
	}
	return h, portability
}
