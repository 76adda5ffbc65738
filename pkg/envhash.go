package pkg

import "github.com/Voskan/evalhash/ast"
import "github.com/Voskan/evalhash/langvalue"

// MaxReasonableEnvSize bounds how large an environment frame's stored slot
// count may be before the hasher refuses to trust it and falls back to a
// placeholder rather than risk an over-read from a corrupted frame
// (SPEC_FULL.md §4).
const MaxReasonableEnvSize = 1048576

const tagEnv byte = 0xE0

// HashEnv returns env's StructuralHash and portability tag. A nil env
// hashes to the placeholder. exprCache and valueCache are threaded through
// to hash any lambda values a slot may hold; valueCache must be scoped to
// this call (see ValueCache).
func HashEnv(env *langvalue.Env, symbols *ast.SymbolTable, exprCache *ExprCache, valueCache ValueCache) (StructuralHash, Portability) {
	eh := &envHasher{symbols: symbols, exprCache: exprCache, valueCache: valueCache}
	return eh.hash(env)
}

// envHasher and valueHasher share their ancestor stacks across every
// recursive call between them (spec.md §4.5): an env frame can hold a
// Lambda value whose captured environment is that same frame, so a cycle
// like `let f = x: f x; in f` must be detected whichever side of the
// env/value boundary it's rediscovered from. Each struct carries both
// stacks and passes them along verbatim when it constructs the other's
// hasher, rather than starting the companion hasher with empty ancestors.
type envHasher struct {
	symbols        *ast.SymbolTable
	exprCache      *ExprCache
	valueCache     ValueCache
	envAncestors   []*langvalue.Env
	valueAncestors []*langvalue.Value
}

func (eh *envHasher) hash(env *langvalue.Env) (StructuralHash, Portability) {
	if env == nil {
		return PlaceholderStructuralHash(), Portable
	}

	for depth, a := range eh.envAncestors {
		if a == env {
			d := uint64(len(eh.envAncestors) - depth)
			return BackRefStructuralHash(d), NonPortablePointer
		}
	}

	size := env.Size()
	if size < 0 || size > MaxReasonableEnvSize {
		// Corrupted or implausible frame: refuse to trust it rather than
		// risk an out-of-bounds read. Spec.md §4.5/§7 classifies this as a
		// locally-handled, non-fatal condition.
		return PlaceholderStructuralHash(), NonPortablePointer
	}

	eh.envAncestors = append(eh.envAncestors, env)
	defer func() { eh.envAncestors = eh.envAncestors[:len(eh.envAncestors)-1] }()

	s := newSink()
	s.feedTag(tagEnv)
	s.feedUint64(uint64(size))

	portability := Portable

	hasParent := env.Parent != nil
	s.feedBool(hasParent)
	if hasParent {
		ph, pp := eh.hash(env.Parent)
		s.feedStructuralHash(ph)
		portability = portability.Combine(pp)
	}

	for _, slot := range env.Slots {
		if slot == nil || slot.IsThunk() || slot.IsPending() {
			s.feedBool(false)
			continue
		}
		s.feedBool(true)
		vh := &valueHasher{
			symbols:        eh.symbols,
			exprCache:      eh.exprCache,
			cache:          eh.valueCache,
			envAncestors:   eh.envAncestors,
			valueAncestors: eh.valueAncestors,
		}
		h, p := vh.hash(slot)
		s.feedContentHash(h)
		portability = portability.Combine(p)
	}

	return s.sumStructural(), portability
}
