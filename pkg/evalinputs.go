package pkg

import "sort"

// LockHash is an optional content hash over a lock file (flake.lock
// equivalent), carried through EvalInputs so its exact bytes influence the
// fingerprint without this module needing to parse lock file formats.
type LockHash struct {
	Algo string
	Size uint64
	Sum  []byte
}

// EvalInputs enumerates every configuration flag that can change evaluation
// outcomes. Its Fingerprint is the cache-key prefix every persisted entry
// must carry (spec.md §6).
type EvalInputs struct {
	Version string

	PureEval                  bool
	ImpureMode                bool
	AllowImportFromDerivation bool
	RestrictEval              bool

	CurrentSystem string

	SearchPath  []string
	AllowedURIs []string

	LockHash       *LockHash
	RootAccessorFP *LockHash // same (algo, size, bytes) shape as LockHash
}

// NewEvalInputs is a convenience constructor mirroring the original
// implementation's fromSettings: it takes the individual flags directly
// rather than requiring callers to build the struct literal themselves.
func NewEvalInputs(
	version string,
	pureEval, impureMode, allowIFD, restrictEval bool,
	currentSystem string,
	searchPath, allowedURIs []string,
) EvalInputs {
	sorted := append([]string(nil), allowedURIs...)
	sort.Strings(sorted)
	return EvalInputs{
		Version:                   version,
		PureEval:                  pureEval,
		ImpureMode:                impureMode,
		AllowImportFromDerivation: allowIFD,
		RestrictEval:              restrictEval,
		CurrentSystem:             currentSystem,
		SearchPath:                append([]string(nil), searchPath...),
		AllowedURIs:               sorted,
	}
}

// Fingerprint produces the canonical ContentHash for these inputs. Encoding
// order, per spec.md §4.2: version string, one flag byte, system string,
// search-path count+entries, allowed-URI count+sorted entries, optional
// lock hash, optional root-accessor fingerprint.
func (e EvalInputs) Fingerprint() ContentHash {
	s := newSink()
	s.feedString(e.Version)

	var flags byte
	if e.PureEval {
		flags |= 1 << 0
	}
	if e.ImpureMode {
		flags |= 1 << 1
	}
	if e.AllowImportFromDerivation {
		flags |= 1 << 2
	}
	if e.RestrictEval {
		flags |= 1 << 3
	}
	s.feedBytes([]byte{flags})

	s.feedString(e.CurrentSystem)

	s.feedUint64(uint64(len(e.SearchPath)))
	for _, p := range e.SearchPath {
		s.feedString(p)
	}

	sortedURIs := append([]string(nil), e.AllowedURIs...)
	sort.Strings(sortedURIs)
	s.feedUint64(uint64(len(sortedURIs)))
	for _, u := range sortedURIs {
		s.feedString(u)
	}

	feedOptionalLockHash(&s, e.LockHash)
	feedOptionalLockHash(&s, e.RootAccessorFP)

	return s.sumContent()
}

func feedOptionalLockHash(s *sink, lh *LockHash) {
	if lh == nil {
		s.feedBool(false)
		return
	}
	s.feedBool(true)
	s.feedString(lh.Algo)
	s.feedUint64(lh.Size)
	s.feedLenPrefixed(lh.Sum)
}
