package pkg

import (
	"hash"

	"github.com/Voskan/evalhash/internal/unsafehelpers"
)

// sink accumulates length-prefixed, type-tagged bytes into a cryptographic
// digest. Every feed helper here exists to prevent the encoding ambiguity
// spec.md §4.1 calls out: ["ab","c"] must never collapse onto the same byte
// stream as ["a","bc"].
type sink struct{ h hash.Hash }

func putUint64LE(b []byte, v uint64) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	b[4] = byte(v >> 32)
	b[5] = byte(v >> 40)
	b[6] = byte(v >> 48)
	b[7] = byte(v >> 56)
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// feedTag writes a single-byte discriminant before a variant's body.
func (s *sink) feedTag(tag byte) { s.h.Write([]byte{tag}) }

// feedBytes writes raw bytes with no length prefix; callers must only use
// this for fixed-width fields (the tag byte, a little-endian integer) where
// ambiguity cannot arise.
func (s *sink) feedBytes(b []byte) { s.h.Write(b) }

// feedLenPrefixed writes an 8-byte little-endian length followed by the
// bytes themselves, the building block that prevents concatenation
// ambiguity for every variable-length field fed into a hash.
func (s *sink) feedLenPrefixed(b []byte) {
	var buf [8]byte
	putUint64LE(buf[:], uint64(len(b)))
	s.h.Write(buf[:])
	s.h.Write(b)
}

// feedString writes s length-prefixed, without copying its bytes.
func (s *sink) feedString(str string) {
	s.feedLenPrefixed(unsafehelpers.StringToBytes(str))
}

func (s *sink) feedInt64(v int64) {
	var buf [8]byte
	putUint64LE(buf[:], uint64(v))
	s.h.Write(buf[:])
}

func (s *sink) feedUint64(v uint64) {
	var buf [8]byte
	putUint64LE(buf[:], v)
	s.h.Write(buf[:])
}

func (s *sink) feedUint32(v uint32) {
	var buf [4]byte
	putUint32LE(buf[:], v)
	s.h.Write(buf[:])
}

func (s *sink) feedInt(v int) { s.feedInt64(int64(v)) }

func (s *sink) feedBool(b bool) {
	if b {
		s.h.Write([]byte{1})
	} else {
		s.h.Write([]byte{0})
	}
}

// feedFloat canonicalizes then feeds a float64's bit pattern: every NaN
// encoding collapses to one quiet-NaN pattern, and -0.0 becomes +0.0. This
// canonicalization belongs to the value layer (§4.4); the expression layer
// (§4.3) keeps -0.0 distinct from +0.0, so it calls feedFloatRaw instead.
func (s *sink) feedFloat(v float64) {
	s.feedUint64(canonicalFloatBits(v))
}

// feedFloatRaw feeds v's IEEE-754 bit pattern with NaN encodings collapsed
// to one quiet NaN but -0.0 left distinct from +0.0, used by the expression
// hasher per the Open Question decision recorded in SPEC_FULL.md §5:
// expression-literal -0.0 must not hash equal to 0.0, but distinct NaN bit
// patterns in a literal must still hash identically.
func (s *sink) feedFloatRaw(v float64) {
	s.feedUint64(canonicalExprFloatBits(v))
}

func (s *sink) feedStructuralHash(h StructuralHash) { s.feedBytes(h.Bytes()) }
func (s *sink) feedContentHash(h ContentHash)       { s.feedBytes(h.Bytes()) }

func (s *sink) sumStructural() StructuralHash { return StructuralHash{d: digestFromBytes(s.h.Sum(nil))} }
func (s *sink) sumContent() ContentHash       { return ContentHash{d: digestFromBytes(s.h.Sum(nil))} }
