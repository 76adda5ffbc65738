// Package pkg implements the content-addressed hashing and thunk
// memoization core: the public surface consumed by an evaluator. It knows
// nothing about parsing or reduction; it only turns expressions, values,
// environments, and thunks into stable fingerprints, and caches forcing
// results keyed by those fingerprints.
package pkg

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

const digestSize = sha256.Size

// backRefPrefix marks a back-reference digest so it can never collide with
// a content-derived digest by accident (the digest function's output space
// is indistinguishable from random, but the prefix byte is fed as the very
// first byte fed into the hash, not appended to its output, so this is
// belt-and-suspenders clarity rather than a collision argument).
const backRefPrefix = 0xFF

// category tags keep a StructuralHash back-ref from ever equaling a
// ContentHash back-ref at the same depth, even though both wrap the same
// underlying digest size.
const (
	categoryStructural = 0x01
	categoryContent    = 0x02
)

// digest is the shared [32]byte payload both hash types wrap. Kept
// unexported so StructuralHash and ContentHash remain incompatible at the
// type level, exactly as the domain model requires.
type digest [digestSize]byte

func (d digest) bytes() []byte { return d[:] }

func (d digest) hex() string { return hex.EncodeToString(d[:]) }

func (d digest) equal(o digest) bool { return d == o }

func (d digest) less(o digest) bool { return bytes.Compare(d[:], o[:]) < 0 }

func digestFromBytes(b []byte) digest {
	var d digest
	copy(d[:], b)
	return d
}

func digestFromString(s string) digest {
	sum := sha256.Sum256([]byte(s))
	return digest(sum)
}

func backRefDigest(category byte, depth uint64) digest {
	h := sha256.New()
	h.Write([]byte{backRefPrefix, category})
	var buf [8]byte
	putUint64LE(buf[:], depth)
	h.Write(buf[:])
	return digestFromBytes(h.Sum(nil))
}

func combineDigests(parts [][]byte) digest {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	sum := h.Sum(nil)
	return digestFromBytes(sum)
}

// StructuralHash identifies an unforced construct: an expression, an
// environment frame, or a thunk. It is never comparable to a ContentHash,
// even though both are backed by the same digest width — the Go type
// system enforces this at compile time.
type StructuralHash struct{ d digest }

// ContentHash identifies a forced value.
type ContentHash struct{ d digest }

// PlaceholderStructuralHash is the zero StructuralHash, used for cycle
// nodes and null expressions that should all collide with each other.
func PlaceholderStructuralHash() StructuralHash { return StructuralHash{} }

// PlaceholderContentHash is the zero ContentHash.
func PlaceholderContentHash() ContentHash { return ContentHash{} }

// BackRefStructuralHash builds the back-reference hash for a cycle found
// depth steps up the structural ancestor stack.
func BackRefStructuralHash(depth uint64) StructuralHash {
	return StructuralHash{d: backRefDigest(categoryStructural, depth)}
}

// BackRefContentHash builds the back-reference hash for a cycle found depth
// steps up the value ancestor stack.
func BackRefContentHash(depth uint64) ContentHash {
	return ContentHash{d: backRefDigest(categoryContent, depth)}
}

// CombineStructuralHash hashes the raw bytes of each constituent, in order,
// into one fresh digest.
func CombineStructuralHash(parts ...StructuralHash) StructuralHash {
	raw := make([][]byte, len(parts))
	for i, p := range parts {
		raw[i] = p.d.bytes()
	}
	return StructuralHash{d: combineDigests(raw)}
}

// CombineContentHash hashes the raw bytes of each constituent, in order,
// into one fresh digest.
func CombineContentHash(parts ...ContentHash) ContentHash {
	raw := make([][]byte, len(parts))
	for i, p := range parts {
		raw[i] = p.d.bytes()
	}
	return ContentHash{d: combineDigests(raw)}
}

func StructuralHashFromString(s string) StructuralHash {
	return StructuralHash{d: digestFromString(s)}
}

func StructuralHashFromBytes(b []byte) StructuralHash {
	return StructuralHash{d: digestFromBytes(b)}
}

func ContentHashFromString(s string) ContentHash {
	return ContentHash{d: digestFromString(s)}
}

func ContentHashFromBytes(b []byte) ContentHash {
	return ContentHash{d: digestFromBytes(b)}
}

func (h StructuralHash) Equal(o StructuralHash) bool { return h.d.equal(o.d) }
func (h StructuralHash) Less(o StructuralHash) bool  { return h.d.less(o.d) }
func (h StructuralHash) Hex() string                 { return h.d.hex() }
func (h StructuralHash) Bytes() []byte               { return h.d.bytes() }
func (h StructuralHash) String() string              { return h.Hex() }

func (h ContentHash) Equal(o ContentHash) bool { return h.d.equal(o.d) }
func (h ContentHash) Less(o ContentHash) bool  { return h.d.less(o.d) }
func (h ContentHash) Hex() string              { return h.d.hex() }
func (h ContentHash) Bytes() []byte            { return h.d.bytes() }
func (h ContentHash) String() string           { return h.Hex() }

// newSink starts a fresh digest accumulator for the structural/content
// feed helpers in codec.go.
func newSink() sink { return sink{h: sha256.New()} }
