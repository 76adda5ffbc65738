package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuralAndContentHashAreDistinctTypes(t *testing.T) {
	sh := CombineStructuralHash(StructuralHashFromString("a"))
	ch := CombineContentHash(ContentHashFromString("a"))

	// Same input digest, but the two are different Go types and cannot be
	// compared directly (the compiler never allows StructuralHash ==
	// ContentHash); this test only asserts that both render a non-empty hex
	// form.
	assert.NotEmpty(t, sh.Hex())
	assert.NotEmpty(t, ch.Hex())
}

func TestBackRefHashesDifferByCategoryAtSameDepth(t *testing.T) {
	s := BackRefStructuralHash(3)
	c := BackRefContentHash(3)
	assert.NotEqual(t, s.Hex(), c.Hex())
}

func TestBackRefHashesDifferByDepth(t *testing.T) {
	a := BackRefStructuralHash(1)
	b := BackRefStructuralHash(2)
	assert.NotEqual(t, a.Hex(), b.Hex())
}

func TestPlaceholderHashesAreStable(t *testing.T) {
	a := PlaceholderStructuralHash()
	b := PlaceholderStructuralHash()
	assert.True(t, a.Equal(b))
}

func TestStructuralHashFromBytesRoundTrips(t *testing.T) {
	h := StructuralHashFromString("hello")
	round := StructuralHashFromBytes(h.Bytes())
	assert.True(t, h.Equal(round))
}

func TestHashLessIsAntisymmetric(t *testing.T) {
	a := StructuralHashFromString("a")
	b := StructuralHashFromString("b")
	require.False(t, a.Equal(b))
	if a.Less(b) {
		assert.False(t, b.Less(a))
	} else {
		assert.True(t, b.Less(a))
	}
}
