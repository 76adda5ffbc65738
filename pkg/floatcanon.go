package pkg

import "math"

// canonicalQuietNaN is the single bit pattern every NaN collapses to before
// being fed into a value-layer digest, per spec.md §4.4/§8.9.
var canonicalQuietNaN = math.Float64bits(math.NaN())

// canonicalFloatBits implements the value-layer float canonicalization: all
// NaN encodings collapse to one quiet NaN, -0.0 becomes +0.0, everything
// else passes through unchanged.
func canonicalFloatBits(v float64) uint64 {
	if math.IsNaN(v) {
		return canonicalQuietNaN
	}
	if v == 0 {
		return 0 // covers both +0.0 and -0.0
	}
	return math.Float64bits(v)
}

// canonicalExprFloatBits implements the expression-layer float
// canonicalization: NaN encodings still collapse to one quiet NaN, but
// -0.0 is preserved distinct from +0.0, per the Open Question decision
// recorded in SPEC_FULL.md §5 (expression-literal -0.0 must not hash equal
// to 0.0; only the NaN collapse is shared with the value layer).
func canonicalExprFloatBits(v float64) uint64 {
	if math.IsNaN(v) {
		return canonicalQuietNaN
	}
	return math.Float64bits(v)
}
