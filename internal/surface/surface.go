// Package surface implements the operations behind the exported C symbols.
// It has no cgo dependency so it can be tested directly.
package surface

import (
	"math/bits"
	"unsafe"

	runtimehooks "cbridge/runtime"
)

// Pair is the C-visible pair of counters. Its layout must stay two
// consecutive uint32 values.
type Pair struct {
	A uint32
	B uint32
}

// Add returns a+b. Overflow is an invariant violation.
func Add(a, b uint32) uint32 {
	sum, carry := bits.Add32(a, b, 0)
	if carry != 0 {
		runtimehooks.Violate("add: %d + %d overflows uint32", a, b)
	}
	return sum
}

// PairSum adds the two counters of the Pair at p. A nil p is an invariant
// violation.
func PairSum(p unsafe.Pointer) uint32 {
	if p == nil {
		runtimehooks.Violate("pair_sum: nil pair")
	}
	pair := (*Pair)(p)
	return Add(pair.A, pair.B)
}
