// Command libcbridge is the C-callable library. Build it with
//
//	go build -buildmode=c-archive -o libcbridge.a ./cmd/libcbridge
//
// and include the header written by cbridge generate.
package main

import "C"

import (
	"unsafe"

	"cbridge/internal/surface"
	runtimehooks "cbridge/runtime"
)

//go:generate go run ../cbridge generate

// Pair holds two counters.
//
//cbridge:layout
type Pair struct {
	a uint32
	b uint32
}

// Pair must share its layout with surface.Pair.
var (
	_ [unsafe.Sizeof(Pair{}) - unsafe.Sizeof(surface.Pair{})]struct{}
	_ [unsafe.Sizeof(surface.Pair{}) - unsafe.Sizeof(Pair{})]struct{}
	_ [unsafe.Offsetof(Pair{}.b) - unsafe.Offsetof(surface.Pair{}.B)]struct{}
	_ [unsafe.Offsetof(surface.Pair{}.B) - unsafe.Offsetof(Pair{}.b)]struct{}
)

func init() {
	if err := runtimehooks.InstallDefaults(runtimehooks.Default, nil); err != nil {
		panic(err)
	}
}

// add returns a + b. Overflow halts the program.
//
//export add
func add(a, b uint32) uint32 {
	defer runtimehooks.Guard()
	return surface.Add(a, b)
}

// pair_sum returns p->a + p->b. p must not be NULL.
//
//export pair_sum
func pair_sum(p unsafe.Pointer) uint32 {
	defer runtimehooks.Guard()
	return surface.PairSum(p)
}

func main() {}
