package surface

import (
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	runtimehooks "cbridge/runtime"
)

func TestAdd(t *testing.T) {
	assert.Equal(t, uint32(5), Add(2, 3))
	assert.Equal(t, uint32(math.MaxUint32), Add(math.MaxUint32, 0))
}

func TestAddOverflowViolates(t *testing.T) {
	defer func() {
		v, ok := recover().(*runtimehooks.Violation)
		require.True(t, ok)
		assert.Contains(t, v.Info.Message, "overflows")
	}()
	Add(math.MaxUint32, 1)
	t.Fatal("Add did not panic")
}

func TestPairSum(t *testing.T) {
	p := Pair{A: 40, B: 2}
	assert.Equal(t, uint32(42), PairSum(unsafe.Pointer(&p)))
}

func TestPairSumNilViolates(t *testing.T) {
	defer func() {
		v, ok := recover().(*runtimehooks.Violation)
		require.True(t, ok)
		assert.Equal(t, "pair_sum: nil pair", v.Info.Message)
	}()
	PairSum(nil)
	t.Fatal("PairSum did not panic")
}

func TestPairLayout(t *testing.T) {
	var p Pair
	assert.Equal(t, uintptr(8), unsafe.Sizeof(p))
	assert.Equal(t, uintptr(4), unsafe.Offsetof(p.B))
}
