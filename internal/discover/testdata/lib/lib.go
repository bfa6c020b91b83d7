package main

import "C"

import "unsafe"

// Pair is two counters.
//
//cbridge:layout
type Pair struct {
	a uint32
	b uint32
}

//export add
func add(a, b uint32) uint32 {
	return a + b
}

//export pair_sum
func pair_sum(p unsafe.Pointer) uint32 {
	pair := (*Pair)(p)
	return pair.a + pair.b
}

func main() {}
