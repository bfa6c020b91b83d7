// Package cabi models the C boundary of a library: exported functions,
// exported struct layouts and the C-representable types they are built from.
//
// A Surface keeps declarations in source order; every consumer (layout
// engine, dialects, header renderer) iterates it in that order, which keeps
// generated headers stable across builds.
package cabi
