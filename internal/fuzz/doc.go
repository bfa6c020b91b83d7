// Package fuzztests houses Go fuzz harnesses for the generator front end
// (Go source -> discover -> header render). They guard against panics and
// nondeterminism on arbitrary inputs.
package fuzztests
