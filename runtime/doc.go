// Package runtimehooks holds the hooks a C host needs from the library in
// place of the failure handling it cannot provide: a termination handler
// that never returns and an unwinding stub.
//
// Every exported function defers Guard, so a Go panic is turned into a call
// to the termination handler before it can reach C.
package runtimehooks
