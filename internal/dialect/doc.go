// Package dialect holds the rendering rules of a target header standard.
//
// A Dialect turns cabi types and declarations into header text: type
// spellings and declarators, struct bodies, prototypes, include lists,
// guard macros and compile-time assertions. The header package drives the
// emission order and never spells a C type itself, so adding a dialect means
// registering a new Factory here and nothing else.
//
// Only "c99" is registered.
package dialect
