// Package header renders a cabi.Surface into C header text and writes it.
//
// Render is pure: the same surface, dialect and options always produce the
// same bytes. Write replaces the target file through a rename so a failed run
// never leaves a truncated header behind.
package header
