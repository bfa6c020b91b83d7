package dialect

import "strings"

// c99Keywords are the reserved words of ISO C99 (6.4.1) plus the typedef
// and macro names introduced by the headers a generated file includes.
var c99Keywords = map[string]struct{}{
	"auto": {}, "break": {}, "case": {}, "char": {}, "const": {}, "continue": {},
	"default": {}, "do": {}, "double": {}, "else": {}, "enum": {}, "extern": {},
	"float": {}, "for": {}, "goto": {}, "if": {}, "inline": {}, "int": {},
	"long": {}, "register": {}, "restrict": {}, "return": {}, "short": {},
	"signed": {}, "sizeof": {}, "static": {}, "struct": {}, "switch": {},
	"typedef": {}, "union": {}, "unsigned": {}, "void": {}, "volatile": {},
	"while": {}, "_Bool": {}, "_Complex": {}, "_Imaginary": {},

	// <stdbool.h>
	"bool": {}, "true": {}, "false": {},
	// <stddef.h>
	"NULL": {}, "offsetof": {}, "size_t": {}, "ptrdiff_t": {}, "wchar_t": {},
	"max_align_t": {},
	// <stdint.h>
	"int8_t": {}, "int16_t": {}, "int32_t": {}, "int64_t": {},
	"uint8_t": {}, "uint16_t": {}, "uint32_t": {}, "uint64_t": {},
	"int_least8_t": {}, "int_least16_t": {}, "int_least32_t": {}, "int_least64_t": {},
	"uint_least8_t": {}, "uint_least16_t": {}, "uint_least32_t": {}, "uint_least64_t": {},
	"int_fast8_t": {}, "int_fast16_t": {}, "int_fast32_t": {}, "int_fast64_t": {},
	"uint_fast8_t": {}, "uint_fast16_t": {}, "uint_fast32_t": {}, "uint_fast64_t": {},
	"intptr_t": {}, "uintptr_t": {}, "intmax_t": {}, "uintmax_t": {},
	"SIZE_MAX": {}, "PTRDIFF_MIN": {}, "PTRDIFF_MAX": {}, "WCHAR_MIN": {}, "WCHAR_MAX": {},
	"SIG_ATOMIC_MIN": {}, "SIG_ATOMIC_MAX": {}, "WINT_MIN": {}, "WINT_MAX": {},
	// <sys/types.h>
	"ssize_t": {},
}

// stdintMacroStems prefix the limit and constant macros of <stdint.h>:
// INT32_MAX, UINT_LEAST8_MAX, INTPTR_MIN, INT64_C and so on.
var stdintMacroStems = []string{"INT", "UINT"}

func isC99Keyword(ident string) bool {
	_, ok := c99Keywords[ident]
	return ok || isStdintMacro(ident)
}

func isStdintMacro(ident string) bool {
	for _, stem := range stdintMacroStems {
		rest, ok := strings.CutPrefix(ident, stem)
		if !ok {
			continue
		}
		rest = strings.TrimPrefix(strings.TrimPrefix(rest, "_LEAST"), "_FAST")
		switch rest {
		case "PTR_MIN", "PTR_MAX", "MAX_MIN", "MAX_MAX", "MAX_C":
			return true
		}
		for _, w := range []string{"8", "16", "32", "64"} {
			switch rest {
			case w + "_MIN", w + "_MAX", w + "_C":
				return true
			}
		}
	}
	return false
}

// isReservedPrefix reports identifiers reserved for the implementation:
// a leading underscore followed by an uppercase letter or another underscore.
func isReservedPrefix(ident string) bool {
	if len(ident) < 2 || ident[0] != '_' {
		return false
	}
	c := ident[1]
	return c == '_' || (c >= 'A' && c <= 'Z')
}
