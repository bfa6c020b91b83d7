package discover

import "cbridge/internal/cabi"

// goScalars maps predeclared Go identifiers to their C counterparts.
var goScalars = map[string]cabi.Type{
	"bool":    cabi.Bool,
	"int8":    cabi.Int(8),
	"int16":   cabi.Int(16),
	"int32":   cabi.Int(32),
	"int64":   cabi.Int(64),
	"uint8":   cabi.Uint(8),
	"uint16":  cabi.Uint(16),
	"uint32":  cabi.Uint(32),
	"uint64":  cabi.Uint(64),
	"byte":    cabi.Uint(8),
	"rune":    cabi.Int(32),
	"uintptr": cabi.Uintptr,
	"float32": cabi.Float(32),
	"float64": cabi.Float(64),
}

// goRejected lists predeclared types that have no fixed C equivalent.
var goRejected = map[string]string{
	"int":        "platform-sized; use int32 or int64",
	"uint":       "platform-sized; use uint32 or uint64",
	"string":     "Go strings are dynamically sized; pass *C.char or a pointer and length",
	"error":      "interfaces have no C layout",
	"any":        "interfaces have no C layout",
	"complex64":  "complex numbers are not exported",
	"complex128": "complex numbers are not exported",
}

// cgoScalars maps cgo's C.<name> identifiers to C spellings or sized types.
var cgoScalars = map[string]cabi.Type{
	"char":      cabi.CNative("char"),
	"schar":     cabi.CNative("signed char"),
	"uchar":     cabi.CNative("unsigned char"),
	"short":     cabi.CNative("short"),
	"ushort":    cabi.CNative("unsigned short"),
	"int":       cabi.CNative("int"),
	"uint":      cabi.CNative("unsigned int"),
	"long":      cabi.CNative("long"),
	"ulong":     cabi.CNative("unsigned long"),
	"longlong":  cabi.CNative("long long"),
	"ulonglong": cabi.CNative("unsigned long long"),
	"float":     cabi.CNative("float"),
	"double":    cabi.CNative("double"),
	"size_t":    cabi.CNative("size_t"),
	"ssize_t":   cabi.CNative("ssize_t"),
	"ptrdiff_t": cabi.CNative("ptrdiff_t"),
	"intptr_t":  cabi.CNative("intptr_t"),
	"uintptr_t": cabi.Uintptr,
	"_Bool":     cabi.Bool,
	"bool":      cabi.Bool,
	"int8_t":    cabi.Int(8),
	"int16_t":   cabi.Int(16),
	"int32_t":   cabi.Int(32),
	"int64_t":   cabi.Int(64),
	"uint8_t":   cabi.Uint(8),
	"uint16_t":  cabi.Uint(16),
	"uint32_t":  cabi.Uint(32),
	"uint64_t":  cabi.Uint(64),
}
