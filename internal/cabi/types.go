package cabi

import (
	"fmt"
	"strconv"
)

// Kind classifies a C-representable type.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBool
	KindInt
	KindUint
	KindUintptr
	KindFloat
	// KindCNative is a C scalar reached through cgo (C.int, C.size_t, ...);
	// Name holds its C spelling.
	KindCNative
	KindPointer
	KindArray
	// KindStruct refers to an exported layout by Name, or to a foreign
	// C struct when Foreign is set.
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindUintptr:
		return "uintptr"
	case KindFloat:
		return "float"
	case KindCNative:
		return "cnative"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Type is an immutable description of a C-representable type.
type Type struct {
	Kind    Kind
	Width   int    // bits, for KindInt, KindUint and KindFloat
	Name    string // KindCNative spelling or KindStruct name
	Foreign bool   // KindStruct declared on the C side (C.struct_X)
	Elem    *Type  // KindPointer, KindArray
	Len     int    // KindArray
}

var (
	Void    = Type{Kind: KindVoid}
	Bool    = Type{Kind: KindBool}
	Uintptr = Type{Kind: KindUintptr}
	// VoidPtr is unsafe.Pointer.
	VoidPtr = PointerTo(Void)
)

func Int(width int) Type   { return Type{Kind: KindInt, Width: width} }
func Uint(width int) Type  { return Type{Kind: KindUint, Width: width} }
func Float(width int) Type { return Type{Kind: KindFloat, Width: width} }

// CNative returns a cgo C scalar with the given C spelling.
func CNative(spelling string) Type { return Type{Kind: KindCNative, Name: spelling} }

// StructRef refers to an exported layout by name.
func StructRef(name string) Type { return Type{Kind: KindStruct, Name: name} }

// ForeignStruct refers to a struct declared in C.
func ForeignStruct(name string) Type { return Type{Kind: KindStruct, Name: name, Foreign: true} }

func PointerTo(elem Type) Type {
	e := elem
	return Type{Kind: KindPointer, Elem: &e}
}

func ArrayOf(elem Type, n int) Type {
	e := elem
	return Type{Kind: KindArray, Elem: &e, Len: n}
}

// IsVoid reports whether t is the empty result type.
func (t Type) IsVoid() bool { return t.Kind == KindVoid }

// Equal compares two types structurally.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind || t.Width != o.Width || t.Name != o.Name || t.Foreign != o.Foreign || t.Len != o.Len {
		return false
	}
	if (t.Elem == nil) != (o.Elem == nil) {
		return false
	}
	if t.Elem == nil {
		return true
	}
	return t.Elem.Equal(*o.Elem)
}

// String renders a Go-flavoured spelling used in diagnostics and tables.
func (t Type) String() string {
	switch t.Kind {
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt:
		return fmt.Sprintf("int%d", t.Width)
	case KindUint:
		return fmt.Sprintf("uint%d", t.Width)
	case KindUintptr:
		return "uintptr"
	case KindFloat:
		return fmt.Sprintf("float%d", t.Width)
	case KindCNative:
		return "C." + t.Name
	case KindPointer:
		if t.Elem == nil || t.Elem.IsVoid() {
			return "unsafe.Pointer"
		}
		return "*" + t.Elem.String()
	case KindArray:
		if t.Elem == nil {
			return fmt.Sprintf("[%d]?", t.Len)
		}
		return fmt.Sprintf("[%d]%s", t.Len, t.Elem.String())
	case KindStruct:
		if t.Foreign {
			return "C.struct_" + t.Name
		}
		return t.Name
	default:
		return t.Kind.String()
	}
}

// Walk calls fn for t and every type nested in it, outermost first.
func (t Type) Walk(fn func(Type)) {
	fn(t)
	if t.Elem != nil {
		t.Elem.Walk(fn)
	}
}

// ByValueStruct returns the layout name t embeds by value (directly or
// through arrays), or "" when t holds no exported layout by value.
func (t Type) ByValueStruct() string {
	switch t.Kind {
	case KindStruct:
		if t.Foreign {
			return ""
		}
		return t.Name
	case KindArray:
		if t.Elem != nil {
			return t.Elem.ByValueStruct()
		}
	}
	return ""
}
