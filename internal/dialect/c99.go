package dialect

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"cbridge/internal/cabi"
)

const C99Name = "c99"

type c99 struct {
	opts Options
}

// NewC99 returns the ISO C99 dialect.
func NewC99(opts Options) Dialect {
	return &c99{opts: opts}
}

func (d *c99) Name() string { return C99Name }

func (d *c99) unsupported(t cabi.Type, reason string) error {
	return &UnsupportedTypeError{Dialect: C99Name, Type: t, Reason: reason}
}

// base spells a non-derived type.
func (d *c99) base(t cabi.Type) (string, error) {
	switch t.Kind {
	case cabi.KindVoid:
		return "void", nil
	case cabi.KindBool:
		return "bool", nil
	case cabi.KindInt:
		switch t.Width {
		case 8, 16, 32, 64:
			return fmt.Sprintf("int%d_t", t.Width), nil
		}
	case cabi.KindUint:
		switch t.Width {
		case 8, 16, 32, 64:
			return fmt.Sprintf("uint%d_t", t.Width), nil
		}
	case cabi.KindUintptr:
		return "uintptr_t", nil
	case cabi.KindFloat:
		switch t.Width {
		case 32:
			return "float", nil
		case 64:
			return "double", nil
		}
	case cabi.KindCNative:
		if t.Name != "" {
			return t.Name, nil
		}
	case cabi.KindStruct:
		if t.Name == "" {
			return "", d.unsupported(t, "anonymous struct")
		}
		if t.Foreign || d.opts.Style == StyleTag {
			return "struct " + t.Name, nil
		}
		return t.Name, nil
	}
	return "", d.unsupported(t, "")
}

func (d *c99) Spell(t cabi.Type) (string, error) {
	return d.Declare(t, "")
}

// Declare builds a C declarator inside-out: pointers prefix the declarator,
// arrays suffix it, and a pointer to an array needs parentheses.
func (d *c99) Declare(t cabi.Type, name string) (string, error) {
	switch t.Kind {
	case cabi.KindPointer:
		if t.Elem == nil {
			return d.Declare(cabi.Void, "*"+name)
		}
		inner := "*" + name
		if t.Elem.Kind == cabi.KindArray {
			inner = "(" + inner + ")"
		}
		return d.Declare(*t.Elem, inner)
	case cabi.KindArray:
		if t.Elem == nil || t.Len <= 0 {
			return "", d.unsupported(t, "array needs a positive length")
		}
		if t.Elem.Kind == cabi.KindVoid {
			return "", d.unsupported(t, "array of void")
		}
		return d.Declare(*t.Elem, fmt.Sprintf("%s[%d]", name, t.Len))
	}
	b, err := d.base(t)
	if err != nil {
		return "", err
	}
	if name == "" {
		return b, nil
	}
	return b + " " + name, nil
}

func (d *c99) ForwardDecl(st *cabi.Struct) string {
	if d.opts.Style == StyleTag {
		return "struct " + st.Name + ";"
	}
	return "typedef struct " + st.Name + " " + st.Name + ";"
}

func (d *c99) StructDecl(st *cabi.Struct) (string, error) {
	var b strings.Builder
	b.WriteString("struct ")
	b.WriteString(st.Name)
	b.WriteString(" {\n")
	for _, f := range st.Fields {
		if f.Type.Kind == cabi.KindVoid {
			return "", d.unsupported(f.Type, "field "+f.Name+" has no storage")
		}
		decl, err := d.Declare(f.Type, f.Name)
		if err != nil {
			return "", err
		}
		b.WriteString("  ")
		b.WriteString(decl)
		b.WriteString(";\n")
	}
	b.WriteString("};")
	return b.String(), nil
}

func (d *c99) Prototype(fn *cabi.Function) (string, error) {
	if fn.Result.Kind == cabi.KindArray {
		return "", d.unsupported(fn.Result, "arrays cannot be returned")
	}
	params := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		switch p.Type.Kind {
		case cabi.KindArray:
			return "", d.unsupported(p.Type, "arrays cannot be passed by value")
		case cabi.KindVoid:
			return "", d.unsupported(p.Type, "parameter has no storage")
		}
		name := p.Name
		if d.opts.OmitParamNames || name == "_" {
			name = ""
		}
		decl, err := d.Declare(p.Type, name)
		if err != nil {
			return "", err
		}
		params = append(params, decl)
	}
	list := "void"
	if len(params) > 0 {
		list = strings.Join(params, ", ")
	}
	decl, err := d.Declare(fn.Result, fn.Symbol+"("+list+")")
	if err != nil {
		return "", err
	}
	return decl + ";", nil
}

func (d *c99) Includes(types []cabi.Type, withAsserts bool) []string {
	set := make(map[string]struct{}, 4)
	for _, top := range types {
		top.Walk(func(t cabi.Type) {
			switch t.Kind {
			case cabi.KindBool:
				set["stdbool.h"] = struct{}{}
			case cabi.KindInt, cabi.KindUint, cabi.KindUintptr:
				set["stdint.h"] = struct{}{}
			case cabi.KindCNative:
				switch t.Name {
				case "size_t", "ptrdiff_t":
					set["stddef.h"] = struct{}{}
				case "intptr_t", "uintptr_t":
					set["stdint.h"] = struct{}{}
				case "ssize_t":
					set["sys/types.h"] = struct{}{}
				}
			}
		})
	}
	if withAsserts {
		set["stddef.h"] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

func (d *c99) GuardMacro(headerName string) string {
	base := filepath.Base(headerName)
	var b strings.Builder
	for i := 0; i < len(base); i++ {
		c := base[i]
		switch {
		case c >= 'a' && c <= 'z':
			b.WriteByte(c - 'a' + 'A')
		case (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'):
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	guard := b.String()
	if guard == "" || (guard[0] >= '0' && guard[0] <= '9') {
		guard = "H_" + guard
	}
	if isReservedPrefix(guard) || guard[0] == '_' {
		guard = "H" + guard
	}
	return guard
}

// StaticAssert uses the negative array size trick; _Static_assert is C11.
func (d *c99) StaticAssert(name, cond string) string {
	return fmt.Sprintf("typedef char %s[(%s) ? 1 : -1];", name, cond)
}

func (d *c99) Offsetof(st *cabi.Struct, field string) (string, error) {
	spelled, err := d.Spell(cabi.StructRef(st.Name))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("offsetof(%s, %s)", spelled, field), nil
}

func (d *c99) Reserved(ident string) bool {
	return isC99Keyword(ident) || isReservedPrefix(ident)
}
