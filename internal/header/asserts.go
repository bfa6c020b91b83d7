package header

import (
	"bytes"
	"fmt"
	"go/token"
	"strings"

	"cbridge/internal/cabi"
	"cbridge/internal/diag"
	"cbridge/internal/dialect"
	"cbridge/internal/layout"
)

// assertPrefix derives the typedef prefix for layout checks from the include
// guard, so two generated headers can share a translation unit.
func assertPrefix(guard string) string {
	p := strings.TrimLeft(strings.ToLower(guard), "_")
	if p == "" {
		p = "cbridge"
	}
	return p + "_layout_"
}

// writeAsserts pins every layout's size and field offsets for the engine's
// target, so a C compiler with a different idea of the layout rejects the
// header instead of miscompiling callers. Checks are numbered in emission
// order; struct and field names never enter the typedef name, since C99
// forbids redeclaring a typedef.
func writeAsserts(buf *bytes.Buffer, s *cabi.Surface, d dialect.Dialect, le *layout.LayoutEngine, guard string) error {
	named, lerrs := le.Structs()
	if len(lerrs) > 0 {
		return LayoutErrors(s, lerrs)
	}
	prefix := assertPrefix(guard)
	seq := 0
	emit := func(cond, what string) {
		seq++
		buf.WriteString(d.StaticAssert(fmt.Sprintf("%s%d", prefix, seq), cond))
		fmt.Fprintf(buf, " /* %s */\n", what)
	}
	fmt.Fprintf(buf, "/* Layout checks for %s. */\n", le.Target.Triple)
	for _, nl := range named {
		st := nl.Struct
		spelled, err := d.Spell(cabi.StructRef(st.Name))
		if err != nil {
			return diag.Errorf(diag.ABIUnrenderable, st.Pos, st.Name, err.Error(), nil)
		}
		emit(fmt.Sprintf("sizeof(%s) == %d", spelled, nl.Layout.Size), st.Name+" size")
		for i, f := range st.Fields {
			off, err := d.Offsetof(st, f.Name)
			if err != nil {
				return diag.Errorf(diag.ABIUnrenderable, f.Pos, st.Name, err.Error(), nil)
			}
			emit(fmt.Sprintf("%s == %d", off, nl.Layout.FieldOffsets[i]), st.Name+"."+f.Name)
		}
	}
	buf.WriteByte('\n')
	return nil
}

// LayoutErrors converts layout engine failures into diagnostics positioned
// at the offending layout.
func LayoutErrors(s *cabi.Surface, lerrs []*layout.LayoutError) error {
	bag := diag.NewBag(0)
	rep := diag.BagReporter{Bag: bag}
	for _, le := range lerrs {
		code := diag.LayoutInfo
		switch le.Kind {
		case layout.LayoutErrRecursiveUnsized:
			code = diag.LayoutRecursive
		case layout.LayoutErrUnknownStruct:
			code = diag.LayoutUnknownStruct
		case layout.LayoutErrUnknownCNative:
			code = diag.LayoutUnknownCNative
		case layout.LayoutErrLengthConversion:
			code = diag.LayoutSizeOverflow
		}
		var pos token.Position
		if st, ok := s.Struct(le.Struct); ok {
			pos = st.Pos
		}
		diag.ReportError(rep, code, pos, le.Error()).Symbol(le.Struct).Emit()
	}
	bag.Dedup()
	return bag.Err()
}
