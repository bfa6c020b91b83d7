package layout

import (
	"fortio.org/safecast"

	"cbridge/internal/cabi"
)

func (e *LayoutEngine) layoutOf(t cabi.Type, owner string, state *layoutState) (TypeLayout, *LayoutError) {
	switch t.Kind {
	case cabi.KindVoid:
		return TypeLayout{Size: 0, Align: 1}, nil

	case cabi.KindBool:
		return TypeLayout{Size: 1, Align: 1}, nil

	case cabi.KindInt, cabi.KindUint:
		if t.Width == 64 {
			return TypeLayout{Size: 8, Align: e.int64Align()}, nil
		}
		return scalarLayoutBytes(t.Width / 8), nil

	case cabi.KindFloat:
		if t.Width == 64 {
			return TypeLayout{Size: 8, Align: e.float64Align()}, nil
		}
		return scalarLayoutBytes(t.Width / 8), nil

	case cabi.KindUintptr, cabi.KindPointer:
		return e.ptrLayout(), nil

	case cabi.KindCNative:
		l, ok := e.cNativeLayout(t.Name)
		if !ok {
			return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrUnknownCNative, Struct: owner, Name: t.Name}
		}
		return l, nil

	case cabi.KindArray:
		if t.Elem == nil {
			return TypeLayout{Size: 0, Align: 1}, nil
		}
		return e.arrayFixedLayout(*t.Elem, t.Len, owner, state)

	case cabi.KindStruct:
		if t.Foreign {
			// Opaque from Go's side; only reachable behind pointers in valid surfaces.
			return TypeLayout{Size: 0, Align: 1}, nil
		}
		return e.structLayout(t.Name, state)

	default:
		return TypeLayout{Size: 0, Align: 1}, nil
	}
}

func (e *LayoutEngine) structLayout(name string, state *layoutState) (TypeLayout, *LayoutError) {
	if cached, ok := e.cache.get(name); ok {
		return cached.Layout, cached.Err
	}

	if idx, ok := state.index[name]; ok {
		cycle := append([]string(nil), state.stack[idx:]...)
		cycle = append(cycle, name)
		err := &LayoutError{
			Kind:   LayoutErrRecursiveUnsized,
			Struct: name,
			Cycle:  cycle,
		}
		e.cache.put(name, &cacheEntry{Layout: TypeLayout{Size: 0, Align: 1}, Err: err})
		return TypeLayout{Size: 0, Align: 1}, err
	}

	st, ok := e.Surface.Struct(name)
	if !ok {
		owner := ""
		if n := len(state.stack); n > 0 {
			owner = state.stack[n-1]
		}
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrUnknownStruct, Struct: owner, Name: name}
	}

	state.index[name] = len(state.stack)
	state.stack = append(state.stack, name)
	layout, err := e.computeStruct(st, state)
	state.stack = state.stack[:len(state.stack)-1]
	delete(state.index, name)

	e.cache.put(name, &cacheEntry{Layout: layout, Err: err})
	return layout, err
}

// computeStruct lays fields out in declaration order with natural C alignment:
// each field is placed at the next multiple of its alignment, and the total
// size is rounded up to the largest field alignment.
func (e *LayoutEngine) computeStruct(st *cabi.Struct, state *layoutState) (TypeLayout, *LayoutError) {
	fields := st.Fields
	if len(fields) == 0 {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	offsets := make([]int, len(fields))
	aligns := make([]int, len(fields))
	sizes := make([]int, len(fields))

	size := 0
	align := 1
	for i := range fields {
		fl, err := e.layoutOf(fields[i].Type, st.Name, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		fAlign := fl.Align
		if fAlign <= 0 {
			fAlign = 1
		}
		size = roundUp(size, fAlign)
		offsets[i] = size
		aligns[i] = fAlign
		sizes[i] = fl.Size
		size += fl.Size
		align = maxInt(align, fAlign)
	}
	size = roundUp(size, align)

	return TypeLayout{
		Size:         size,
		Align:        align,
		FieldOffsets: offsets,
		FieldAligns:  aligns,
		FieldSizes:   sizes,
	}, nil
}

func (e *LayoutEngine) arrayFixedLayout(elem cabi.Type, length int, owner string, state *layoutState) (TypeLayout, *LayoutError) {
	elemLayout, err := e.layoutOf(elem, owner, state)
	if err != nil {
		return TypeLayout{Size: 0, Align: 1}, err
	}
	elemAlign := elemLayout.Align
	if elemAlign <= 0 {
		elemAlign = 1
	}
	stride := roundUp(elemLayout.Size, elemAlign)
	n, convErr := safecast.Conv[uint32](length)
	if convErr != nil {
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrLengthConversion, Struct: owner, Err: convErr}
	}
	return TypeLayout{
		Size:  stride * int(n),
		Align: elemAlign,
	}, nil
}

func (e *LayoutEngine) cNativeLayout(spelling string) (TypeLayout, bool) {
	switch spelling {
	case "char", "signed char", "unsigned char":
		return scalarLayoutBytes(1), true
	case "short", "unsigned short":
		return scalarLayoutBytes(2), true
	case "int", "unsigned int", "float":
		return scalarLayoutBytes(4), true
	case "long", "unsigned long":
		if e.Target.LongSize == 8 {
			return TypeLayout{Size: 8, Align: e.int64Align()}, true
		}
		return scalarLayoutBytes(4), true
	case "long long", "unsigned long long":
		return TypeLayout{Size: 8, Align: e.int64Align()}, true
	case "double":
		return TypeLayout{Size: 8, Align: e.float64Align()}, true
	case "size_t", "ssize_t", "ptrdiff_t", "intptr_t", "uintptr_t":
		return e.ptrLayout(), true
	}
	return TypeLayout{}, false
}

func (e *LayoutEngine) ptrLayout() TypeLayout {
	ptrSize := e.Target.PtrSize
	ptrAlign := e.Target.PtrAlign
	if ptrSize <= 0 {
		ptrSize = 8
	}
	if ptrAlign <= 0 {
		ptrAlign = ptrSize
	}
	return TypeLayout{Size: ptrSize, Align: ptrAlign}
}

func (e *LayoutEngine) int64Align() int {
	if e.Target.Int64Align <= 0 {
		return 8
	}
	return e.Target.Int64Align
}

func (e *LayoutEngine) float64Align() int {
	if e.Target.Float64Align <= 0 {
		return 8
	}
	return e.Target.Float64Align
}

func scalarLayoutBytes(size int) TypeLayout {
	if size <= 0 {
		return TypeLayout{Size: 0, Align: 1}
	}
	return TypeLayout{Size: size, Align: size}
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return n + (align - r)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
