package layout_test

import (
	"errors"
	"testing"
	"unsafe"

	"cbridge/internal/cabi"
	"cbridge/internal/layout"
)

func surfaceWith(t *testing.T, structs ...cabi.Struct) *cabi.Surface {
	t.Helper()
	s := cabi.NewSurface("test")
	for _, st := range structs {
		if err := s.AddStruct(st); err != nil {
			t.Fatalf("AddStruct(%s): %v", st.Name, err)
		}
	}
	return s
}

func fields(pairs ...any) []cabi.Field {
	out := make([]cabi.Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, cabi.Field{Name: pairs[i].(string), Type: pairs[i+1].(cabi.Type)})
	}
	return out
}

func TestPairLayout(t *testing.T) {
	s := surfaceWith(t, cabi.Struct{Name: "Pair", Fields: fields("a", cabi.Uint(32), "b", cabi.Uint(32))})
	le := layout.New(layout.X86_64LinuxGNU(), s)
	l, err := le.StructLayout("Pair")
	if err != nil {
		t.Fatal(err)
	}
	if l.Size != 8 || l.Align != 4 {
		t.Fatalf("Pair size/align = %d/%d, want 8/4", l.Size, l.Align)
	}
	if l.FieldOffsets[0] != 0 || l.FieldOffsets[1] != 4 {
		t.Fatalf("Pair offsets = %v, want [0 4]", l.FieldOffsets)
	}
}

func TestPaddingAndTailRounding(t *testing.T) {
	s := surfaceWith(t, cabi.Struct{Name: "Mixed", Fields: fields(
		"flag", cabi.Bool,
		"count", cabi.Uint(64),
		"tag", cabi.Uint(16),
	)})
	cases := []struct {
		target  layout.Target
		size    int
		offsets []int
	}{
		{layout.X86_64LinuxGNU(), 24, []int{0, 8, 16}},
		{layout.I686LinuxGNU(), 16, []int{0, 4, 12}},
	}
	for _, tc := range cases {
		t.Run(tc.target.Triple, func(t *testing.T) {
			l, err := layout.New(tc.target, s).StructLayout("Mixed")
			if err != nil {
				t.Fatal(err)
			}
			if l.Size != tc.size {
				t.Fatalf("size = %d, want %d", l.Size, tc.size)
			}
			for i, off := range tc.offsets {
				if l.FieldOffsets[i] != off {
					t.Fatalf("offset[%d] = %d, want %d", i, l.FieldOffsets[i], off)
				}
			}
		})
	}
}

func TestNestedArraysAndPointers(t *testing.T) {
	s := surfaceWith(t,
		cabi.Struct{Name: "Pair", Fields: fields("a", cabi.Uint(32), "b", cabi.Uint(32))},
		cabi.Struct{Name: "Frame", Fields: fields(
			"id", cabi.Uint(8),
			"pairs", cabi.ArrayOf(cabi.StructRef("Pair"), 3),
			"next", cabi.PointerTo(cabi.StructRef("Frame")),
			"len", cabi.CNative("size_t"),
		)},
	)
	l, err := layout.New(layout.X86_64LinuxGNU(), s).StructLayout("Frame")
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 4, 32, 40}
	for i, off := range want {
		if l.FieldOffsets[i] != off {
			t.Fatalf("offset[%d] = %d, want %d (all %v)", i, l.FieldOffsets[i], off, l.FieldOffsets)
		}
	}
	if l.Size != 48 || l.Align != 8 {
		t.Fatalf("size/align = %d/%d, want 48/8", l.Size, l.Align)
	}
}

func TestRecursiveByValueReportsCycle(t *testing.T) {
	s := surfaceWith(t,
		cabi.Struct{Name: "A", Fields: fields("b", cabi.StructRef("B"))},
		cabi.Struct{Name: "B", Fields: fields("a", cabi.ArrayOf(cabi.StructRef("A"), 1))},
	)
	_, err := layout.New(layout.X86_64LinuxGNU(), s).StructLayout("A")
	var lerr *layout.LayoutError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected *layout.LayoutError, got %T (%v)", err, err)
	}
	if lerr.Kind != layout.LayoutErrRecursiveUnsized {
		t.Fatalf("kind = %d, want LayoutErrRecursiveUnsized", lerr.Kind)
	}
	if len(lerr.Cycle) != 3 || lerr.Cycle[0] != "A" || lerr.Cycle[2] != "A" {
		t.Fatalf("cycle = %v, want [A B A]", lerr.Cycle)
	}
}

func TestUnknownStructAndStructsKeepsGoing(t *testing.T) {
	s := surfaceWith(t,
		cabi.Struct{Name: "Broken", Fields: fields("x", cabi.StructRef("Missing"))},
		cabi.Struct{Name: "Fine", Fields: fields("x", cabi.Int(16))},
	)
	got, errs := layout.New(layout.AArch64LinuxGNU(), s).Structs()
	if len(errs) != 1 || errs[0].Kind != layout.LayoutErrUnknownStruct || errs[0].Name != "Missing" {
		t.Fatalf("errs = %v", errs)
	}
	if len(got) != 1 || got[0].Struct.Name != "Fine" || got[0].Layout.Size != 2 {
		t.Fatalf("layouts = %+v", got)
	}
}

type goPair struct {
	a uint32
	b uint32
}

type goMixed struct {
	flag  bool
	count uint64
	tag   uint16
	ptr   unsafe.Pointer
	ratio float64
}

// Go never reorders fields, so the host layout must agree with the engine.
func TestEngineMatchesGoLayoutOnHost(t *testing.T) {
	host, ok := layout.HostTarget()
	if !ok {
		t.Skip("no layout target for this architecture")
	}
	s := surfaceWith(t,
		cabi.Struct{Name: "Pair", Fields: fields("a", cabi.Uint(32), "b", cabi.Uint(32))},
		cabi.Struct{Name: "Mixed", Fields: fields(
			"flag", cabi.Bool,
			"count", cabi.Uint(64),
			"tag", cabi.Uint(16),
			"ptr", cabi.VoidPtr,
			"ratio", cabi.Float(64),
		)},
	)
	le := layout.New(host, s)

	var p goPair
	pl, err := le.StructLayout("Pair")
	if err != nil {
		t.Fatal(err)
	}
	if pl.Size != int(unsafe.Sizeof(p)) || pl.FieldOffsets[1] != int(unsafe.Offsetof(p.b)) {
		t.Fatalf("Pair layout %+v disagrees with Go", pl)
	}

	var m goMixed
	ml, err := le.StructLayout("Mixed")
	if err != nil {
		t.Fatal(err)
	}
	goOffsets := []uintptr{
		unsafe.Offsetof(m.flag),
		unsafe.Offsetof(m.count),
		unsafe.Offsetof(m.tag),
		unsafe.Offsetof(m.ptr),
		unsafe.Offsetof(m.ratio),
	}
	for i, off := range goOffsets {
		if ml.FieldOffsets[i] != int(off) {
			t.Fatalf("Mixed field %d: engine %d, Go %d", i, ml.FieldOffsets[i], off)
		}
	}
	if ml.Size != int(unsafe.Sizeof(m)) {
		t.Fatalf("Mixed size: engine %d, Go %d", ml.Size, unsafe.Sizeof(m))
	}
}

func TestParseTarget(t *testing.T) {
	tgt, err := layout.ParseTarget("i686-linux-gnu")
	if err != nil || tgt.PtrSize != 4 {
		t.Fatalf("ParseTarget = %+v, %v", tgt, err)
	}
	if _, err := layout.ParseTarget("sparc-sun-solaris"); err == nil {
		t.Fatal("unknown triple accepted")
	}
}
