package layout

import (
	"cbridge/internal/cabi"
)

// TypeLayout is the C layout of a type for a specific Target.
type TypeLayout struct {
	Size  int
	Align int

	// Struct-only:
	FieldOffsets []int
	FieldAligns  []int
	FieldSizes   []int
}

// NamedLayout pairs an exported layout with its computed TypeLayout.
type NamedLayout struct {
	Struct *cabi.Struct
	Layout TypeLayout
}

// LayoutEngine computes memory layout for exported types.
type LayoutEngine struct {
	Target  Target
	Surface *cabi.Surface

	cache *cache
}

// New creates a new LayoutEngine for the specified target.
func New(target Target, surface *cabi.Surface) *LayoutEngine {
	return &LayoutEngine{
		Target:  target,
		Surface: surface,
		cache:   newCache(),
	}
}

type layoutState struct {
	stack []string
	index map[string]int
}

func newLayoutState() *layoutState {
	return &layoutState{
		stack: nil,
		index: make(map[string]int, 8),
	}
}

// LayoutOf computes the layout of a type. Struct layouts are cached.
func (e *LayoutEngine) LayoutOf(t cabi.Type) (TypeLayout, error) {
	if e == nil {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	if e.cache == nil {
		e.cache = newCache()
	}
	l, err := e.layoutOf(t, "", newLayoutState())
	if err != nil {
		return l, err
	}
	return l, nil
}

// StructLayout computes the layout of the exported layout called name.
func (e *LayoutEngine) StructLayout(name string) (TypeLayout, error) {
	return e.LayoutOf(cabi.StructRef(name))
}

// Structs computes every exported layout in declaration order. It keeps
// going after a failure so all broken layouts are reported at once.
func (e *LayoutEngine) Structs() ([]NamedLayout, []*LayoutError) {
	if e == nil || e.Surface == nil {
		return nil, nil
	}
	out := make([]NamedLayout, 0, len(e.Surface.Structs))
	var errs []*LayoutError
	for i := range e.Surface.Structs {
		st := &e.Surface.Structs[i]
		l, err := e.structLayout(st.Name, newLayoutState())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, NamedLayout{Struct: st, Layout: l})
	}
	return out, errs
}


