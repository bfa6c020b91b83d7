package cabi

import (
	"fmt"
)

// Surface is the ordered set of declarations a library exposes to C.
type Surface struct {
	Package   string
	Structs   []Struct
	Functions []Function
	Order     []Decl

	byName map[string]int
}

func NewSurface(pkg string) *Surface {
	return &Surface{
		Package: pkg,
		byName:  make(map[string]int, 8),
	}
}

// AddStruct appends a layout. It fails if the name is already taken by a
// layout or a function.
func (s *Surface) AddStruct(st Struct) error {
	if err := s.claim(st.Name); err != nil {
		return err
	}
	s.byName[st.Name] = len(s.Structs)
	s.Structs = append(s.Structs, st)
	s.Order = append(s.Order, Decl{Kind: DeclStruct, Index: len(s.Structs) - 1})
	return nil
}

// AddFunction appends an exported function. Symbols are unique across
// the whole surface.
func (s *Surface) AddFunction(fn Function) error {
	if err := s.claim(fn.Symbol); err != nil {
		return err
	}
	if fn.Conv == 0 {
		fn.Conv = ConvC
	}
	s.Functions = append(s.Functions, fn)
	s.Order = append(s.Order, Decl{Kind: DeclFunction, Index: len(s.Functions) - 1})
	return nil
}

func (s *Surface) claim(name string) error {
	if s.byName == nil {
		s.byName = make(map[string]int, 8)
	}
	if _, ok := s.byName[name]; ok {
		return fmt.Errorf("symbol %q declared twice", name)
	}
	for i := range s.Functions {
		if s.Functions[i].Symbol == name {
			return fmt.Errorf("symbol %q declared twice", name)
		}
	}
	return nil
}

// Struct looks up a layout by name.
func (s *Surface) Struct(name string) (*Struct, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return &s.Structs[i], true
}

// Function looks up an exported function by symbol.
func (s *Surface) Function(symbol string) (*Function, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Functions {
		if s.Functions[i].Symbol == symbol {
			return &s.Functions[i], true
		}
	}
	return nil, false
}

// Empty reports whether nothing is exported.
func (s *Surface) Empty() bool {
	return s == nil || (len(s.Structs) == 0 && len(s.Functions) == 0)
}

// Merge appends other's declarations after s's, keeping both orders.
func (s *Surface) Merge(other *Surface) error {
	if other == nil {
		return nil
	}
	for _, d := range other.Order {
		var err error
		switch d.Kind {
		case DeclStruct:
			err = s.AddStruct(other.Structs[d.Index])
		case DeclFunction:
			err = s.AddFunction(other.Functions[d.Index])
		}
		if err != nil {
			return err
		}
	}
	return nil
}
