package layout

import (
	"fmt"
	"strings"
)

// LayoutErrorKind enumerates types of layout calculation errors.
type LayoutErrorKind uint8

const (
	// LayoutErrRecursiveUnsized indicates a struct that contains itself by value.
	LayoutErrRecursiveUnsized LayoutErrorKind = iota + 1
	LayoutErrUnknownStruct
	LayoutErrUnknownCNative
	LayoutErrLengthConversion
)

// LayoutError represents an error during memory layout calculation.
type LayoutError struct {
	Kind   LayoutErrorKind
	Struct string   // layout being computed
	Cycle  []string // for LayoutErrRecursiveUnsized
	Name   string   // unknown struct or C type name
	Err    error    // for LayoutErrLengthConversion
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrRecursiveUnsized:
		if len(e.Cycle) == 0 {
			return fmt.Sprintf("struct %s contains itself by value and has infinite size", e.Struct)
		}
		return fmt.Sprintf("struct %s has infinite size (cycle: %s)", e.Struct, strings.Join(e.Cycle, " -> "))
	case LayoutErrUnknownStruct:
		return fmt.Sprintf("struct %s refers to unknown struct %s", e.Struct, e.Name)
	case LayoutErrUnknownCNative:
		return fmt.Sprintf("struct %s uses C type %s with unknown size", e.Struct, e.Name)
	case LayoutErrLengthConversion:
		if e.Err != nil {
			return fmt.Sprintf("array length conversion error in %s: %v", e.Struct, e.Err)
		}
		return fmt.Sprintf("array length conversion error in %s", e.Struct)
	default:
		return fmt.Sprintf("layout error kind=%d struct %s", e.Kind, e.Struct)
	}
}
