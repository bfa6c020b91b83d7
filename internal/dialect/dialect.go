package dialect

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"cbridge/internal/cabi"
)

// StructStyle selects how layouts are named in the header.
type StructStyle uint8

const (
	// StyleTypedef declares `typedef struct X X;` and spells the type `X`.
	StyleTypedef StructStyle = iota
	// StyleTag spells the type `struct X` and emits no typedefs.
	StyleTag
)

func (s StructStyle) String() string {
	switch s {
	case StyleTypedef:
		return "typedef"
	case StyleTag:
		return "tag"
	default:
		return "unknown"
	}
}

// ParseStyle converts a string to StructStyle.
func ParseStyle(s string) (StructStyle, error) {
	switch strings.ToLower(s) {
	case "", "typedef":
		return StyleTypedef, nil
	case "tag":
		return StyleTag, nil
	default:
		return StyleTypedef, fmt.Errorf("invalid struct style: %q (expected: typedef|tag)", s)
	}
}

// Options tune a dialect without changing its identity.
type Options struct {
	Style StructStyle
	// OmitParamNames drops parameter names from prototypes.
	OmitParamNames bool
}

// Dialect renders declarations for one header standard.
type Dialect interface {
	// Name is the registry key, e.g. "c99".
	Name() string

	// Includes returns the system headers needed by the given types, sorted.
	Includes(types []cabi.Type, withAsserts bool) []string

	// Spell returns the spelling of t used in expressions such as sizeof.
	Spell(t cabi.Type) (string, error)

	// Declare renders t declaring name; name may be empty for abstract declarators.
	Declare(t cabi.Type, name string) (string, error)

	ForwardDecl(st *cabi.Struct) string
	StructDecl(st *cabi.Struct) (string, error)
	Prototype(fn *cabi.Function) (string, error)

	// GuardMacro derives the include guard for a header file name.
	GuardMacro(headerName string) string

	// StaticAssert renders a compile-time check named name that cond holds.
	StaticAssert(name, cond string) string

	// Offsetof renders the byte offset expression of field in st.
	Offsetof(st *cabi.Struct, field string) (string, error)

	// Reserved reports whether ident cannot be used as a C identifier.
	Reserved(ident string) bool
}

// UnsupportedTypeError is returned when a dialect has no spelling for a type.
type UnsupportedTypeError struct {
	Dialect string
	Type    cabi.Type
	Reason  string
}

func (e *UnsupportedTypeError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s cannot render type %s", e.Dialect, e.Type)
	}
	return fmt.Sprintf("%s cannot render type %s: %s", e.Dialect, e.Type, e.Reason)
}

// Factory builds a dialect for the given options.
type Factory func(opts Options) Dialect

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds a dialect factory. Registering a name twice is an error.
func Register(name string, f Factory) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[name]; ok {
		return fmt.Errorf("dialect %q already registered", name)
	}
	registry[name] = f
	return nil
}

// Lookup builds the dialect registered under name.
func Lookup(name string, opts Options) (Dialect, error) {
	registryMu.RLock()
	f, ok := registry[strings.ToLower(name)]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return f(opts), nil
}

// Names lists registered dialects in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	if err := Register(C99Name, NewC99); err != nil {
		panic(err)
	}
}
