package runtimehooks

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Kind names one required hook.
type Kind uint8

const (
	KindTerminate Kind = iota
	KindUnwind
)

var allKinds = []Kind{KindTerminate, KindUnwind}

func (k Kind) String() string {
	switch k {
	case KindTerminate:
		return "terminate"
	case KindUnwind:
		return "unwind"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Info describes a violated invariant.
type Info struct {
	Message string
	File    string
	Line    int
}

func (i Info) String() string {
	if i.File == "" {
		return i.Message
	}
	return fmt.Sprintf("%s:%d: %s", i.File, i.Line, i.Message)
}

// Handler is a hook implementation. Terminate handlers must not return.
type Handler func(Info)

var (
	ErrDuplicateHook = errors.New("hook already registered")
	ErrMissingHook   = errors.New("required hook missing")
	ErrNilHook       = errors.New("nil hook")
)

// Registry holds at most one handler per Kind.
type Registry struct {
	mu    sync.RWMutex
	hooks map[Kind]Handler
}

func NewRegistry() *Registry {
	return &Registry{hooks: make(map[Kind]Handler, len(allKinds))}
}

func (r *Registry) Register(k Kind, h Handler) error {
	if h == nil {
		return fmt.Errorf("%s: %w", k, ErrNilHook)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.hooks[k]; exists {
		return fmt.Errorf("%s: %w", k, ErrDuplicateHook)
	}
	r.hooks[k] = h
	Logger().Debug("hook registered", zap.Stringer("kind", k))
	return nil
}

func (r *Registry) MustRegister(k Kind, h Handler) {
	if err := r.Register(k, h); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(k Kind) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hooks[k]
	return h, ok
}

// Verify fails when any required hook is missing.
func (r *Registry) Verify() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var missing []string
	for _, k := range allKinds {
		if _, ok := r.hooks[k]; !ok {
			missing = append(missing, k.String())
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s", ErrMissingHook, strings.Join(missing, ", "))
}

// Guard must be deferred directly by the function it protects.
func (r *Registry) Guard() {
	if v := recover(); v != nil {
		r.Handle(infoFromPanic(v))
	}
}

// Handle runs the unwind stub and then the termination handler. When no
// termination handler is installed, or it returns, the thread is parked.
func (r *Registry) Handle(info Info) {
	Logger().Debug("invariant violated",
		zap.String("message", info.Message),
		zap.String("file", info.File),
		zap.Int("line", info.Line))
	if unwind, ok := r.Lookup(KindUnwind); ok {
		unwind(info)
	}
	if terminate, ok := r.Lookup(KindTerminate); ok {
		terminate(info)
	}
	HaltLoop(info)
}

// Default is the registry the exported library installs into.
var Default = NewRegistry()

func Register(k Kind, h Handler) error { return Default.Register(k, h) }

func MustRegister(k Kind, h Handler) { Default.MustRegister(k, h) }

func Verify() error { return Default.Verify() }

// Guard protects an exported function using the Default registry. It must
// be deferred directly.
func Guard() {
	if v := recover(); v != nil {
		Default.Handle(infoFromPanic(v))
	}
}
