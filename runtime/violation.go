package runtimehooks

import (
	"fmt"
	"runtime"
	"strings"
)

// Violation is the panic value raised by Violate.
type Violation struct {
	Info Info
}

func (v *Violation) Error() string { return v.Info.String() }

// Violate reports a broken invariant at the caller's location.
func Violate(format string, args ...any) {
	info := Info{Message: fmt.Sprintf(format, args...)}
	if _, file, line, ok := runtime.Caller(1); ok {
		info.File, info.Line = file, line
	}
	panic(&Violation{Info: info})
}

func infoFromPanic(v any) Info {
	if vi, ok := v.(*Violation); ok {
		return vi.Info
	}
	info := Info{Message: fmt.Sprint(v)}
	if err, ok := v.(error); ok {
		info.Message = err.Error()
	}
	info.File, info.Line = panicSite()
	return info
}

// panicSite finds the first non-runtime frame below runtime.gopanic. It
// must be called from the deferred function that recovered.
func panicSite() (string, int) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	seenPanic := false
	for {
		fr, more := frames.Next()
		if fr.Function == "runtime.gopanic" {
			seenPanic = true
		} else if seenPanic && !strings.HasPrefix(fr.Function, "runtime.") {
			return fr.File, fr.Line
		}
		if !more {
			return "", 0
		}
	}
}
