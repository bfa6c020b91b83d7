package layout

import (
	"fmt"
	"runtime"
	"sort"
)

// Target describes the C ABI of a target triple as far as struct layout
// is concerned.
type Target struct {
	Triple       string // e.g. "x86_64-linux-gnu"
	PtrSize      int    // bytes
	PtrAlign     int    // bytes
	LongSize     int    // bytes; 8 on LP64, 4 on ILP32
	Int64Align   int    // alignment of 64-bit integers inside structs
	Float64Align int    // alignment of double inside structs
}

func X86_64LinuxGNU() Target {
	return Target{
		Triple:       "x86_64-linux-gnu",
		PtrSize:      8,
		PtrAlign:     8,
		LongSize:     8,
		Int64Align:   8,
		Float64Align: 8,
	}
}

func AArch64LinuxGNU() Target {
	return Target{
		Triple:       "aarch64-linux-gnu",
		PtrSize:      8,
		PtrAlign:     8,
		LongSize:     8,
		Int64Align:   8,
		Float64Align: 8,
	}
}

// I686LinuxGNU is the i386 System V ABI, where 8-byte scalars are only
// 4-byte aligned inside structs.
func I686LinuxGNU() Target {
	return Target{
		Triple:       "i686-linux-gnu",
		PtrSize:      4,
		PtrAlign:     4,
		LongSize:     4,
		Int64Align:   4,
		Float64Align: 4,
	}
}

var targets = map[string]func() Target{
	"x86_64-linux-gnu":  X86_64LinuxGNU,
	"aarch64-linux-gnu": AArch64LinuxGNU,
	"i686-linux-gnu":    I686LinuxGNU,
}

// ParseTarget resolves a triple name.
func ParseTarget(triple string) (Target, error) {
	mk, ok := targets[triple]
	if !ok {
		return Target{}, fmt.Errorf("unknown target %q (supported: %v)", triple, TargetNames())
	}
	return mk(), nil
}

// TargetNames lists the supported triples in sorted order.
func TargetNames() []string {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HostTarget returns the target matching the running Go architecture.
func HostTarget() (Target, bool) {
	switch runtime.GOARCH {
	case "amd64":
		return X86_64LinuxGNU(), true
	case "arm64":
		return AArch64LinuxGNU(), true
	case "386":
		return I686LinuxGNU(), true
	}
	return Target{}, false
}
