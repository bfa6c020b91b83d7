package runtimehooks

import (
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"strings"
	"time"
)

// EnvHalt selects the termination policy at library load.
const EnvHalt = "CBRIDGE_HALT"

// AbortStatus matches the exit status of a SIGABRT-terminated process.
const AbortStatus = 134

var (
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

func report(info Info) {
	fmt.Fprintf(stderr, "cbridge: fatal: %s\n", info)
}

// HaltLoop reports the violation and parks the calling thread forever.
func HaltLoop(info Info) {
	report(info)
	runtime.LockOSThread()
	for {
		time.Sleep(math.MaxInt64)
	}
}

// HaltAbort reports the violation and exits with AbortStatus.
func HaltAbort(info Info) {
	report(info)
	exit(AbortStatus)
}

// NoopUnwind is the unwinding stub. The library aborts instead of unwinding.
func NoopUnwind(Info) {}

// Policy returns the terminate handler named by value: "" or "loop" for
// HaltLoop, "abort" for HaltAbort.
func Policy(value string) (Handler, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "loop":
		return HaltLoop, nil
	case "abort":
		return HaltAbort, nil
	default:
		return nil, fmt.Errorf("%s=%q: expected loop or abort", EnvHalt, value)
	}
}

// InstallDefaults registers the terminate policy from lookup(EnvHalt) and
// the no-op unwind stub, then verifies r. lookup(EnvDebug) enables the
// package logger.
func InstallDefaults(r *Registry, lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	loggerFromEnv(lookup)
	value, _ := lookup(EnvHalt)
	terminate, err := Policy(value)
	if err != nil {
		return err
	}
	if err := r.Register(KindTerminate, terminate); err != nil {
		return err
	}
	if err := r.Register(KindUnwind, NoopUnwind); err != nil {
		return err
	}
	return r.Verify()
}
