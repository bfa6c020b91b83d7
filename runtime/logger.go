package runtimehooks

import (
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

// EnvDebug set to a true value ("1", "true") logs hook activity to stderr.
const EnvDebug = "CBRIDGE_DEBUG"

var logger atomic.Pointer[zap.Logger]

func init() {
	logger.Store(zap.NewNop())
}

// Logger returns the package logger.
func Logger() *zap.Logger {
	return logger.Load()
}

// SetLogger replaces the package logger. A nil logger disables logging.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

func loggerFromEnv(lookup func(string) (string, bool)) {
	v, ok := lookup(EnvDebug)
	if !ok {
		return
	}
	on, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil || !on {
		return
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return
	}
	SetLogger(l.Named("cbridge"))
}
