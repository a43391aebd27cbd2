// Package monitoring holds the process-wide diagnostic logger.
package monitoring

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.Mutex
	base *zap.Logger = newDefaultLogger()
)

// Logf is the package-level diagnostic logger. It writes through zap at
// info level by default but may be replaced by SetLogger; tests use that
// to capture or mute output.
var Logf func(format string, v ...interface{}) = base.Sugar().Infof

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// UseZap routes Logf through l and keeps l for Sync and Named.
func UseZap(l *zap.Logger) {
	mu.Lock()
	base = l
	mu.Unlock()
	Logf = l.Sugar().Infof
}

// Named returns a child of the current zap logger, for components that
// want structured fields instead of printf formatting.
func Named(name string) *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return base.Named(name)
}

// Sync flushes buffered log entries.
func Sync() {
	mu.Lock()
	l := base
	mu.Unlock()
	_ = l.Sync()
}

// NewLogger builds a zap logger writing to stderr. level is one of debug,
// info, warn, error; format is "json" or "console".
func NewLogger(level, format string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch format {
	case "json", "":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("invalid log format %q (want json or console)", format)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(lvl))
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)), nil
}

func newDefaultLogger() *zap.Logger {
	l, err := NewLogger("info", "console")
	if err != nil {
		return zap.NewNop()
	}
	return l
}
