// Package log provides structured logging for the analyzer using zap.
package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fatalsec/dalivm/internal/trace"
)

// Logger wraps zap.Logger with analyzer-specific helpers.
type Logger struct {
	*zap.Logger
	onEvent func(e *trace.Event) // trace callback for collected events
}

var (
	// L is the global logger instance.
	L    *Logger
	once sync.Once
)

// Init initializes the global logger with the given configuration.
// Safe to call multiple times; only the first call takes effect.
func Init(debug bool) {
	once.Do(func() {
		L = New(debug)
	})
}

// New creates a new Logger instance.
func New(debug bool) *Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}

	// ISO8601 timestamps under "ts", in both modes
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Fallback to no-op if config fails
		logger = zap.NewNop()
	}

	return &Logger{Logger: logger}
}

// NewNop creates a no-op logger for testing.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// SetOnEvent sets the trace callback invoked whenever the driver records an
// analysis event (an invoke dispatch decision, a <clinit> run, a slice-size
// stat, a mock/hook hit).
func (l *Logger) SetOnEvent(fn func(e *trace.Event)) {
	l.onEvent = fn
}

func (l *Logger) emit(e *trace.Event) {
	trace.DefaultEnricher(e)
	if l.onEvent != nil {
		l.onEvent(e)
	}
}

// Invoke logs one invoke-family dispatch decision: whether the call
// resolved to a user hook, a framework mock, built-in emulation, bytecode,
// or fell through to a null result.
func (l *Logger) Invoke(pc int, ref string, resolved bool, source string) {
	e := trace.NewEvent(pc, trace.Invoke, ref, source)
	e.Annotate("resolved", boolString(resolved))
	l.emit(e)
	l.Debug("invoke",
		zap.Int("pc", pc),
		zap.String("ref", ref),
		zap.Bool("resolved", resolved),
		zap.String("source", source),
	)
}

// ClinitRun logs a class's <clinit> being run (or found absent).
func (l *Logger) ClinitRun(class string, ranBytecode bool) {
	e := trace.NewEvent(0, trace.Clinit, class, "")
	e.Annotate("ran", boolString(ranBytecode))
	l.emit(e)
	l.Debug("clinit", zap.String("class", class), zap.Bool("ran", ranBytecode))
}

// MockHit logs a framework/user-hook dispatch that produced a value:
// source is "hook-js", "framework", or "builtin".
func (l *Logger) MockHit(class, method, source string) {
	e := trace.NewEvent(0, trace.Mock, class+"->"+method, source)
	e.Annotate("source", source)
	l.emit(e)
	l.Debug("mock-hit", zap.String("class", class), zap.String("method", method), zap.String("source", source))
}

// SliceStat logs the size of the backward-dependency slice computed for one
// call site, useful for judging whether a target's argument resolution
// walked most of the caller or stayed small.
func (l *Logger) SliceStat(caller string, pc, size int) {
	e := trace.NewEvent(pc, trace.Slice, caller, "")
	e.Annotate("size", itoa(size))
	l.emit(e)
	l.Debug("slice", zap.String("caller", caller), zap.Int("pc", pc), zap.Int("size", size))
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Hex formats a uint64 as a hex string for logging (PCs, offsets).
func Hex(v uint64) string {
	return "0x" + hexString(v)
}

func hexString(v uint64) string {
	const digits = "0123456789abcdef"
	if v == 0 {
		return "0"
	}
	buf := make([]byte, 16)
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	return string(buf[i:])
}

// PC creates a program-counter field, rendered in hex for readability
// against a disassembly listing.
func PC(pc int) zap.Field {
	return zap.String("pc", Hex(uint64(pc)))
}

// Fn creates a method/field reference name field.
func Fn(name string) zap.Field {
	return zap.String("fn", name)
}
