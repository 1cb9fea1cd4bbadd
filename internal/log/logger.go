// Package log provides structured logging for palmrunner using zap.
package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with palmrunner-specific helpers for the core's
// own activity: class registration, trampoline installation, device-stub
// dispatch, and trace-event collection.
type Logger struct {
	*zap.Logger
	onTrace func(pc uint64, category, name, detail string)
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

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		logger = zap.NewNop()
	}

	return &Logger{Logger: logger}
}

// NewNop creates a no-op logger for testing.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// SetOnTrace sets the trace callback driven by every Native/Trace call,
// letting a cmd/palmrunner front end collect trace.Events without this
// package depending on internal/trace.
func (l *Logger) SetOnTrace(fn func(pc uint64, category, name, detail string)) {
	l.onTrace = fn
}

// Trace logs a core activity event and calls the trace callback if set.
func (l *Logger) Trace(pc uint64, category, name, detail string) {
	if l.onTrace != nil {
		l.onTrace(pc, category, name, detail)
	}
	l.Debug("trace",
		zap.String("cat", category),
		zap.String("fn", name),
		zap.String("detail", detail),
		zap.Uint64("pc", pc),
	)
}

// Native logs a dispatched device-library stub call (libc/pthread/cxxabi
// category, symbol name, free-form detail), the ARM-side counterpart of
// ClassRegister for JVM-side calls.
func (l *Logger) Native(category, name, detail string) {
	l.Trace(0, category, name, detail)
}

// ClassRegister logs when a class proto is registered with the JVM
// Bridge's Registry.
func (l *Logger) ClassRegister(tier, name string) {
	l.Debug("class registered",
		zap.String("tier", tier),
		zap.String("class", name),
	)
}

// TrampolineInstall logs when a stub's trampoline is installed in the ARM
// Core's Registered Function Table.
func (l *Logger) TrampolineInstall(category, name string, addr uint32) {
	l.Debug("trampoline installed",
		zap.String("cat", category),
		zap.String("fn", name),
		Addr(uint64(addr)),
	)
}

// DetectorActivate logs when a stub detector group is activated.
func (l *Logger) DetectorActivate(name, description string) {
	l.Info("detector activated",
		zap.String("name", name),
		zap.String("desc", description),
	)
}

// WithCategory returns a logger with the category field preset.
func (l *Logger) WithCategory(category string) *Logger {
	return &Logger{
		Logger:  l.Logger.With(zap.String("cat", category)),
		onTrace: l.onTrace,
	}
}

// Hex formats a uint64 as hex string for logging.
func Hex(addr uint64) string {
	return "0x" + hexString(addr)
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

// Addr creates an address field.
func Addr(addr uint64) zap.Field {
	return zap.String("addr", Hex(addr))
}

// Size creates a size field.
func Size(size uint64) zap.Field {
	return zap.Uint64("size", size)
}

// Ptr creates a pointer field.
func Ptr(name string, ptr uint64) zap.Field {
	return zap.String(name, Hex(ptr))
}

// Fn creates a function name field.
func Fn(name string) zap.Field {
	return zap.String("fn", name)
}
