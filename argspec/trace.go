package argspec

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// TraceLevel controls how much the parser reports about its decisions
type TraceLevel int

const (
	TraceOff TraceLevel = iota
	TraceWarn
	TraceInfo
	TraceDebug
)

func (l TraceLevel) String() string {
	switch l {
	case TraceOff:
		return "off"
	case TraceWarn:
		return "warn"
	case TraceInfo:
		return "info"
	case TraceDebug:
		return "debug"
	default:
		return fmt.Sprintf("TraceLevel(%d)", int(l))
	}
}

// ParseTraceLevel accepts off, warn, info and debug in any case
func ParseTraceLevel(s string) (TraceLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none", "":
		return TraceOff, nil
	case "warn", "warning":
		return TraceWarn, nil
	case "info":
		return TraceInfo, nil
	case "debug", "trace":
		return TraceDebug, nil
	}
	return TraceOff, fmt.Errorf("unknown trace level %q", s)
}

func (l TraceLevel) hclogLevel() hclog.Level {
	switch l {
	case TraceWarn:
		return hclog.Warn
	case TraceInfo:
		return hclog.Info
	case TraceDebug:
		return hclog.Debug
	default:
		return hclog.Off
	}
}

// Tracer is the diagnostics sink shared by a command tree
type Tracer struct {
	mu     sync.Mutex
	level  TraceLevel
	logger hclog.Logger
}

// NewTracer returns a tracer writing to w at the given level
func NewTracer(level TraceLevel, w io.Writer) *Tracer {
	if w == nil {
		w = os.Stderr
	}
	return &Tracer{
		level: level,
		logger: hclog.New(&hclog.LoggerOptions{
			Name:        "argspec",
			Level:       level.hclogLevel(),
			Output:      w,
			DisableTime: true,
		}),
	}
}

// NewTracerFromLogger wraps an existing hclog logger
func NewTracerFromLogger(level TraceLevel, logger hclog.Logger) *Tracer {
	logger.SetLevel(level.hclogLevel())
	return &Tracer{level: level, logger: logger}
}

// Level returns the current level
func (t *Tracer) Level() TraceLevel {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.level
}

// SetLevel changes the level for every command sharing this tracer
func (t *Tracer) SetLevel(level TraceLevel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.level = level
	t.logger.SetLevel(level.hclogLevel())
}

// WithLevel runs fn with the level temporarily set to level. The previous
// level is restored on every exit path, including panics
func (t *Tracer) WithLevel(level TraceLevel, fn func() error) error {
	prev := t.Level()
	t.SetLevel(level)
	defer t.SetLevel(prev)
	return fn()
}

// Logger exposes the underlying hclog logger
func (t *Tracer) Logger() hclog.Logger { return t.logger }

// Warn logs a formatted message at WARN level, used for structural warnings
func (t *Tracer) Warn(format string, args ...any) {
	if t.Level() >= TraceWarn {
		t.logger.Warn(fmt.Sprintf(format, args...))
	}
}

// Info logs a formatted message at INFO level, used for lifecycle events such as dispatch and defaults
func (t *Tracer) Info(format string, args ...any) {
	if t.Level() >= TraceInfo {
		t.logger.Info(fmt.Sprintf(format, args...))
	}
}

// Debug logs a formatted message at DEBUG level, used for per-token parsing decisions
func (t *Tracer) Debug(format string, args ...any) {
	if t.Level() >= TraceDebug {
		t.logger.Debug(fmt.Sprintf(format, args...))
	}
}

// IsDebug reports whether debug messages are emitted
func (t *Tracer) IsDebug() bool { return t.Level() >= TraceDebug }
