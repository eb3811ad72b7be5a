package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

// LogLevel decouples level configuration from slog.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var slogLevels = map[LogLevel]slog.Level{
	LogLevelDebug: slog.LevelDebug,
	LogLevelInfo:  slog.LevelInfo,
	LogLevelWarn:  slog.LevelWarn,
	LogLevelError: slog.LevelError,
}

// ParseLevel maps a configuration string to a LogLevel. Unknown values fall
// back to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger is the logging interface consumed across the module. Arguments
// after msg are slog style key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NewSlogAdapter exposes a *slog.Logger as a Logger.
func NewSlogAdapter(logger *slog.Logger) Logger { return logger }

// NoOpLogger discards everything.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any)  {}
func (NoOpLogger) Warn(string, ...any)  {}
func (NoOpLogger) Error(string, ...any) {}

// LoggerConfig configures NewLogger.
type LoggerConfig struct {
	Level LogLevel
	// Format is "json" (default) or "text".
	Format      string
	Output      io.Writer
	AddSource   bool
	Component   string
	CustomAttrs map[string]any
}

// DefaultLoggerConfig returns JSON output at info level on stdout.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stdout, AddSource: true}
}

// StructuredLogger is a slog logger scoped to a component and, optionally,
// a project run. The With* methods return scoped copies and never mutate
// the receiver.
type StructuredLogger struct {
	sl        *slog.Logger
	component string
	projectID string
	runID     string
}

// NewLogger builds a StructuredLogger. A nil cfg means DefaultLoggerConfig.
func NewLogger(cfg *LoggerConfig) *StructuredLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	hopts := &slog.HandlerOptions{Level: slogLevels[cfg.Level], AddSource: cfg.AddSource}
	var h slog.Handler = slog.NewJSONHandler(out, hopts)
	if cfg.Format == "text" {
		h = slog.NewTextHandler(out, hopts)
	}

	sl := slog.New(h)
	for k, v := range cfg.CustomAttrs {
		sl = sl.With(k, v)
	}
	return &StructuredLogger{sl: sl, component: cfg.Component}
}

// NewSlogLogger is shorthand for NewLogger with stdout output.
func NewSlogLogger(level LogLevel, format string, addSource bool) *StructuredLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	cfg.AddSource = addSource
	if format != "" {
		cfg.Format = format
	}
	return NewLogger(cfg)
}

// WithContext attaches key=value to every later entry.
func (l *StructuredLogger) WithContext(key string, value any) *StructuredLogger {
	nl := *l
	nl.sl = l.sl.With(key, value)
	return &nl
}

// WithComponent replaces the component name.
func (l *StructuredLogger) WithComponent(c string) *StructuredLogger {
	nl := *l
	nl.component = c
	return &nl
}

// WithRun scopes entries to a project and run.
func (l *StructuredLogger) WithRun(projectID, runID string) *StructuredLogger {
	nl := *l
	nl.projectID, nl.runID = projectID, runID
	return &nl
}

func (l *StructuredLogger) emit(level slog.Level, msg string, attrs ...slog.Attr) {
	ctx := context.Background()
	if !l.sl.Enabled(ctx, level) {
		return
	}
	scope := make([]slog.Attr, 0, 3+len(attrs))
	for _, kv := range [...][2]string{{"component", l.component}, {"project_id", l.projectID}, {"run_id", l.runID}} {
		if kv[1] != "" {
			scope = append(scope, slog.String(kv[0], kv[1]))
		}
	}
	l.sl.LogAttrs(ctx, level, msg, append(scope, attrs...)...)
}

func (l *StructuredLogger) emitArgs(level slog.Level, msg string, args []any) {
	var r slog.Record
	r.Add(args...)
	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	l.emit(level, msg, attrs...)
}

func (l *StructuredLogger) Debug(msg string, args ...any) { l.emitArgs(slog.LevelDebug, msg, args) }
func (l *StructuredLogger) Info(msg string, args ...any)  { l.emitArgs(slog.LevelInfo, msg, args) }
func (l *StructuredLogger) Warn(msg string, args ...any)  { l.emitArgs(slog.LevelWarn, msg, args) }
func (l *StructuredLogger) Error(msg string, args ...any) { l.emitArgs(slog.LevelError, msg, args) }

// ErrorWithStack logs err together with the calling goroutine's stack.
func (l *StructuredLogger) ErrorWithStack(err error, msg string) {
	buf := make([]byte, 4096)
	buf = buf[:runtime.Stack(buf, false)]
	l.emit(slog.LevelError, msg,
		slog.String("error", err.Error()),
		slog.String("error_type", fmt.Sprintf("%T", err)),
		slog.String("stack_trace", string(buf)),
	)
}

// outcome logs a completed or failed operation, at error level on failure.
func (l *StructuredLogger) outcome(what string, success bool, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.Bool("success", success))
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	if success {
		l.emit(slog.LevelInfo, what+" completed", attrs...)
		return
	}
	l.emit(slog.LevelError, what+" failed", attrs...)
}

// LogToolCall records one tool invocation.
func (l *StructuredLogger) LogToolCall(tool string, dur time.Duration, success bool, err error) {
	l.outcome("Tool execution", success, err, slog.String("tool_name", tool), slog.Duration("duration", dur))
}

// LogLLMCall records one model call with its token usage.
func (l *StructuredLogger) LogLLMCall(model string, tokens int, dur time.Duration, success bool, err error) {
	l.outcome("LLM call", success, err,
		slog.String("model", model),
		slog.Int("token_count", tokens),
		slog.Duration("duration", dur),
	)
}

// LogRouting records a model routing decision.
func (l *StructuredLogger) LogRouting(agentType, tier, complexity, model, class string) {
	l.emit(slog.LevelInfo, "Model routed",
		slog.String("agent_type", agentType),
		slog.String("user_tier", tier),
		slog.String("task_complexity", complexity),
		slog.String("selected_model", model),
		slog.String("model_class", class),
	)
}

// StartTimer returns a func that logs the time elapsed since StartTimer.
func (l *StructuredLogger) StartTimer(op string) func() {
	start := time.Now()
	return func() { l.Info("Operation completed", "operation", op, "duration", time.Since(start)) }
}
