// Package logging provides a tiny abstraction over slog so runtime code can
// depend on a minimal interface (Logger) while allowing callers to plug any
// structured logger. CrewLogger adds component scoping plus helpers for the
// recurring tool, model and run records.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Level is a thin enum for user friendly level configuration decoupled from slog.
type Level int

const (
	// LevelDebug is the debug logging level.
	LevelDebug Level = iota
	// LevelInfo is the informational logging level.
	LevelInfo
	// LevelWarn is the warning logging level.
	LevelWarn
	// LevelError is the error logging level.
	LevelError
)

// ParseLevel maps a case-insensitive level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func (l Level) slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger defines the minimal logging interface used across devcrew.
// Arguments are slog style key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config configures construction of a CrewLogger.
type Config struct {
	Level     Level
	Format    string // json or text
	Output    io.Writer
	Component string
}

// CrewLogger wraps slog.Logger adding component scoping and domain helpers.
// WithComponent returns a cheap scoped copy.
type CrewLogger struct {
	logger    *slog.Logger
	component string
}

// New builds a CrewLogger from cfg. A nil cfg logs text at info level to stderr.
func New(cfg *Config) *CrewLogger {
	if cfg == nil {
		cfg = &Config{Level: LevelInfo, Format: "text"}
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: cfg.Level.slog()}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return &CrewLogger{logger: slog.New(handler), component: cfg.Component}
}

// WithComponent returns a copy tagging every record with the given component.
func (l *CrewLogger) WithComponent(c string) *CrewLogger {
	return &CrewLogger{logger: l.logger, component: c}
}

func (l *CrewLogger) log(level slog.Level, msg string, args ...any) {
	if l.component != "" {
		args = append([]any{"component", l.component}, args...)
	}
	l.logger.Log(context.Background(), level, msg, args...)
}

// Debug logs at debug level.
func (l *CrewLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }

// Info logs at info level.
func (l *CrewLogger) Info(msg string, args ...any) { l.log(slog.LevelInfo, msg, args...) }

// Warn logs at warn level.
func (l *CrewLogger) Warn(msg string, args ...any) { l.log(slog.LevelWarn, msg, args...) }

// Error logs at error level.
func (l *CrewLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

// LogToolCall records execution details for a tool invocation.
func (l *CrewLogger) LogToolCall(tool string, dur time.Duration, err error, args ...any) {
	toolCall(l, tool, dur, err, args)
}

// LogLLMCall records model call latency and token usage.
func (l *CrewLogger) LogLLMCall(model string, tokens int, dur time.Duration, err error, args ...any) {
	llmCall(l, model, tokens, dur, err, args)
}

// LogRun records aggregate metrics of a finished run.
func (l *CrewLogger) LogRun(runID, agent string, modelCalls int, dur time.Duration, err error) {
	runSummary(l, runID, agent, modelCalls, dur, err)
}

// CallLogger is implemented by loggers that format tool and model call
// records themselves. CrewLogger is one.
type CallLogger interface {
	LogToolCall(tool string, dur time.Duration, err error, args ...any)
	LogLLMCall(model string, tokens int, dur time.Duration, err error, args ...any)
}

// RunLogger is implemented by loggers that format run summaries themselves.
type RunLogger interface {
	LogRun(runID, agent string, modelCalls int, dur time.Duration, err error)
}

// LogToolCall records a tool call on l, through its own LogToolCall when it
// implements CallLogger. Extra args are appended as attributes.
func LogToolCall(l Logger, tool string, dur time.Duration, err error, args ...any) {
	if cl, ok := l.(CallLogger); ok {
		cl.LogToolCall(tool, dur, err, args...)
		return
	}
	toolCall(l, tool, dur, err, args)
}

// LogLLMCall records a model call on l, through its own LogLLMCall when it
// implements CallLogger.
func LogLLMCall(l Logger, model string, tokens int, dur time.Duration, err error, args ...any) {
	if cl, ok := l.(CallLogger); ok {
		cl.LogLLMCall(model, tokens, dur, err, args...)
		return
	}
	llmCall(l, model, tokens, dur, err, args)
}

// LogRun records a run summary on l, through its own LogRun when it
// implements RunLogger.
func LogRun(l Logger, runID, agent string, modelCalls int, dur time.Duration, err error) {
	if rl, ok := l.(RunLogger); ok {
		rl.LogRun(runID, agent, modelCalls, dur, err)
		return
	}
	runSummary(l, runID, agent, modelCalls, dur, err)
}

func toolCall(l Logger, tool string, dur time.Duration, err error, extra []any) {
	args := append([]any{"tool_name", tool, "duration", dur}, extra...)
	if err != nil {
		l.Error("tool.call.failed", append(args, "error", err.Error())...)
		return
	}
	l.Info("tool.call.completed", args...)
}

func llmCall(l Logger, model string, tokens int, dur time.Duration, err error, extra []any) {
	args := append([]any{"model", model, "duration", dur}, extra...)
	if err != nil {
		l.Error("llm.call.failed", append(args, "error", err.Error())...)
		return
	}
	l.Info("llm.call.completed", append(args, "token_count", tokens)...)
}

func runSummary(l Logger, runID, agent string, modelCalls int, dur time.Duration, err error) {
	args := []any{"run_id", runID, "agent", agent, "model_calls", modelCalls, "duration", dur}
	if err != nil {
		l.Error("run.failed", append(args, "error", err.Error())...)
		return
	}
	l.Info("run.completed", args...)
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}
