package core

import (
	"time"

	"github.com/hupe1980/devcrew/logging"
)

// runLogger tags every record with the run id and, for nested agent-tool
// runs, the branch label. A nil logger discards everything.
type runLogger struct {
	logger logging.Logger
	runID  string
	branch string
}

func newRunLogger(l logging.Logger, runID, branch string) *runLogger {
	if l == nil {
		l = logging.NoOpLogger{}
	}
	return &runLogger{logger: l, runID: runID, branch: branch}
}

// Logger returns the untagged logger.
func (l *runLogger) Logger() logging.Logger { return l.logger }

func (l *runLogger) tag(args []any) []any {
	tagged := make([]any, 0, len(args)+4)
	tagged = append(tagged, "run_id", l.runID)
	if l.branch != "" {
		tagged = append(tagged, "branch", l.branch)
	}
	return append(tagged, args...)
}

// LogDebug logs at debug level.
func (l *runLogger) LogDebug(msg string, args ...any) { l.logger.Debug(msg, l.tag(args)...) }

// LogInfo logs at info level.
func (l *runLogger) LogInfo(msg string, args ...any) { l.logger.Info(msg, l.tag(args)...) }

// LogWarn logs at warn level.
func (l *runLogger) LogWarn(msg string, args ...any) { l.logger.Warn(msg, l.tag(args)...) }

// LogError logs at error level.
func (l *runLogger) LogError(msg string, args ...any) { l.logger.Error(msg, l.tag(args)...) }

// LogToolCall records a finished tool call.
func (l *runLogger) LogToolCall(tool string, dur time.Duration, err error, args ...any) {
	logging.LogToolCall(l.logger, tool, dur, err, l.tag(args)...)
}

// LogLLMCall records a finished model call.
func (l *runLogger) LogLLMCall(model string, tokens int, dur time.Duration, err error, args ...any) {
	logging.LogLLMCall(l.logger, model, tokens, dur, err, l.tag(args)...)
}
