// Package assistant is the boundary between front ends and the agent
// runtime. It turns a raw question into exactly one Reply and never lets a
// runtime failure escape.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/devcrew/core"
	"github.com/hupe1980/devcrew/logging"
)

// WarningEmptyInput is shown when no question was entered.
const WarningEmptyInput = "Please enter a question first."

// ReplyKind classifies a Reply.
type ReplyKind string

const (
	// ReplySuccess carries the final output of a run.
	ReplySuccess ReplyKind = "success"
	// ReplyWarning is returned for empty input; no run was started.
	ReplyWarning ReplyKind = "warning"
	// ReplyError carries the message of a failed run.
	ReplyError ReplyKind = "error"
)

// Reply is what a front end renders for one question.
type Reply struct {
	Kind    ReplyKind `json:"status"`
	Output  string    `json:"output,omitempty"`
	Message string    `json:"message,omitempty"`
	Agent   string    `json:"agent,omitempty"`
	RunID   string    `json:"run_id,omitempty"`
}

// Runner is the part of runner.Runner the assistant depends on.
type Runner interface {
	RunSync(ctx context.Context, input string) (*core.RunResult, error)
}

// Options configures an Assistant.
type Options struct {
	Logger logging.Logger
}

// Assistant answers questions through a Runner.
type Assistant struct {
	runner Runner
	logger logging.Logger
}

// New creates an Assistant.
func New(runner Runner, optFns ...func(o *Options)) *Assistant {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Assistant{runner: runner, logger: opts.Logger}
}

// Ask runs input and classifies the outcome. Whitespace-only input yields a
// warning without calling the runner.
func (a *Assistant) Ask(ctx context.Context, input string) (reply Reply) {
	if strings.TrimSpace(input) == "" {
		return Reply{Kind: ReplyWarning, Message: WarningEmptyInput}
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("assistant.ask.panic", "panic", fmt.Sprint(r))
			reply = errorReply(fmt.Errorf("panic: %v", r))
		}
	}()

	res, err := a.runner.RunSync(ctx, input)
	if err != nil {
		a.logger.Error("assistant.ask.failed", "error", err.Error())
		return errorReply(err)
	}

	return Reply{Kind: ReplySuccess, Output: res.FinalOutput, Agent: res.LastAgent, RunID: res.RunID}
}

func errorReply(err error) Reply {
	return Reply{Kind: ReplyError, Message: "Error: " + err.Error()}
}
