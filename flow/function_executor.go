package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hupe1980/devcrew/core"
	"github.com/hupe1980/devcrew/tool"
	"golang.org/x/sync/errgroup"
)

// FunctionExecutor runs the function calls of one model turn and emits one
// function response event per call. Tool failures, panics included, become
// error responses for the model. Execute only returns an error for fatal tool
// errors (see tool.IsFatal), cancellation, or a failing emit.
type FunctionExecutor interface {
	Execute(runCtx *core.RunContext, agentName string, tools map[string]tool.Tool, calls []core.FunctionCall, emit func(core.Event) error) error
}

// FunctionExecutorConfig configures the default parallel executor.
type FunctionExecutorConfig struct {
	// MaxParallel bounds concurrent calls; <= 0 runs all calls at once.
	MaxParallel int
	// PreserveOrder emits responses in call order after the whole batch ran.
	PreserveOrder bool
	// Timeout bounds each call; 0 disables it.
	Timeout time.Duration
}

type parallelExecutor struct {
	cfg FunctionExecutorConfig
}

// NewParallelFunctionExecutor returns the default errgroup backed executor.
func NewParallelFunctionExecutor(cfg FunctionExecutorConfig) FunctionExecutor {
	return &parallelExecutor{cfg: cfg}
}

func (e *parallelExecutor) Execute(
	runCtx *core.RunContext,
	agentName string,
	tools map[string]tool.Tool,
	calls []core.FunctionCall,
	emit func(core.Event) error,
) error {
	if len(calls) == 0 {
		return nil
	}

	limit := e.cfg.MaxParallel
	if limit <= 0 || limit > len(calls) {
		limit = len(calls)
	}

	g, gctx := errgroup.WithContext(runCtx.Context)
	g.SetLimit(limit)
	batchCtx := runCtx.WithContext(gctx)

	var (
		mu      sync.Mutex
		ordered = make([]*core.Event, len(calls))
		start   = time.Now()
	)

	for i, fc := range calls {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			ev, err := e.call(batchCtx, agentName, tools, fc)
			if err != nil {
				return err
			}

			if e.cfg.PreserveOrder {
				ordered[i] = &ev
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			return emit(ev)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := runCtx.Err(); err != nil {
		return err
	}

	if e.cfg.PreserveOrder {
		for _, ev := range ordered {
			if err := emit(*ev); err != nil {
				return err
			}
		}
	}

	runCtx.LogDebug("flow.functions.done",
		"agent", agentName,
		"count", len(calls),
		"parallel", limit,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// call executes a single function call. The returned error is fatal for
// the run; every other failure is folded into the response event.
func (e *parallelExecutor) call(runCtx *core.RunContext, agentName string, tools map[string]tool.Tool, fc core.FunctionCall) (core.Event, error) {
	callCtx := runCtx
	if e.cfg.Timeout > 0 {
		ctx, cancel := context.WithTimeout(runCtx.Context, e.cfg.Timeout)
		defer cancel()
		callCtx = runCtx.WithContext(ctx)
	}

	toolCtx := core.NewToolContext(callCtx, fc.ID)
	start := time.Now()

	result, err := safeCall(tools, toolCtx, fc)
	if errors.Is(err, context.DeadlineExceeded) && callCtx != runCtx && runCtx.Err() == nil {
		err = tool.NewToolError(fc.Name, fmt.Sprintf("timed out after %s", e.cfg.Timeout), tool.CodeExecution)
	}

	runCtx.LogToolCall(fc.Name, time.Since(start), err, "agent", agentName, "function_call_id", fc.ID)
	if err != nil && tool.IsFatal(err) {
		return core.Event{}, err
	}

	ev := core.NewFunctionResponseEvent(runCtx.RunID, agentName, fc.ID, fc.Name, result, err)
	toolCtx.ApplyActions(&ev)

	return ev, nil
}

// safeCall resolves the tool, decodes its arguments and invokes it, turning
// a panic into a tool error.
func safeCall(tools map[string]tool.Tool, toolCtx *core.ToolContext, fc core.FunctionCall) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &tool.ToolError{
				Tool:    fc.Name,
				Message: fmt.Sprintf("panic recovered: %v", r),
				Code:    tool.CodeExecution,
				Details: string(debug.Stack()),
			}
		}
	}()

	t, ok := tools[fc.Name]
	if !ok {
		return nil, tool.NewToolError(fc.Name, fmt.Sprintf("tool %s not found", fc.Name), tool.CodeNotFound)
	}

	args := map[string]any{}
	if fc.Arguments != "" {
		if err := json.Unmarshal([]byte(fc.Arguments), &args); err != nil {
			return nil, tool.NewToolError(fc.Name, fmt.Sprintf("invalid arguments: %v", err), tool.CodeValidation)
		}
	}

	return t.Call(toolCtx, args)
}
