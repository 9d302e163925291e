package flow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/devcrew/core"
	"github.com/hupe1980/devcrew/model"
	"github.com/hupe1980/devcrew/tool"
)

// ErrEmptyResponse is returned when the model stream ends without any content.
var ErrEmptyResponse = errors.New("model returned no response")

// BaseFlow is a single-agent flow implementation that supports a
// request -> LLM -> (optional tool loop) cycle with pluggable pre/post processors.
type BaseFlow struct {
	agent              FlowAgent
	executor           FunctionExecutor
	requestProcessors  []RequestProcessor
	responseProcessors []ResponseProcessor
}

// NewBaseFlow creates a new basic single-agent flow.
func NewBaseFlow(agent FlowAgent) *BaseFlow {
	return &BaseFlow{
		agent:              agent,
		executor:           NewParallelFunctionExecutor(FunctionExecutorConfig{PreserveOrder: true, Timeout: agent.ToolTimeout()}),
		requestProcessors:  []RequestProcessor{},
		responseProcessors: []ResponseProcessor{},
	}
}

// AddRequestProcessor appends a request processor; order of registration defines execution order.
func (f *BaseFlow) AddRequestProcessor(processor RequestProcessor) {
	f.requestProcessors = append(f.requestProcessors, processor)
}

// AddResponseProcessor appends a response processor executed on each final model response.
func (f *BaseFlow) AddResponseProcessor(processor ResponseProcessor) {
	f.responseProcessors = append(f.responseProcessors, processor)
}

// SetFunctionExecutor replaces the default parallel executor.
func (f *BaseFlow) SetFunctionExecutor(executor FunctionExecutor) {
	f.executor = executor
}

// Execute runs model turns until the model answers without tool calls or a
// tool requests a transfer. Model errors, limit violations and cancellation
// fail the flow; tool errors are reported back to the model.
func (f *BaseFlow) Execute(runCtx *core.RunContext) (*Result, error) {
	registry := f.toolRegistry()

	for turn := 0; ; turn++ {
		if err := runCtx.Err(); err != nil {
			return nil, err
		}

		ev, err := f.runOnce(runCtx)
		if err != nil {
			return nil, err
		}

		fnCalls := ev.GetFunctionCalls()
		if len(fnCalls) == 0 {
			runCtx.LogDebug("flow.turn.final", "agent", f.agent.GetName(), "turn", turn)
			return &Result{Final: ev}, nil
		}

		var transferTo string
		err = f.executor.Execute(runCtx, f.agent.GetName(), registry, fnCalls, func(respEv core.Event) error {
			if target := respEv.Actions.TransferToAgent; target != nil && transferTo == "" {
				transferTo = *target
			}
			return runCtx.EmitEvent(respEv)
		})
		if err != nil {
			return nil, err
		}

		if transferTo != "" {
			runCtx.LogInfo("flow.transfer", "from_agent", f.agent.GetName(), "to_agent", transferTo, "turn", turn)
			return &Result{TransferTo: transferTo}, nil
		}
	}
}

// toolRegistry indexes the agent tools plus the injected transfer tool.
func (f *BaseFlow) toolRegistry() map[string]tool.Tool {
	tools := f.agent.GetTools()
	registry := make(map[string]tool.Tool, len(tools)+1)
	for _, t := range tools {
		registry[t.Name()] = t
	}
	if targets := f.agent.HandoffTargets(); len(targets) > 0 {
		registry[tool.TransferToAgentToolName] = tool.NewTransferToAgentTool(targets)
	}
	return registry
}

// runOnce performs one model turn and emits the resulting assistant event.
func (f *BaseFlow) runOnce(runCtx *core.RunContext) (*core.Event, error) {
	req := &model.Request{Stream: f.agent.IsStreamingEnabled()}

	for _, processor := range f.requestProcessors {
		if err := processor.ProcessRequest(runCtx, req, f.agent); err != nil {
			return nil, fmt.Errorf("request processor %s failed: %w", processor.Name(), err)
		}
	}

	if err := runCtx.Limiter.Increment(); err != nil {
		runCtx.LogWarn("flow.model.limit", "agent", f.agent.GetName(), "count", runCtx.Limiter.Count())
		return nil, err
	}

	llm := f.agent.GetLLM()
	start := time.Now()

	resp, err := f.generate(runCtx, llm, req)

	info := llm.Info()
	tokens := 0
	if resp != nil && resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}
	runCtx.LogLLMCall(info.Name, tokens, time.Since(start), err, "agent", f.agent.GetName())
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", info.Name, err)
	}

	for _, processor := range f.responseProcessors {
		if err := processor.ProcessResponse(runCtx, resp, f.agent); err != nil {
			return nil, fmt.Errorf("response processor %s failed: %w", processor.Name(), err)
		}
	}

	ev := core.NewEvent(runCtx.RunID, f.agent.GetName())
	content := resp.Content
	if content.Role == "" {
		content.Role = core.RoleAssistant
	}
	ev.Content = &content
	ev.TurnComplete = len(content.FunctionCalls()) == 0

	if err := runCtx.EmitEvent(ev); err != nil {
		return nil, err
	}

	return &ev, nil
}

// generate drains the model channels. Partial chunks are forwarded as
// partial events; the final chunk is returned. A stream that ends with
// partial chunks only is folded into one final response.
func (f *BaseFlow) generate(runCtx *core.RunContext, llm model.Model, req *model.Request) (*model.Response, error) {
	respCh, errCh := llm.Generate(runCtx.Context, *req)

	var (
		final   *model.Response
		partial strings.Builder
	)

	for respCh != nil || errCh != nil {
		select {
		case <-runCtx.Done():
			return nil, runCtx.Err()
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Partial {
				partial.WriteString(resp.Content.Text())
				ev := core.NewEvent(runCtx.RunID, f.agent.GetName())
				c := resp.Content
				ev.Content = &c
				ev.Partial = true
				if err := runCtx.EmitEvent(ev); err != nil {
					return nil, err
				}
				continue
			}
			r := resp
			final = &r
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return nil, err
			}
		}
	}

	if final == nil {
		if partial.Len() == 0 {
			return nil, ErrEmptyResponse
		}
		return &model.Response{Content: core.NewTextContent(core.RoleAssistant, partial.String()), FinishReason: "stop"}, nil
	}

	return final, nil
}
