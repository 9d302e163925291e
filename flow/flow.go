// Package flow provides the execution pipeline of model backed agents.
//
// A flow drives one agent turn by turn: request processors assemble the model
// request, the model is called, tool calls are executed and their responses
// are appended to the transcript until the model answers without tool calls
// or a tool requests a hand-off.
package flow

import (
	"time"

	"github.com/hupe1980/devcrew/core"
	"github.com/hupe1980/devcrew/model"
	"github.com/hupe1980/devcrew/tool"
)

// Flow defines the interface for agent execution flows.
type Flow interface {
	// Execute runs the agent until it produces a final response or requests
	// a transfer. Events are emitted through runCtx.
	Execute(runCtx *core.RunContext) (*Result, error)
}

// Result describes how a flow ended.
type Result struct {
	// Final is the final assistant event. Nil when the flow ended with a transfer.
	Final *core.Event
	// TransferTo names the agent control was handed to, if any.
	TransferTo string
}

// FlowAgent defines the interface that agents must implement to work with flows.
type FlowAgent interface {
	// GetName returns the agent's display name.
	GetName() string

	// GetLLM returns the language model instance.
	GetLLM() model.Model

	ResolveInstructions(runCtx *core.RunContext) (string, error)

	// GetTools returns the agent's tools in declaration order.
	GetTools() []tool.Tool

	// HandoffTargets returns the agents this agent may transfer control to.
	HandoffTargets() []tool.TransferTarget

	// IsStreamingEnabled returns whether streaming responses are enabled.
	IsStreamingEnabled() bool

	// MaxHistoryMessages returns the maximum number of transcript entries sent to the model.
	MaxHistoryMessages() int

	// ToolTimeout bounds a single tool call. Zero disables the bound.
	ToolTimeout() time.Duration
}

// RequestProcessor processes the request before sending it to the LLM.
type RequestProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessRequest modifies the chat request before LLM execution.
	ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error
}

// ResponseProcessor processes the response after receiving it from the LLM.
type ResponseProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessResponse handles the final LLM response before it is emitted.
	ProcessResponse(runCtx *core.RunContext, resp *model.Response, agent FlowAgent) error
}
