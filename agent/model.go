package agent

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/hupe1980/devcrew/core"
	"github.com/hupe1980/devcrew/flow"
	"github.com/hupe1980/devcrew/model"
	"github.com/hupe1980/devcrew/tool"
)

// ErrUnknownHandoff is returned when a flow transfers to an agent that is
// not among the caller's hand-offs.
var ErrUnknownHandoff = errors.New("unknown hand-off target")

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	Instruction        Instruction
	HandoffDescription string
	Tools              []tool.Tool
	Handoffs           []core.Agent
	EnableStreaming    bool
	ToolTimeout        time.Duration
	MaxHistoryMessages int
}

// ModelAgent integrates with language models to answer requests, call tools
// and hand control to other agents.
//
// ModelAgent embeds BaseAgent for its identity.
type ModelAgent struct {
	BaseAgent                       // Embedded base agent identity
	llm                model.Model  // Language model interface
	instruction        Instruction  // Instructions for the LLM
	tools              []tool.Tool  // Tools in declaration order
	handoffs           []core.Agent // Agents control may be transferred to
	enableStreaming    bool         // Whether to stream responses
	toolTimeout        time.Duration
	maxHistoryMessages int // Maximum number of transcript entries sent to the model
}

// NewModelAgent creates a new model-based agent with sensible defaults:
//   - a generic instruction naming the agent
//   - no tools and no hand-offs
//   - streaming disabled
//   - 60-second tool call timeout
//   - 50-message transcript window
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instruction:        NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		ToolTimeout:        60 * time.Second,
		MaxHistoryMessages: 50,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &ModelAgent{
		BaseAgent:          NewBaseAgent(name, opts.HandoffDescription),
		llm:                llm,
		instruction:        opts.Instruction,
		tools:              slices.Clone(opts.Tools),
		handoffs:           slices.Clone(opts.Handoffs),
		enableStreaming:    opts.EnableStreaming,
		toolTimeout:        opts.ToolTimeout,
		maxHistoryMessages: opts.MaxHistoryMessages,
	}
}

// Info returns the agent identity used in run contexts.
func (a *ModelAgent) Info() core.AgentInfo {
	return core.AgentInfo{Name: a.Name(), Type: "model"}
}

// Instruction returns the agent's instruction.
func (a *ModelAgent) Instruction() Instruction { return a.instruction }

// Tools returns a copy of the agent's tools.
func (a *ModelAgent) Tools() []tool.Tool { return slices.Clone(a.tools) }

// Handoffs returns a copy of the agent's hand-off targets.
func (a *ModelAgent) Handoffs() []core.Agent { return slices.Clone(a.handoffs) }

// GetTool retrieves a specific tool by name.
func (a *ModelAgent) GetTool(name string) (tool.Tool, bool) {
	for _, t := range a.tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// GetName returns the agent's display name.
func (a *ModelAgent) GetName() string { return a.Name() }

// GetLLM returns the language model instance.
func (a *ModelAgent) GetLLM() model.Model { return a.llm }

// GetTools returns the agent's tools in declaration order.
func (a *ModelAgent) GetTools() []tool.Tool { return a.tools }

// HandoffTargets returns name and description of every hand-off target.
func (a *ModelAgent) HandoffTargets() []tool.TransferTarget {
	if len(a.handoffs) == 0 {
		return nil
	}
	targets := make([]tool.TransferTarget, len(a.handoffs))
	for i, h := range a.handoffs {
		targets[i] = tool.TransferTarget{Name: h.Name(), Description: h.Description()}
	}
	return targets
}

// IsStreamingEnabled returns whether streaming responses are enabled.
func (a *ModelAgent) IsStreamingEnabled() bool { return a.enableStreaming }

// MaxHistoryMessages returns the maximum number of transcript entries sent to the model.
func (a *ModelAgent) MaxHistoryMessages() int { return a.maxHistoryMessages }

// ToolTimeout returns the per tool call timeout.
func (a *ModelAgent) ToolTimeout() time.Duration { return a.toolTimeout }

// ResolveInstructions produces the final instruction string (system prompt)
// by resolving static or dynamic instruction sources.
func (a *ModelAgent) ResolveInstructions(runCtx *core.RunContext) (string, error) {
	return a.instruction.Resolve(runCtx)
}

func (a *ModelAgent) handoff(name string) core.Agent {
	for _, h := range a.handoffs {
		if h.Name() == name {
			return h
		}
	}
	return nil
}

// Run implements core.Agent. It executes the selected flow and, when the
// flow requests a transfer, continues the run on the target agent with the
// same transcript.
func (a *ModelAgent) Run(runCtx *core.RunContext) error {
	runCtx = runCtx.ForAgent(a.Info())

	runCtx.LogDebug("agent.run.start", "agent", a.Name())

	fl := flow.NewSelector().SelectFlow(a)

	runCtx.LogDebug("agent.flow.selected", "agent", a.Name(), "flow", fmt.Sprintf("%T", fl))

	res, err := fl.Execute(runCtx)
	if err != nil {
		runCtx.LogError("agent.flow.execute.error", "agent", a.Name(), "error", err.Error())
		return fmt.Errorf("agent %s: %w", a.Name(), err)
	}

	if res.TransferTo == "" {
		runCtx.LogDebug("agent.run.complete", "agent", a.Name())
		return nil
	}

	target := a.handoff(res.TransferTo)
	if target == nil {
		return fmt.Errorf("agent %s: %w: %s", a.Name(), ErrUnknownHandoff, res.TransferTo)
	}

	runCtx.LogInfo("agent.transfer", "from_agent", a.Name(), "to_agent", target.Name())

	return target.Run(runCtx.ForAgent(core.AgentInfo{Name: target.Name(), Type: "model"}))
}
