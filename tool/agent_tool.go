package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/devcrew/core"
)

// AgentTool exposes an agent as a callable tool. Each call runs the wrapped
// agent to completion on a fresh transcript seeded with the input argument
// and returns the agent's final text. The calling agent keeps control.
type AgentTool struct {
	agent       core.Agent
	name        string
	description string
}

// NewAgentTool wraps agent as a tool with the given name and description.
// An empty description falls back to the agent's own description.
func NewAgentTool(agent core.Agent, name, description string) *AgentTool {
	if description == "" {
		description = agent.Description()
	}
	return &AgentTool{agent: agent, name: name, description: description}
}

// Name returns the tool name.
func (t *AgentTool) Name() string { return t.name }

// Description returns the tool description.
func (t *AgentTool) Description() string { return t.description }

// Kind returns KindAgent.
func (t *AgentTool) Kind() Kind { return KindAgent }

// Agent returns the wrapped agent.
func (t *AgentTool) Agent() core.Agent { return t.agent }

// Parameters returns the schema of the single input argument.
func (t *AgentTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"input": map[string]any{
				"type":        "string",
				"description": "The request to hand to " + t.agent.Name(),
			},
		},
		"required": []string{"input"},
	}
}

// Call runs the nested agent. Cancellation and model call limit errors are
// returned as-is so the surrounding run fails; other failures become tool errors.
func (t *AgentTool) Call(tc *core.ToolContext, args map[string]any) (any, error) {
	input, ok := args["input"].(string)
	if !ok || input == "" {
		return nil, &ToolError{Tool: t.name, Message: "field 'input' must be a non-empty string", Code: CodeValidation}
	}

	parent := tc.RunContext()

	branch := parent.Agent.Name + "." + t.name
	if parent.Branch != "" {
		branch = parent.Branch + "." + t.name
	}

	child := parent.NewChildContext(core.AgentInfo{Name: t.agent.Name(), Type: "agent_tool"}, input, branch)

	start := time.Now()
	tc.LogDebug("tool.agent.start", "tool", t.name, "agent", t.agent.Name(), "branch", branch)

	if err := t.agent.Run(child); err != nil {
		if IsFatal(err) {
			return nil, err
		}
		tc.LogError("tool.agent.error", "tool", t.name, "agent", t.agent.Name(), "error", err.Error())
		return nil, &ToolError{Tool: t.name, Message: err.Error(), Code: CodeExecution}
	}

	out, ok := child.Transcript.LastText()
	if !ok {
		return nil, &ToolError{Tool: t.name, Message: fmt.Sprintf("agent %s produced no output", t.agent.Name()), Code: CodeExecution}
	}

	tc.LogInfo("tool.agent.success", "tool", t.name, "agent", t.agent.Name(), "duration_ms", time.Since(start).Milliseconds())

	return out, nil
}

// IsFatal reports whether a tool error must abort the run instead of being
// reported back to the model.
func IsFatal(err error) bool {
	return errors.Is(err, core.ErrModelCallLimit) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
